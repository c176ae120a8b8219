package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsServer(t *testing.T) {
	srv := Start(8889, nil)
	defer srv.Stop(context.Background())

	RecordNavigation("bing", 1500*time.Millisecond, nil)
	RecordLead("Bing Search")
	RecordChallenge("google", "google-sorry")

	var (
		resp *http.Response
		err  error
	)
	for i := 0; i < 20; i++ {
		resp, err = http.Get("http://localhost:8889/metrics")
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	output := string(body)

	for _, want := range []string{
		`leadscout_navigations_total{engine="bing",outcome="ok"}`,
		`leadscout_navigation_duration_seconds_bucket`,
		`leadscout_leads_total{source="Bing Search"}`,
		`leadscout_challenges_total{engine="google",vendor="google-sorry"}`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in metrics output", want)
		}
	}
}

func TestRecordNavigation_Outcomes(t *testing.T) {
	RecordNavigation("yandex", time.Second, context.DeadlineExceeded)
	RecordNavigation("yandex", time.Second, errors.New("net::ERR_NAME_NOT_RESOLVED"))

	if got := testutil.ToFloat64(Navigations.WithLabelValues("yandex", OutcomeTimeout)); got != 1 {
		t.Errorf("timeout count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(Navigations.WithLabelValues("yandex", OutcomeError)); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestRecordChallenge_UnknownVendor(t *testing.T) {
	RecordChallenge("duckduckgo", "")
	if got := testutil.ToFloat64(Challenges.WithLabelValues("duckduckgo", "unknown")); got != 1 {
		t.Errorf("unknown vendor count = %v, want 1", got)
	}
}

func TestStop_NilServer(t *testing.T) {
	var s *Server
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
