package serp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/FranksOps/leadscout/internal/browser"
	"github.com/FranksOps/leadscout/internal/browser/static"
	"github.com/FranksOps/leadscout/internal/config"
)

const bingPage = `<html><body>
<ol id="b_results">
  <li class="b_algo"><h2>Acme Plumbing</h2><h3>Acme on Facebook</h3>
    <a href="https://acme.example.org/contact">acme</a>
    <p>Email sales@acme.com or call (555) 123-4567</p></li>
  <li class="b_algo"><h2>Second</h2><p>nothing here</p></li>
</ol>
<a class="sb_pagNext" href="/search?q=x&first=11">Next</a>
</body></html>`

func openPage(t *testing.T, html string) browser.Page {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}))
	t.Cleanup(ts.Close)

	ctx := context.Background()
	b, err := static.Launcher{}.Launch(ctx, browser.LaunchOptions{})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	s, err := b.NewSession(ctx, browser.SessionOptions{})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	p, err := s.NewPage(ctx)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if err := p.Goto(ctx, ts.URL+"/search?q=x", browser.WaitDOMContentLoaded, 0); err != nil {
		t.Fatalf("goto: %v", err)
	}
	return p
}

func TestBuildSearchURL(t *testing.T) {
	tests := []struct {
		engine Engine
		want   string
	}{
		{Yahoo(), "https://search.yahoo.com/search?p=dentist+%40gmail.com"},
		{Bing(), "https://www.bing.com/search?q=dentist+%40gmail.com"},
		{Google(), "https://www.google.com/search?q=dentist+%40gmail.com"},
		{DuckDuckGo(), "https://duckduckgo.com/?q=dentist+%40gmail.com&ia=web"},
		{Yandex(), "https://yandex.com/search/?text=dentist+%40gmail.com"},
	}
	for _, tt := range tests {
		if got := tt.engine.BuildSearchURL(" dentist @gmail.com "); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.engine.Name(), got, tt.want)
		}
	}
}

func TestNextPageURL(t *testing.T) {
	tests := []struct {
		engine  Engine
		current string
		page    int
		param   string
		want    string
	}{
		{Yahoo(), "https://search.yahoo.com/search?p=x", 1, "b", "10"},
		{Yahoo(), "https://search.yahoo.com/search?p=x&b=10", 2, "b", "20"},
		{Bing(), "https://www.bing.com/search?q=x", 1, "first", "11"},
		{Bing(), "https://www.bing.com/search?q=x&first=11", 2, "first", "21"},
		{Google(), "https://www.google.com/search?q=x", 1, "start", "10"},
		{Google(), "https://www.google.com/search?q=x&start=10", 2, "start", "20"},
		{DuckDuckGo(), "https://duckduckgo.com/?q=x&ia=web", 1, "s", "20"},
		{DuckDuckGo(), "https://duckduckgo.com/?q=x&ia=web&s=20", 2, "s", "40"},
		{Yandex(), "https://yandex.com/search/?text=x", 1, "p", "1"},
		{Yandex(), "https://yandex.com/search/?text=x&p=1", 2, "p", "2"},
	}
	for _, tt := range tests {
		got, ok := tt.engine.NextPageURL(tt.current, tt.page)
		if !ok {
			t.Fatalf("%s: NextPageURL(%q) failed", tt.engine.Name(), tt.current)
		}
		if !strings.Contains(got, tt.param+"="+tt.want) {
			t.Errorf("%s page %d: got %q, want %s=%s", tt.engine.Name(), tt.page, got, tt.param, tt.want)
		}
	}

	if _, ok := Bing().NextPageURL("about:blank", 1); ok {
		t.Error("expected failure for a URL without host")
	}
}

func TestBing_ResultBlocks(t *testing.T) {
	p := openPage(t, bingPage)
	ctx := context.Background()
	bing := Bing()

	blocks, err := bing.LocateResultBlocks(ctx, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}

	if got := bing.ExtractTitle(ctx, blocks[0], config.TargetEmail); got != "Acme Plumbing" {
		t.Errorf("email title = %q", got)
	}
	if got := bing.ExtractTitle(ctx, blocks[0], config.TargetProfile); got != "Acme on Facebook" {
		t.Errorf("profile title = %q", got)
	}
	if got := bing.ExtractTitle(ctx, blocks[1], config.TargetProfile); got != "" {
		t.Errorf("missing title = %q, want empty", got)
	}

	text, err := bing.ExtractRawText(ctx, blocks[0])
	if err != nil {
		t.Fatalf("raw text: %v", err)
	}
	if !strings.Contains(text, "sales@acme.com") {
		t.Errorf("raw text missing email: %q", text)
	}

	next, err := bing.LocateNextControl(ctx, p)
	if err != nil || next == nil {
		t.Fatalf("expected next control, got %v, %v", next, err)
	}
}

func TestLocateNextControl_None(t *testing.T) {
	p := openPage(t, `<html><body><div class="g">only</div></body></html>`)
	next, err := Google().LocateNextControl(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Fatal("expected no next control")
	}
}

func TestIsOwnLink(t *testing.T) {
	y := Yahoo()
	if !y.IsOwnLink("https://r.search.yahoo.com/_ylt=abc") {
		t.Error("expected yahoo link to be own")
	}
	if y.IsOwnLink("https://acme.com/yahoo") {
		t.Error("path mentioning the engine should not count")
	}
}

func TestForType(t *testing.T) {
	for _, st := range []config.SearchType{config.TypeYahoo, config.TypeBing, config.TypeGoogle, config.TypeDuckDuckGo, config.TypeYandex} {
		e, err := ForType(st)
		if err != nil {
			t.Fatalf("ForType(%s): %v", st, err)
		}
		if !strings.HasPrefix(string(st), e.Name()) {
			t.Errorf("ForType(%s) returned %s", st, e.Name())
		}
	}
	if _, err := ForType(config.TypeMaps); err == nil {
		t.Error("expected error for maps")
	}
}

func TestCaptchaAndScroll(t *testing.T) {
	if len(Google().CaptchaSelectors()) != 1 || len(Yandex().CaptchaSelectors()) != 3 {
		t.Error("unexpected captcha selectors")
	}
	if Yandex().HumanScroll() || !Bing().HumanScroll() {
		t.Error("only Yandex skips the human scroll")
	}
}

func TestUnwrapRedirect(t *testing.T) {
	tests := map[string]string{
		"/url?q=https://acme.com/about&sa=U":                                             "https://acme.com/about",
		"https://duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.facebook.com%2Facme&rut=x":     "https://www.facebook.com/acme",
		"https://r.search.yahoo.com/_ylt=A0/RU=https%3a%2f%2fwww.acme.com%2f/RK=2/RS=xy": "https://www.acme.com/",
		"https://plain.example.org/page":                                                 "https://plain.example.org/page",
		"/url?q=javascript:alert(1)":                                                     "/url?q=javascript:alert(1)",
	}
	for in, want := range tests {
		if got := UnwrapRedirect(in); got != want {
			t.Errorf("UnwrapRedirect(%q) = %q, want %q", in, got, want)
		}
	}
}
