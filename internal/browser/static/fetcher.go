package static

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/leadscout/internal/bypass"
	"github.com/FranksOps/leadscout/internal/fingerprint"
	"github.com/FranksOps/leadscout/internal/metrics"
	"github.com/FranksOps/leadscout/pkg/httpclient"
	"github.com/FranksOps/leadscout/pkg/persona"
	"github.com/FranksOps/leadscout/pkg/proxy"
	"github.com/FranksOps/leadscout/pkg/ratelimit"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// maxBodySize caps how much of a response is kept.
const maxBodySize = 8 << 20

// FetchConfig configures a Fetcher.
type FetchConfig struct {
	Timeout        time.Duration
	MaxRedirects   int
	UseCookieJar   bool
	ProxyPool      *proxy.Pool
	Personas       *persona.Pool
	AcceptLanguage string
	Fingerprint    fingerprint.Profile
	// Limiter, when set, gates every fetch.
	Limiter *ratelimit.Limiter
}

// Response is the outcome of one fetch. Transport failures are reported in
// Error rather than as a Go error so callers can still log what was tried.
type Response struct {
	ID         string
	URL        string
	FinalURL   string
	StatusCode int
	Headers    map[string][]string
	Body       []byte
	Duration   time.Duration
	Challenged bool
	Vendor     string
	Error      string
}

// Fetcher performs GET requests through a fingerprinted transport, rotating
// proxies and user agents. A single client is shared so cookies persist for
// the Fetcher's lifetime.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
}

// NewFetcher builds the transport and client once.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Personas == nil {
		cfg.Personas = persona.NewPool(nil, nil)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = "en-US,en;q=0.5"
	}

	// The proxy is chosen per request and carried on the request context.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if u, ok := req.Context().Value(proxyKey).(*url.URL); ok && u != nil {
			return u, nil
		}
		if req.URL.Hostname() == "127.0.0.1" || req.URL.Hostname() == "localhost" {
			return nil, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
		Header: http.Header{
			"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
			"Accept-Language": {cfg.AcceptLanguage},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &Fetcher{config: cfg, client: client}, nil
}

// Fetch requests targetURL with a rotating user agent.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Response, error) {
	return f.FetchAs(ctx, targetURL, "")
}

// FetchAs requests targetURL with the given user agent, or a rotating one
// when userAgent is empty.
func (f *Fetcher) FetchAs(ctx context.Context, targetURL, userAgent string) (*Response, error) {
	res := &Response{
		ID:  uuid.New().String(),
		URL: targetURL,
	}

	if f.config.Limiter != nil {
		if err := f.config.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		res.Error = fmt.Sprintf("create request: %v", err)
		return res, nil
	}

	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		if activeProxy = f.config.ProxyPool.Next(); activeProxy != nil {
			req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
		}
	}

	if userAgent == "" {
		userAgent = f.config.Personas.NextUserAgent()
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.ProxyPool.MarkFailure(activeProxy)
			metrics.ProxyFailures.WithLabelValues(activeProxy.Host).Inc()
		}
		res.Error = fmt.Sprintf("request failed: %v", err)
		res.Duration = time.Since(start)
		return res, nil
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = f.config.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		res.Error = fmt.Sprintf("read body: %v", err)
	}

	res.FinalURL = resp.Request.URL.String()
	res.StatusCode = resp.StatusCode
	res.Headers = resp.Header
	res.Body = body
	res.Duration = time.Since(start)

	snap := &bypass.Snapshot{URL: res.FinalURL, StatusCode: res.StatusCode, Headers: res.Headers, Body: res.Body}
	bypass.Analyze(snap, bypass.DefaultDetectors())
	res.Challenged, res.Vendor = snap.Challenged, snap.Vendor

	return res, nil
}
