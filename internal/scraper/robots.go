package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"

	"github.com/FranksOps/leadscout/internal/browser/static"
)

// RobotsTxtAuditor fetches and caches robots.txt per host.
type RobotsTxtAuditor struct {
	fetcher *static.Fetcher
	logger  *slog.Logger
	mu      sync.Mutex
	cache   map[string]*robotstxt.RobotsData
}

// NewRobotsTxtAuditor creates a new instance.
func NewRobotsTxtAuditor(fetcher *static.Fetcher, logger *slog.Logger) *RobotsTxtAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsTxtAuditor{
		fetcher: fetcher,
		logger:  logger,
		cache:   make(map[string]*robotstxt.RobotsData),
	}
}

// IsAllowed reports whether userAgent may fetch targetURL. A robots.txt that
// cannot be fetched or parsed allows everything.
func (r *RobotsTxtAuditor) IsAllowed(ctx context.Context, targetURL, userAgent string) (bool, error) {
	u, err := url.Parse(targetURL)
	if err != nil || u.Host == "" {
		return false, fmt.Errorf("invalid url %q", targetURL)
	}

	data, err := r.get(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		r.logger.Debug("robots.txt unavailable, allowing", "host", u.Host, "err", err)
		return true, nil
	}
	if data == nil {
		return true, nil
	}
	return data.TestAgent(u.RequestURI(), userAgent), nil
}

func (r *RobotsTxtAuditor) get(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.cache[origin]; ok {
		return data, nil
	}

	res, err := r.fetcher.Fetch(ctx, origin+"/robots.txt")
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	if res.Error != "" {
		r.cache[origin] = nil
		return nil, fmt.Errorf("fetch robots.txt: %s", res.Error)
	}

	data, err := robotstxt.FromStatusAndBytes(res.StatusCode, res.Body)
	if err != nil {
		r.cache[origin] = nil
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	r.cache[origin] = data
	return data, nil
}
