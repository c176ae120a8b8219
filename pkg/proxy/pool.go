// Package proxy rotates through a list of proxy endpoints, benching the ones
// that keep failing.
package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrUnknownProxy is returned when marking a proxy the pool does not hold.
var ErrUnknownProxy = errors.New("proxy not in pool")

// Proxy is one endpoint and its health record.
type Proxy struct {
	URL           *url.URL
	Failures      int
	Successes     int
	LastUsed      time.Time
	DisabledUntil time.Time
}

func (p *Proxy) benched(now time.Time) bool {
	return now.Before(p.DisabledUntil)
}

// Config defines settings for the Pool.
type Config struct {
	// MaxFailures benches a proxy once reached. Defaults to 3.
	MaxFailures int
	// Cooldown is how long a benched proxy sits out. Defaults to 5 minutes.
	Cooldown time.Duration
}

// Pool hands out proxies round-robin. It is safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	proxies []*Proxy
	next    int
	cfg     Config
	now     func() time.Time
}

// NewPool creates an empty pool.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{cfg: cfg, now: time.Now}
}

// LoadFile adds one proxy per line of path, skipping blanks and # comments.
func (p *Pool) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open proxy list: %w", err)
	}
	defer f.Close()

	var raws []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raws = append(raws, line)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read proxy list: %w", err)
	}
	return p.Add(raws...)
}

// Add parses and appends proxies. A missing scheme defaults to http.
func (p *Pool) Add(raws ...string) error {
	parsed := make([]*Proxy, 0, len(raws))
	for _, raw := range raws {
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse proxy %q: %w", raw, err)
		}
		if u.Host == "" {
			return fmt.Errorf("parse proxy %q: missing host", raw)
		}
		parsed = append(parsed, &Proxy{URL: u})
	}

	p.mu.Lock()
	p.proxies = append(p.proxies, parsed...)
	p.mu.Unlock()
	return nil
}

// Len returns the number of proxies, benched or not.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

// Next returns the next proxy that is not benched, or nil when none is
// available. A proxy whose cooldown has passed returns with a clean record.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for range p.proxies {
		prx := p.proxies[p.next]
		p.next = (p.next + 1) % len(p.proxies)

		if prx.benched(now) {
			continue
		}
		if !prx.DisabledUntil.IsZero() {
			prx.DisabledUntil = time.Time{}
			prx.Failures = 0
		}
		prx.LastUsed = now
		return prx.URL
	}
	return nil
}

// MarkSuccess credits a proxy and forgives one failure.
func (p *Pool) MarkSuccess(u *url.URL) error {
	return p.update(u, func(prx *Proxy) {
		prx.Successes++
		if prx.Failures > 0 {
			prx.Failures--
		}
	})
}

// MarkFailure records a failure, benching the proxy at MaxFailures.
func (p *Pool) MarkFailure(u *url.URL) error {
	return p.update(u, func(prx *Proxy) {
		prx.Failures++
		if prx.Failures >= p.cfg.MaxFailures {
			prx.DisabledUntil = p.now().Add(p.cfg.Cooldown)
		}
	})
}

func (p *Pool) update(u *url.URL, fn func(*Proxy)) error {
	if u == nil {
		return fmt.Errorf("%w: nil url", ErrUnknownProxy)
	}
	target := u.String()

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, prx := range p.proxies {
		if prx.URL.String() == target {
			fn(prx)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownProxy, u.Redacted())
}
