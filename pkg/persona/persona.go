// Package persona picks the browser identity (user agent and window size)
// presented by a scraping session.
package persona

import (
	"crypto/rand"
	"math/big"
	"sync/atomic"
)

// DefaultUserAgents are current desktop browser user agents.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

// Viewport is a browser window size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// DefaultViewports are common desktop resolutions.
var DefaultViewports = []Viewport{
	{Width: 1920, Height: 1080},
	{Width: 1366, Height: 768},
	{Width: 1536, Height: 864},
	{Width: 1440, Height: 900},
}

// Persona is one browser identity.
type Persona struct {
	UserAgent string
	Viewport  Viewport
}

// Pool hands out personas. It is safe for concurrent use.
type Pool struct {
	uas       []string
	viewports []Viewport
	counter   atomic.Uint64
}

// NewPool copies the given user agents and viewports, falling back to the
// defaults for an empty slice.
func NewPool(uas []string, viewports []Viewport) *Pool {
	if len(uas) == 0 {
		uas = DefaultUserAgents
	}
	if len(viewports) == 0 {
		viewports = DefaultViewports
	}
	return &Pool{
		uas:       append([]string(nil), uas...),
		viewports: append([]Viewport(nil), viewports...),
	}
}

// Random returns a persona with an independently chosen user agent and
// viewport.
func (p *Pool) Random() Persona {
	return Persona{
		UserAgent: p.uas[p.index(len(p.uas))],
		Viewport:  p.viewports[p.index(len(p.viewports))],
	}
}

// NextUserAgent returns user agents in round-robin order.
func (p *Pool) NextUserAgent() string {
	idx := p.counter.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

// UserAgents returns a copy of the pool's user agents.
func (p *Pool) UserAgents() []string {
	return append([]string(nil), p.uas...)
}

func (p *Pool) index(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return int((p.counter.Add(1) - 1) % uint64(n))
	}
	return int(v.Int64())
}
