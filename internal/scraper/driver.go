// Package scraper drives a browser through a scrape source and turns what it
// finds into leads. Three adapters share the plumbing here: Dork for search
// engines, Maps for Google Maps listings and Directory for the regional
// business directories.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/FranksOps/leadscout/internal/browser"
	"github.com/FranksOps/leadscout/internal/bypass"
	"github.com/FranksOps/leadscout/internal/config"
	"github.com/FranksOps/leadscout/internal/lead"
	"github.com/FranksOps/leadscout/internal/metrics"
	"github.com/FranksOps/leadscout/internal/serp"
	"github.com/FranksOps/leadscout/pkg/persona"
	"github.com/FranksOps/leadscout/pkg/ratelimit"
)

// Session identity defaults.
const (
	AcceptLanguage = "en-US,en;q=0.9"
	Locale         = "en-US"
	Timezone       = "Asia/Dhaka"
)

// DhakaGeolocation is the emulated device position.
var DhakaGeolocation = browser.Geolocation{Latitude: 23.8103, Longitude: 90.4125}

// Env is what an adapter needs besides the search itself.
type Env struct {
	Browser  browser.Browser
	Personas *persona.Pool
	// Limiter gates every navigation. Nil disables the gate.
	Limiter *ratelimit.Limiter
	Retry   ratelimit.RetryPolicy
	Timing  Timing
	// Robots, when set, is consulted before each directory is visited.
	Robots *RobotsTxtAuditor
	Logger *slog.Logger
}

// Result is what one adapter run collected. Leads are raw; cleaning happens
// afterwards.
type Result struct {
	Leads []lead.Lead
	// Pages counts result pages or scroll iterations that were read.
	Pages int
	// Challenges counts anti-bot challenges by vendor.
	Challenges map[string]int
}

// Adapter scrapes one source. Run returns an error only when it could not
// start; once scraping begins, failures end the run early and whatever was
// collected is returned.
type Adapter interface {
	Name() string
	Run(ctx context.Context, env Env, cfg config.SearchConfig) (Result, error)
}

// For returns the adapter for a search type.
func For(t config.SearchType) (Adapter, error) {
	switch {
	case t == config.TypeMaps:
		return &Maps{}, nil
	case t == config.TypeBangladesh:
		return &Directory{}, nil
	case t.IsSearchEngine():
		e, err := serp.ForType(t)
		if err != nil {
			return nil, err
		}
		return NewDork(e), nil
	}
	return nil, fmt.Errorf("%w: no adapter for %q", config.ErrInvalid, t)
}

// run is the per-adapter-run state: the result accumulator and the helpers
// every adapter uses to navigate.
type run struct {
	env    Env
	name   string
	logger *slog.Logger

	userAgent  string
	leads      []lead.Lead
	pages      int
	challenges map[string]int
}

func newRun(env Env, name string) *run {
	if env.Logger == nil {
		env.Logger = slog.Default()
	}
	if env.Personas == nil {
		env.Personas = persona.NewPool(nil, nil)
	}
	return &run{
		env:        env,
		name:       name,
		logger:     env.Logger.With("adapter", name),
		challenges: make(map[string]int),
	}
}

func (r *run) result() Result {
	return Result{Leads: r.leads, Pages: r.pages, Challenges: r.challenges}
}

// recover turns a panic inside an adapter into an early return with the
// partial result.
func (r *run) recover(res *Result, err *error) {
	if p := recover(); p != nil {
		r.logger.Error("adapter aborted", "panic", p, "collected", len(r.leads))
		*res, *err = r.result(), nil
	}
}

// open starts a session with a random persona and its first page.
func (r *run) open(ctx context.Context, stealth bool) (browser.Session, browser.Page, error) {
	if r.env.Browser == nil {
		return nil, nil, fmt.Errorf("%s: no browser", r.name)
	}
	p := r.env.Personas.Random()
	r.userAgent = p.UserAgent
	geo := DhakaGeolocation

	sess, err := r.env.Browser.NewSession(ctx, browser.SessionOptions{
		UserAgent:      p.UserAgent,
		AcceptLanguage: AcceptLanguage,
		Viewport:       browser.Viewport{Width: p.Viewport.Width, Height: p.Viewport.Height},
		Locale:         Locale,
		Timezone:       Timezone,
		Geolocation:    &geo,
		Permissions:    []string{"geolocation"},
		Stealth:        stealth,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: new session: %w", r.name, err)
	}
	page, err := sess.NewPage(ctx)
	if err != nil {
		sess.Close()
		return nil, nil, fmt.Errorf("%s: new page: %w", r.name, err)
	}
	r.logger.Info("browser session ready", "user_agent", p.UserAgent, "viewport", fmt.Sprintf("%dx%d", p.Viewport.Width, p.Viewport.Height))
	return sess, page, nil
}

func (r *run) gate(ctx context.Context) error {
	if r.env.Limiter == nil {
		return nil
	}
	return r.env.Limiter.Wait(ctx)
}

// navigate loads target through the gate. With retry set, failures are
// retried under the run's policy; a closed page is never retried.
func (r *run) navigate(ctx context.Context, p browser.Page, target string, wait browser.WaitUntil, timeout time.Duration, retry bool) error {
	policy := r.env.Retry
	policy.Logger = r.logger
	if !retry {
		policy.Attempts = 1
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	return ratelimit.Retry(ctx, policy, func(ctx context.Context) error {
		if err := r.gate(ctx); err != nil {
			return err
		}
		start := time.Now()
		err := p.Goto(ctx, target, wait, timeout)
		metrics.RecordNavigation(r.name, time.Since(start), err)
		if errors.Is(err, browser.ErrClosed) {
			cancel(err)
		}
		return err
	})
}

// fatal reports whether err or the page state means the run cannot go on.
func (r *run) fatal(ctx context.Context, p browser.Page, err error) bool {
	return ctx.Err() != nil || errors.Is(err, browser.ErrClosed) || (p != nil && p.IsClosed())
}

// inspect looks for an anti-bot challenge on the current page. Detection is
// reported, never acted on.
func (r *run) inspect(ctx context.Context, p browser.Page, vendor string, selectors ...string) {
	challenged, by := bypass.Inspect(ctx, p, vendor, selectors...)
	if !challenged {
		return
	}
	r.challenges[by]++
	metrics.RecordChallenge(r.name, by)
	u, _ := p.URL(ctx)
	r.logger.Warn("anti-bot challenge detected; try another engine or run headed", "vendor", by, "url", u)
}

func (r *run) full(limit int) bool {
	return len(r.leads) >= limit
}

func (r *run) add(l lead.Lead) {
	r.leads = append(r.leads, l)
	metrics.RecordLead(l.Source)
	r.logger.Info("lead", "name", l.BusinessName, "email", l.Email, "phone", l.PhoneNumber, "total", len(r.leads))
}

// skip records a per-element failure.
func (r *run) skip(what string, err error) {
	metrics.RecordElementFailure(r.name)
	r.logger.Debug("skipping element", "what", what, "err", err)
}

// resolve makes href absolute against base. Unparseable input is returned
// unchanged.
func resolve(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
