// Package chrome implements the browser capability on top of a local
// Chromium driven through chromedp.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/emulation"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/FranksOps/leadscout/internal/browser"
)

// DefaultArgs are the switches every launch receives.
var DefaultArgs = []string{
	"disable-blink-features=AutomationControlled",
	"disable-dev-shm-usage",
	"no-sandbox",
	"disable-setuid-sandbox",
	"disable-web-security",
}

// StealthScript runs before any page script when a session asks for
// stealth.
const StealthScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// Launcher starts a local Chromium.
type Launcher struct {
	// ExecPath overrides the Chromium binary lookup.
	ExecPath string
	Logger   *slog.Logger
}

// Launch starts the browser process and waits for it to accept commands.
func (l Launcher) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Browser, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	for _, arg := range append(append([]string(nil), DefaultArgs...), opts.Args...) {
		name, value := splitArg(arg)
		allocOpts = append(allocOpts, chromedp.Flag(name, value))
	}
	if opts.ProxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.ProxyServer))
	}
	if l.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	rootCtx, cancelRoot := chromedp.NewContext(allocCtx, chromedp.WithErrorf(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
	}))

	if err := chromedp.Run(rootCtx); err != nil {
		cancelRoot()
		cancelAlloc()
		return nil, fmt.Errorf("start chromium: %w", err)
	}

	logger.Info("browser launched", "headless", opts.Headless, "proxy", opts.ProxyServer != "")
	return &Browser{
		ctx:         rootCtx,
		cancelRoot:  cancelRoot,
		cancelAlloc: cancelAlloc,
		logger:      logger,
	}, nil
}

func splitArg(arg string) (string, any) {
	for i := 0; i < len(arg); i++ {
		if arg[i] == '=' {
			return arg[:i], arg[i+1:]
		}
	}
	return arg, true
}

// Browser is a running Chromium process.
type Browser struct {
	ctx         context.Context
	cancelRoot  context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *slog.Logger

	closeOnce sync.Once
}

// NewSession returns a session whose pages share the given identity.
func (b *Browser) NewSession(ctx context.Context, opts browser.SessionOptions) (browser.Session, error) {
	if b.ctx.Err() != nil {
		return nil, browser.ErrClosed
	}
	return &Session{browser: b, opts: opts}, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (b *Browser) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = chromedp.Cancel(b.ctx)
		b.cancelRoot()
		b.cancelAlloc()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Session opens tabs in the browser and applies its identity to each.
type Session struct {
	browser *Browser
	opts    browser.SessionOptions

	mu     sync.Mutex
	pages  []*Page
	closed bool
}

// NewPage opens a tab with the session's emulation settings applied.
func (s *Session) NewPage(ctx context.Context) (browser.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.browser.ctx.Err() != nil {
		return nil, browser.ErrClosed
	}

	tabCtx, cancel := chromedp.NewContext(s.browser.ctx)
	p := &Page{ctx: tabCtx, cancel: cancel, logger: s.browser.logger}

	// The first Run on a chromedp context creates the target and binds its
	// lifetime to that context, so it must use tabCtx itself.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, p.wrap(fmt.Errorf("open tab: %w", err))
	}

	runCtx, done := p.bind(ctx, 0)
	defer done()
	for _, action := range s.setup() {
		if err := chromedp.Run(runCtx, action); err != nil {
			if p.IsClosed() {
				cancel()
				return nil, p.wrap(err)
			}
			s.browser.logger.Debug("tab emulation setting rejected", "err", err)
		}
	}

	s.trackLocked(p)
	return p, nil
}

// trackLocked records p as open until it closes. s.mu must be held.
func (s *Session) trackLocked(p *Page) {
	p.onClose = func() { s.untrack(p) }
	s.pages = append(s.pages, p)
}

func (s *Session) untrack(p *Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = slices.DeleteFunc(s.pages, func(q *Page) bool { return q == p })
}

func (s *Session) setup() []chromedp.Action {
	o := s.opts
	var actions []chromedp.Action

	if o.UserAgent != "" {
		ua := emulation.SetUserAgentOverride(o.UserAgent)
		if o.AcceptLanguage != "" {
			ua = ua.WithAcceptLanguage(o.AcceptLanguage)
		}
		actions = append(actions, ua)
	}
	if o.Viewport.Width > 0 && o.Viewport.Height > 0 {
		actions = append(actions, emulation.SetDeviceMetricsOverride(int64(o.Viewport.Width), int64(o.Viewport.Height), 1, false))
	}
	if o.Locale != "" {
		actions = append(actions, emulation.SetLocaleOverride().WithLocale(o.Locale))
	}
	if o.Timezone != "" {
		actions = append(actions, emulation.SetTimezoneOverride(o.Timezone))
	}
	if o.Geolocation != nil {
		actions = append(actions, emulation.SetGeolocationOverride().
			WithLatitude(o.Geolocation.Latitude).
			WithLongitude(o.Geolocation.Longitude).
			WithAccuracy(1))
	}
	if len(o.Permissions) > 0 {
		perms := make([]cdpbrowser.PermissionType, 0, len(o.Permissions))
		for _, name := range o.Permissions {
			perms = append(perms, cdpbrowser.PermissionType(name))
		}
		actions = append(actions, cdpbrowser.GrantPermissions(perms))
	}
	if o.Stealth {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := cdppage.AddScriptToEvaluateOnNewDocument(StealthScript).Do(ctx)
			return err
		}))
	}
	return actions
}

// Close closes every tab the session opened.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	pages := s.pages
	s.pages = nil
	s.mu.Unlock()

	for _, p := range pages {
		_ = p.Close()
	}
	return nil
}
