// Package static implements the browser capability without a browser: pages
// are fetched over HTTP and queried with goquery. Scripts never run, so
// Evaluate is unsupported and clicks only follow links.
package static

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/leadscout/internal/browser"
	"github.com/FranksOps/leadscout/pkg/proxy"
)

// Launcher creates static browsers sharing one fetch configuration.
type Launcher struct {
	Config FetchConfig
	Logger *slog.Logger
}

// Launch builds the fetcher. A proxy server in opts is used when the config
// carries no proxy pool of its own.
func (l Launcher) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Browser, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := l.Config
	if cfg.ProxyPool == nil && opts.ProxyServer != "" {
		cfg.ProxyPool = proxy.NewPool(proxy.Config{})
		if err := cfg.ProxyPool.Add(opts.ProxyServer); err != nil {
			return nil, fmt.Errorf("proxy %q: %w", opts.ProxyServer, err)
		}
	}

	f, err := NewFetcher(cfg)
	if err != nil {
		return nil, err
	}
	return &Browser{fetcher: f, logger: logger}, nil
}

// Browser is a set of sessions over one Fetcher.
type Browser struct {
	fetcher *Fetcher
	logger  *slog.Logger
	closed  atomic.Bool
}

// NewBrowser wraps an existing fetcher.
func NewBrowser(f *Fetcher, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{fetcher: f, logger: logger}
}

// NewSession returns a session that sends the configured user agent.
func (b *Browser) NewSession(ctx context.Context, opts browser.SessionOptions) (browser.Session, error) {
	if b.closed.Load() {
		return nil, browser.ErrClosed
	}
	return &Session{browser: b, userAgent: opts.UserAgent}, nil
}

// Close invalidates every session and page.
func (b *Browser) Close() error {
	b.closed.Store(true)
	return nil
}

// Session hands out pages.
type Session struct {
	browser   *Browser
	userAgent string
	closed    atomic.Bool
}

// NewPage returns a blank page.
func (s *Session) NewPage(ctx context.Context) (browser.Page, error) {
	if s.closed.Load() || s.browser.closed.Load() {
		return nil, browser.ErrClosed
	}
	return &Page{session: s}, nil
}

// Close invalidates the session's pages.
func (s *Session) Close() error {
	s.closed.Store(true)
	return nil
}

// Page holds the last fetched document.
type Page struct {
	session *Session

	mu     sync.RWMutex
	url    string
	doc    *goquery.Document
	closed bool
}

// Goto fetches url and parses it. HTTP error statuses still load the body,
// as a browser would show them; only transport failures are errors.
func (p *Page) Goto(ctx context.Context, rawURL string, _ browser.WaitUntil, timeout time.Duration) error {
	if p.IsClosed() {
		return browser.ErrClosed
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := p.session.browser.fetcher.FetchAs(ctx, rawURL, p.session.userAgent)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	if res.Error != "" {
		return fmt.Errorf("navigate %s: %s", rawURL, res.Error)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return fmt.Errorf("parse %s: %w", rawURL, err)
	}

	final := res.FinalURL
	if final == "" {
		final = rawURL
	}
	if u, err := url.Parse(final); err == nil {
		doc.Url = u
	}

	p.mu.Lock()
	p.url, p.doc = final, doc
	p.mu.Unlock()

	if res.Challenged {
		p.session.browser.logger.Debug("challenge page fetched", "url", final, "vendor", res.Vendor)
	}
	return nil
}

// URL returns the address of the loaded document.
func (p *Page) URL(ctx context.Context) (string, error) {
	if p.IsClosed() {
		return "", browser.ErrClosed
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url, nil
}

// WaitForLoadState returns immediately; a fetched document is complete.
func (p *Page) WaitForLoadState(ctx context.Context, _ browser.WaitUntil, _ time.Duration) error {
	if p.IsClosed() {
		return browser.ErrClosed
	}
	return ctx.Err()
}

func (p *Page) document() (*goquery.Document, error) {
	if p.IsClosed() {
		return nil, browser.ErrClosed
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc, nil
}

// QuerySelector returns the first match or nil. Selectors goquery cannot
// parse match nothing.
func (p *Page) QuerySelector(ctx context.Context, selector string) (browser.Element, error) {
	els, err := p.QuerySelectorAll(ctx, selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

// QuerySelectorAll returns every match.
func (p *Page) QuerySelectorAll(ctx context.Context, selector string) ([]browser.Element, error) {
	doc, err := p.document()
	if err != nil || doc == nil {
		return nil, err
	}
	return p.wrap(doc.Find(selector)), nil
}

func (p *Page) wrap(sel *goquery.Selection) []browser.Element {
	els := make([]browser.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		els = append(els, &Element{page: p, sel: s})
	})
	return els
}

// Evaluate is unsupported: no scripts run here.
func (p *Page) Evaluate(ctx context.Context, script string, out any) error {
	if p.IsClosed() {
		return browser.ErrClosed
	}
	return browser.ErrUnsupported
}

// Content returns the parsed document re-serialized.
func (p *Page) Content(ctx context.Context) (string, error) {
	doc, err := p.document()
	if err != nil || doc == nil {
		return "", err
	}
	return goquery.OuterHtml(doc.Selection)
}

// IsClosed reports whether the page, its session or its browser was closed.
func (p *Page) IsClosed() bool {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	return closed || p.session.closed.Load() || p.session.browser.closed.Load()
}

// Close discards the document.
func (p *Page) Close() error {
	p.mu.Lock()
	p.closed = true
	p.doc = nil
	p.mu.Unlock()
	return nil
}

// Element is a single node of the page's document.
type Element struct {
	page *Page
	sel  *goquery.Selection
}

// Attribute returns the raw attribute value.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if e.page.IsClosed() {
		return "", false, browser.ErrClosed
	}
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

// InnerText approximates the rendered text of the node.
func (e *Element) InnerText(ctx context.Context) (string, error) {
	if e.page.IsClosed() {
		return "", browser.ErrClosed
	}
	return innerText(e.sel), nil
}

// QuerySelector returns the first descendant match or nil.
func (e *Element) QuerySelector(ctx context.Context, selector string) (browser.Element, error) {
	els, err := e.QuerySelectorAll(ctx, selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

// QuerySelectorAll returns every descendant match.
func (e *Element) QuerySelectorAll(ctx context.Context, selector string) ([]browser.Element, error) {
	if e.page.IsClosed() {
		return nil, browser.ErrClosed
	}
	return e.page.wrap(e.sel.Find(selector)), nil
}

// errNotLink is returned when clicking anything but a link.
var errNotLink = fmt.Errorf("%w: click on a non-link element", browser.ErrUnsupported)

// Click follows the element's href, resolved against the page URL.
func (e *Element) Click(ctx context.Context) error {
	if e.page.IsClosed() {
		return browser.ErrClosed
	}
	href, ok := e.sel.Attr("href")
	if goquery.NodeName(e.sel) != "a" || !ok || href == "" {
		return errNotLink
	}

	current, _ := e.page.URL(ctx)
	target, err := resolve(current, href)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", href, err)
	}
	return e.page.Goto(ctx, target, browser.WaitLoad, 0)
}

func resolve(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if base == "" {
		if !r.IsAbs() {
			return "", errors.New("relative link without a base URL")
		}
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
