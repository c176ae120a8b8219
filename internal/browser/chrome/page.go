package chrome

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/FranksOps/leadscout/internal/browser"
)

// elementTimeout bounds single-node operations so a detached node cannot
// block forever.
const elementTimeout = 10 * time.Second

// Page is one Chromium tab.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	closeOnce sync.Once
	// onClose lets the owning session forget the tab.
	onClose func()
}

// bind derives a context that runs on the tab but also ends when ctx does.
func (p *Page) bind(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(p.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (p *Page) wrap(err error) error {
	if err == nil {
		return nil
	}
	if p.ctx.Err() != nil {
		return fmt.Errorf("%w: %v", browser.ErrClosed, err)
	}
	return err
}

func (p *Page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if p.IsClosed() {
		return browser.ErrClosed
	}
	runCtx, done := p.bind(ctx, timeout)
	defer done()
	return p.wrap(chromedp.Run(runCtx, actions...))
}

// Goto navigates the tab. chromedp's navigation already waits for the load
// event; the network-idle milestone additionally polls the ready state.
func (p *Page) Goto(ctx context.Context, url string, wait browser.WaitUntil, timeout time.Duration) error {
	actions := []chromedp.Action{chromedp.Navigate(url)}
	if wait == browser.WaitNetworkIdle {
		actions = append(actions, waitReady(browser.WaitNetworkIdle, timeout))
	}
	if err := p.run(ctx, timeout, actions...); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func waitReady(state browser.WaitUntil, timeout time.Duration) chromedp.Action {
	expr := `document.readyState === 'complete'`
	if state == browser.WaitDOMContentLoaded {
		expr = `document.readyState !== 'loading'`
	}
	var opts []chromedp.PollOption
	if timeout > 0 {
		opts = append(opts, chromedp.WithPollingTimeout(timeout))
	}
	var ready bool
	actions := chromedp.Tasks{chromedp.Poll(expr, &ready, opts...)}
	if state == browser.WaitNetworkIdle {
		actions = append(actions, chromedp.Sleep(500*time.Millisecond))
	}
	return actions
}

// URL returns the tab's current location.
func (p *Page) URL(ctx context.Context) (string, error) {
	var u string
	if err := p.run(ctx, elementTimeout, chromedp.Location(&u)); err != nil {
		return "", err
	}
	return u, nil
}

// WaitForLoadState polls document.readyState until the milestone is reached.
func (p *Page) WaitForLoadState(ctx context.Context, state browser.WaitUntil, timeout time.Duration) error {
	return p.run(ctx, timeout, waitReady(state, timeout))
}

// QuerySelector returns the first match or nil.
func (p *Page) QuerySelector(ctx context.Context, selector string) (browser.Element, error) {
	els, err := p.query(ctx, selector, nil)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

// QuerySelectorAll returns every match without waiting for any to appear.
func (p *Page) QuerySelectorAll(ctx context.Context, selector string) ([]browser.Element, error) {
	return p.query(ctx, selector, nil)
}

func (p *Page) query(ctx context.Context, selector string, from *cdp.Node) ([]browser.Element, error) {
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if from != nil {
		opts = append(opts, chromedp.FromNode(from))
	}
	var nodes []*cdp.Node
	if err := p.run(ctx, elementTimeout, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	els := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &Element{page: p, node: n})
	}
	return els, nil
}

// Evaluate runs script in the page.
func (p *Page) Evaluate(ctx context.Context, script string, out any) error {
	return p.run(ctx, elementTimeout, chromedp.Evaluate(script, out))
}

// Content returns the document's outer HTML.
func (p *Page) Content(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, elementTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// IsClosed reports whether the tab or browser has gone away.
func (p *Page) IsClosed() bool {
	return p.ctx.Err() != nil
}

// Close closes the tab.
func (p *Page) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		if p.onClose != nil {
			p.onClose()
		}
	})
	return nil
}

// Element wraps a DOM node found in a tab.
type Element struct {
	page *Page
	node *cdp.Node
}

// Attribute reads the attribute captured when the node was queried.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if e.page.IsClosed() {
		return "", false, browser.ErrClosed
	}
	v, ok := e.node.Attribute(name)
	return v, ok, nil
}

// InnerText returns the rendered text of the node.
func (e *Element) InnerText(ctx context.Context) (string, error) {
	var s string
	err := e.page.run(ctx, elementTimeout, chromedp.Text([]cdp.NodeID{e.node.NodeID}, &s, chromedp.ByNodeID))
	if err != nil {
		return "", err
	}
	return s, nil
}

// QuerySelector returns the first descendant match or nil.
func (e *Element) QuerySelector(ctx context.Context, selector string) (browser.Element, error) {
	els, err := e.page.query(ctx, selector, e.node)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

// QuerySelectorAll returns every descendant match.
func (e *Element) QuerySelectorAll(ctx context.Context, selector string) ([]browser.Element, error) {
	return e.page.query(ctx, selector, e.node)
}

// Click dispatches a mouse click at the node's center.
func (e *Element) Click(ctx context.Context) error {
	return e.page.run(ctx, elementTimeout, chromedp.MouseClickNode(e.node))
}
