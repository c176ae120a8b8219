// Package browser defines the page-automation capability the scrape sources
// are written against. Implementations live in subpackages: chrome drives a
// real Chromium over the DevTools protocol, static fetches HTML over HTTP.
//
// Query methods return (nil, nil) when nothing matches; absence is never an
// error. Errors wrapping ErrClosed mean the browser or page is gone and the
// caller should stop.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrClosed reports that the page, session or browser is no longer usable.
	ErrClosed = errors.New("browser closed")
	// ErrUnsupported reports an operation the implementation cannot perform.
	ErrUnsupported = errors.New("operation not supported by this browser")
)

// WaitUntil names a page load milestone.
type WaitUntil string

const (
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitLoad             WaitUntil = "load"
	WaitNetworkIdle      WaitUntil = "networkidle"
)

// Viewport is the emulated window size.
type Viewport struct {
	Width  int
	Height int
}

// Geolocation is an emulated device position.
type Geolocation struct {
	Latitude  float64
	Longitude float64
}

// LaunchOptions configure the browser process.
type LaunchOptions struct {
	Headless bool
	// ProxyServer is a proxy URL such as http://host:port. Empty means direct.
	ProxyServer string
	// Args are extra command-line switches without the leading dashes.
	Args []string
}

// SessionOptions configure an isolated browsing session.
type SessionOptions struct {
	UserAgent      string
	AcceptLanguage string
	Viewport       Viewport
	Locale         string
	Timezone       string
	Geolocation    *Geolocation
	Permissions    []string
	// Stealth applies the anti-detection script to every page of the session.
	Stealth bool
}

// Launcher starts browsers.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// Browser is a running browser.
type Browser interface {
	NewSession(ctx context.Context, opts SessionOptions) (Session, error)
	Close() error
}

// Session groups pages that share identity settings.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is one tab.
type Page interface {
	// Goto navigates and waits for the given milestone. A zero timeout means
	// no limit beyond ctx.
	Goto(ctx context.Context, url string, wait WaitUntil, timeout time.Duration) error
	URL(ctx context.Context) (string, error)
	WaitForLoadState(ctx context.Context, state WaitUntil, timeout time.Duration) error
	QuerySelector(ctx context.Context, selector string) (Element, error)
	QuerySelectorAll(ctx context.Context, selector string) ([]Element, error)
	// Evaluate runs a script and decodes its result into out, which may be nil.
	Evaluate(ctx context.Context, script string, out any) error
	// Content returns the serialized document.
	Content(ctx context.Context) (string, error)
	IsClosed() bool
	Close() error
}

// Element is a handle to a DOM node.
type Element interface {
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	InnerText(ctx context.Context) (string, error)
	QuerySelector(ctx context.Context, selector string) (Element, error)
	QuerySelectorAll(ctx context.Context, selector string) ([]Element, error)
	Click(ctx context.Context) error
}

// Pause sleeps for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Attr returns an attribute value, treating absence and errors as "".
func Attr(ctx context.Context, el Element, name string) string {
	if el == nil {
		return ""
	}
	v, ok, err := el.Attribute(ctx, name)
	if err != nil || !ok {
		return ""
	}
	return v
}

// Text returns an element's inner text, treating errors as "".
func Text(ctx context.Context, el Element) string {
	if el == nil {
		return ""
	}
	s, err := el.InnerText(ctx)
	if err != nil {
		return ""
	}
	return s
}
