// Package serp describes the search engines the dork scraper drives. Each
// engine is a variant of one Engine implementation carrying its URLs,
// selectors and pagination rule; the loop that uses them lives in scraper.
package serp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/FranksOps/leadscout/internal/browser"
	"github.com/FranksOps/leadscout/internal/config"
	"github.com/FranksOps/leadscout/internal/lead"
)

// Engine is one search engine as seen by the dork scraper.
type Engine interface {
	// Name is the short engine name used in logs and metrics.
	Name() string
	// Source is the tag stamped on leads from this engine.
	Source() string
	// Vendor names the engine in challenge reports.
	Vendor() string
	BuildSearchURL(query string) string
	LocateResultBlocks(ctx context.Context, p browser.Page) ([]browser.Element, error)
	// LocateNextControl returns the first next-page control found, or nil.
	LocateNextControl(ctx context.Context, p browser.Page) (browser.Element, error)
	// ExtractTitle returns the block's title capped to the lead name length,
	// or "" when the block has none.
	ExtractTitle(ctx context.Context, block browser.Element, target config.Target) string
	ExtractRawText(ctx context.Context, block browser.Element) (string, error)
	// NextPageURL rewrites current to point at the page after page (1-based).
	NextPageURL(current string, page int) (string, bool)
	// CaptchaSelectors mark the engine's own challenge forms.
	CaptchaSelectors() []string
	// HumanScroll reports whether result pages are scrolled before reading.
	HumanScroll() bool
	// IsOwnLink reports whether href points back at the engine.
	IsOwnLink(href string) bool
}

// pager computes the next value of a pagination query parameter. ok is false
// when the parameter is absent or not a number.
type pager struct {
	param string
	next  func(cur int, ok bool, page int) int
}

// step adds n to the parameter, starting from n.
func step(param string, n int) pager {
	return pager{param: param, next: func(cur int, ok bool, _ int) int {
		if !ok {
			return n
		}
		return cur + n
	}}
}

// offset sets the parameter to page*mult+add.
func offset(param string, mult, add int) pager {
	return pager{param: param, next: func(_ int, _ bool, page int) int {
		return page*mult + add
	}}
}

type variant struct {
	name      string
	source    string
	vendor    string
	host      string
	searchURL string
	blocks    string
	title     string
	// profileTitle overrides title in profile mode when set.
	profileTitle string
	next         []string
	pager        pager
	captcha      []string
	scroll       bool
}

var _ Engine = (*variant)(nil)

func (v *variant) Name() string   { return v.name }
func (v *variant) Source() string { return v.source }
func (v *variant) Vendor() string { return v.vendor }

func (v *variant) BuildSearchURL(query string) string {
	return fmt.Sprintf(v.searchURL, url.QueryEscape(strings.TrimSpace(query)))
}

func (v *variant) LocateResultBlocks(ctx context.Context, p browser.Page) ([]browser.Element, error) {
	blocks, err := p.QuerySelectorAll(ctx, v.blocks)
	if err != nil {
		return nil, fmt.Errorf("%s result blocks: %w", v.name, err)
	}
	return blocks, nil
}

func (v *variant) LocateNextControl(ctx context.Context, p browser.Page) (browser.Element, error) {
	for _, sel := range v.next {
		el, err := p.QuerySelector(ctx, sel)
		if errors.Is(err, browser.ErrClosed) {
			return nil, err
		}
		if err == nil && el != nil {
			return el, nil
		}
	}
	return nil, nil
}

func (v *variant) ExtractTitle(ctx context.Context, block browser.Element, target config.Target) string {
	sel := v.title
	if target == config.TargetProfile && v.profileTitle != "" {
		sel = v.profileTitle
	}
	el, err := block.QuerySelector(ctx, sel)
	if err != nil || el == nil {
		return ""
	}
	return lead.Truncate(browser.Text(ctx, el), lead.MaxNameLen)
}

func (v *variant) ExtractRawText(ctx context.Context, block browser.Element) (string, error) {
	return block.InnerText(ctx)
}

func (v *variant) NextPageURL(current string, page int) (string, bool) {
	u, err := url.Parse(current)
	if err != nil || u.Host == "" {
		return "", false
	}
	q := u.Query()
	cur, err := strconv.Atoi(q.Get(v.pager.param))
	q.Set(v.pager.param, strconv.Itoa(v.pager.next(cur, err == nil, page)))
	u.RawQuery = q.Encode()
	return u.String(), true
}

func (v *variant) CaptchaSelectors() []string { return v.captcha }
func (v *variant) HumanScroll() bool          { return v.scroll }

func (v *variant) IsOwnLink(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.Hostname()), v.host)
}
