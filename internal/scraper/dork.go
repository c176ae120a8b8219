package scraper

import (
	"context"
	"strings"

	"github.com/FranksOps/leadscout/internal/browser"
	"github.com/FranksOps/leadscout/internal/config"
	"github.com/FranksOps/leadscout/internal/extract"
	"github.com/FranksOps/leadscout/internal/lead"
	"github.com/FranksOps/leadscout/internal/profile"
	"github.com/FranksOps/leadscout/internal/serp"
)

// Dork runs a keyword query against one search engine and mines the result
// snippets for emails or social profiles.
type Dork struct {
	engine serp.Engine
}

// NewDork returns the adapter for engine.
func NewDork(engine serp.Engine) *Dork {
	return &Dork{engine: engine}
}

// Name returns the engine name.
func (d *Dork) Name() string { return d.engine.Name() }

// Run searches cfg.Query() and pages through the results until the page
// budget, the results limit or the last page is reached.
func (d *Dork) Run(ctx context.Context, env Env, cfg config.SearchConfig) (res Result, err error) {
	r := newRun(env, d.engine.Name())
	defer r.recover(&res, &err)

	sess, page, err := r.open(ctx, false)
	if err != nil {
		return r.result(), err
	}
	defer sess.Close()

	t := r.env.Timing
	query := cfg.Query()
	r.logger.Info("searching", "query", query, "target", cfg.Target, "max_pages", cfg.MaxScrolls)

	if err := r.navigate(ctx, page, d.engine.BuildSearchURL(query), browser.WaitDOMContentLoaded, t.Navigation, true); err != nil {
		if r.fatal(ctx, page, err) {
			r.logger.Error("browser unusable, stopping", "err", err)
			return r.result(), nil
		}
		r.logger.Warn("search page did not load cleanly, continuing", "err", err)
		browser.Pause(ctx, t.DorkGrace)
	}
	browser.Pause(ctx, t.Settle)
	r.inspect(ctx, page, d.engine.Vendor(), d.engine.CaptchaSelectors()...)

	seen := make(map[string]struct{})
	for pageNum := 1; pageNum <= cfg.MaxScrolls; pageNum++ {
		if r.full(cfg.ResultsLimit) {
			r.logger.Info("results limit reached", "limit", cfg.ResultsLimit)
			break
		}
		if page.IsClosed() {
			r.logger.Error("page closed unexpectedly")
			break
		}
		r.logger.Info("reading results", "page", pageNum, "of", cfg.MaxScrolls)

		if d.engine.HumanScroll() {
			if err := humanScroll(ctx, page, t); err != nil && r.fatal(ctx, page, err) {
				break
			}
		}
		browser.Pause(ctx, t.Iteration)

		blocks, err := d.engine.LocateResultBlocks(ctx, page)
		if err != nil {
			if r.fatal(ctx, page, err) {
				r.logger.Error("browser unusable, stopping", "err", err)
				break
			}
			r.logger.Debug("no result blocks", "err", err)
		}

		before := len(r.leads)
		for _, block := range blocks {
			if r.full(cfg.ResultsLimit) || ctx.Err() != nil {
				break
			}
			if cfg.Target == config.TargetProfile {
				d.collectProfile(ctx, r, block, cfg, seen)
			} else {
				d.collectEmails(ctx, r, block, cfg, seen)
			}
		}
		r.pages++
		r.logger.Info("page done", "page", pageNum, "new", len(r.leads)-before, "total", len(r.leads))

		if r.full(cfg.ResultsLimit) || pageNum >= cfg.MaxScrolls {
			break
		}
		if !d.paginate(ctx, r, page, pageNum) {
			r.logger.Info("no further result pages", "page", pageNum)
			break
		}
	}

	r.logger.Info("scrape complete", "leads", len(r.leads), "pages", r.pages)
	return r.result(), nil
}

// collectEmails adds one lead per email in block not seen before.
func (d *Dork) collectEmails(ctx context.Context, r *run, block browser.Element, cfg config.SearchConfig, seen map[string]struct{}) {
	raw, err := d.engine.ExtractRawText(ctx, block)
	if err != nil {
		r.skip("result text", err)
		return
	}
	text := extract.Transliterate(raw)

	var (
		title, website, phone string
		loaded                bool
	)
	for _, email := range extract.Emails(text) {
		if _, ok := seen[email]; ok {
			continue
		}
		if r.full(cfg.ResultsLimit) {
			return
		}
		seen[email] = struct{}{}

		if !loaded {
			title = d.engine.ExtractTitle(ctx, block, cfg.Target)
			website = d.blockWebsite(ctx, block)
			phone = extract.InternationalPhone(text)
			loaded = true
		}

		l := lead.New(d.engine.Source())
		l.BusinessName = title
		l.Email = email
		l.Website = website
		l.PhoneNumber = phone
		r.add(l)
	}
}

// collectProfile adds a lead for the block's first link when it is a social
// profile not seen before.
func (d *Dork) collectProfile(ctx context.Context, r *run, block browser.Element, cfg config.SearchConfig, seen map[string]struct{}) {
	link, err := block.QuerySelector(ctx, "a")
	if err != nil || link == nil {
		if err != nil {
			r.skip("result link", err)
		}
		return
	}
	href := serp.UnwrapRedirect(strings.TrimSpace(browser.Attr(ctx, link, "href")))
	if !profile.IsValid(href) {
		return
	}
	if _, ok := seen[href]; ok {
		return
	}
	seen[href] = struct{}{}

	raw, err := d.engine.ExtractRawText(ctx, block)
	if err != nil {
		r.skip("result text", err)
	}
	text := extract.Transliterate(raw)

	l := lead.New(d.engine.Source())
	l.Website = href
	l.BusinessName = d.engine.ExtractTitle(ctx, block, cfg.Target)
	if l.BusinessName == "" {
		l.BusinessName = lead.Truncate(href, lead.MaxNameLen)
	}
	l.Email = extract.Email(text)
	l.PhoneNumber = extract.InternationalPhone(text)
	r.add(l)
}

// blockWebsite returns the first absolute link in block that leaves the
// engine, with click-tracking redirects unwrapped.
func (d *Dork) blockWebsite(ctx context.Context, block browser.Element) string {
	links, err := block.QuerySelectorAll(ctx, "a[href]")
	if err != nil {
		return ""
	}
	for _, a := range links {
		href := serp.UnwrapRedirect(strings.TrimSpace(browser.Attr(ctx, a, "href")))
		lower := strings.ToLower(href)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			continue
		}
		if !d.engine.IsOwnLink(href) {
			return href
		}
	}
	return ""
}

// paginate moves to the page after pageNum: the next control first, then
// the engine's pagination parameter. It reports whether a new page loaded.
func (d *Dork) paginate(ctx context.Context, r *run, page browser.Page, pageNum int) bool {
	t := r.env.Timing

	next, err := d.engine.LocateNextControl(ctx, page)
	if err != nil && r.fatal(ctx, page, err) {
		return false
	}
	if next != nil {
		if err := r.gate(ctx); err != nil {
			return false
		}
		err := next.Click(ctx)
		if err == nil {
			if err := page.WaitForLoadState(ctx, browser.WaitNetworkIdle, t.LoadState); err != nil {
				r.logger.Debug("load wait after click timed out", "err", err)
			}
			r.inspect(ctx, page, d.engine.Vendor(), d.engine.CaptchaSelectors()...)
			return true
		}
		if r.fatal(ctx, page, err) {
			return false
		}
		r.logger.Debug("next control click failed, trying URL", "err", err)
	}

	current, err := page.URL(ctx)
	if err != nil {
		return false
	}
	nextURL, ok := d.engine.NextPageURL(current, pageNum)
	if !ok {
		return false
	}
	if err := r.navigate(ctx, page, nextURL, browser.WaitNetworkIdle, t.Navigation, false); err != nil {
		r.logger.Debug("URL pagination failed", "url", nextURL, "err", err)
		return false
	}
	r.inspect(ctx, page, d.engine.Vendor(), d.engine.CaptchaSelectors()...)
	return true
}
