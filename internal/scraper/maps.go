package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/FranksOps/leadscout/internal/browser"
	"github.com/FranksOps/leadscout/internal/config"
	"github.com/FranksOps/leadscout/internal/extract"
	"github.com/FranksOps/leadscout/internal/lead"
)

// Google Maps selectors.
const (
	mapsListingSelector = `a[href*="/maps/place"]`
	mapsPhoneSelector   = `button[data-item-id^="phone:"]`
	mapsSiteSelector    = `a[data-item-id="authority"]`
	mapsAddrSelector    = `button[data-item-id="address"]`
	mapsEndOfList       = "You've reached the end of the list."
)

// MapsBaseURL is the Google Maps search endpoint.
const MapsBaseURL = "https://www.google.com/maps/search/"

// Maps scrolls a Google Maps result feed and opens every listing in its own
// tab to read the business details.
type Maps struct {
	// BaseURL overrides MapsBaseURL.
	BaseURL string
}

// Name returns "maps".
func (m *Maps) Name() string { return "maps" }

// SearchURL returns the Maps search URL for keywords in location.
func (m *Maps) SearchURL(keywords, location string) string {
	base := m.BaseURL
	if base == "" {
		base = MapsBaseURL
	}
	q := strings.TrimSpace(keywords) + " in " + strings.TrimSpace(location)
	return base + strings.ReplaceAll(url.PathEscape(q), "%20", "+")
}

// Run scrolls the feed up to cfg.MaxScrolls times, stopping early at the
// results limit or the end-of-list marker.
func (m *Maps) Run(ctx context.Context, env Env, cfg config.SearchConfig) (res Result, err error) {
	r := newRun(env, m.Name())
	defer r.recover(&res, &err)

	sess, page, err := r.open(ctx, true)
	if err != nil {
		return r.result(), err
	}
	defer sess.Close()

	t := r.env.Timing
	target := m.SearchURL(cfg.Keywords, cfg.Location)
	r.logger.Info("searching", "keywords", cfg.Keywords, "location", cfg.Location, "max_scrolls", cfg.MaxScrolls)

	if err := r.navigate(ctx, page, target, browser.WaitDOMContentLoaded, t.Navigation, true); err != nil {
		if r.fatal(ctx, page, err) {
			r.logger.Error("browser unusable, stopping", "err", err)
			return r.result(), nil
		}
		r.logger.Warn("maps page did not load cleanly, continuing", "err", err)
		browser.Pause(ctx, t.MapsGrace)
	}
	browser.Pause(ctx, t.Settle)
	r.inspect(ctx, page, "Google")

	processed := make(map[string]struct{})
	seen := make(map[string]struct{})

	for iter := 1; iter <= cfg.MaxScrolls; iter++ {
		if r.full(cfg.ResultsLimit) {
			r.logger.Info("results limit reached", "limit", cfg.ResultsLimit)
			break
		}
		if page.IsClosed() || ctx.Err() != nil {
			r.logger.Error("main page closed unexpectedly")
			break
		}
		r.logger.Info("scrolling feed", "scroll", iter, "of", cfg.MaxScrolls)

		if err := scrollFeed(ctx, page, t); err != nil {
			if r.fatal(ctx, page, err) {
				break
			}
			r.logger.Debug("scroll failed", "err", err)
		}
		browser.Pause(ctx, t.Settle)

		listings, err := page.QuerySelectorAll(ctx, mapsListingSelector)
		if err != nil {
			if r.fatal(ctx, page, err) {
				break
			}
			r.logger.Debug("listing query failed", "err", err)
		}

		type pending struct {
			el   browser.Element
			href string
		}
		var fresh []pending
		for _, el := range listings {
			href := browser.Attr(ctx, el, "href")
			if href == "" {
				continue
			}
			if _, ok := processed[href]; ok {
				continue
			}
			processed[href] = struct{}{}
			fresh = append(fresh, pending{el: el, href: href})
		}
		r.logger.Info("listings found", "total", len(listings), "new", len(fresh))

		for _, p := range fresh {
			if page.IsClosed() || ctx.Err() != nil {
				break
			}
			l, ok := m.listing(ctx, r, sess, page, p.el, p.href)
			if ok {
				key := strings.ToLower(strings.TrimSpace(l.BusinessName))
				if _, dup := seen[key]; !dup {
					seen[key] = struct{}{}
					r.add(l)
				}
			}
			if r.full(cfg.ResultsLimit) {
				break
			}
		}
		r.pages++
		r.logger.Info("scroll done", "collected", len(r.leads))

		if r.full(cfg.ResultsLimit) {
			r.logger.Info("results limit reached", "limit", cfg.ResultsLimit)
			break
		}
		if m.endOfList(ctx, page) {
			r.logger.Info("reached end of maps results")
			break
		}
	}

	r.logger.Info("scrape complete", "leads", len(r.leads), "scrolls", r.pages)
	return r.result(), nil
}

// listing opens href in a new tab and reads the business details. It
// reports false when the listing has no name. The tab is always closed.
func (m *Maps) listing(ctx context.Context, r *run, sess browser.Session, page browser.Page, el browser.Element, href string) (lead.Lead, bool) {
	label := browser.Attr(ctx, el, "aria-label")
	name, _, _ := strings.Cut(label, " - ")
	name = lead.Truncate(name, lead.MaxNameLen)
	if name == "" {
		return lead.Lead{}, false
	}

	l := lead.New(lead.SourceMaps)
	l.BusinessName = name

	if base, err := page.URL(ctx); err == nil {
		href = resolve(base, href)
	}

	tab, err := sess.NewPage(ctx)
	if err != nil {
		r.skip("listing tab", err)
		return l, true
	}
	defer tab.Close()

	t := r.env.Timing
	if err := r.navigate(ctx, tab, href, browser.WaitLoad, t.TabNavigation, true); err != nil {
		r.skip("listing page "+href, err)
		return l, true
	}
	browser.Pause(ctx, t.TabSettle)
	if err := tab.WaitForLoadState(ctx, browser.WaitDOMContentLoaded, t.TabLoad); err != nil {
		r.logger.Debug("listing load wait timed out", "url", href, "err", err)
	}

	c := extract.Extract(m.bodyText(ctx, tab), m.attrs(ctx, tab), extract.MapsBlocklist)
	l.PhoneNumber = c.Phone
	l.Website = c.Website
	l.Address = c.Address
	l.Email = c.Email
	return l, true
}

// attrs reads the structured fields of a listing tab. Missing elements leave
// their fields empty.
func (m *Maps) attrs(ctx context.Context, tab browser.Page) extract.Attrs {
	var a extract.Attrs
	if btn, err := tab.QuerySelector(ctx, mapsPhoneSelector); err == nil && btn != nil {
		a.PhoneItemID = browser.Attr(ctx, btn, "data-item-id")
		a.PhoneLabel = browser.Attr(ctx, btn, "aria-label")
	}
	if site, err := tab.QuerySelector(ctx, mapsSiteSelector); err == nil && site != nil {
		a.OfficialSite = browser.Attr(ctx, site, "href")
	}
	if btn, err := tab.QuerySelector(ctx, mapsAddrSelector); err == nil && btn != nil {
		a.AddressLabel = browser.Attr(ctx, btn, "aria-label")
	}
	if links, err := tab.QuerySelectorAll(ctx, "a[href]"); err == nil {
		for _, link := range links {
			if href := browser.Attr(ctx, link, "href"); href != "" {
				a.Links = append(a.Links, href)
			}
		}
	}
	return a
}

func (m *Maps) bodyText(ctx context.Context, tab browser.Page) string {
	body, err := tab.QuerySelector(ctx, "body")
	if err != nil || body == nil {
		return ""
	}
	return browser.Text(ctx, body)
}

// endOfList looks for the marker Maps shows under the last result.
func (m *Maps) endOfList(ctx context.Context, page browser.Page) bool {
	el, err := page.QuerySelector(ctx, feedSelector)
	if err != nil || el == nil {
		el, err = page.QuerySelector(ctx, "body")
		if err != nil || el == nil {
			return false
		}
	}
	text := strings.ReplaceAll(browser.Text(ctx, el), "\u2019", "'")
	return strings.Contains(text, mapsEndOfList)
}
