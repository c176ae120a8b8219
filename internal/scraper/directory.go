package scraper

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FranksOps/leadscout/internal/browser"
	"github.com/FranksOps/leadscout/internal/config"
	"github.com/FranksOps/leadscout/internal/extract"
	"github.com/FranksOps/leadscout/internal/lead"
)

// DirectorySource is one business directory site.
type DirectorySource struct {
	// Name is the site name; it also forms the lead source tag and the host
	// used to absolutize relative links.
	Name string
	// URL is the search page for the keywords.
	URL func(keywords string) string
	// Listings selects one element per business.
	Listings string
	// Title selects the business name inside a listing.
	Title string
}

// Source is the lead source tag, e.g. "Bikroy BD".
func (s DirectorySource) Source() string {
	return cases.Title(language.English).String(s.Name) + " BD"
}

// DefaultDirectories are the Bangladesh directories searched by the
// bangladesh_dork type.
func DefaultDirectories() []DirectorySource {
	return []DirectorySource{
		{
			Name: "bikroy",
			URL: func(kw string) string {
				kw = strings.TrimSpace(kw)
				return "https://bikroy.com/en/ads/" + url.PathEscape(strings.ReplaceAll(kw, " ", "-")) +
					"/?query=" + url.QueryEscape(kw)
			},
			Listings: "div.listing-item, a.listing-link",
			Title:    "h2, .title",
		},
		{
			Name: "clicktechi",
			URL: func(kw string) string {
				return "https://www.clicktechi.com/search?search=" + url.QueryEscape(strings.TrimSpace(kw))
			},
			Listings: "div.business-card, div.listing-item",
			Title:    "h3, .business-name, .title",
		},
	}
}

// Directory visits each directory in turn with a third of the scroll budget.
type Directory struct {
	// Sources overrides DefaultDirectories.
	Sources []DirectorySource
}

// Name returns "directory".
func (d *Directory) Name() string { return "directory" }

// Run scrapes every source sequentially. A source that fails to load is
// skipped.
func (d *Directory) Run(ctx context.Context, env Env, cfg config.SearchConfig) (res Result, err error) {
	r := newRun(env, d.Name())
	defer r.recover(&res, &err)

	sources := d.Sources
	if sources == nil {
		sources = DefaultDirectories()
	}

	sess, page, err := r.open(ctx, false)
	if err != nil {
		return r.result(), err
	}
	defer sess.Close()

	t := r.env.Timing
	budget := cfg.MaxScrolls / 3
	seen := make(map[string]struct{})

	for _, src := range sources {
		if r.full(cfg.ResultsLimit) || ctx.Err() != nil {
			break
		}
		target := src.URL(cfg.Keywords)
		log := r.logger.With("directory", src.Name)

		if r.env.Robots != nil {
			if ok, err := r.env.Robots.IsAllowed(ctx, target, r.userAgent); err == nil && !ok {
				log.Info("disallowed by robots.txt, skipping", "url", target)
				continue
			}
		}

		log.Info("scraping directory", "url", target, "scrolls", budget)
		if err := r.navigate(ctx, page, target, browser.WaitDOMContentLoaded, t.Navigation, false); err != nil {
			if r.fatal(ctx, page, err) {
				log.Error("browser unusable, stopping", "err", err)
				break
			}
			log.Warn("failed to load directory", "err", err)
			continue
		}
		browser.Pause(ctx, stretch(t.DirectorySettle))

		for iter := 0; iter < budget; iter++ {
			if err := humanScroll(ctx, page, t); err != nil && r.fatal(ctx, page, err) {
				return r.result(), nil
			}
			browser.Pause(ctx, stretch(t.DirectoryIteration))

			listings, err := page.QuerySelectorAll(ctx, src.Listings)
			if err != nil {
				if r.fatal(ctx, page, err) {
					return r.result(), nil
				}
				log.Debug("listing query failed", "err", err)
			}
			for _, el := range listings {
				if r.full(cfg.ResultsLimit) {
					break
				}
				d.collect(ctx, r, src, el, seen)
			}
			r.pages++

			if r.full(cfg.ResultsLimit) {
				break
			}
		}
		log.Info("directory done", "total", len(r.leads))
	}

	r.logger.Info("scrape complete", "leads", len(r.leads))
	return r.result(), nil
}

func (d *Directory) collect(ctx context.Context, r *run, src DirectorySource, el browser.Element, seen map[string]struct{}) {
	var name string
	if title, err := el.QuerySelector(ctx, src.Title); err == nil && title != nil {
		name = lead.Truncate(browser.Text(ctx, title), lead.MaxNameLen)
	}
	if name == "" {
		return
	}
	key := strings.ToLower(name)
	if _, ok := seen[key]; ok {
		return
	}
	seen[key] = struct{}{}

	href := browser.Attr(ctx, el, "href")
	if href == "" {
		if a, err := el.QuerySelector(ctx, "a"); err == nil && a != nil {
			href = browser.Attr(ctx, a, "href")
		}
	}
	if href != "" && !strings.HasPrefix(href, "http") {
		href = "https://" + src.Name + ".com" + href
	}

	raw, err := el.InnerText(ctx)
	if err != nil {
		r.skip("listing text", err)
	}
	text := extract.Transliterate(raw)

	l := lead.New(src.Source())
	l.BusinessName = name
	l.Website = href
	l.Email = extract.Email(text)
	l.PhoneNumber = extract.InternationalPhone(text)
	r.add(l)
}
