package serp

import (
	"fmt"

	"github.com/FranksOps/leadscout/internal/config"
	"github.com/FranksOps/leadscout/internal/lead"
)

// Yahoo returns the Yahoo Search engine.
func Yahoo() Engine {
	return &variant{
		name:      "yahoo",
		source:    lead.SourceYahoo,
		vendor:    "Yahoo",
		host:      "yahoo",
		searchURL: "https://search.yahoo.com/search?p=%s",
		blocks:    "div.algo, li.algo",
		title:     "h3",
		next: []string{
			`a[href*="b="]`,
			`a[aria-label="Next"]`,
			`a[aria-label='Next page']`,
			`button[aria-label='Next']`,
			`a.next`,
		},
		pager:  step("b", 10),
		scroll: true,
	}
}

// Bing returns the Bing engine. Profile results carry their title in h3.
func Bing() Engine {
	return &variant{
		name:         "bing",
		source:       lead.SourceBing,
		vendor:       "Bing",
		host:         "bing",
		searchURL:    "https://www.bing.com/search?q=%s",
		blocks:       "li.b_algo",
		title:        "h2",
		profileTitle: "h3",
		next: []string{
			`a.sb_pagNext`,
			`a[aria-label='Next page']`,
			`a[title='Next page']`,
		},
		pager:  offset("first", 10, 1),
		scroll: true,
	}
}

// Google returns the Google web search engine.
func Google() Engine {
	return &variant{
		name:      "google",
		source:    lead.SourceGoogle,
		vendor:    "Google",
		host:      "google",
		searchURL: "https://www.google.com/search?q=%s",
		blocks:    "div.g",
		title:     "h3",
		next: []string{
			`a#pnnext`,
			`button[aria-label='Next page']`,
			`a[aria-label='Next page']`,
		},
		pager:   offset("start", 10, 0),
		captcha: []string{"form#captcha-form"},
		scroll:  true,
	}
}

// DuckDuckGo returns the DuckDuckGo engine.
func DuckDuckGo() Engine {
	return &variant{
		name:      "duckduckgo",
		source:    lead.SourceDuckDuckGo,
		vendor:    "DuckDuckGo",
		host:      "duckduckgo",
		searchURL: "https://duckduckgo.com/?q=%s&ia=web",
		blocks:    "div.result, li.result",
		title:     "h2",
		next: []string{
			`a[aria-label='Next']`,
			`button[aria-label='Next Page']`,
		},
		pager:  step("s", 20),
		scroll: true,
	}
}

// Yandex returns the Yandex engine. Its result pages are read without
// scrolling.
func Yandex() Engine {
	return &variant{
		name:      "yandex",
		source:    lead.SourceYandex,
		vendor:    "Yandex",
		host:      "yandex",
		searchURL: "https://yandex.com/search/?text=%s",
		blocks:    "li.serp-item, div.organic, article",
		title:     "h2",
		next: []string{
			`a.pager__next`,
			`a[aria-label='next']`,
			`div.pager a:last-child`,
		},
		pager:   step("p", 1),
		captcha: []string{"form#captcha-form", "input[name='keystroke']", "div.captcha"},
	}
}

// ForType returns the engine for a search engine type.
func ForType(t config.SearchType) (Engine, error) {
	switch t {
	case config.TypeYahoo:
		return Yahoo(), nil
	case config.TypeBing:
		return Bing(), nil
	case config.TypeGoogle:
		return Google(), nil
	case config.TypeDuckDuckGo:
		return DuckDuckGo(), nil
	case config.TypeYandex:
		return Yandex(), nil
	}
	return nil, fmt.Errorf("%w: %q is not a search engine", config.ErrInvalid, t)
}
