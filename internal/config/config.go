// Package config holds the immutable settings for one scraping run and
// loads them from flags, environment and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid is returned when a configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// SearchType selects the scrape source.
type SearchType string

const (
	TypeMaps       SearchType = "maps"
	TypeGoogle     SearchType = "google_dork"
	TypeYahoo      SearchType = "yahoo_dork"
	TypeBing       SearchType = "bing_dork"
	TypeDuckDuckGo SearchType = "duckduckgo_dork"
	TypeYandex     SearchType = "yandex_dork"
	TypeBangladesh SearchType = "bangladesh_dork"
)

// SearchTypes lists every supported source in menu order.
var SearchTypes = []SearchType{TypeMaps, TypeGoogle, TypeYahoo, TypeBing, TypeDuckDuckGo, TypeYandex, TypeBangladesh}

// DefaultDorkType is used when a prompt asks for a dork search without
// naming an engine.
const DefaultDorkType = TypeDuckDuckGo

// ParseSearchType accepts a full search type or its short engine name
// ("bing", "google_maps", "bangladesh").
func ParseSearchType(s string) (SearchType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "maps", "google_maps", "gmaps":
		return TypeMaps, nil
	case "bangladesh", "directory", "directories":
		return TypeBangladesh, nil
	}
	for _, t := range SearchTypes {
		if string(t) == s || strings.TrimSuffix(string(t), "_dork") == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown search type %q", ErrInvalid, s)
}

// IsSearchEngine reports whether the type runs the shared search engine
// loop.
func (t SearchType) IsSearchEngine() bool {
	switch t {
	case TypeGoogle, TypeYahoo, TypeBing, TypeDuckDuckGo, TypeYandex:
		return true
	}
	return false
}

// Target selects what a search engine run collects.
type Target string

const (
	TargetEmail   Target = "email"
	TargetProfile Target = "profile"
)

// Bounds and defaults.
const (
	DefaultMaxScrolls   = 15
	DefaultResultsLimit = 100
	DefaultLocation     = "New York"

	MinMaxScrolls   = 1
	MaxMaxScrolls   = 100
	MaxResultsLimit = 10000
)

// SearchConfig describes one scraping run. Build it once and pass it by
// value.
type SearchConfig struct {
	Keywords     string
	Location     string
	SearchType   SearchType
	Target       Target
	DorkQuery    string
	ClientType   string
	MaxScrolls   int
	ResultsLimit int
}

// Validate checks the bounds and enumerations.
func (c SearchConfig) Validate() error {
	if strings.TrimSpace(c.Keywords) == "" {
		return fmt.Errorf("%w: keywords are required", ErrInvalid)
	}
	if _, err := ParseSearchType(string(c.SearchType)); err != nil {
		return err
	}
	if c.Target != TargetEmail && c.Target != TargetProfile {
		return fmt.Errorf("%w: unknown target %q", ErrInvalid, c.Target)
	}
	if c.MaxScrolls < MinMaxScrolls || c.MaxScrolls > MaxMaxScrolls {
		return fmt.Errorf("%w: max_scrolls %d outside [%d, %d]", ErrInvalid, c.MaxScrolls, MinMaxScrolls, MaxMaxScrolls)
	}
	if c.ResultsLimit < 0 || c.ResultsLimit > MaxResultsLimit {
		return fmt.Errorf("%w: results_limit %d outside [0, %d]", ErrInvalid, c.ResultsLimit, MaxResultsLimit)
	}
	return nil
}

// Query is the text sent to a search engine.
func (c SearchConfig) Query() string {
	return strings.TrimSpace(c.Keywords + " " + c.DorkQuery)
}

// Browser modes.
const (
	BrowserChrome = "chrome"
	BrowserStatic = "static"
)

// RunOptions are process-level settings that do not change what is scraped.
type RunOptions struct {
	Headless      bool
	Browser       string
	ProxyFile     string
	Outputs       []string
	MetricsPort   int
	MinDelay      time.Duration
	MaxDelay      time.Duration
	Retries       int
	RespectRobots bool
	Fingerprint   string
	ReportJSON    string
	ReportHTML    string
}
