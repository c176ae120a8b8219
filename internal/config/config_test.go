package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func validConfig() SearchConfig {
	return SearchConfig{
		Keywords:     "plumbers",
		Location:     "Dhaka",
		SearchType:   TypeMaps,
		Target:       TargetEmail,
		MaxScrolls:   DefaultMaxScrolls,
		ResultsLimit: DefaultResultsLimit,
	}
}

func TestSearchConfig_Validate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mutations := map[string]func(*SearchConfig){
		"empty keywords":   func(c *SearchConfig) { c.Keywords = "  " },
		"zero scrolls":     func(c *SearchConfig) { c.MaxScrolls = 0 },
		"too many scrolls": func(c *SearchConfig) { c.MaxScrolls = 101 },
		"negative limit":   func(c *SearchConfig) { c.ResultsLimit = -1 },
		"huge limit":       func(c *SearchConfig) { c.ResultsLimit = 10001 },
		"bad target":       func(c *SearchConfig) { c.Target = "phone" },
		"bad type":         func(c *SearchConfig) { c.SearchType = "altavista" },
	}
	for name, mutate := range mutations {
		c := validConfig()
		mutate(&c)
		if err := c.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", name, err)
		}
	}

	c := validConfig()
	c.ResultsLimit = 0
	if err := c.Validate(); err != nil {
		t.Errorf("zero limit should be valid, got %v", err)
	}
}

func TestParseSearchType(t *testing.T) {
	cases := map[string]SearchType{
		"maps":            TypeMaps,
		"google_maps":     TypeMaps,
		"bing":            TypeBing,
		"YAHOO_DORK":      TypeYahoo,
		"duckduckgo":      TypeDuckDuckGo,
		"yandex_dork":     TypeYandex,
		"bangladesh":      TypeBangladesh,
		"bangladesh_dork": TypeBangladesh,
	}
	for in, want := range cases {
		got, err := ParseSearchType(in)
		if err != nil || got != want {
			t.Errorf("ParseSearchType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseSearchType("altavista"); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestParsePrompt(t *testing.T) {
	cases := []struct {
		prompt string
		want   Parsed
	}{
		{"influencers instagram.com", Parsed{Dork: true, Keywords: "influencers instagram.com", Target: TargetProfile}},
		{"bakeries FB.com Dhaka", Parsed{Dork: true, Keywords: "bakeries FB.com Dhaka", Target: TargetProfile}},
		{"real estate @gmail.com", Parsed{Dork: true, Keywords: "real estate @gmail.com", Target: TargetEmail}},
		{"hotels site:com.bd", Parsed{Dork: true, Keywords: "hotels site:com.bd", Target: TargetEmail}},
		{"restaurants in New York", Parsed{Keywords: "restaurants", Location: "New York", Target: TargetEmail}},
		{"plumbers near Brooklyn", Parsed{Keywords: "plumbers", Location: "Brooklyn", Target: TargetEmail}},
		{"Dentists IN Chittagong", Parsed{Keywords: "Dentists", Location: "Chittagong", Target: TargetEmail}},
		{"coffee shops", Parsed{Keywords: "coffee shops", Location: "Dhaka", Target: TargetEmail}},
	}
	for _, tc := range cases {
		if got := ParsePrompt(tc.prompt, "Dhaka"); got != tc.want {
			t.Errorf("ParsePrompt(%q) = %+v, want %+v", tc.prompt, got, tc.want)
		}
	}
}

func TestSplitLocation_NonASCII(t *testing.T) {
	cases := []struct {
		prompt, keywords, location string
	}{
		{"İzmir cafes in Turkey", "İzmir cafes", "Turkey"},
		{"İİİİİİ in a", "İİİİİİ", "a"},
		{"ÇAY EVLERİ NEAR İstanbul", "ÇAY EVLERİ", "İstanbul"},
		{"রেস্তোরাঁ in ঢাকা", "রেস্তোরাঁ", "ঢাকা"},
		{"cafes near the park in Gulshan", "cafes near the park", "Gulshan"},
		{"İnşaat", "İnşaat", "Dhaka"},
	}
	for _, tc := range cases {
		kw, loc := SplitLocation(tc.prompt, "Dhaka")
		if kw != tc.keywords || loc != tc.location {
			t.Errorf("SplitLocation(%q) = %q, %q; want %q, %q", tc.prompt, kw, loc, tc.keywords, tc.location)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyKeywords, "plumbers")

	cfg, opts, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SearchType != TypeMaps || cfg.Location != DefaultLocation || cfg.MaxScrolls != 15 || cfg.ResultsLimit != 100 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if opts.Browser != BrowserChrome || opts.MinDelay != 2*time.Second || opts.MaxDelay != 5*time.Second {
		t.Errorf("unexpected run options: %+v", opts)
	}
	if len(opts.Outputs) != 1 || opts.Outputs[0] != DefaultOutput {
		t.Errorf("expected default output, got %v", opts.Outputs)
	}
}

func TestLoad_PromptWithoutEngine(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyPrompt, "photographers facebook.com")

	cfg, _, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SearchType != DefaultDorkType || cfg.Target != TargetProfile {
		t.Errorf("expected profile dork run, got %+v", cfg)
	}
}

func TestLoad_PromptWithEngine(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeySearchType, "bing")
	v.Set(KeyPrompt, "lawyers in Dhaka")

	cfg, _, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SearchType != TypeBing || cfg.Keywords != "lawyers in Dhaka" || cfg.Target != TargetEmail {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoad_MapsPromptSplitsLocation(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeySearchType, "maps")
	v.Set(KeyPrompt, "cafes near Gulshan")

	cfg, _, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Keywords != "cafes" || cfg.Location != "Gulshan" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoad_InvalidBrowser(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyKeywords, "x")
	v.Set(KeyBrowser, "netscape")

	if _, _, err := Load(v); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestNewViper_ConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leadscout.yaml")
	content := "keywords: bakeries\nmax_scrolls: 4\nresults_limit: 20\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LEADSCOUT_RESULTS_LIMIT", "7")
	t.Setenv("DEFAULT_LOCATION", "Sylhet")

	v, err := NewViper(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, _, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Keywords != "bakeries" || cfg.MaxScrolls != 4 {
		t.Errorf("expected file values, got %+v", cfg)
	}
	if cfg.ResultsLimit != 7 {
		t.Errorf("expected env to override file, got %d", cfg.ResultsLimit)
	}
	if cfg.Location != "Sylhet" {
		t.Errorf("expected DEFAULT_LOCATION, got %q", cfg.Location)
	}
}

func TestNewViper_MissingExplicitFile(t *testing.T) {
	if _, err := NewViper(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}
