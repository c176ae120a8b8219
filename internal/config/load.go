package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys understood by Load. Flags, LEADSCOUT_* environment variables and the
// config file all use these names.
const (
	KeyPrompt        = "prompt"
	KeyKeywords      = "keywords"
	KeyLocation      = "location"
	KeySearchType    = "search_type"
	KeyTarget        = "target"
	KeyDorkQuery     = "dork_query"
	KeyClientType    = "client_type"
	KeyMaxScrolls    = "max_scrolls"
	KeyResultsLimit  = "results_limit"
	KeyHeadless      = "headless"
	KeyBrowser       = "browser"
	KeyProxyFile     = "proxy_file"
	KeyOutput        = "output"
	KeyMetricsPort   = "metrics_port"
	KeyMinDelay      = "min_delay"
	KeyMaxDelay      = "max_delay"
	KeyRetries       = "retries"
	KeyRespectRobots = "respect_robots"
	KeyFingerprint   = "fingerprint"
	KeyReportJSON    = "report_json"
	KeyReportHTML    = "report_html"
	KeyLogLevel      = "log_level"
)

// EnvPrefix namespaces environment variables (LEADSCOUT_MAX_SCROLLS).
const EnvPrefix = "LEADSCOUT"

// DefaultOutput is the spreadsheet written when no output is configured.
const DefaultOutput = "leads_output.xlsx"

// NewViper returns a viper instance with defaults and environment binding in
// place. configFile may be empty, in which case ./leadscout.yaml is read if
// present.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(KeyLocation, EnvPrefix+"_LOCATION", "DEFAULT_LOCATION"); err != nil {
		return nil, fmt.Errorf("bind location env: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("leadscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLocation, DefaultLocation)
	v.SetDefault(KeyTarget, string(TargetEmail))
	v.SetDefault(KeyMaxScrolls, DefaultMaxScrolls)
	v.SetDefault(KeyResultsLimit, DefaultResultsLimit)
	v.SetDefault(KeyHeadless, false)
	v.SetDefault(KeyBrowser, BrowserChrome)
	v.SetDefault(KeyOutput, []string{DefaultOutput})
	v.SetDefault(KeyMinDelay, 2*time.Second)
	v.SetDefault(KeyMaxDelay, 5*time.Second)
	v.SetDefault(KeyRetries, 3)
	v.SetDefault(KeyFingerprint, "chrome")
	v.SetDefault(KeyLogLevel, "info")
}

// Load builds and validates the run configuration. A prompt, when set,
// fills keywords, location and target the way ParsePrompt describes; an
// explicit keywords value wins over the prompt.
func Load(v *viper.Viper) (SearchConfig, RunOptions, error) {
	rawType := v.GetString(KeySearchType)
	engineChosen := rawType != ""
	if !engineChosen {
		rawType = string(TypeMaps)
	}
	st, err := ParseSearchType(rawType)
	if err != nil {
		return SearchConfig{}, RunOptions{}, err
	}

	cfg := SearchConfig{
		Keywords:     strings.TrimSpace(v.GetString(KeyKeywords)),
		Location:     strings.TrimSpace(v.GetString(KeyLocation)),
		SearchType:   st,
		Target:       Target(strings.ToLower(v.GetString(KeyTarget))),
		DorkQuery:    strings.TrimSpace(v.GetString(KeyDorkQuery)),
		ClientType:   v.GetString(KeyClientType),
		MaxScrolls:   v.GetInt(KeyMaxScrolls),
		ResultsLimit: v.GetInt(KeyResultsLimit),
	}

	if prompt := strings.TrimSpace(v.GetString(KeyPrompt)); prompt != "" && cfg.Keywords == "" {
		cfg = ApplyPrompt(cfg, prompt, engineChosen)
	}

	opts := RunOptions{
		Headless:      v.GetBool(KeyHeadless),
		Browser:       strings.ToLower(v.GetString(KeyBrowser)),
		ProxyFile:     v.GetString(KeyProxyFile),
		Outputs:       v.GetStringSlice(KeyOutput),
		MetricsPort:   v.GetInt(KeyMetricsPort),
		MinDelay:      v.GetDuration(KeyMinDelay),
		MaxDelay:      v.GetDuration(KeyMaxDelay),
		Retries:       v.GetInt(KeyRetries),
		RespectRobots: v.GetBool(KeyRespectRobots),
		Fingerprint:   v.GetString(KeyFingerprint),
		ReportJSON:    v.GetString(KeyReportJSON),
		ReportHTML:    v.GetString(KeyReportHTML),
	}
	if opts.Browser != BrowserChrome && opts.Browser != BrowserStatic {
		return SearchConfig{}, RunOptions{}, fmt.Errorf("%w: unknown browser %q", ErrInvalid, opts.Browser)
	}
	if len(opts.Outputs) == 0 {
		opts.Outputs = []string{DefaultOutput}
	}

	if err := cfg.Validate(); err != nil {
		return SearchConfig{}, RunOptions{}, err
	}
	return cfg, opts, nil
}

// ApplyPrompt fills cfg from a free-text prompt. For Maps the prompt is split
// into keywords and location. Search engines receive the whole prompt so
// location words stay in the query. When engineChosen is false a dork prompt
// also switches the search type to DefaultDorkType.
func ApplyPrompt(cfg SearchConfig, prompt string, engineChosen bool) SearchConfig {
	p := ParsePrompt(prompt, cfg.Location)

	if !engineChosen && p.Dork {
		cfg.SearchType = DefaultDorkType
	}

	switch {
	case cfg.SearchType == TypeMaps:
		kw, loc := SplitLocation(prompt, cfg.Location)
		cfg.Keywords, cfg.Location = kw, loc
	case cfg.SearchType == TypeBangladesh:
		cfg.Keywords = p.Keywords
	default:
		cfg.Keywords = strings.TrimSpace(prompt)
		cfg.Target = p.Target
	}
	return cfg
}
