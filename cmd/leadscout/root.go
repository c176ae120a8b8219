package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/FranksOps/leadscout/internal/cli"
	"github.com/FranksOps/leadscout/internal/config"
	"github.com/FranksOps/leadscout/internal/metrics"
	"github.com/FranksOps/leadscout/internal/pipeline"
	"github.com/FranksOps/leadscout/internal/report"
)

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"prompt":         config.KeyPrompt,
	"keywords":       config.KeyKeywords,
	"location":       config.KeyLocation,
	"search-type":    config.KeySearchType,
	"target":         config.KeyTarget,
	"dork-query":     config.KeyDorkQuery,
	"client-type":    config.KeyClientType,
	"max-scrolls":    config.KeyMaxScrolls,
	"results-limit":  config.KeyResultsLimit,
	"headless":       config.KeyHeadless,
	"browser":        config.KeyBrowser,
	"proxy-file":     config.KeyProxyFile,
	"output":         config.KeyOutput,
	"metrics-port":   config.KeyMetricsPort,
	"min-delay":      config.KeyMinDelay,
	"max-delay":      config.KeyMaxDelay,
	"retries":        config.KeyRetries,
	"respect-robots": config.KeyRespectRobots,
	"fingerprint":    config.KeyFingerprint,
	"report-json":    config.KeyReportJSON,
	"report-html":    config.KeyReportHTML,
	"log-level":      config.KeyLogLevel,
}

func newRootCmd() *cobra.Command {
	var (
		configFile  string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "leadscout",
		Short: "Collect business leads from Google Maps, search engines and directories",
		Long: `leadscout collects business contact leads (name, phone, website, address,
email) from Google Maps, search-engine dork queries (Google, Yahoo, Bing,
DuckDuckGo, Yandex) or Bangladesh business directories, cleans them and
exports them to a spreadsheet or other backends.

Without --prompt or --keywords the command asks its questions interactively.`,
		Example: `  leadscout --prompt "plumbers in Dhaka"
  leadscout -s bing --prompt "real estate @gmail.com" -o leads.xlsx -o leads.csv
  leadscout -s bangladesh --keywords "car rental" --max-scrolls 9`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(configFile)
			if err != nil {
				return err
			}
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}

			logger, err := newLogger(cmd.ErrOrStderr(), v.GetString(config.KeyLogLevel))
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			if interactive || (!v.IsSet(config.KeyPrompt) && !v.IsSet(config.KeyKeywords)) {
				if err := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), logger).Interactive(v); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, v, cmd.OutOrStdout(), logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file (default ./leadscout.yaml)")
	f.BoolVarP(&interactive, "interactive", "i", false, "ask for the search settings interactively")
	f.StringP("prompt", "p", "", `free-text search, e.g. "plumbers in Dhaka" or "hotels @gmail.com"`)
	f.String("keywords", "", "search keywords (overrides --prompt)")
	f.String("location", config.DefaultLocation, "location for Maps searches")
	f.StringP("search-type", "s", "", "maps, google, yahoo, bing, duckduckgo, yandex or bangladesh")
	f.String("target", string(config.TargetEmail), "what search engines collect: email or profile")
	f.String("dork-query", "", "extra query text appended to the keywords")
	f.String("client-type", "", "free-form client label")
	f.Int("max-scrolls", config.DefaultMaxScrolls, "scroll iterations or result pages")
	f.Int("results-limit", config.DefaultResultsLimit, "stop after this many raw leads")
	f.Bool("headless", false, "run the browser without a window")
	f.String("browser", config.BrowserChrome, "browser implementation: chrome or static")
	f.String("proxy-file", "", "file with one proxy URL per line")
	f.StringSliceP("output", "o", []string{config.DefaultOutput}, "export targets (.xlsx, .csv, .jsonl, .db, postgres:// DSN); repeatable")
	f.Int("metrics-port", 0, "serve Prometheus metrics on this port (0 disables)")
	f.Duration("min-delay", 2*time.Second, "minimum delay between navigations")
	f.Duration("max-delay", 5*time.Second, "maximum delay between navigations")
	f.Int("retries", 3, "attempts for initial and listing navigations")
	f.Bool("respect-robots", false, "skip directories whose robots.txt disallows the search page")
	f.String("fingerprint", "chrome", "TLS fingerprint for the static browser: chrome, firefox, safari, go or random")
	f.String("report-json", "", "write the run summary as JSON to this file")
	f.String("report-html", "", "write the run summary as HTML to this file")
	f.String("log-level", "info", "debug, info, warn or error")

	return cmd
}

// bindFlags makes every flag in flagKeys visible to v under its config key.
// Unset flags fall through to the environment and the config file.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		fl := fs.Lookup(name)
		if fl == nil {
			return fmt.Errorf("flag %q not defined", name)
		}
		if err := v.BindPFlag(key, fl); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("%w: log level %q", config.ErrInvalid, level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func run(ctx context.Context, v *viper.Viper, out io.Writer, logger *slog.Logger) error {
	cfg, opts, err := config.Load(v)
	if err != nil {
		return err
	}
	cli.WriteRunBanner(out, cfg, opts)

	if opts.MetricsPort > 0 {
		srv := metrics.Start(opts.MetricsPort, logger)
		logger.Info("metrics server started", "port", opts.MetricsPort)
		defer srv.Stop(context.WithoutCancel(ctx))
	}

	p, err := pipeline.New(opts, logger)
	if err != nil {
		return err
	}

	logger.Info("initializing browser", "browser", opts.Browser, "headless", opts.Headless)
	outcome, runErr := p.Run(ctx, cfg, opts)
	if outcome.Summary.RunID == "" {
		return runErr
	}

	if outcome.Summary.RawLeads == 0 {
		fmt.Fprintln(out, "No results found. Check your search parameters.")
		return runErr
	}

	if err := report.WriteText(out, outcome.Summary); err != nil {
		logger.Warn("print summary", "err", err)
	}
	fmt.Fprintln(out, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(out, "\nSample results:")
	if err := report.WriteSample(out, outcome.Leads, report.SampleSize); err != nil {
		logger.Warn("print sample", "err", err)
	}
	return runErr
}
