// Package pipeline runs one scrape end to end: launch the browser, run the
// adapter for the configured source, clean the raw leads, export them to
// every configured backend and summarize the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/FranksOps/leadscout/internal/browser"
	"github.com/FranksOps/leadscout/internal/browser/chrome"
	"github.com/FranksOps/leadscout/internal/browser/static"
	"github.com/FranksOps/leadscout/internal/config"
	"github.com/FranksOps/leadscout/internal/fingerprint"
	"github.com/FranksOps/leadscout/internal/lead"
	"github.com/FranksOps/leadscout/internal/metrics"
	"github.com/FranksOps/leadscout/internal/report"
	"github.com/FranksOps/leadscout/internal/scraper"
	"github.com/FranksOps/leadscout/internal/storage"
	"github.com/FranksOps/leadscout/internal/storage/csvbackend"
	"github.com/FranksOps/leadscout/internal/storage/jsonbackend"
	"github.com/FranksOps/leadscout/internal/storage/postgres"
	"github.com/FranksOps/leadscout/internal/storage/sqlite"
	"github.com/FranksOps/leadscout/internal/storage/xlsx"
	"github.com/FranksOps/leadscout/pkg/persona"
	"github.com/FranksOps/leadscout/pkg/proxy"
	"github.com/FranksOps/leadscout/pkg/ratelimit"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Pipeline holds what stays fixed across runs.
type Pipeline struct {
	Launcher browser.Launcher
	// Adapter overrides the adapter chosen from the search type.
	Adapter scraper.Adapter
	// Proxies, when non-empty, supplies one proxy per browser launch.
	Proxies *proxy.Pool
	// Personas defaults to the built-in user agents and viewports.
	Personas *persona.Pool
	Timing   *scraper.Timing
	Logger   *slog.Logger
}

// Outcome is what a run produced.
type Outcome struct {
	Raw     []lead.Lead
	Leads   []lead.Lead
	Summary report.Summary
}

// New builds a Pipeline from run options: it loads the proxy file and picks
// the browser implementation.
func New(opts config.RunOptions, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var pool *proxy.Pool
	if opts.ProxyFile != "" {
		pool = proxy.NewPool(proxy.Config{})
		if err := pool.LoadFile(opts.ProxyFile); err != nil {
			return nil, fmt.Errorf("load proxies: %w", err)
		}
		logger.Info("loaded proxies", "file", opts.ProxyFile, "count", pool.Len())
	}

	personas := persona.NewPool(nil, nil)
	launcher, err := NewLauncher(opts, pool, personas, logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		Launcher: launcher,
		Proxies:  pool,
		Personas: personas,
		Logger:   logger,
	}, nil
}

// NewLauncher returns the browser implementation named by opts.Browser.
func NewLauncher(opts config.RunOptions, pool *proxy.Pool, personas *persona.Pool, logger *slog.Logger) (browser.Launcher, error) {
	switch opts.Browser {
	case config.BrowserChrome, "":
		return chrome.Launcher{Logger: logger}, nil
	case config.BrowserStatic:
		fc, err := fetchConfig(opts, pool, personas)
		if err != nil {
			return nil, err
		}
		return static.Launcher{Config: fc, Logger: logger}, nil
	}
	return nil, fmt.Errorf("%w: unknown browser %q", config.ErrInvalid, opts.Browser)
}

func fetchConfig(opts config.RunOptions, pool *proxy.Pool, personas *persona.Pool) (static.FetchConfig, error) {
	fp := fingerprint.ProfileChrome
	if opts.Fingerprint != "" {
		p, err := fingerprint.ParseProfile(opts.Fingerprint)
		if err != nil {
			return static.FetchConfig{}, fmt.Errorf("%w: %v", config.ErrInvalid, err)
		}
		fp = p
	}
	return static.FetchConfig{
		Timeout:        scraper.DefaultTiming().Navigation,
		UseCookieJar:   true,
		ProxyPool:      pool,
		Personas:       personas,
		AcceptLanguage: scraper.AcceptLanguage,
		Fingerprint:    fp,
	}, nil
}

// Run scrapes, cleans and exports. Scraping failures never fail the run:
// whatever was collected before a failure or an interrupt is still cleaned
// and exported. The returned error reports launch or export problems.
func (p *Pipeline) Run(ctx context.Context, cfg config.SearchConfig, opts config.RunOptions) (Outcome, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	runID := uuid.New().String()
	logger = logger.With("run", runID)

	adapter := p.Adapter
	if adapter == nil {
		a, err := scraper.For(cfg.SearchType)
		if err != nil {
			return Outcome{}, err
		}
		adapter = a
	}

	env, closeEnv, err := p.env(ctx, opts, logger)
	if err != nil {
		return Outcome{}, err
	}

	logger.Info("scraping", "adapter", adapter.Name(), "query", cfg.Query(),
		"max_scrolls", cfg.MaxScrolls, "results_limit", cfg.ResultsLimit)
	res, runErr := adapter.Run(ctx, env, cfg)
	closeEnv()
	if runErr != nil && len(res.Leads) == 0 {
		return Outcome{}, fmt.Errorf("run %s: %w", adapter.Name(), runErr)
	}
	if runErr != nil {
		logger.Error("adapter stopped early", "adapter", adapter.Name(), "err", runErr)
	}

	interrupted := ctx.Err() != nil
	if interrupted {
		logger.Warn("scraping interrupted, keeping partial results", "raw", len(res.Leads))
	}
	logger.Info("scraping finished", "raw", len(res.Leads), "pages", res.Pages)

	cleaned := lead.Clean(res.Leads)
	out := Outcome{Raw: res.Leads, Leads: cleaned}

	summary := report.GenerateSummary(res.Leads, cleaned)
	summary.RunID = runID
	summary.SearchType = string(cfg.SearchType)
	summary.Query = cfg.Query()
	summary.Pages = res.Pages
	summary.Interrupted = interrupted
	summary.AddChallenges(res.Challenges)

	var exportErr error
	if len(res.Leads) == 0 {
		logger.Warn("no results found, check your search parameters")
	} else {
		logger.Info("cleaned leads", "valid", len(cleaned))
		// An interrupt must not stop the export of what was already collected.
		summary.Outputs, exportErr = Export(context.WithoutCancel(ctx), opts.Outputs, cleaned, logger)
	}

	summary.StartTime = start
	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(start)
	out.Summary = summary

	if err := writeReports(opts, summary); err != nil {
		exportErr = errors.Join(exportErr, err)
	}
	return out, exportErr
}

// env launches the browser and assembles the adapter environment. The
// returned func closes the browser.
func (p *Pipeline) env(ctx context.Context, opts config.RunOptions, logger *slog.Logger) (scraper.Env, func(), error) {
	if p.Launcher == nil {
		return scraper.Env{}, nil, errors.New("pipeline: no browser launcher")
	}

	personas := p.Personas
	if personas == nil {
		personas = persona.NewPool(nil, nil)
	}

	launch := browser.LaunchOptions{Headless: opts.Headless}
	var activeProxy *url.URL
	if p.Proxies != nil && p.Proxies.Len() > 0 {
		if activeProxy = p.Proxies.Next(); activeProxy != nil {
			launch.ProxyServer = activeProxy.String()
			logger.Info("using proxy", "proxy", activeProxy.Host)
		}
	}

	b, err := p.Launcher.Launch(ctx, launch)
	if err != nil {
		if activeProxy != nil {
			_ = p.Proxies.MarkFailure(activeProxy)
			metrics.ProxyFailures.WithLabelValues(activeProxy.Host).Inc()
		}
		return scraper.Env{}, nil, fmt.Errorf("launch browser: %w", err)
	}

	timing := scraper.DefaultTiming()
	if p.Timing != nil {
		timing = *p.Timing
	}

	retry := ratelimit.DefaultRetry
	if opts.Retries > 0 {
		retry.Attempts = opts.Retries
	}
	retry.Logger = logger

	env := scraper.Env{
		Browser:  b,
		Personas: personas,
		Limiter:  ratelimit.NewLimiter(opts.MinDelay, opts.MaxDelay),
		Retry:    retry,
		Timing:   timing,
		Logger:   logger,
	}
	if opts.RespectRobots {
		fc, err := fetchConfig(opts, p.Proxies, personas)
		if err != nil {
			b.Close()
			return scraper.Env{}, nil, err
		}
		f, err := static.NewFetcher(fc)
		if err != nil {
			b.Close()
			return scraper.Env{}, nil, fmt.Errorf("robots fetcher: %w", err)
		}
		env.Robots = scraper.NewRobotsTxtAuditor(f, logger)
	}

	closeFn := func() {
		if err := b.Close(); err != nil {
			logger.Debug("browser close", "err", err)
		}
	}
	return env, closeFn, nil
}

// Export writes leads to every output concurrently and returns the outputs
// that were written. A failing output does not stop the others.
func Export(ctx context.Context, outputs []string, leads []lead.Lead, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		mu      sync.Mutex
		errs    []error
		written = make([]bool, len(outputs))
		g       errgroup.Group
	)

	for i, spec := range outputs {
		g.Go(func() error {
			err := exportOne(ctx, spec, leads)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("export failed", "output", spec, "err", err)
				errs = append(errs, err)
				return nil
			}
			written[i] = true
			logger.Info("results exported", "output", spec, "leads", len(leads))
			return nil
		})
	}
	_ = g.Wait()

	var done []string
	for i, ok := range written {
		if ok {
			done = append(done, outputs[i])
		}
	}
	return done, errors.Join(errs...)
}

func exportOne(ctx context.Context, spec string, leads []lead.Lead) (err error) {
	b, err := OpenBackend(ctx, spec)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", spec, cerr)
		}
	}()
	if err := storage.SaveAll(ctx, b, leads); err != nil {
		return fmt.Errorf("export %s: %w", spec, err)
	}
	return nil
}

// OpenBackend picks a storage backend for an output spec. Postgres DSNs and
// "sqlite:" prefixed paths are recognized first, then the file extension:
// .xlsx, .csv, .jsonl/.ndjson/.json, .db/.sqlite/.sqlite3.
func OpenBackend(ctx context.Context, spec string) (storage.Backend, error) {
	switch {
	case strings.HasPrefix(spec, "postgres://"), strings.HasPrefix(spec, "postgresql://"):
		return postgres.New(ctx, spec)
	case strings.HasPrefix(spec, "sqlite:"):
		return sqlite.New(strings.TrimPrefix(spec, "sqlite:"))
	}

	switch strings.ToLower(filepath.Ext(spec)) {
	case ".xlsx":
		return xlsx.New(spec)
	case ".csv":
		return csvbackend.New(spec)
	case ".jsonl", ".ndjson", ".json":
		return jsonbackend.New(spec)
	case ".db", ".sqlite", ".sqlite3":
		return sqlite.New(spec)
	}
	return nil, fmt.Errorf("%w: unsupported output %q", config.ErrInvalid, spec)
}

func writeReports(opts config.RunOptions, summary report.Summary) error {
	var errs []error
	if opts.ReportJSON != "" {
		errs = append(errs, writeFile(opts.ReportJSON, func(f *os.File) error {
			return report.WriteJSON(f, summary)
		}))
	}
	if opts.ReportHTML != "" {
		errs = append(errs, writeFile(opts.ReportHTML, func(f *os.File) error {
			return report.WriteHTML(f, summary)
		}))
	}
	return errors.Join(errs...)
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write report %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report %s: %w", path, err)
	}
	return nil
}
