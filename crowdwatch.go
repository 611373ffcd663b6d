// Package crowdwatch periodically reads the occupancy status off
// facility websites and appends timestamped observations to per-source
// CSV logs.
//
// A Watcher owns the whole pipeline: a page session provider per mode
// (live Chrome or a single HTTP fetch), one extraction strategy per
// source, the sink fan-out and the optional run-history store. Sources
// run strictly one at a time; a failing source never disturbs the ones
// after it.
package crowdwatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/crowdwatch/internal/browser"
	"github.com/hazyhaar/crowdwatch/internal/config"
	"github.com/hazyhaar/crowdwatch/internal/fetcher"
	"github.com/hazyhaar/crowdwatch/internal/page"
	"github.com/hazyhaar/crowdwatch/internal/runner"
	"github.com/hazyhaar/crowdwatch/internal/scrape"
	"github.com/hazyhaar/crowdwatch/internal/sink"
	"github.com/hazyhaar/crowdwatch/internal/store"
)

// Report is the outcome of one source run.
type Report = runner.Report

// Run statuses carried by Report.Status.
const (
	StatusOK    = runner.StatusOK
	StatusEmpty = runner.StatusEmpty
	StatusError = runner.StatusError
)

// Watcher is the top-level orchestrator. Create one per process.
type Watcher struct {
	cfg     *config.Config
	sources []scrape.Source
	byName  map[string]scrape.Source
	runner  *runner.Runner
	sinks   *sink.Router
	history *store.Store
	logger  *slog.Logger
	trigger chan string
}

// New creates a Watcher from configuration. A nil cfg uses the built-in
// two-source defaults. When no sinks are passed, the configured sink
// set is built: CSV logs under cfg.DataDir unless the config says
// otherwise.
func New(cfg *config.Config, logger *slog.Logger, sinks ...sink.Sink) (*Watcher, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	if len(sinks) == 0 {
		sinks = buildSinks(cfg)
	}
	router := sink.NewRouter(logger, sinks...)

	var history *store.Store
	if cfg.HistoryDB != "" && cfg.HistoryDB != config.HistoryOff {
		h, err := store.Open(cfg.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("crowdwatch: open history: %w", err)
		}
		history = h
	}

	sources, err := buildSources(cfg)
	if err != nil {
		if history != nil {
			history.Close()
		}
		return nil, err
	}

	byName := make(map[string]scrape.Source, len(sources))
	for _, src := range sources {
		byName[src.Name] = src
	}

	providers := map[string]page.Provider{
		scrape.ModeBrowser: browser.NewProvider(browser.Config{
			Remote:       cfg.Browser.Remote,
			Headful:      cfg.Browser.Headful,
			Sandbox:      cfg.Browser.Sandbox,
			WindowWidth:  cfg.Browser.WindowWidth,
			WindowHeight: cfg.Browser.WindowHeight,
			Stealth:      cfg.Browser.Stealth,
			NavTimeout:   cfg.Browser.NavTimeout(),
			Logger:       logger,
		}),
		scrape.ModeStatic: fetcher.New(fetcher.Config{}),
	}

	return &Watcher{
		cfg:     cfg,
		sources: sources,
		byName:  byName,
		runner: &runner.Runner{
			Providers: providers,
			Sink:      router,
			History:   history,
			Logger:    logger,
		},
		sinks:   router,
		history: history,
		logger:  logger,
		trigger: make(chan string, 16),
	}, nil
}

// RunSource runs one source by name. The error covers unknown names
// only; extraction failures are folded into the Report.
func (w *Watcher) RunSource(ctx context.Context, name string) (Report, error) {
	src, ok := w.byName[name]
	if !ok {
		return Report{}, fmt.Errorf("crowdwatch: unknown source %q", name)
	}
	return w.runner.Run(ctx, src), nil
}

// RunAll runs every enabled source once, in configuration order. Every
// source is attempted regardless of earlier outcomes; only context
// cancellation cuts the pass short.
func (w *Watcher) RunAll(ctx context.Context) []Report {
	reports := make([]Report, 0, len(w.sources))
	for _, src := range w.sources {
		if ctx.Err() != nil {
			break
		}
		reports = append(reports, w.runner.Run(ctx, src))
	}
	return reports
}

// History exposes the run-history store, nil when disabled.
func (w *Watcher) History() *store.Store { return w.history }

// Close releases the sinks and the history store. Page sessions are
// per-run and never held here.
func (w *Watcher) Close() error {
	var firstErr error
	if err := w.sinks.Close(); err != nil {
		firstErr = err
	}
	if w.history != nil {
		if err := w.history.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildSinks(cfg *config.Config) []sink.Sink {
	var sinks []sink.Sink
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, sink.NewStdout(nil))
		default: // csv
			sinks = append(sinks, sink.NewCSV(cfg.DataDir))
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, sink.NewCSV(cfg.DataDir))
	}
	return sinks
}

func buildSources(cfg *config.Config) ([]scrape.Source, error) {
	var sources []scrape.Source
	for _, sc := range cfg.Sources {
		if !sc.IsEnabled() {
			continue
		}
		strategy, err := buildStrategy(sc)
		if err != nil {
			return nil, err
		}
		mode := sc.Mode
		if mode == "" {
			mode = scrape.ModeBrowser
		}
		sources = append(sources, scrape.Source{
			Name:     sc.Name,
			URL:      sc.URL,
			Mode:     mode,
			Strategy: strategy,
		})
	}
	return sources, nil
}

func buildStrategy(sc config.SourceConfig) (scrape.Strategy, error) {
	switch sc.Strategy {
	case "pool":
		s := scrape.NewPoolStrategy()
		if sc.Pool.WaitSelector != "" {
			s.WaitSelector = sc.Pool.WaitSelector
		}
		if sc.Pool.Marker != "" {
			s.Marker = sc.Pool.Marker
		}
		if sc.Pool.ValueSelector != "" {
			s.ValueSelector = sc.Pool.ValueSelector
		}
		if sc.Pool.WaitTimeoutMs > 0 {
			s.WaitTimeout = time.Duration(sc.Pool.WaitTimeoutMs) * time.Millisecond
		}
		return s, nil
	case "gym":
		s := scrape.NewGymStrategy()
		if sc.Gym.Label != "" {
			s.Label = sc.Gym.Label
		}
		if sc.Gym.ClimbLimit > 0 {
			s.ClimbLimit = sc.Gym.ClimbLimit
		}
		if sc.Gym.GrowthSlack > 0 {
			s.GrowthSlack = sc.Gym.GrowthSlack
		}
		if sc.Gym.WaitTimeoutMs > 0 {
			s.WaitTimeout = time.Duration(sc.Gym.WaitTimeoutMs) * time.Millisecond
		}
		return s, nil
	default:
		return nil, fmt.Errorf("crowdwatch: source %q: unknown strategy %q", sc.Name, sc.Strategy)
	}
}
