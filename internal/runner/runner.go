// Package runner executes one source end-to-end and keeps its failures
// to itself.
//
// A broken portal, a hung navigation or a full disk turns into a Report
// with Status "error"; it never stops the sources that come after it.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/crowdwatch/internal/page"
	"github.com/hazyhaar/crowdwatch/internal/scrape"
	"github.com/hazyhaar/crowdwatch/internal/sink"
	"github.com/hazyhaar/crowdwatch/internal/store"
)

// Run statuses.
const (
	StatusOK    = "ok"    // occupancy extracted and recorded
	StatusEmpty = "empty" // scan completed, nothing found
	StatusError = "error" // session, navigation, extraction or sink failure
)

// Report is the outcome of one extraction attempt. Err is nil unless
// Status is StatusError.
type Report struct {
	Source    string
	Status    string
	Occupancy string
	Err       error
	Duration  time.Duration
	StartedAt time.Time
}

// Runner drives one source through session acquisition, navigation,
// extraction and persistence. Single attempt, no retries.
type Runner struct {
	Providers map[string]page.Provider // keyed by source mode
	Sink      sink.Sink
	History   *store.Store // optional run history
	Logger    *slog.Logger

	// Now is the clock used for observation timestamps. Defaults to
	// time.Now; tests inject a fixed clock.
	Now func() time.Time
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run executes src once. Every failure is folded into the returned
// Report; Run itself never fails, so one bad source cannot take down
// a multi-source pass.
func (r *Runner) Run(ctx context.Context, src scrape.Source) Report {
	log := r.logger()
	startedAt := r.now()

	report := r.attempt(ctx, log, src, startedAt)
	report.Duration = r.now().Sub(startedAt)

	switch report.Status {
	case StatusOK:
		log.Info("runner: occupancy recorded",
			"source", src.Name, "occupancy", report.Occupancy, "duration", report.Duration)
	case StatusEmpty:
		log.Info("runner: no occupancy found",
			"source", src.Name, "duration", report.Duration)
	case StatusError:
		log.Error("runner: source failed",
			"source", src.Name, "error", report.Err, "duration", report.Duration)
	}

	r.recordHistory(ctx, &report)
	return report
}

// attempt holds the session lifetime: the deferred Close is the only
// Close, on every exit path.
func (r *Runner) attempt(ctx context.Context, log *slog.Logger, src scrape.Source, startedAt time.Time) Report {
	report := Report{Source: src.Name, StartedAt: startedAt}

	provider := r.Providers[src.Mode]
	if provider == nil {
		report.Status = StatusError
		report.Err = fmt.Errorf("runner: no provider for mode %q", src.Mode)
		return report
	}

	session, err := provider.Open(ctx)
	if err != nil {
		report.Status = StatusError
		report.Err = fmt.Errorf("runner: open session: %w", err)
		return report
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("runner: session close", "source", src.Name, "error", err)
		}
	}()

	if err := session.Navigate(ctx, src.URL); err != nil {
		report.Status = StatusError
		report.Err = fmt.Errorf("runner: navigate %s: %w", src.URL, err)
		return report
	}

	result, err := src.Strategy.Extract(ctx, session)
	if err != nil {
		report.Status = StatusError
		report.Err = fmt.Errorf("runner: extract: %w", err)
		return report
	}
	if !result.Found {
		report.Status = StatusEmpty
		return report
	}

	report.Occupancy = result.Status
	if r.Sink != nil {
		obs := sink.Observation{
			Timestamp: r.now().Format(time.RFC3339),
			Occupancy: result.Status,
		}
		if err := r.Sink.Append(ctx, src.Name, obs); err != nil {
			report.Status = StatusError
			report.Err = fmt.Errorf("runner: record observation: %w", err)
			return report
		}
	}

	report.Status = StatusOK
	return report
}

// recordHistory is best-effort: a failing history store logs a warning
// and never changes the run outcome.
func (r *Runner) recordHistory(ctx context.Context, report *Report) {
	if r.History == nil {
		return
	}
	errMsg := ""
	if report.Err != nil {
		errMsg = report.Err.Error()
	}
	run := &store.Run{
		Source:     report.Source,
		Status:     report.Status,
		Occupancy:  report.Occupancy,
		Error:      errMsg,
		DurationMs: report.Duration.Milliseconds(),
		StartedAt:  report.StartedAt.UnixMilli(),
	}
	if err := r.History.InsertRun(ctx, run); err != nil {
		r.logger().Warn("runner: history insert failed",
			"source", report.Source, "error", err)
	}
}
