package crowdwatch

import (
	"context"
	"time"

	"github.com/hazyhaar/crowdwatch/internal/api"
)

// RunDaemon runs the collection loop: one pass immediately, then one
// per configured interval, plus any single-source runs queued through
// Trigger. All runs execute on this goroutine, so the sequential-run
// invariant holds even with the API enabled. Blocks until ctx is
// cancelled.
func (w *Watcher) RunDaemon(ctx context.Context) error {
	if addr := w.cfg.API.Addr; addr != "" {
		srv := api.NewServer(api.Config{
			Sources: w.apiSources(),
			History: w.history,
			Trigger: w.Trigger,
			Logger:  w.logger,
		})
		go func() {
			if err := srv.Serve(ctx, addr); err != nil {
				w.logger.Error("crowdwatch: api server", "error", err)
			}
		}()
	}

	interval := w.cfg.Daemon.Interval()
	w.logger.Info("crowdwatch: daemon started",
		"interval", interval, "sources", len(w.sources))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.RunAll(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("crowdwatch: daemon stopped")
			return nil
		case <-ticker.C:
			w.RunAll(ctx)
		case name := <-w.trigger:
			w.runTriggered(ctx, name)
		}
	}
}

// Trigger queues an immediate run of the named source on the daemon
// goroutine. It reports false when the name is not runnable or the
// queue is full; it never blocks.
func (w *Watcher) Trigger(name string) bool {
	if _, ok := w.byName[name]; !ok {
		return false
	}
	select {
	case w.trigger <- name:
		return true
	default:
		return false
	}
}

func (w *Watcher) runTriggered(ctx context.Context, name string) {
	if _, err := w.RunSource(ctx, name); err != nil {
		w.logger.Warn("crowdwatch: triggered run", "source", name, "error", err)
	}
}

// apiSources lists every configured source, disabled ones included, so
// the API can show why a source is not being collected.
func (w *Watcher) apiSources() []api.Source {
	out := make([]api.Source, 0, len(w.cfg.Sources))
	for _, sc := range w.cfg.Sources {
		out = append(out, api.Source{
			Name:     sc.Name,
			URL:      sc.URL,
			Strategy: sc.Strategy,
			Mode:     sc.Mode,
			Enabled:  sc.IsEnabled(),
		})
	}
	return out
}
