package sink

import (
	"context"
	"log/slog"
)

// Router fans an observation out to every configured sink. A failing
// sink does not stop delivery to the others; the first error is
// returned after all sinks have been tried.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter returns a router over the given sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

func (r *Router) Append(ctx context.Context, source string, obs Observation) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Append(ctx, source, obs); err != nil {
			r.logger.Warn("sink: append failed", "source", source, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
