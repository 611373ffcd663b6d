// Package sink persists observations.
package sink

import "context"

// Observation is one extracted occupancy reading. The field order is
// the log schema; Timestamp is local wall-clock RFC 3339.
type Observation struct {
	Timestamp string `csv:"timestamp" json:"timestamp"`
	Occupancy string `csv:"occupancy" json:"occupancy"`
}

// Sink is the output interface. Implementations deliver observations to
// different backends (per-source CSV logs, stdout).
type Sink interface {
	Append(ctx context.Context, source string, obs Observation) error
	Close() error
}
