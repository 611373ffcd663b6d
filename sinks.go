package crowdwatch

import (
	"io"

	"github.com/hazyhaar/crowdwatch/internal/sink"
)

// Sink is the output interface for observations.
type Sink = sink.Sink

// Observation is one extracted occupancy reading.
type Observation = sink.Observation

// NewCSVSink creates the append-only per-source CSV sink rooted at dir.
func NewCSVSink(dir string) Sink {
	return sink.NewCSV(dir)
}

// NewStdoutSink creates a JSON-lines sink writing to w, or os.Stdout
// when w is nil.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}
