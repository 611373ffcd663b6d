package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
)

// Stdout writes observations as JSON lines. The mutex keeps lines whole
// when several sources report at once.
type Stdout struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout returns a sink writing to w, or os.Stdout when w is nil.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w)}
}

type stdoutLine struct {
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Occupancy string `json:"occupancy"`
}

func (s *Stdout) Append(_ context.Context, source string, obs Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(stdoutLine{
		Source:    source,
		Timestamp: obs.Timestamp,
		Occupancy: obs.Occupancy,
	})
}

func (s *Stdout) Close() error { return nil }
