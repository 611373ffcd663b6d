// Package scrape holds the per-source extraction strategies.
//
// A strategy reads one occupancy status out of an open page session.
// Every facility portal structures its markup differently, so each gets
// its own strategy; the run controller treats them uniformly through
// the Strategy interface.
package scrape

import (
	"context"

	"github.com/hazyhaar/crowdwatch/internal/page"
)

// Result is a strategy outcome. Found=false reports a completed scan
// that located nothing: a valid empty observation, not an error. A
// Found result always carries a non-empty status.
type Result struct {
	Status string
	Found  bool
}

// Found wraps an extracted status value.
func Found(status string) Result { return Result{Status: status, Found: true} }

// NotFound reports a completed scan with no occupancy value.
func NotFound() Result { return Result{} }

// Strategy extracts an occupancy status from a navigated session.
type Strategy interface {
	// Name identifies the strategy kind in logs and config.
	Name() string

	// Extract scans the session. An error means the scan itself broke
	// (the awaited element never appeared, the engine failed); a clean
	// miss is NotFound, not an error.
	Extract(ctx context.Context, s page.Session) (Result, error)
}

// Session modes. A browser source needs a real rendering engine;
// a static source is plain HTML fetched over HTTP.
const (
	ModeBrowser = "browser"
	ModeStatic  = "static"
)

// Source binds a facility page to the strategy that reads it.
// Immutable once constructed. Name is the log identity: the CSV file
// and every run record carry it.
type Source struct {
	Name     string
	URL      string
	Mode     string // ModeBrowser (default) or ModeStatic
	Strategy Strategy
}
