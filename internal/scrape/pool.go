package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/crowdwatch/internal/page"
)

// Pool portal defaults.
const (
	DefaultPoolWaitSelector  = "#info-ticket-collapse .col.area.person"
	DefaultPoolMarker        = "BAZÉNY"
	DefaultPoolValueSelector = "span.time"
)

// PoolStrategy reads the swimming-pool portal: a stable grid of area
// tiles, one per zone, each naming its zone and carrying a
// current/capacity value in a sub-element.
type PoolStrategy struct {
	// WaitSelector locates the area tiles.
	WaitSelector string

	// Marker is the zone caption to select.
	Marker string

	// ValueSelector locates the occupancy value inside a tile.
	ValueSelector string

	// WaitTimeout bounds the wait for the first tile. Default: 20s.
	WaitTimeout time.Duration
}

// NewPoolStrategy returns a PoolStrategy with the portal defaults.
func NewPoolStrategy() *PoolStrategy {
	return &PoolStrategy{
		WaitSelector:  DefaultPoolWaitSelector,
		Marker:        DefaultPoolMarker,
		ValueSelector: DefaultPoolValueSelector,
		WaitTimeout:   20 * time.Second,
	}
}

func (p *PoolStrategy) Name() string { return "pool" }

// Extract waits for the tiles, then scans them in order for the marker
// zone. A tile that names the zone but lacks the value sub-element is
// skipped and the scan continues; a scan that yields nothing is a
// NotFound result, never an error. Only the wait can fail the
// extraction.
func (p *PoolStrategy) Extract(ctx context.Context, s page.Session) (Result, error) {
	tileMatcher := page.Matcher{Selector: p.WaitSelector}

	if err := s.WaitFor(ctx, tileMatcher, p.waitTimeout()); err != nil {
		return NotFound(), fmt.Errorf("pool: wait for %q: %w", p.WaitSelector, err)
	}

	// Tiles the wait saw can vanish before the listing; that is a miss
	// for this pass, not a failure.
	tiles, err := s.FindAll(ctx, tileMatcher)
	if err != nil {
		return NotFound(), nil
	}

	for _, tile := range tiles {
		text, err := tile.Text(ctx)
		if err != nil {
			continue
		}
		if !strings.Contains(text, p.Marker) {
			continue
		}

		value, err := tile.Find(ctx, page.Matcher{Selector: p.ValueSelector})
		if err != nil {
			continue
		}
		status, err := value.Text(ctx)
		if err != nil {
			continue
		}
		if status = strings.TrimSpace(status); status != "" {
			return Found(status), nil
		}
	}

	return NotFound(), nil
}

func (p *PoolStrategy) waitTimeout() time.Duration {
	if p.WaitTimeout > 0 {
		return p.WaitTimeout
	}
	return 20 * time.Second
}
