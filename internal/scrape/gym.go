package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hazyhaar/crowdwatch/internal/page"
)

// Gym portal defaults. ClimbLimit and GrowthSlack are heuristic
// constants tuned against the live page; treat them as configuration,
// not as values with a derivation.
const (
	DefaultGymLabel       = "Current occupancy"
	DefaultGymClimbLimit  = 3
	DefaultGymGrowthSlack = 5
)

// GymStrategy reads the climbing-gym portal. The occupancy sentence has
// no stable selector; its distance from the label phrase shifts between
// page revisions. The strategy anchors on the label and widens to
// ancestors until one carries meaningfully more text, then peels the
// status out of whatever it accumulated.
type GymStrategy struct {
	// Label is the anchor phrase.
	Label string

	// ClimbLimit caps how many ancestors are tried. Default: 3.
	ClimbLimit int

	// GrowthSlack is the text growth, in characters, under which a
	// parent is considered to add nothing. Default: 5.
	GrowthSlack int

	// WaitTimeout bounds the wait for the label. Default: 20s.
	WaitTimeout time.Duration
}

// NewGymStrategy returns a GymStrategy with the portal defaults.
func NewGymStrategy() *GymStrategy {
	return &GymStrategy{
		Label:       DefaultGymLabel,
		ClimbLimit:  DefaultGymClimbLimit,
		GrowthSlack: DefaultGymGrowthSlack,
		WaitTimeout: 20 * time.Second,
	}
}

func (g *GymStrategy) Name() string { return "gym" }

// Extract anchors on the label, climbs, then resolves the status:
// label-only text reads the next sibling, label-plus-content strips the
// label, anything else is returned whole. Lookup misses after the
// initial wait fall through to the next step; only the wait can fail
// the extraction.
func (g *GymStrategy) Extract(ctx context.Context, s page.Session) (Result, error) {
	anchor := page.Matcher{Contains: g.Label}

	if err := s.WaitFor(ctx, anchor, g.waitTimeout()); err != nil {
		return NotFound(), fmt.Errorf("gym: wait for label %q: %w", g.Label, err)
	}

	// The page can mutate between the wait and the read; an anchor that
	// vanished or turned unreadable is a miss for this pass, not a failure.
	candidate, err := s.Find(ctx, anchor)
	if err != nil {
		return NotFound(), nil
	}
	best, err := candidate.Text(ctx)
	if err != nil {
		return NotFound(), nil
	}

	// Climb: adopt the first ancestor whose text grows past the slack,
	// keeping the best text while nothing grows.
	for i := 0; i < g.climbLimit(); i++ {
		parent, err := candidate.Parent(ctx)
		if err != nil {
			break
		}
		text, err := parent.Text(ctx)
		if err != nil {
			break
		}
		if len(strings.TrimSpace(text)) > len(strings.TrimSpace(best))+g.growthSlack() {
			candidate = parent
			best = text
			break
		}
		candidate = parent
	}

	normBest := normalize(best)
	normLabel := normalize(g.Label)

	if normBest == normLabel {
		// The label stands alone; the status lives in the neighbor.
		if sib, err := candidate.Next(ctx); err == nil {
			if text, err := sib.Text(ctx); err == nil {
				if text = strings.TrimSpace(text); text != "" {
					return Found(text), nil
				}
			}
		}
	} else if strings.Contains(normBest, normLabel) {
		if rest := afterLabel(best, g.Label); rest != "" {
			return Found(rest), nil
		}
	}

	if trimmed := strings.TrimSpace(best); trimmed != "" {
		return Found(trimmed), nil
	}
	return NotFound(), nil
}

func (g *GymStrategy) climbLimit() int {
	if g.ClimbLimit > 0 {
		return g.ClimbLimit
	}
	return DefaultGymClimbLimit
}

func (g *GymStrategy) growthSlack() int {
	if g.GrowthSlack > 0 {
		return g.GrowthSlack
	}
	return DefaultGymGrowthSlack
}

func (g *GymStrategy) waitTimeout() time.Duration {
	if g.WaitTimeout > 0 {
		return g.WaitTimeout
	}
	return 20 * time.Second
}

// normalize prepares text for comparison. Returned statuses keep the
// original casing; only comparisons use this form.
func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// afterLabel returns the trimmed text following the first
// case-insensitive occurrence of label. The match walks the original
// string: case folding can change a rune's byte length, so an index
// found in an upper-cased copy does not transfer back.
func afterLabel(text, label string) string {
	runes := utf8.RuneCountInString(label)
	if runes == 0 {
		return ""
	}
	for start := range text {
		end, ok := advance(text, start, runes)
		if !ok {
			return ""
		}
		if strings.EqualFold(text[start:end], label) {
			return strings.TrimSpace(text[end:])
		}
	}
	return ""
}

// advance returns the offset n runes past start, false when the string
// ends first.
func advance(s string, start, n int) (int, bool) {
	end := start
	for ; n > 0; n-- {
		if end >= len(s) {
			return 0, false
		}
		_, size := utf8.DecodeRuneInString(s[end:])
		end += size
	}
	return end, true
}
