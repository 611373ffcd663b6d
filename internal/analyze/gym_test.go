package analyze

import (
	"testing"
	"time"
)

func TestGymLevel_PortalSentences(t *testing.T) {
	// The portal's sentences as scraped, punctuation and all.
	cases := []struct {
		text string
		want int
	}{
		{"Closed for now – check out the opening hours in the Contacts section.", LevelClosed},
		{"Open! Plenty of space, hardly anyone around – all yours.", LevelPlenty},
		{"Open! You won’t be lonely – a nice, balanced crowd.", LevelBalanced},
		{"The Hangar is buzzing! Full-on bouldering vibes, expect a bit of a squeeze.", LevelBuzzing},
		{"PLENTY OF SPACE today", LevelPlenty},
		{"something entirely new", LevelUnknown},
		{"", LevelUnknown},
	}
	for _, tc := range cases {
		if got := GymLevel(tc.text); got != tc.want {
			t.Errorf("GymLevel(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestGymSeries_DropsUnknown(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	l := &Log{Entries: []Entry{
		{Time: base, Raw: "Open! Plenty of space, hardly anyone around – all yours."},
		{Time: base.Add(20 * time.Minute), Raw: "totally new wording"},
		{Time: base.Add(40 * time.Minute), Raw: "The Hangar is buzzing! Full-on bouldering vibes, expect a bit of a squeeze."},
	}}

	points, unknown := GymSeries(l)
	if unknown != 1 {
		t.Errorf("unknown = %d, want 1", unknown)
	}
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].Level != LevelPlenty || points[1].Level != LevelBuzzing {
		t.Errorf("levels = %d, %d", points[0].Level, points[1].Level)
	}
}

func TestGymOpenSamples_ExcludesClosed(t *testing.T) {
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	points := []GymPoint{
		{Time: base, Level: LevelClosed},
		{Time: base.Add(time.Hour), Level: LevelBalanced},
		{Time: base.Add(2 * time.Hour), Level: LevelBuzzing},
	}

	open := GymOpenSamples(points)
	if len(open) != 2 {
		t.Fatalf("open samples = %d, want 2", len(open))
	}
	if open[0].Value != float64(LevelBalanced) {
		t.Errorf("first open value = %f", open[0].Value)
	}

	all := GymSamples(points)
	if len(all) != 3 {
		t.Fatalf("all samples = %d, want 3", len(all))
	}
}

func TestLevelLabels_CoverKnownLevels(t *testing.T) {
	for level := LevelClosed; level <= LevelBuzzing; level++ {
		if LevelLabels[level] == "" {
			t.Errorf("level %d has no label", level)
		}
	}
}
