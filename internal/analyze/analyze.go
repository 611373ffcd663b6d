// Package analyze reads the per-source CSV logs back and turns them
// into statistics, terminal reports and charts.
//
// It is the downstream half of crowdwatch: the scraper only ever
// appends `timestamp,occupancy` rows; everything derived (percentages,
// crowd levels, weekday/hour means) is computed here at read time.
package analyze

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
)

type rawRow struct {
	Timestamp string `csv:"timestamp"`
	Occupancy string `csv:"occupancy"`
}

// Entry is one parsed log line.
type Entry struct {
	Time time.Time
	Raw  string
}

// Log is a loaded per-source CSV log.
type Log struct {
	Path    string
	Entries []Entry
	Skipped int // rows with unparseable timestamps
}

// LoadFile reads a `timestamp,occupancy` CSV log. Rows whose timestamp
// does not parse are counted in Skipped, not returned as errors; logs
// written across deployments mix timestamp formats.
func LoadFile(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("analyze: open %s: %w", path, err)
	}
	defer f.Close()

	var rows []rawRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("analyze: parse %s: %w", path, err)
	}

	l := &Log{Path: path}
	for _, r := range rows {
		t, err := parseTimestamp(strings.TrimSpace(r.Timestamp))
		if err != nil {
			l.Skipped++
			continue
		}
		l.Entries = append(l.Entries, Entry{Time: t, Raw: strings.TrimSpace(r.Occupancy)})
	}
	return l, nil
}

// timestampLayouts covers RFC 3339 (current writer) and the offset-less
// forms older logs carry. Offset-less stamps are taken as local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(timestampLayouts[0], s); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
