package analyze

import (
	"strings"
	"time"
)

// Occupancy levels for the climbing gym. LevelUnknown marks statuses
// the mapping does not recognize; they never enter numeric stats.
const (
	LevelUnknown  = -1
	LevelClosed   = 0
	LevelPlenty   = 1
	LevelBalanced = 2
	LevelBuzzing  = 3
)

// levelFragments maps case-insensitive status fragments to levels.
// The portal rewords its sentences now and then, so matching is on the
// stable core of each phrase, first hit wins.
var levelFragments = []struct {
	fragment string
	level    int
}{
	{"closed for now", LevelClosed},
	{"plenty of space", LevelPlenty},
	{"balanced crowd", LevelBalanced},
	{"buzzing", LevelBuzzing},
}

// LevelLabels names each level for reports and chart axes.
var LevelLabels = map[int]string{
	LevelClosed:   "Closed",
	LevelPlenty:   "Plenty of Space",
	LevelBalanced: "Balanced Crowd",
	LevelBuzzing:  "Buzzing / Full",
}

// GymLevel maps a status sentence to its level, or LevelUnknown.
func GymLevel(text string) int {
	lower := strings.ToLower(text)
	for _, lf := range levelFragments {
		if strings.Contains(lower, lf.fragment) {
			return lf.level
		}
	}
	return LevelUnknown
}

// GymPoint is one parsed gym reading.
type GymPoint struct {
	Time  time.Time
	Level int
	Raw   string
}

// GymSeries maps log entries to levels. Unrecognized statuses are
// counted in unknown and dropped.
func GymSeries(l *Log) (points []GymPoint, unknown int) {
	for _, e := range l.Entries {
		level := GymLevel(e.Raw)
		if level == LevelUnknown {
			unknown++
			continue
		}
		points = append(points, GymPoint{Time: e.Time, Level: level, Raw: e.Raw})
	}
	return points, unknown
}

// GymSamples projects every reading, closed included.
func GymSamples(points []GymPoint) []Sample {
	samples := make([]Sample, len(points))
	for i, p := range points {
		samples[i] = Sample{Time: p.Time, Value: float64(p.Level)}
	}
	return samples
}

// GymOpenSamples projects readings taken while open (level above
// closed). Crowd means are computed over these only.
func GymOpenSamples(points []GymPoint) []Sample {
	var samples []Sample
	for _, p := range points {
		if p.Level <= LevelClosed {
			continue
		}
		samples = append(samples, Sample{Time: p.Time, Value: float64(p.Level)})
	}
	return samples
}
