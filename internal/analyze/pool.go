package analyze

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PoolPoint is one parsed pool reading.
type PoolPoint struct {
	Time     time.Time
	Current  int
	Capacity int
	Percent  float64
}

// ParsePoolValue splits a "current/capacity" occupancy string.
func ParsePoolValue(s string) (current, capacity int, err error) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return 0, 0, fmt.Errorf("analyze: %q is not current/capacity", s)
	}
	current, err = strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, fmt.Errorf("analyze: current in %q: %w", s, err)
	}
	capacity, err = strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, fmt.Errorf("analyze: capacity in %q: %w", s, err)
	}
	return current, capacity, nil
}

// PoolSeries parses pool readings out of a log. Values that do not
// match current/capacity are counted in malformed and skipped.
func PoolSeries(l *Log) (points []PoolPoint, malformed int) {
	for _, e := range l.Entries {
		current, capacity, err := ParsePoolValue(e.Raw)
		if err != nil {
			malformed++
			continue
		}
		p := PoolPoint{Time: e.Time, Current: current, Capacity: capacity}
		if capacity > 0 {
			p.Percent = float64(current) / float64(capacity) * 100
		}
		points = append(points, p)
	}
	return points, malformed
}

// PoolSamples projects headcount for summary statistics.
func PoolSamples(points []PoolPoint) []Sample {
	samples := make([]Sample, len(points))
	for i, p := range points {
		samples[i] = Sample{Time: p.Time, Value: float64(p.Current)}
	}
	return samples
}

// MeanPercent is the average utilization across points.
func MeanPercent(points []PoolPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Percent
	}
	return sum / float64(len(points))
}

// MaxCapacity is the largest capacity seen in the series.
func MaxCapacity(points []PoolPoint) int {
	max := 0
	for _, p := range points {
		if p.Capacity > max {
			max = p.Capacity
		}
	}
	return max
}
