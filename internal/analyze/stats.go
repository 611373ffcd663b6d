package analyze

import (
	"sort"
	"time"
)

// Sample is one numeric reading with its wall-clock time.
type Sample struct {
	Time  time.Time
	Value float64
}

// DayMean is the average value for one weekday.
type DayMean struct {
	Day   time.Weekday
	Mean  float64
	Count int
}

// HourMean is the average value for one hour of day.
type HourMean struct {
	Hour  int
	Mean  float64
	Count int
}

// Stats summarizes a numeric series.
type Stats struct {
	Count int
	Start time.Time
	End   time.Time
	Span  time.Duration
	Max   float64
	Mean  float64

	// ByDay is sorted by mean, busiest weekday first; ties keep
	// Monday-first order.
	ByDay []DayMean
	// ByHour is sorted by hour; only hours with data appear.
	ByHour []HourMean
}

// Summarize computes Stats over samples. Empty input yields zero Stats.
func Summarize(samples []Sample) Stats {
	var st Stats
	st.Count = len(samples)
	if st.Count == 0 {
		return st
	}

	st.Start = samples[0].Time
	st.End = samples[0].Time
	var sum float64
	var daySum [7]float64
	var dayCount [7]int
	var hourSum [24]float64
	var hourCount [24]int

	for i, s := range samples {
		if s.Time.Before(st.Start) {
			st.Start = s.Time
		}
		if s.Time.After(st.End) {
			st.End = s.Time
		}
		if i == 0 || s.Value > st.Max {
			st.Max = s.Value
		}
		sum += s.Value

		d := weekdayIndex(s.Time)
		daySum[d] += s.Value
		dayCount[d]++
		h := s.Time.Hour()
		hourSum[h] += s.Value
		hourCount[h]++
	}

	st.Span = st.End.Sub(st.Start)
	st.Mean = sum / float64(st.Count)

	for d := 0; d < 7; d++ {
		if dayCount[d] == 0 {
			continue
		}
		st.ByDay = append(st.ByDay, DayMean{
			Day:   weekdayFromIndex(d),
			Mean:  daySum[d] / float64(dayCount[d]),
			Count: dayCount[d],
		})
	}
	sort.SliceStable(st.ByDay, func(i, j int) bool {
		return st.ByDay[i].Mean > st.ByDay[j].Mean
	})

	for h := 0; h < 24; h++ {
		if hourCount[h] == 0 {
			continue
		}
		st.ByHour = append(st.ByHour, HourMean{
			Hour:  h,
			Mean:  hourSum[h] / float64(hourCount[h]),
			Count: hourCount[h],
		})
	}
	return st
}

// CountByWeekday tallies samples per weekday, Monday first.
func CountByWeekday(samples []Sample) [7]int {
	var counts [7]int
	for _, s := range samples {
		counts[weekdayIndex(s.Time)]++
	}
	return counts
}

// weekdayIndex maps Monday to 0 through Sunday to 6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func weekdayFromIndex(i int) time.Weekday {
	return time.Weekday((i + 1) % 7)
}

// weekdayNames is Monday-first, the order reports and heatmaps use.
var weekdayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// grid accumulates weekday×hour means for heatmaps.
type grid struct {
	sum   [7][24]float64
	count [7][24]int
}

func newGrid(samples []Sample) *grid {
	g := &grid{}
	for _, s := range samples {
		d := weekdayIndex(s.Time)
		h := s.Time.Hour()
		g.sum[d][h] += s.Value
		g.count[d][h]++
	}
	return g
}

// Mean returns the cell average; ok is false for cells with no data.
func (g *grid) Mean(day, hour int) (mean float64, ok bool) {
	if g.count[day][hour] == 0 {
		return 0, false
	}
	return g.sum[day][hour] / float64(g.count[day][hour]), true
}
