package analyze

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

const reportTimeFormat = "2006-01-02 15:04"

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// WritePoolReport renders the pool summary tables to w.
func WritePoolReport(w io.Writer, source string, points []PoolPoint, skipped, malformed int) {
	st := Summarize(PoolSamples(points))

	fmt.Fprintf(w, "POOL OCCUPANCY: %s\n", source)
	summary := newTable(w)
	summary.AppendRow(table.Row{"Observations", st.Count})
	summary.AppendRow(table.Row{"Skipped rows", skipped})
	summary.AppendRow(table.Row{"Malformed values", malformed})
	if st.Count > 0 {
		summary.AppendRow(table.Row{"From", st.Start.Format(reportTimeFormat)})
		summary.AppendRow(table.Row{"To", st.End.Format(reportTimeFormat)})
		summary.AppendRow(table.Row{"Span", st.Span.Round(time.Minute).String()})
		summary.AppendRow(table.Row{"Max occupancy", fmt.Sprintf("%.0f people", st.Max)})
		summary.AppendRow(table.Row{"Mean occupancy",
			fmt.Sprintf("%.1f people (%.1f%%)", st.Mean, MeanPercent(points))})
	}
	summary.Render()

	writeMeansTables(w, st, "Avg people")
}

// WriteGymReport renders the gym summary tables to w. Crowd means use
// open-hours readings only; availability counts use everything.
func WriteGymReport(w io.Writer, source string, points []GymPoint, skipped, unknown int) {
	all := Summarize(GymSamples(points))
	open := Summarize(GymOpenSamples(points))

	fmt.Fprintf(w, "GYM OCCUPANCY: %s\n", source)
	summary := newTable(w)
	summary.AppendRow(table.Row{"Observations", all.Count})
	summary.AppendRow(table.Row{"Skipped rows", skipped})
	summary.AppendRow(table.Row{"Unknown statuses", unknown})
	if all.Count > 0 {
		summary.AppendRow(table.Row{"From", all.Start.Format(reportTimeFormat)})
		summary.AppendRow(table.Row{"To", all.End.Format(reportTimeFormat)})
		summary.AppendRow(table.Row{"Span", all.Span.Round(time.Minute).String()})
	}
	summary.AppendRow(table.Row{"Open observations", open.Count})
	if open.Count > 0 {
		summary.AppendRow(table.Row{"Mean level while open",
			fmt.Sprintf("%.2f (1=%s, 3=%s)", open.Mean, LevelLabels[LevelPlenty], LevelLabels[LevelBuzzing])})
	}
	summary.Render()

	fmt.Fprintln(w, "\nDATA POINTS BY WEEKDAY")
	counts := CountByWeekday(GymSamples(points))
	avail := newTable(w)
	avail.AppendHeader(table.Row{"Day", "Count"})
	for i, name := range weekdayNames {
		avail.AppendRow(table.Row{name, counts[i]})
	}
	avail.Render()

	writeMeansTables(w, open, "Avg level")
}

// writeMeansTables renders the weekday and hour breakdowns shared by
// both report kinds.
func writeMeansTables(w io.Writer, st Stats, valueHeader string) {
	if len(st.ByDay) > 0 {
		fmt.Fprintln(w, "\nAVERAGE BY WEEKDAY (BUSIEST FIRST)")
		byDay := newTable(w)
		byDay.AppendHeader(table.Row{"Day", valueHeader, "Samples"})
		for _, d := range st.ByDay {
			byDay.AppendRow(table.Row{d.Day.String(), fmt.Sprintf("%.1f", d.Mean), d.Count})
		}
		byDay.Render()
	}

	if len(st.ByHour) > 0 {
		fmt.Fprintln(w, "\nAVERAGE BY HOUR")
		byHour := newTable(w)
		byHour.AppendHeader(table.Row{"Hour", valueHeader, "Samples"})
		for _, h := range st.ByHour {
			byHour.AppendRow(table.Row{fmt.Sprintf("%02d:00", h.Hour), fmt.Sprintf("%.1f", h.Mean), h.Count})
		}
		byHour.Render()
	}
}
