package analyze

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "1150px"
	chartHeight = "420px"
)

// RenderPoolCharts writes an HTML page with a headcount line chart and
// a weekday×hour heatmap of average headcount.
func RenderPoolCharts(w io.Writer, source string, points []PoolPoint) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s: people over time", source)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	x := make([]string, len(points))
	people := make([]opts.LineData, len(points))
	capacity := make([]opts.LineData, len(points))
	for i, p := range points {
		x[i] = p.Time.Format(reportTimeFormat)
		people[i] = opts.LineData{Value: p.Current}
		capacity[i] = opts.LineData{Value: p.Capacity}
	}
	line.SetXAxis(x).
		AddSeries("people", people).
		AddSeries("capacity", capacity)

	heat := heatmapChart(fmt.Sprintf("%s: average people by weekday and hour", source),
		PoolSamples(points), 0, 0)

	page := components.NewPage()
	page.AddCharts(line, heat)
	return page.Render(w)
}

// RenderGymCharts writes an HTML page with a level scatter plot and a
// weekday×hour heatmap of open-hours crowd levels.
func RenderGymCharts(w io.Writer, source string, points []GymPoint) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s: crowd level over time", source),
			Subtitle: "0=Closed, 1=Plenty of Space, 2=Balanced Crowd, 3=Buzzing / Full",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	x := make([]string, len(points))
	levels := make([]opts.ScatterData, len(points))
	for i, p := range points {
		x[i] = p.Time.Format(reportTimeFormat)
		levels[i] = opts.ScatterData{Value: p.Level, SymbolSize: 8}
	}
	scatter.SetXAxis(x).AddSeries("level", levels)

	heat := heatmapChart(fmt.Sprintf("%s: average level by weekday and hour, open only", source),
		GymOpenSamples(points), LevelPlenty, LevelBuzzing)

	page := components.NewPage()
	page.AddCharts(scatter, heat)
	return page.Render(w)
}

// heatmapChart builds a weekday×hour heatmap of means. maxScale at or
// below minScale switches the color scale to the data maximum.
func heatmapChart(title string, samples []Sample, minScale, maxScale float64) *charts.HeatMap {
	g := newGrid(samples)

	var items []opts.HeatMapData
	maxSeen := minScale
	for day := 0; day < 7; day++ {
		for hour := 0; hour < 24; hour++ {
			mean, ok := g.Mean(day, hour)
			if !ok {
				continue
			}
			items = append(items, opts.HeatMapData{
				Value: [3]interface{}{hour, day, math.Round(mean*10) / 10},
			})
			if mean > maxSeen {
				maxSeen = mean
			}
		}
	}
	if maxScale <= minScale {
		maxScale = maxSeen
	}

	hours := make([]string, 24)
	for h := range hours {
		hours[h] = strconv.Itoa(h)
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "hour"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: weekdayNames[:]}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Min:     float32(minScale),
			Max:     float32(maxScale),
			InRange: &opts.VisualMapInRange{Color: []string{"#50a3ba", "#eac736", "#d94e5d"}},
		}),
	)
	hm.SetXAxis(hours).AddSeries("mean", items)
	return hm
}
