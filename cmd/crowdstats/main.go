// Command crowdstats summarizes the occupancy logs crowdwatch writes.
//
// Usage:
//
//	crowdstats -source luzanky                    # data/luzanky.csv
//	crowdstats -csv data/hangar.csv -kind gym
//	crowdstats -source luzanky -charts out.html   # also render charts
//
// The log kind (pool or gym) is inferred from the source name when the
// name makes it obvious; pass -kind otherwise.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/crowdwatch/internal/analyze"
)

func main() {
	csvPath := flag.String("csv", "", "path to an occupancy CSV log")
	dataDir := flag.String("data-dir", "data", "directory holding the per-source logs")
	source := flag.String("source", "", "source name; resolves <data-dir>/<source>.csv")
	kind := flag.String("kind", "", "log kind: pool | gym (default: inferred from the source name)")
	charts := flag.String("charts", "", "write an HTML chart page to this path")
	flag.Parse()

	if err := run(*csvPath, *dataDir, *source, *kind, *charts); err != nil {
		fmt.Fprintf(os.Stderr, "crowdstats: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath, dataDir, source, kind, charts string) error {
	path := csvPath
	name := source
	if path == "" {
		if source == "" {
			return fmt.Errorf("pass -csv <file> or -source <name>")
		}
		path = filepath.Join(dataDir, source+".csv")
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".csv")
	}

	if kind == "" {
		kind = inferKind(name)
		if kind == "" {
			return fmt.Errorf("cannot infer the log kind from %q; pass -kind pool|gym", name)
		}
	}

	log, err := analyze.LoadFile(path)
	if err != nil {
		return err
	}

	switch kind {
	case "pool":
		points, malformed := analyze.PoolSeries(log)
		analyze.WritePoolReport(os.Stdout, name, points, log.Skipped, malformed)
		if charts != "" {
			return renderCharts(charts, func(f *os.File) error {
				return analyze.RenderPoolCharts(f, name, points)
			})
		}
	case "gym":
		points, unknown := analyze.GymSeries(log)
		analyze.WriteGymReport(os.Stdout, name, points, log.Skipped, unknown)
		if charts != "" {
			return renderCharts(charts, func(f *os.File) error {
				return analyze.RenderGymCharts(f, name, points)
			})
		}
	default:
		return fmt.Errorf("unknown kind %q; want pool or gym", kind)
	}
	return nil
}

// inferKind guesses the log kind from well-known source names.
func inferKind(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "luzanky"), strings.Contains(lower, "pool"):
		return "pool"
	case strings.Contains(lower, "hangar"), strings.Contains(lower, "gym"):
		return "gym"
	}
	return ""
}

func renderCharts(path string, render func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := render(f); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	fmt.Fprintf(os.Stderr, "charts written to %s\n", path)
	return nil
}
