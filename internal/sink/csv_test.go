package sink

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestCSVAppend_HeaderWrittenOnce(t *testing.T) {
	// WHAT: two appends against a log file that does not exist yet.
	// WHY: the header must appear exactly once, on file creation, so the
	// log survives process restarts without sprouting duplicate headers.
	dir := t.TempDir()
	c := NewCSV(dir)
	ctx := context.Background()

	if err := c.Append(ctx, "luzanky", Observation{Timestamp: "2026-01-02T15:04:05+01:00", Occupancy: "57/135"}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := c.Append(ctx, "luzanky", Observation{Timestamp: "2026-01-02T15:24:05+01:00", Occupancy: "61/135"}); err != nil {
		t.Fatalf("second append: %v", err)
	}

	raw, err := os.ReadFile(c.Path("luzanky"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	want := []string{
		"timestamp,occupancy",
		"2026-01-02T15:04:05+01:00,57/135",
		"2026-01-02T15:24:05+01:00,61/135",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("log lines = %q, want %q", lines, want)
	}
}

func TestCSVAppend_ExistingFileKeepsHeader(t *testing.T) {
	// A log carried over from an earlier deployment gets rows only.
	dir := t.TempDir()
	c := NewCSV(dir)
	seed := "timestamp,occupancy\n2026-01-01T10:00:00+01:00,12/135\n"
	if err := os.WriteFile(c.Path("luzanky"), []byte(seed), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	if err := c.Append(context.Background(), "luzanky", Observation{Timestamp: "2026-01-02T15:04:05+01:00", Occupancy: "57/135"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	raw, err := os.ReadFile(c.Path("luzanky"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if got := strings.Count(string(raw), "timestamp,occupancy"); got != 1 {
		t.Fatalf("header count = %d, want 1\nlog:\n%s", got, raw)
	}
	if !strings.Contains(string(raw), "2026-01-02T15:04:05+01:00,57/135") {
		t.Fatalf("appended row missing\nlog:\n%s", raw)
	}
}

func TestCSVExists(t *testing.T) {
	c := NewCSV(t.TempDir())
	if ok, err := c.Exists("hangar"); err != nil {
		t.Fatalf("exists: %v", err)
	} else if ok {
		t.Fatal("Exists = true before any append")
	}
	if err := c.Append(context.Background(), "hangar", Observation{Timestamp: "2026-01-02T15:04:05+01:00", Occupancy: "Plenty of space"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if ok, err := c.Exists("hangar"); err != nil {
		t.Fatalf("exists: %v", err)
	} else if !ok {
		t.Fatal("Exists = false after append")
	}
}

func TestCSVExists_StatFailureSurfaces(t *testing.T) {
	// WHAT: a regular file squats where the data dir should be, so stat
	// fails with ENOTDIR rather than absence.
	// WHY: reading a stat failure as "fresh file" would write a second
	// header into an existing log; the failure has to reach the caller.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "data")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0o644); err != nil {
		t.Fatalf("seed blocker: %v", err)
	}

	c := NewCSV(blocker)
	if _, err := c.Exists("luzanky"); err == nil {
		t.Fatal("stat through a regular file should surface an error, not read as absent")
	}
}

func TestCSVAppend_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	c := NewCSV(dir)
	if err := c.Append(context.Background(), "luzanky", Observation{Timestamp: "2026-01-02T15:04:05+01:00", Occupancy: "5/135"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := os.Stat(c.Path("luzanky")); err != nil {
		t.Fatalf("log file missing: %v", err)
	}
}

func TestCSVPath_PerSourceFiles(t *testing.T) {
	c := NewCSV("data")
	if got, want := c.Path("luzanky"), filepath.Join("data", "luzanky.csv"); got != want {
		t.Fatalf("Path = %q, want %q", got, want)
	}
	if got, want := c.Path("hangar"), filepath.Join("data", "hangar.csv"); got != want {
		t.Fatalf("Path = %q, want %q", got, want)
	}
}
