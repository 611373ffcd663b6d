package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// CSV appends observations to one file per source under dir. A fresh
// file gets the header row exactly once; an existing file is only ever
// appended to, so restarts never duplicate the header.
type CSV struct {
	dir string
}

// NewCSV returns a CSV sink rooted at dir.
func NewCSV(dir string) *CSV {
	if dir == "" {
		dir = "data"
	}
	return &CSV{dir: dir}
}

// Path returns the log file for a source.
func (c *CSV) Path(source string) string {
	return filepath.Join(c.dir, source+".csv")
}

// Exists reports whether the source's log file already exists. Only
// absence reads as false; any other stat failure is surfaced.
func (c *CSV) Exists(source string) (bool, error) {
	_, err := os.Stat(c.Path(source))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("sink: stat %s: %w", c.Path(source), err)
}

// Append writes one observation to the source's log. The header is
// written if and only if the file did not exist at call time.
func (c *CSV) Append(_ context.Context, source string, obs Observation) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("sink: mkdir %s: %w", c.dir, err)
	}

	path := c.Path(source)
	exists, err := c.Exists(source)
	if err != nil {
		return err
	}
	fresh := !exists

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("sink: open %s: %w", path, err)
	}
	defer f.Close()

	rows := []Observation{obs}
	if fresh {
		if err := gocsv.MarshalFile(&rows, f); err != nil {
			return fmt.Errorf("sink: write %s: %w", path, err)
		}
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(&rows, f); err != nil {
		return fmt.Errorf("sink: append %s: %w", path, err)
	}
	return nil
}

// Close is a no-op; Append opens and closes the file per call.
func (c *CSV) Close() error { return nil }
