package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Run is one extraction attempt. Status is "ok", "empty" or "error".
// StartedAt is Unix milliseconds.
type Run struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Status     string `json:"status"`
	Occupancy  string `json:"occupancy,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	StartedAt  int64  `json:"started_at"`
}

// NewRunID returns a time-sortable UUIDv7 run identifier.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// InsertRun records one attempt. A missing ID is filled in.
func (s *Store) InsertRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = NewRunID()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO runs (id, source, status, occupancy, error, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, r.Status, r.Occupancy, r.Error, r.DurationMs, r.StartedAt,
	)
	return err
}

// RecentRuns returns a source's attempts, newest first.
func (s *Store) RecentRuns(ctx context.Context, source string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, source, status, occupancy, error, duration_ms, started_at
		FROM runs WHERE source = ?
		ORDER BY started_at DESC LIMIT ?`, source, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.Status, &r.Occupancy,
			&r.Error, &r.DurationMs, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}

// LastObservation returns a source's most recent successful run, or nil
// when the source has never produced an occupancy value.
func (s *Store) LastObservation(ctx context.Context, source string) (*Run, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, source, status, occupancy, error, duration_ms, started_at
		FROM runs WHERE source = ? AND status = 'ok'
		ORDER BY started_at DESC LIMIT 1`, source)

	var r Run
	err := row.Scan(&r.ID, &r.Source, &r.Status, &r.Occupancy,
		&r.Error, &r.DurationMs, &r.StartedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &r, nil
}

// CountRuns returns the total number of recorded attempts for a source.
func (s *Store) CountRuns(ctx context.Context, source string) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE source = ?`, source).Scan(&count)
	return count, err
}
