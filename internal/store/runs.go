package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// Run is one completed pipeline invocation.
type Run struct {
	ID         string
	StationID  string
	InputPath  string
	StartedAt  time.Time
	FinishedAt time.Time
	RowCount   int
}

// BeginRun inserts a new run row and returns its generated ID. Call
// FinishRun once the pipeline completes, whether or not it succeeded.
func (s *Store) BeginRun(stationID, inputPath string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.Exec(
		`INSERT INTO runs (id, station_id, input_path, started_at) VALUES (?, ?, ?, ?)`,
		id, stationID, inputPath, startedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("store: begin run: %w", err)
	}
	return id, nil
}

// FinishRun records a run's outcome: row count, per-channel flag-token
// histogram, and every diagnostics event the run collected.
func (s *Store) FinishRun(runID string, finishedAt time.Time, rs *recordset.RecordSet, diag *diagnostics.Collector) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("store: finish run: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE runs SET finished_at = ?, row_count = ? WHERE id = ?`,
		finishedAt.UTC().Format(time.RFC3339), rs.Len(), runID,
	); err != nil {
		return fmt.Errorf("store: update run: %w", err)
	}

	for _, ch := range rs.Channels {
		counts := make(map[flags.Kind]int)
		for _, cell := range ch.Flag {
			for _, k := range cell.Tokens() {
				counts[k]++
			}
		}
		for k, n := range counts {
			if _, err := tx.Exec(
				`INSERT INTO run_flag_counts (run_id, channel, flag, count) VALUES (?, ?, ?, ?)`,
				runID, ch.Name, k.String(), n,
			); err != nil {
				return fmt.Errorf("store: insert flag counts: %w", err)
			}
		}
	}

	for _, ev := range diag.Events() {
		if _, err := tx.Exec(
			`INSERT INTO run_diagnostics (run_id, severity, stage, message) VALUES (?, ?, ?, ?)`,
			runID, ev.Severity.String(), ev.Stage, ev.Message,
		); err != nil {
			return fmt.Errorf("store: insert diagnostics: %w", err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns the most recent runs for a station, newest first.
func (s *Store) RecentRuns(stationID string, limit int) ([]Run, error) {
	rows, err := s.Query(
		`SELECT id, station_id, input_path, started_at, finished_at, row_count
		 FROM runs WHERE station_id = ? ORDER BY started_at DESC LIMIT ?`,
		stationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: recent runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		var finished sql.NullString
		var rowCount sql.NullInt64
		if err := rows.Scan(&r.ID, &r.StationID, &r.InputPath, &started, &finished, &rowCount); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished.Valid {
			r.FinishedAt, _ = time.Parse(time.RFC3339, finished.String)
		}
		r.RowCount = int(rowCount.Int64)
		out = append(out, r)
	}
	return out, rows.Err()
}

// FlagCounts returns the per-channel flag-token histogram for a run,
// channel -> token -> count.
func (s *Store) FlagCounts(runID string) (map[string]map[string]int, error) {
	rows, err := s.Query(
		`SELECT channel, flag, count FROM run_flag_counts WHERE run_id = ?`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: flag counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var channel, flag string
		var count int
		if err := rows.Scan(&channel, &flag, &count); err != nil {
			return nil, fmt.Errorf("store: scan flag counts: %w", err)
		}
		if out[channel] == nil {
			out[channel] = make(map[string]int)
		}
		out[channel][flag] = count
	}
	return out, rows.Err()
}
