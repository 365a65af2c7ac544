package store

import (
	"context"
	"database/sql"
	"time"
)

// ImportRun records a single dataset import for auditing.
type ImportRun struct {
	ID           int64
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	Source       string // file path or URL
	RowsParsed   sql.NullInt64
	RowsStored   sql.NullInt64
	RowsRejected sql.NullInt64
	Success      bool
	ErrorMessage sql.NullString
}

// StartImportRun creates a new import run record and returns it.
func (s *Store) StartImportRun(ctx context.Context, source string) (*ImportRun, error) {
	run := &ImportRun{
		StartedAt: time.Now().UTC(),
		Source:    source,
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO import_runs (started_at, source, success)
		VALUES (?, ?, FALSE)
	`, run.StartedAt, run.Source)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteImportRun updates the import run with results.
func (s *Store) CompleteImportRun(ctx context.Context, run *ImportRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.ExecContext(ctx, `
		UPDATE import_runs SET
			finished_at = ?,
			rows_parsed = ?,
			rows_stored = ?,
			rows_rejected = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.RowsParsed, run.RowsStored, run.RowsRejected,
		run.Success, run.ErrorMessage, run.ID)
	return err
}

// RecentImportRuns returns the latest import runs, newest first.
func (s *Store) RecentImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, source, rows_parsed, rows_stored,
			   rows_rejected, success, error_message
		FROM import_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ImportRun
	for rows.Next() {
		var r ImportRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Source, &r.RowsParsed,
			&r.RowsStored, &r.RowsRejected, &r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
