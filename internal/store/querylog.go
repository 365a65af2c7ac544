package store

import (
	"context"
	"database/sql"
	"time"
)

// QueryLogEntry is one answered chat query.
type QueryLogEntry struct {
	ID         string        `json:"id"`
	AskedAt    time.Time     `json:"asked_at"`
	Query      string        `json:"query"`
	Kind       string        `json:"kind"`
	Parameters string        `json:"parameters,omitempty"`
	FloatCount sql.NullInt64 `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

func (s *Store) LogQuery(ctx context.Context, e QueryLogEntry) error {
	if e.AskedAt.IsZero() {
		e.AskedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_log (id, asked_at, query, kind, parameters, float_count, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.AskedAt.UTC(), e.Query, e.Kind, e.Parameters, e.FloatCount, e.DurationMS)
	return err
}

// RecentQueries returns up to limit logged queries, newest first.
func (s *Store) RecentQueries(ctx context.Context, limit int) ([]QueryLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, asked_at, query, kind, parameters, float_count, duration_ms
		FROM query_log
		ORDER BY asked_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []QueryLogEntry
	for rows.Next() {
		var e QueryLogEntry
		if err := rows.Scan(&e.ID, &e.AskedAt, &e.Query, &e.Kind, &e.Parameters, &e.FloatCount, &e.DurationMS); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
