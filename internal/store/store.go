package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lox/floatchat/internal/models"
)

// dateLayout is how measurement dates are persisted. It sorts lexically.
const dateLayout = time.RFC3339

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UpsertFloat(ctx context.Context, fl models.Float) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO floats (float_id, region, latitude, longitude)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(float_id) DO UPDATE SET
			region = excluded.region,
			latitude = excluded.latitude,
			longitude = excluded.longitude
	`, fl.ID, string(fl.Region), fl.Latitude, fl.Longitude)
	return err
}

// InsertMeasurements stores ms for floatID in a single transaction and
// returns how many rows were new. Repeated (float, date, depth) rows are
// ignored.
func (s *Store) InsertMeasurements(ctx context.Context, floatID string, ms []models.Measurement) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO measurements (float_id, measured_at, depth, temperature, salinity, pressure, oxygen)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(float_id, measured_at, depth) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, m := range ms {
		// NULL never conflicts in a unique index, so a missing depth is keyed as -1.
		depth := -1.0
		if m.Depth.Valid {
			depth = m.Depth.Float64
		}
		res, err := stmt.ExecContext(ctx, floatID, m.Date.UTC().Format(dateLayout), depth,
			m.Temperature, m.Salinity, m.Pressure, m.Oxygen)
		if err != nil {
			return 0, fmt.Errorf("insert measurement %s/%s: %w", floatID, m.Date.Format("2006-01-02"), err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// SaveFloat upserts fl and all of its measurements.
func (s *Store) SaveFloat(ctx context.Context, fl models.Float) (int, error) {
	if err := s.UpsertFloat(ctx, fl); err != nil {
		return 0, fmt.Errorf("upsert float %s: %w", fl.ID, err)
	}
	return s.InsertMeasurements(ctx, fl.ID, fl.Measurements)
}

// LoadFloats returns every float with its measurements ordered by date.
func (s *Store) LoadFloats(ctx context.Context) ([]models.Float, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT float_id, region, latitude, longitude FROM floats ORDER BY float_id`)
	if err != nil {
		return nil, err
	}

	var floats []models.Float
	index := make(map[string]int)
	for rows.Next() {
		var fl models.Float
		var region string
		if err := rows.Scan(&fl.ID, &region, &fl.Latitude, &fl.Longitude); err != nil {
			rows.Close()
			return nil, err
		}
		fl.Region = models.Region(region)
		index[fl.ID] = len(floats)
		floats = append(floats, fl)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mrows, err := s.db.QueryContext(ctx, `
		SELECT float_id, measured_at, depth, temperature, salinity, pressure, oxygen
		FROM measurements
		ORDER BY float_id, measured_at ASC, depth ASC
	`)
	if err != nil {
		return nil, err
	}
	defer mrows.Close()

	for mrows.Next() {
		var (
			floatID, measuredAt string
			depth               float64
			m                   models.Measurement
		)
		if err := mrows.Scan(&floatID, &measuredAt, &depth, &m.Temperature, &m.Salinity, &m.Pressure, &m.Oxygen); err != nil {
			return nil, err
		}
		m.Date, err = time.Parse(dateLayout, measuredAt)
		if err != nil {
			return nil, fmt.Errorf("parse measured_at %q: %w", measuredAt, err)
		}
		if depth >= 0 {
			m.Depth = sql.NullFloat64{Float64: depth, Valid: true}
		}
		i, ok := index[floatID]
		if !ok {
			continue
		}
		floats[i].Measurements = append(floats[i].Measurements, m)
	}
	return floats, mrows.Err()
}

// Counts returns the number of floats and measurements stored.
func (s *Store) Counts(ctx context.Context) (floats, measurements int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM floats), (SELECT COUNT(*) FROM measurements)
	`).Scan(&floats, &measurements)
	return floats, measurements, err
}
