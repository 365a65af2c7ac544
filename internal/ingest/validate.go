package ingest

import (
	"database/sql"
	"math"

	"github.com/lox/floatchat/internal/models"
)

const (
	FlagTempOutOfRange     = "temp_out_of_range"
	FlagSalinityInvalid    = "salinity_invalid"
	FlagPressureOutOfRange = "pressure_out_of_range"
	FlagOxygenInvalid      = "oxygen_invalid"
	FlagDepthNegative      = "depth_negative"
)

// ValidPosition reports whether lat/lon are real coordinates.
func ValidPosition(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidateMeasurement clears implausible readings from m and returns a flag
// for each one it cleared.
func ValidateMeasurement(m *models.Measurement) []string {
	var flags []string

	if outside(m.Temperature, -2.5, 40) {
		m.Temperature = sql.NullFloat64{}
		flags = append(flags, FlagTempOutOfRange)
	}
	if outside(m.Salinity, 0, 42) {
		m.Salinity = sql.NullFloat64{}
		flags = append(flags, FlagSalinityInvalid)
	}
	if outside(m.Pressure, 0, 12000) {
		m.Pressure = sql.NullFloat64{}
		flags = append(flags, FlagPressureOutOfRange)
	}
	if outside(m.Oxygen, 0, 600) {
		m.Oxygen = sql.NullFloat64{}
		flags = append(flags, FlagOxygenInvalid)
	}
	if m.Depth.Valid && m.Depth.Float64 < 0 {
		m.Depth = sql.NullFloat64{}
		flags = append(flags, FlagDepthNegative)
	}

	return flags
}

func outside(v sql.NullFloat64, lo, hi float64) bool {
	if !v.Valid {
		return false
	}
	return math.IsNaN(v.Float64) || v.Float64 < lo || v.Float64 > hi
}
