// Package export serialises a filtered float subset as CSV or JSON.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/lox/floatchat/internal/models"
)

// ErrUnsupportedFormat is returned for formats that cannot be produced here.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// NetCDFMessage is shown when NetCDF output is requested.
const NetCDFMessage = "NetCDF export requires server-side processing. This feature will be available in a future update."

// BaseFilename is the download name without extension.
const BaseFilename = "floatchat_data"

type Format string

const (
	FormatCSV     Format = "csv"
	FormatProfile Format = "profile"
	FormatJSON    Format = "json"
	FormatNetCDF  Format = "netcdf"
)

// ParseFormat accepts the format names a client may send. "excel" is the
// profile table, which spreadsheets open directly.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, true
	case "profile", "excel", "xlsx":
		return FormatProfile, true
	case "json":
		return FormatJSON, true
	case "netcdf", "nc":
		return FormatNetCDF, true
	}
	return "", false
}

// Columns is the full dataset layout; ingest reads the same header back.
var Columns = []string{
	"Float_ID", "Region", "Latitude", "Longitude", "Date",
	"Temperature", "Salinity", "Pressure", "Oxygen", "Depth",
}

// ProfileColumns is the reduced profile-table layout.
var ProfileColumns = []string{
	"Profile ID", "Date", "Latitude", "Longitude", "Depth", "Temperature", "Salinity",
}

const (
	positionDecimals = 4
	valueDecimals    = 3
	dateLayout       = "2006-01-02"
)

// ToCSV writes one row per measurement. Missing readings are empty cells.
func ToCSV(floats []models.Float) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(Columns)
	for _, fl := range floats {
		for _, m := range fl.Measurements {
			w.Write([]string{
				fl.ID,
				string(fl.Region),
				formatFloat(fl.Latitude, positionDecimals),
				formatFloat(fl.Longitude, positionDecimals),
				m.Date.Format(dateLayout),
				formatNull(m.Temperature.Float64, m.Temperature.Valid),
				formatNull(m.Salinity.Float64, m.Salinity.Valid),
				formatNull(m.Pressure.Float64, m.Pressure.Valid),
				formatNull(m.Oxygen.Float64, m.Oxygen.Valid),
				formatNull(m.Depth.Float64, m.Depth.Valid),
			})
		}
	}
	w.Flush()
	return buf.String()
}

// ToProfileCSV writes the profile table, one row per measurement.
func ToProfileCSV(floats []models.Float) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(ProfileColumns)
	for _, fl := range floats {
		for _, m := range fl.Measurements {
			w.Write([]string{
				fl.ID,
				m.Date.Format(dateLayout),
				formatFloat(fl.Latitude, positionDecimals),
				formatFloat(fl.Longitude, positionDecimals),
				formatNull(m.Depth.Float64, m.Depth.Valid),
				formatNull(m.Temperature.Float64, m.Temperature.Valid),
				formatNull(m.Salinity.Float64, m.Salinity.Valid),
			})
		}
	}
	w.Flush()
	return buf.String()
}

type jsonMeasurement struct {
	Date        string   `json:"date"`
	Temperature *float64 `json:"temperature,omitempty"`
	Salinity    *float64 `json:"salinity,omitempty"`
	Pressure    *float64 `json:"pressure,omitempty"`
	Oxygen      *float64 `json:"oxygen,omitempty"`
	Depth       *float64 `json:"depth,omitempty"`
}

type jsonFloat struct {
	ID           string            `json:"id"`
	Region       models.Region     `json:"region"`
	Type         models.FloatType  `json:"type"`
	Latitude     float64           `json:"latitude"`
	Longitude    float64           `json:"longitude"`
	Measurements []jsonMeasurement `json:"measurements"`
}

// ToJSON is an indented dump of floats and their measurements.
func ToJSON(floats []models.Float, classify func(string) models.FloatType) (string, error) {
	out := make([]jsonFloat, 0, len(floats))
	for _, fl := range floats {
		jf := jsonFloat{
			ID:           fl.ID,
			Region:       fl.Region,
			Latitude:     fl.Latitude,
			Longitude:    fl.Longitude,
			Measurements: make([]jsonMeasurement, 0, len(fl.Measurements)),
		}
		if classify != nil {
			jf.Type = classify(fl.ID)
		}
		for _, m := range fl.Measurements {
			jf.Measurements = append(jf.Measurements, jsonMeasurement{
				Date:        m.Date.Format(dateLayout),
				Temperature: ptr(m.Temperature.Float64, m.Temperature.Valid),
				Salinity:    ptr(m.Salinity.Float64, m.Salinity.Valid),
				Pressure:    ptr(m.Pressure.Float64, m.Pressure.Valid),
				Oxygen:      ptr(m.Oxygen.Float64, m.Oxygen.Valid),
				Depth:       ptr(m.Depth.Float64, m.Depth.Valid),
			})
		}
		out = append(out, jf)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	return string(b), nil
}

// Payload is a ready-to-download export.
type Payload struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
	CreatedAt   time.Time
}

// Message is the confirmation shown after a download.
func (p Payload) Message() string {
	return fmt.Sprintf("Successfully exported %d profiles to %s", p.Rows, p.Filename)
}

// Build serialises floats in format. NetCDF returns ErrUnsupportedFormat.
func Build(floats []models.Float, format Format, classify func(string) models.FloatType) (Payload, error) {
	p := Payload{CreatedAt: time.Now().UTC()}
	for _, fl := range floats {
		p.Rows += len(fl.Measurements)
	}

	switch format {
	case FormatCSV, "":
		p.Filename = BaseFilename + ".csv"
		p.ContentType = "text/csv"
		p.Body = []byte(ToCSV(floats))
	case FormatProfile:
		p.Filename = BaseFilename + ".csv"
		p.ContentType = "text/csv"
		p.Body = []byte(ToProfileCSV(floats))
	case FormatJSON:
		s, err := ToJSON(floats, classify)
		if err != nil {
			return Payload{}, err
		}
		p.Filename = BaseFilename + ".json"
		p.ContentType = "application/json"
		p.Body = []byte(s)
	default:
		return Payload{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return p, nil
}

// Gzip compresses the payload body and appends .gz to the filename.
func Gzip(p Payload) (Payload, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return Payload{}, err
	}
	if _, err := zw.Write(p.Body); err != nil {
		return Payload{}, fmt.Errorf("gzip export: %w", err)
	}
	if err := zw.Close(); err != nil {
		return Payload{}, fmt.Errorf("gzip export: %w", err)
	}
	p.Body = buf.Bytes()
	p.Filename += ".gz"
	return p, nil
}

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func formatNull(v float64, valid bool) string {
	if !valid {
		return ""
	}
	return formatFloat(v, valueDecimals)
}

func ptr(v float64, valid bool) *float64 {
	if !valid {
		return nil
	}
	return &v
}
