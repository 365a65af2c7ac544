package ingest

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ssor/bom"

	"github.com/lox/floatchat/internal/models"
)

// ErrNoRows is returned when a source yields no usable measurement rows.
var ErrNoRows = errors.New("no valid rows")

var requiredColumns = []string{"float_id", "region", "latitude", "longitude", "date"}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Report summarises one parse.
type Report struct {
	Rows     int            `json:"rows"`
	Rejected int            `json:"rejected"`
	Flags    map[string]int `json:"flags,omitempty"`
}

// ParseCSV reads dataset rows and groups them into floats in first-seen
// order. Rows with an unusable id, region, position or date are rejected;
// implausible readings are cleared and counted in Report.Flags. A float's
// position is taken from its last row.
func ParseCSV(r io.Reader) ([]models.Float, Report, error) {
	rep := Report{Flags: map[string]int{}}

	r, err := bom.NewReaderWithoutBom(r)
	if err != nil {
		return nil, rep, fmt.Errorf("read source: %w", err)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, rep, ErrNoRows
	}
	if err != nil {
		return nil, rep, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		cols[name] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, rep, fmt.Errorf("missing column %q", c)
		}
	}

	var floats []models.Float
	index := make(map[string]int)
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, rep, fmt.Errorf("line %d: %w", line, err)
		}
		rep.Rows++

		fl, m, ok := parseRow(rec, cols)
		if !ok {
			rep.Rejected++
			continue
		}
		for _, f := range ValidateMeasurement(&m) {
			rep.Flags[f]++
		}

		i, seen := index[fl.ID]
		if !seen {
			i = len(floats)
			index[fl.ID] = i
			floats = append(floats, fl)
		}
		floats[i].Region = fl.Region
		floats[i].Latitude = fl.Latitude
		floats[i].Longitude = fl.Longitude
		floats[i].Measurements = append(floats[i].Measurements, m)
	}

	if len(floats) == 0 {
		return nil, rep, ErrNoRows
	}
	return floats, rep, nil
}

func parseRow(rec []string, cols map[string]int) (models.Float, models.Measurement, bool) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var fl models.Float
	var m models.Measurement

	fl.ID = get("float_id")
	if fl.ID == "" {
		return fl, m, false
	}
	region, ok := models.ParseRegion(get("region"))
	if !ok {
		return fl, m, false
	}
	fl.Region = region

	lat, err1 := strconv.ParseFloat(get("latitude"), 64)
	lon, err2 := strconv.ParseFloat(get("longitude"), 64)
	if err1 != nil || err2 != nil || !ValidPosition(lat, lon) {
		return fl, m, false
	}
	fl.Latitude, fl.Longitude = lat, lon

	date, ok := parseDate(get("date"))
	if !ok {
		return fl, m, false
	}
	m.Date = date

	var bad bool
	m.Temperature, bad = optionalFloat(get("temperature"))
	if bad {
		return fl, m, false
	}
	m.Salinity, bad = optionalFloat(get("salinity"))
	if bad {
		return fl, m, false
	}
	m.Pressure, bad = optionalFloat(get("pressure"))
	if bad {
		return fl, m, false
	}
	m.Oxygen, bad = optionalFloat(get("oxygen"))
	if bad {
		return fl, m, false
	}
	m.Depth, bad = optionalFloat(get("depth"))
	if bad {
		return fl, m, false
	}
	return fl, m, true
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// optionalFloat parses an optional cell. Empty and NaN cells are missing;
// anything else unparseable marks the row bad.
func optionalFloat(s string) (v sql.NullFloat64, bad bool) {
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return sql.NullFloat64{}, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}, true
	}
	return sql.NullFloat64{Float64: f, Valid: true}, false
}
