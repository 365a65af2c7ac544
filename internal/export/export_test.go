package export

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/lox/floatchat/internal/ingest"
	"github.com/lox/floatchat/internal/models"
)

func reading(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func testFloats() []models.Float {
	day := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	return []models.Float{
		{
			ID: "5678", Region: models.RegionPacific, Latitude: -12.41234, Longitude: 160.37,
			Measurements: []models.Measurement{
				{Date: day("2023-03-01"), Temperature: reading(20.0), Salinity: reading(34.6124), Depth: reading(10)},
				{Date: day("2024-03-01"), Temperature: reading(15.0), Oxygen: reading(210.4)},
			},
		},
		{
			ID: "5677", Region: models.RegionAtlantic, Latitude: 30, Longitude: -40,
			Measurements: []models.Measurement{
				{Date: day("2024-05-01"), Temperature: reading(8.25), Pressure: reading(1012.5)},
			},
		},
		{ID: "ARC-1", Region: models.RegionArctic, Latitude: 80, Longitude: 3},
	}
}

func TestToCSV_RowPerMeasurement(t *testing.T) {
	out := ToCSV(testFloats())
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 1+3 {
		t.Fatalf("rows = %d, want header + 3", len(records))
	}
	if strings.Join(records[0], ",") != "Float_ID,Region,Latitude,Longitude,Date,Temperature,Salinity,Pressure,Oxygen,Depth" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][5] != "20.000" || records[1][7] != "" {
		t.Errorf("row = %v, want fixed decimals and empty missing cells", records[1])
	}
}

func TestToCSV_ReparseRecoversValues(t *testing.T) {
	in := testFloats()
	out, rep, err := ingest.ParseCSV(strings.NewReader(ToCSV(in)))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if rep.Rejected != 0 {
		t.Errorf("rejected = %d", rep.Rejected)
	}
	// The Arctic float has no measurements, so it has no rows.
	if len(out) != 2 {
		t.Fatalf("floats = %d, want 2", len(out))
	}
	const eps = 0.0005
	if math.Abs(out[0].Latitude-in[0].Latitude) > 0.00005 {
		t.Errorf("latitude = %v, want %v", out[0].Latitude, in[0].Latitude)
	}
	for i, m := range in[0].Measurements {
		got := out[0].Measurements[i]
		for _, p := range models.Params {
			want, wantOK := m.Value(p)
			v, ok := got.Value(p)
			if ok != wantOK || math.Abs(v-want) > eps {
				t.Errorf("measurement %d %s = %v (%v), want %v (%v)", i, p, v, ok, want, wantOK)
			}
		}
		if !got.Date.Equal(m.Date) {
			t.Errorf("date = %v, want %v", got.Date, m.Date)
		}
	}
}

func TestToProfileCSV(t *testing.T) {
	out := ToProfileCSV(testFloats())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "Profile ID,Date,Latitude,Longitude,Depth,Temperature,Salinity" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 4 {
		t.Errorf("lines = %d, want 4", len(lines))
	}
	if lines[1] != "5678,2023-03-01,-12.4123,160.3700,10.000,20.000,34.612" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestToJSON(t *testing.T) {
	out, err := ToJSON(testFloats(), func(id string) models.FloatType { return models.FloatTypeCore })
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(out, "\n  {") {
		t.Error("expected indented output")
	}
	var decoded []struct {
		ID           string `json:"id"`
		Type         string `json:"type"`
		Measurements []struct {
			Temperature *float64 `json:"temperature"`
			Salinity    *float64 `json:"salinity"`
		} `json:"measurements"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != 3 || decoded[0].Type != "core" {
		t.Fatalf("decoded = %+v", decoded)
	}
	if decoded[0].Measurements[1].Salinity != nil {
		t.Error("missing salinity should be omitted")
	}
	if len(decoded[2].Measurements) != 0 {
		t.Error("float without measurements should export an empty list")
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		format   Format
		filename string
		ctype    string
	}{
		{FormatCSV, "floatchat_data.csv", "text/csv"},
		{FormatProfile, "floatchat_data.csv", "text/csv"},
		{FormatJSON, "floatchat_data.json", "application/json"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			p, err := Build(testFloats(), tt.format, nil)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if p.Filename != tt.filename || p.ContentType != tt.ctype {
				t.Errorf("payload = %s %s", p.Filename, p.ContentType)
			}
			if p.Rows != 3 {
				t.Errorf("rows = %d, want 3", p.Rows)
			}
			if want := "Successfully exported 3 profiles to " + tt.filename; p.Message() != want {
				t.Errorf("Message() = %q, want %q", p.Message(), want)
			}
		})
	}
}

func TestBuild_NetCDFUnsupported(t *testing.T) {
	_, err := Build(testFloats(), FormatNetCDF, nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"", FormatCSV, true},
		{"CSV", FormatCSV, true},
		{"excel", FormatProfile, true},
		{"json", FormatJSON, true},
		{"netcdf", FormatNetCDF, true},
		{"parquet", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFormat(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseFormat(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestGzip(t *testing.T) {
	p, err := Build(testFloats(), FormatCSV, nil)
	if err != nil {
		t.Fatal(err)
	}
	gz, err := Gzip(p)
	if err != nil {
		t.Fatalf("Gzip: %v", err)
	}
	if gz.Filename != "floatchat_data.csv.gz" {
		t.Errorf("filename = %s", gz.Filename)
	}
	zr, err := gzip.NewReader(bytes.NewReader(gz.Body))
	if err != nil {
		t.Fatal(err)
	}
	body, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(body, p.Body) {
		t.Error("gzip round trip changed the body")
	}
}
