package dataset

import (
	"database/sql"
	"testing"
	"time"

	"github.com/lox/floatchat/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func temp(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func testFloats() []models.Float {
	return []models.Float{
		{
			ID: "5678", Region: models.RegionPacific, Latitude: -12.5, Longitude: 160.2,
			Measurements: []models.Measurement{
				{Date: day("2024-09-11"), Temperature: temp(20)},
				{Date: day("2023-08-08"), Temperature: temp(15)},
			},
		},
		{
			ID: "5677", Region: models.RegionAtlantic, Latitude: -52.1, Longitude: -40.1,
			Measurements: []models.Measurement{
				{Date: day("2024-08-14"), Temperature: temp(8)},
			},
		},
		{
			ID: "ARC-1", Region: models.RegionArctic, Latitude: 80.2, Longitude: 10.5,
		},
	}
}

func TestNew_SortsMeasurementsByDate(t *testing.T) {
	s := New(testFloats())
	fl, ok := s.Float("5678")
	if !ok {
		t.Fatal("float 5678 not found")
	}
	if !fl.Measurements[0].Date.Before(fl.Measurements[1].Date) {
		t.Errorf("measurements not sorted: %v then %v", fl.Measurements[0].Date, fl.Measurements[1].Date)
	}
}

func TestFilterFloats(t *testing.T) {
	s := New(testFloats())

	tests := []struct {
		name    string
		regions []models.Region
		filter  models.FilterState
		wantIDs []string
		wantMs  int
	}{
		{name: "no constraints", wantIDs: []string{"5678", "5677", "ARC-1"}, wantMs: 3},
		{name: "query region", regions: []models.Region{models.RegionPacific}, wantIDs: []string{"5678"}, wantMs: 2},
		{
			name:    "query and sidebar region disagree",
			regions: []models.Region{models.RegionPacific},
			filter:  models.FilterState{Region: models.RegionAtlantic},
			wantIDs: nil,
		},
		{
			name:    "year keeps matching measurements only",
			filter:  models.FilterState{Year: 2024},
			wantIDs: []string{"5678", "5677"},
			wantMs:  2,
		},
		{
			name:    "core floats have even numeric ids",
			filter:  models.FilterState{FloatType: models.FloatTypeCore},
			wantIDs: []string{"5678"},
			wantMs:  2,
		},
		{
			name:    "biogeochemical keeps odd and non-numeric ids",
			filter:  models.FilterState{FloatType: models.FloatTypeBiogeochemical},
			wantIDs: []string{"5677", "ARC-1"},
			wantMs:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.FilterFloats(tt.regions, tt.filter)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d floats, want %d", len(got), len(tt.wantIDs))
			}
			for i, fl := range got {
				if fl.ID != tt.wantIDs[i] {
					t.Errorf("float[%d] = %s, want %s", i, fl.ID, tt.wantIDs[i])
				}
			}
			if n := MeasurementCount(got); n != tt.wantMs {
				t.Errorf("measurements = %d, want %d", n, tt.wantMs)
			}
		})
	}
}

func TestFilterFloats_DoesNotMutateStore(t *testing.T) {
	s := New(testFloats())
	_ = s.FilterFloats(nil, models.FilterState{Year: 2023})

	fl, _ := s.Float("5678")
	if len(fl.Measurements) != 2 {
		t.Errorf("store float has %d measurements after filtering, want 2", len(fl.Measurements))
	}
}

func TestFilterFloats_Monotonic(t *testing.T) {
	s := New(testFloats())
	base := len(s.FilterFloats(nil, models.FilterState{}))

	constraints := []struct {
		regions []models.Region
		filter  models.FilterState
	}{
		{regions: []models.Region{models.RegionAtlantic}},
		{filter: models.FilterState{Year: 2023}},
		{regions: []models.Region{models.RegionPacific}, filter: models.FilterState{Year: 2024}},
		{filter: models.FilterState{Region: models.RegionIndian}},
	}
	for _, c := range constraints {
		if n := len(s.FilterFloats(c.regions, c.filter)); n > base {
			t.Errorf("constraint %+v increased float count: %d > %d", c, n, base)
		}
	}
}

func TestSelectFloat(t *testing.T) {
	floats := testFloats()
	tests := []struct {
		name   string
		id     string
		want   int
		wantOK bool
	}{
		{"no id keeps all", "", len(floats), true},
		{"known id", "5677", 1, true},
		{"unknown id", "9999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectFloat(floats, tt.id)
			if len(got) != tt.want || ok != tt.wantOK {
				t.Errorf("SelectFloat(%q) = %d floats, ok=%v; want %d, ok=%v", tt.id, len(got), ok, tt.want, tt.wantOK)
			}
			if tt.id != "" && ok && got[0].ID != tt.id {
				t.Errorf("SelectFloat(%q) picked %s", tt.id, got[0].ID)
			}
		})
	}
}

func TestParamRange(t *testing.T) {
	floats := testFloats()
	r, ok := ParamRange(floats, models.ParamTemperature)
	if !ok {
		t.Fatal("expected temperature range")
	}
	if r.Min != 8 || r.Max != 20 {
		t.Errorf("temperature range = %+v, want 8..20", r)
	}
	if _, ok := ParamRange(floats, models.ParamSalinity); ok {
		t.Error("salinity is unreported, want no range")
	}
	if _, ok := ParamRange(nil, models.ParamTemperature); ok {
		t.Error("expected no range for empty subset")
	}
}

func TestPositionRanges(t *testing.T) {
	lat, _, ok := PositionRanges(testFloats())
	if !ok {
		t.Fatal("expected position ranges")
	}
	if lat.Min != -52.1 || lat.Max != 80.2 {
		t.Errorf("lat range = %+v", lat)
	}
	if _, _, ok := PositionRanges(nil); ok {
		t.Error("expected no position ranges for empty subset")
	}
}

func TestYears(t *testing.T) {
	got := New(testFloats()).Years()
	if len(got) != 2 || got[0] != 2023 || got[1] != 2024 {
		t.Errorf("Years() = %v, want [2023 2024]", got)
	}
}
