package query

import (
	"reflect"
	"testing"

	"github.com/lox/floatchat/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  models.Intent
	}{
		{
			name:  "average temperature in the pacific",
			query: "average temperature in the pacific",
			want: models.Intent{
				Parameters: []models.Param{models.ParamTemperature},
				Regions:    []models.Region{models.RegionPacific},
				Analysis:   models.AnalysisAverage,
			},
		},
		{
			name:  "show salinity chart",
			query: "show salinity chart",
			want: models.Intent{
				Parameters:    []models.Param{models.ParamSalinity},
				Analysis:      models.AnalysisNone,
				Visualization: true,
			},
		},
		{
			name:  "multiple parameters and regions",
			query: "Compare SALT and Oxygen in the Atlantic and Indian oceans",
			want: models.Intent{
				Parameters: []models.Param{models.ParamSalinity, models.ParamOxygen},
				Regions:    []models.Region{models.RegionAtlantic, models.RegionIndian},
				Analysis:   models.AnalysisNone,
			},
		},
		{
			name:  "average wins over max",
			query: "mean and max pressure",
			want: models.Intent{
				Parameters: []models.Param{models.ParamPressure},
				Analysis:   models.AnalysisAverage,
			},
		},
		{
			name:  "maximum wins over minimum",
			query: "max or min temp",
			want: models.Intent{
				Parameters: []models.Param{models.ParamTemperature},
				Analysis:   models.AnalysisMaximum,
			},
		},
		{
			name:  "trend",
			query: "how did oxygen change over time? plot it",
			want: models.Intent{
				Parameters:    []models.Param{models.ParamOxygen},
				Analysis:      models.AnalysisTrend,
				Visualization: true,
			},
		},
		{
			name:  "float number",
			query: "Temperature profile for Float 12345",
			want: models.Intent{
				Parameters: []models.Param{models.ParamTemperature},
				Analysis:   models.AnalysisNone,
				FloatID:    "12345",
			},
		},
		{
			name:  "no keywords",
			query: "hello there",
			want:  models.Intent{Analysis: models.AnalysisNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestParse_TemperatureOnly(t *testing.T) {
	queries := []string{
		"temperature",
		"What is the temperature near the surface?",
		"plot TEMPERATURE readings for 2023",
		"average temperature in the arctic",
	}
	for _, q := range queries {
		got := Parse(q).Parameters
		if len(got) != 1 || got[0] != models.ParamTemperature {
			t.Errorf("Parse(%q).Parameters = %v, want [temperature]", q, got)
		}
	}
}

func TestParse_EmptyIntent(t *testing.T) {
	if !Parse("tell me a joke").IsEmpty() {
		t.Error("expected empty intent")
	}
	if Parse("anything in the pacific?").IsEmpty() {
		t.Error("region-only query should not be empty")
	}
}

func TestDataType(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"float 12345 data", "float"},
		{"show float locations", "float"},
		{"timeline of positions", "geo"},
		{"latitude range", "geo"},
		{"temperature profiles", "profile"},
	}
	for _, tt := range tests {
		if got := DataType(tt.query); got != tt.want {
			t.Errorf("DataType(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestTopics(t *testing.T) {
	want := []string{"temperature", "salinity", "pressure", "oxygen"}
	if got := Topics(); !reflect.DeepEqual(got, want) {
		t.Errorf("Topics() = %v, want %v", got, want)
	}
}
