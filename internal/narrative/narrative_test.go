package narrative

import (
	"strings"
	"testing"

	"github.com/lox/floatchat/internal/analysis"
	"github.com/lox/floatchat/internal/models"
)

func result(aggs ...models.Aggregate) analysis.Result {
	res := analysis.Result{Aggregates: map[models.Param]models.Aggregate{}, FloatCount: 2, TotalMeasurements: 5}
	for _, a := range aggs {
		res.Aggregates[a.Parameter] = a
	}
	return res
}

func TestGenerate_Empty(t *testing.T) {
	resp := Generate("show salinity chart", models.Intent{Parameters: []models.Param{models.ParamSalinity}}, analysis.Result{})
	if resp.Text != NotFoundText {
		t.Errorf("Text = %q, want not-found fallback", resp.Text)
	}
	for _, topic := range []string{"temperature", "salinity", "pressure", "oxygen"} {
		if !strings.Contains(NotFoundText, topic) {
			t.Errorf("not-found text does not mention %s", topic)
		}
	}
	if resp.Insights == nil || len(resp.Insights) != 0 {
		t.Errorf("Insights = %v, want empty slice", resp.Insights)
	}
}

func TestGenerate_AnalysisSelectsStatistics(t *testing.T) {
	agg := models.Aggregate{Parameter: models.ParamTemperature, Average: 17.5, Minimum: 15, Maximum: 20, Count: 2}

	tests := []struct {
		name     string
		analysis models.Analysis
		want     []string
		notWant  []string
	}{
		{
			name:     "average only",
			analysis: models.AnalysisAverage,
			want:     []string{"Average: 17.50 °C", "Measurements: 2"},
			notWant:  []string{"Maximum", "Minimum"},
		},
		{
			name:     "maximum only",
			analysis: models.AnalysisMaximum,
			want:     []string{"Maximum: 20.00 °C"},
			notWant:  []string{"Average", "Minimum"},
		},
		{
			name:     "minimum only",
			analysis: models.AnalysisMinimum,
			want:     []string{"Minimum: 15.00 °C"},
			notWant:  []string{"Average", "Maximum"},
		},
		{
			name:     "trend shows the range",
			analysis: models.AnalysisTrend,
			want:     []string{"Range: 15.00 °C to 20.00 °C"},
			notWant:  []string{"Average"},
		},
		{
			name:     "none shows all three",
			analysis: models.AnalysisNone,
			want:     []string{"Average: 17.50 °C", "Maximum: 20.00 °C", "Minimum: 15.00 °C", "Measurements: 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := models.Intent{Parameters: []models.Param{models.ParamTemperature}, Analysis: tt.analysis}
			resp := Generate("q", intent, result(agg))
			if !strings.Contains(resp.Text, "Temperature (°C):") {
				t.Errorf("missing heading in %q", resp.Text)
			}
			for _, w := range tt.want {
				if !strings.Contains(resp.Text, w) {
					t.Errorf("text %q missing %q", resp.Text, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(resp.Text, nw) {
					t.Errorf("text %q should not contain %q", resp.Text, nw)
				}
			}
		})
	}
}

func TestGenerate_Header(t *testing.T) {
	agg := models.Aggregate{Parameter: models.ParamOxygen, Average: 200, Minimum: 180, Maximum: 220, Count: 1}
	res := result(agg)
	res.FloatCount = 1
	res.TotalMeasurements = 1

	resp := Generate("oxygen for float 7", models.Intent{FloatID: "7"}, res)
	if !strings.HasPrefix(resp.Text, "Float 7: Based on 1 measurement from 1 float:") {
		t.Errorf("unexpected header: %q", resp.Text)
	}
	if !strings.Contains(resp.Text, "µmol/kg") {
		t.Errorf("oxygen unit missing: %q", resp.Text)
	}
}

func TestUnit(t *testing.T) {
	tests := map[models.Param]string{
		models.ParamTemperature:     "°C",
		models.ParamSalinity:        "PSU",
		models.ParamPressure:        "dbar",
		models.ParamOxygen:          "µmol/kg",
		models.Param("chlorophyll"): "",
	}
	for p, want := range tests {
		if got := Unit(p); got != want {
			t.Errorf("Unit(%s) = %q, want %q", p, got, want)
		}
	}
}

func TestInsights(t *testing.T) {
	tests := []struct {
		name string
		agg  models.Aggregate
		want string
	}{
		{"warm", models.Aggregate{Parameter: models.ParamTemperature, Average: 24}, "Warm waters"},
		{"cold", models.Aggregate{Parameter: models.ParamTemperature, Average: 4}, "Cold waters"},
		{"temperate at warm boundary", models.Aggregate{Parameter: models.ParamTemperature, Average: 20}, "Temperate waters"},
		{"temperate at cold boundary", models.Aggregate{Parameter: models.ParamTemperature, Average: 10}, "Temperate waters"},
		{"high salinity", models.Aggregate{Parameter: models.ParamSalinity, Average: 36.2}, "High salinity"},
		{"low salinity", models.Aggregate{Parameter: models.ParamSalinity, Average: 32}, "Low salinity"},
		{"typical salinity", models.Aggregate{Parameter: models.ParamSalinity, Average: 34.6}, "Typical salinity"},
		{"high oxygen", models.Aggregate{Parameter: models.ParamOxygen, Average: 300}, "Well-oxygenated"},
		{"low oxygen", models.Aggregate{Parameter: models.ParamOxygen, Average: 90}, "Low oxygen"},
		{"moderate oxygen", models.Aggregate{Parameter: models.ParamOxygen, Average: 200}, "Moderate oxygen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Insights(result(tt.agg))
			if len(got) != 1 || !strings.HasPrefix(got[0], tt.want) {
				t.Errorf("Insights = %v, want one starting with %q", got, tt.want)
			}
		})
	}
}

func TestInsights_PressureHasNoRule(t *testing.T) {
	got := Insights(result(models.Aggregate{Parameter: models.ParamPressure, Average: 1500}))
	if len(got) != 0 {
		t.Errorf("Insights = %v, want none for pressure", got)
	}
}

func TestRangeLine(t *testing.T) {
	lo, hi := -2.0, 30.0
	if got := RangeLine(models.ParamTemperature, &lo, &hi); got != "Across the database, temperature ranges from -2.0 to 30.0 °C." {
		t.Errorf("RangeLine = %q", got)
	}
	if got := RangeLine(models.ParamSalinity, nil, &hi); got != "Across the database, salinity ranges from n/a to 30.0 PSU." {
		t.Errorf("RangeLine with missing min = %q", got)
	}
}
