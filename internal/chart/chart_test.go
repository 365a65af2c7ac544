package chart

import (
	"bytes"
	"database/sql"
	"fmt"
	"image/png"
	"testing"
	"time"

	"gonum.org/v1/plot"

	"github.com/lox/floatchat/internal/analysis"
	"github.com/lox/floatchat/internal/models"
)

func m(date string, temp float64) models.Measurement {
	d, _ := time.Parse("2006-01-02", date)
	return models.Measurement{Date: d, Temperature: sql.NullFloat64{Float64: temp, Valid: true}}
}

func TestToSeries(t *testing.T) {
	got := ToSeries(models.Aggregate{Parameter: models.ParamTemperature, Minimum: 15, Average: 17.5, Maximum: 20, Count: 2})
	want := []Point{{"Minimum", 15}, {"Average", 17.5}, {"Maximum", 20}}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestToSeries_Empty(t *testing.T) {
	got := ToSeries(models.Aggregate{})
	if got == nil || len(got) != 0 {
		t.Errorf("ToSeries(empty) = %#v, want empty non-nil slice", got)
	}
}

func TestToTimeSeries_SortedAcrossFloats(t *testing.T) {
	floats := []models.Float{
		{ID: "a", Measurements: []models.Measurement{m("2024-09-11", 16.8), m("2024-08-14", 15.2)}},
		{ID: "b", Measurements: []models.Measurement{m("2023-08-08", 14.9), {Date: time.Now()}}},
	}
	got := ToTimeSeries(floats, models.ParamTemperature)
	wantLabels := []string{"2023-08-08", "2024-08-14", "2024-09-11"}
	if len(got) != len(wantLabels) {
		t.Fatalf("got %d points, want %d (missing readings skipped)", len(got), len(wantLabels))
	}
	for i, l := range wantLabels {
		if got[i].Label != l {
			t.Errorf("point[%d].Label = %s, want %s", i, got[i].Label, l)
		}
	}
	if got[0].Value != 14.9 {
		t.Errorf("first value = %v, want 14.9", got[0].Value)
	}
}

func TestToTimeSeries_Empty(t *testing.T) {
	if got := ToTimeSeries(nil, models.ParamSalinity); got == nil || len(got) != 0 {
		t.Errorf("ToTimeSeries(nil) = %#v, want empty slice", got)
	}
}

func TestBuild(t *testing.T) {
	floats := []models.Float{{ID: "a", Measurements: []models.Measurement{m("2024-01-01", 10), m("2024-02-01", 12)}}}
	res := analysis.Analyze(floats, []models.Param{models.ParamTemperature})

	plain := Build(models.Intent{Analysis: models.AnalysisAverage}, res, floats)
	if len(plain) != 1 || plain[0].Kind != KindBars {
		t.Fatalf("Build without chart request = %+v, want one bar series", plain)
	}

	trend := Build(models.Intent{Analysis: models.AnalysisTrend}, res, floats)
	if len(trend) != 2 || trend[1].Kind != KindTrend || len(trend[1].Points) != 2 {
		t.Fatalf("Build for trend = %+v, want bars plus time series", trend)
	}

	if got := Build(models.Intent{Visualization: true}, analysis.Result{}, nil); len(got) != 0 {
		t.Errorf("Build for empty result = %+v, want none", got)
	}
}

func TestRenderPNG(t *testing.T) {
	tests := []struct {
		name   string
		series Series
	}{
		{"bars", Series{Name: "Temperature", Unit: "°C", Kind: KindBars, Points: []Point{{"Minimum", -1.5}, {"Average", 4}, {"Maximum", 12}}}},
		{"trend", Series{Name: "Salinity", Kind: KindTrend, Points: []Point{{"2023-01-01", 34.1}, {"2023-02-01", 34.6}, {"2023-03-01", 34.3}}}},
		{"single point", Series{Name: "Oxygen", Kind: KindTrend, Points: []Point{{"2023-01-01", 210}}}},
		{"all negative", Series{Name: "Temperature", Kind: KindBars, Points: []Point{{"Minimum", -1.8}, {"Maximum", -0.5}}}},
		{"empty", Series{Name: "Salinity", Kind: KindBars, Points: []Point{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := RenderPNG(tt.series, DefaultWidth, DefaultHeight)
			if err != nil {
				t.Fatalf("RenderPNG: %v", err)
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if b := img.Bounds(); b.Dx() != DefaultWidth || b.Dy() != DefaultHeight {
				t.Errorf("size = %dx%d", b.Dx(), b.Dy())
			}
		})
	}
}

func TestTrendTicks(t *testing.T) {
	var points []Point
	for i := 0; i < 14; i++ {
		points = append(points, Point{Label: fmt.Sprintf("2023-%02d-01", i%12+1), Value: float64(i)})
	}
	ticks := trendTicks(points)
	if len(ticks) > maxTrendTicks {
		t.Errorf("ticks = %d, want at most %d", len(ticks), maxTrendTicks)
	}
	if ticks[0].Label != "2023-01-01" || ticks[0].Value != 0 {
		t.Errorf("first tick = %+v", ticks[0])
	}

	if got := trendTicks(points[:1]); len(got) != 1 {
		t.Errorf("single point ticks = %d, want 1", len(got))
	}
}

func TestRenderPNG_UsesGoFont(t *testing.T) {
	if got := plot.New().Title.TextStyle.Font.Typeface; got != typeface {
		t.Errorf("title typeface = %q, want %q", got, typeface)
	}
}

func TestRenderPNG_TooSmall(t *testing.T) {
	if _, err := RenderPNG(Series{}, 10, 10); err == nil {
		t.Error("expected error for tiny canvas")
	}
}
