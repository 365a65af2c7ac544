// Package chart projects analysis output into ordered (label, value) series
// that an external chart library can render directly.
package chart

import (
	"sort"

	"github.com/lox/floatchat/internal/analysis"
	"github.com/lox/floatchat/internal/models"
	"github.com/lox/floatchat/internal/narrative"
)

const (
	KindBars  = "bars"
	KindTrend = "trend"
)

type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type Series struct {
	Name      string       `json:"name"`
	Parameter models.Param `json:"parameter"`
	Unit      string       `json:"unit,omitempty"`
	Kind      string       `json:"kind"`
	Points    []Point      `json:"points"`
}

// ToSeries returns the minimum/average/maximum bars for agg. An aggregate
// without values yields an empty series.
func ToSeries(agg models.Aggregate) []Point {
	if agg.Count == 0 {
		return []Point{}
	}
	return []Point{
		{Label: "Minimum", Value: agg.Minimum},
		{Label: "Average", Value: agg.Average},
		{Label: "Maximum", Value: agg.Maximum},
	}
}

// ToTimeSeries lists every reading of p across floats, oldest first.
func ToTimeSeries(floats []models.Float, p models.Param) []Point {
	type sample struct {
		date  int64
		label string
		value float64
	}
	var samples []sample
	for _, fl := range floats {
		for _, m := range fl.Measurements {
			v, ok := m.Value(p)
			if !ok {
				continue
			}
			samples = append(samples, sample{
				date:  m.Date.Unix(),
				label: m.Date.Format("2006-01-02"),
				value: v,
			})
		}
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].date < samples[j].date })

	points := make([]Point, 0, len(samples))
	for _, s := range samples {
		points = append(points, Point{Label: s.label, Value: s.value})
	}
	return points
}

// Build assembles the series for an answered query: bars per parameter, plus
// a time series when the intent asks for a trend or a chart.
func Build(intent models.Intent, res analysis.Result, floats []models.Float) []Series {
	out := []Series{}
	for _, p := range res.Params() {
		out = append(out, Series{
			Name:      narrative.Label(p),
			Parameter: p,
			Unit:      narrative.Unit(p),
			Kind:      KindBars,
			Points:    ToSeries(res.Aggregates[p]),
		})
		if intent.Analysis == models.AnalysisTrend || intent.Visualization {
			out = append(out, Series{
				Name:      narrative.Label(p) + " over time",
				Parameter: p,
				Unit:      narrative.Unit(p),
				Kind:      KindTrend,
				Points:    ToTimeSeries(floats, p),
			})
		}
	}
	return out
}
