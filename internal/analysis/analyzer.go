// Package analysis computes per-parameter summary statistics over a filtered
// float subset.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/lox/floatchat/internal/models"
)

// Result holds the aggregates for every requested parameter that had data.
type Result struct {
	Aggregates        map[models.Param]models.Aggregate `json:"aggregates"`
	FloatCount        int                               `json:"floatCount"`
	TotalMeasurements int                               `json:"totalMeasurements"`
}

// Empty reports whether no requested parameter had any values.
func (r Result) Empty() bool {
	return len(r.Aggregates) == 0
}

// Params returns the present parameters in canonical order.
func (r Result) Params() []models.Param {
	var out []models.Param
	for _, p := range models.Params {
		if _, ok := r.Aggregates[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Analyze aggregates each parameter across all measurements of floats.
// Measurements missing a parameter are skipped, and parameters without any
// values are left out of the result.
func Analyze(fls []models.Float, params []models.Param) Result {
	res := Result{Aggregates: make(map[models.Param]models.Aggregate, len(params))}

	for _, fl := range fls {
		if len(fl.Measurements) == 0 {
			continue
		}
		res.FloatCount++
		res.TotalMeasurements += len(fl.Measurements)
	}

	for _, p := range params {
		if _, done := res.Aggregates[p]; done {
			continue
		}
		values := Values(fls, p)
		if len(values) == 0 {
			continue
		}
		lo, hi := floats.Min(values), floats.Max(values)
		// Rounding in the mean can land one ulp outside [lo, hi].
		avg := math.Min(math.Max(stat.Mean(values, nil), lo), hi)
		res.Aggregates[p] = models.Aggregate{
			Parameter: p,
			Average:   avg,
			Maximum:   hi,
			Minimum:   lo,
			Count:     len(values),
			Values:    values,
		}
	}
	return res
}

// Values flattens p across floats in float order, then measurement order.
func Values(fls []models.Float, p models.Param) []float64 {
	var values []float64
	for _, fl := range fls {
		for _, m := range fl.Measurements {
			if v, ok := m.Value(p); ok {
				values = append(values, v)
			}
		}
	}
	return values
}
