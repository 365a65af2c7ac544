// Package search implements the ranges and search backend contract, both
// in-process over the loaded dataset and as an HTTP client.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/lox/floatchat/internal/dataset"
	"github.com/lox/floatchat/internal/models"
	"github.com/lox/floatchat/internal/query"
)

// DatabaseNotFound is the sentinel message a backend sends when it has no data.
const DatabaseNotFound = "Database not found"

// ErrDatabaseNotFound is returned when the backend holds no dataset.
var ErrDatabaseNotFound = errors.New("database not found")

// Range bounds are pointers so a malformed backend response can leave
// either side absent.
type Range struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// Complete reports whether both bounds are present.
func (r Range) Complete() bool {
	return r.Min != nil && r.Max != nil
}

// Ranges maps lat, lon and parameter names to their bounds.
type Ranges map[string]Range

type Response struct {
	Message  string           `json:"message"`
	Results  map[string]Range `json:"results"`
	DataType string           `json:"data_type"`
}

// DatabaseNotFound reports whether the response carries the sentinel.
func (r Response) DatabaseNotFound() bool {
	return r.Message == DatabaseNotFound
}

type Backend interface {
	Ranges(ctx context.Context) (Ranges, error)
	Search(ctx context.Context, q string) (Response, error)
}

// Local answers from an in-memory dataset that can be swapped after a reload.
type Local struct {
	ds atomic.Pointer[dataset.Store]
}

func NewLocal(ds *dataset.Store) *Local {
	l := &Local{}
	l.ds.Store(ds)
	return l
}

// SetStore replaces the dataset searched.
func (l *Local) SetStore(ds *dataset.Store) {
	l.ds.Store(ds)
}

func (l *Local) Ranges(ctx context.Context) (Ranges, error) {
	ds := l.ds.Load()
	if ds.Len() == 0 {
		return nil, ErrDatabaseNotFound
	}
	floats := ds.Floats()
	out := Ranges{}
	if lat, lon, ok := dataset.PositionRanges(floats); ok {
		out["lat"] = fromDataset(lat)
		out["lon"] = fromDataset(lon)
	}
	for _, p := range rangeParams {
		if r, ok := dataset.ParamRange(floats, p); ok {
			out[string(p)] = fromDataset(r)
		}
	}
	return out, nil
}

// rangeParams are the parameters summarised by Ranges. Oxygen is only
// reported by a subset of floats and is left to per-query search.
var rangeParams = []models.Param{models.ParamTemperature, models.ParamSalinity, models.ParamPressure}

// Search returns the bounds of every parameter named in q over the floats in
// the regions it names. Location queries also get lat/lon bounds.
func (l *Local) Search(ctx context.Context, q string) (Response, error) {
	ds := l.ds.Load()
	if ds.Len() == 0 {
		return Response{Message: DatabaseNotFound, Results: map[string]Range{}}, nil
	}

	intent := query.Parse(q)
	floats := ds.FilterFloats(intent.Regions, models.FilterState{})
	floats, _ = dataset.SelectFloat(floats, intent.FloatID)

	resp := Response{
		Results:  map[string]Range{},
		DataType: query.DataType(q),
	}
	for _, p := range intent.Parameters {
		if r, ok := dataset.ParamRange(floats, p); ok {
			resp.Results[string(p)] = fromDataset(r)
		}
	}
	if resp.DataType == query.DataTypeGeo {
		if lat, lon, ok := dataset.PositionRanges(floats); ok {
			resp.Results["lat"] = fromDataset(lat)
			resp.Results["lon"] = fromDataset(lon)
		}
	}

	n := len(floats)
	resp.Message = fmt.Sprintf("Found %d matching %s", n, pluralFloat(n))
	return resp, nil
}

func fromDataset(r dataset.Range) Range {
	lo, hi := r.Min, r.Max
	return Range{Min: &lo, Max: &hi}
}

func pluralFloat(n int) string {
	if n == 1 {
		return "float"
	}
	return "floats"
}
