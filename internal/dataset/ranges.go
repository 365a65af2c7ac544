package dataset

import (
	"math"

	"github.com/lox/floatchat/internal/models"
)

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ParamRange returns the min/max of p across every measurement that reports it.
func ParamRange(floats []models.Float, p models.Param) (Range, bool) {
	r := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	found := false
	for _, fl := range floats {
		for _, m := range fl.Measurements {
			v, ok := m.Value(p)
			if !ok {
				continue
			}
			r.Min = math.Min(r.Min, v)
			r.Max = math.Max(r.Max, v)
			found = true
		}
	}
	if !found {
		return Range{}, false
	}
	return r, true
}

// PositionRanges returns the latitude and longitude spans of floats.
func PositionRanges(floats []models.Float) (lat, lon Range, ok bool) {
	if len(floats) == 0 {
		return Range{}, Range{}, false
	}
	lat = Range{Min: floats[0].Latitude, Max: floats[0].Latitude}
	lon = Range{Min: floats[0].Longitude, Max: floats[0].Longitude}
	for _, fl := range floats[1:] {
		lat.Min = math.Min(lat.Min, fl.Latitude)
		lat.Max = math.Max(lat.Max, fl.Latitude)
		lon.Min = math.Min(lon.Min, fl.Longitude)
		lon.Max = math.Max(lon.Max, fl.Longitude)
	}
	return lat, lon, true
}
