// Package dataset holds the in-memory float collection queries run against.
package dataset

import (
	"slices"
	"sort"
	"strconv"

	"github.com/lox/floatchat/internal/models"
)

// Store is an immutable collection of floats. Filtering never mutates it.
type Store struct {
	floats []models.Float
	byID   map[string]int
}

// New copies floats into a store, ordering each float's measurements by date.
func New(floats []models.Float) *Store {
	s := &Store{
		floats: make([]models.Float, len(floats)),
		byID:   make(map[string]int, len(floats)),
	}
	for i, fl := range floats {
		ms := slices.Clone(fl.Measurements)
		sort.SliceStable(ms, func(a, b int) bool { return ms[a].Date.Before(ms[b].Date) })
		fl.Measurements = ms
		s.floats[i] = fl
		s.byID[fl.ID] = i
	}
	return s
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.floats)
}

// Floats returns every float. The returned measurements must be treated as read-only.
func (s *Store) Floats() []models.Float {
	if s == nil {
		return nil
	}
	out := make([]models.Float, len(s.floats))
	for i, fl := range s.floats {
		fl.Measurements = slices.Clip(fl.Measurements)
		out[i] = fl
	}
	return out
}

func (s *Store) Float(id string) (models.Float, bool) {
	if s == nil {
		return models.Float{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return models.Float{}, false
	}
	fl := s.floats[i]
	fl.Measurements = slices.Clip(fl.Measurements)
	return fl, true
}

// FilterFloats returns the floats matching both the query regions and the
// sidebar filter. An empty regions set means every region. A year filter
// works per measurement and drops floats left without any.
func (s *Store) FilterFloats(regions []models.Region, f models.FilterState) []models.Float {
	if s == nil {
		return []models.Float{}
	}
	out := make([]models.Float, 0, len(s.floats))
	for _, fl := range s.floats {
		if len(regions) > 0 && !slices.Contains(regions, fl.Region) {
			continue
		}
		if f.Region != "" && fl.Region != f.Region {
			continue
		}
		if f.FloatType != "" && ClassifyFloat(fl.ID) != f.FloatType {
			continue
		}
		if f.Year != 0 {
			ms := measurementsInYear(fl.Measurements, f.Year)
			if len(ms) == 0 {
				continue
			}
			fl.Measurements = ms
		} else {
			fl.Measurements = slices.Clip(fl.Measurements)
		}
		out = append(out, fl)
	}
	return out
}

// SelectFloat narrows floats to the one with the given id. An empty id keeps
// every float. A named id missing from floats yields an empty set and
// ok=false, so callers never report other floats under that id.
func SelectFloat(floats []models.Float, id string) (selected []models.Float, ok bool) {
	if id == "" {
		return floats, true
	}
	for _, fl := range floats {
		if fl.ID == id {
			return []models.Float{fl}, true
		}
	}
	return []models.Float{}, false
}

// ClassifyFloat derives the float type from its id: even numeric ids are
// core floats, everything else is treated as biogeochemical.
func ClassifyFloat(id string) models.FloatType {
	n, err := strconv.Atoi(id)
	if err == nil && n%2 == 0 {
		return models.FloatTypeCore
	}
	return models.FloatTypeBiogeochemical
}

// MeasurementCount sums the measurements across floats.
func MeasurementCount(floats []models.Float) int {
	n := 0
	for _, fl := range floats {
		n += len(fl.Measurements)
	}
	return n
}

// Years lists the distinct measurement years in ascending order.
func (s *Store) Years() []int {
	if s == nil {
		return nil
	}
	seen := make(map[int]bool)
	var years []int
	for _, fl := range s.floats {
		for _, m := range fl.Measurements {
			y := m.Date.Year()
			if !seen[y] {
				seen[y] = true
				years = append(years, y)
			}
		}
	}
	sort.Ints(years)
	return years
}

func measurementsInYear(ms []models.Measurement, year int) []models.Measurement {
	var out []models.Measurement
	for _, m := range ms {
		if m.Date.Year() == year {
			out = append(out, m)
		}
	}
	return out
}
