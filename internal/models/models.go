package models

import (
	"database/sql"
	"strings"
	"time"
)

type Region string

const (
	RegionAtlantic Region = "Atlantic"
	RegionPacific  Region = "Pacific"
	RegionIndian   Region = "Indian"
	RegionArctic   Region = "Arctic"
)

// Regions lists every ocean basin in canonical order.
var Regions = []Region{RegionAtlantic, RegionPacific, RegionIndian, RegionArctic}

// ParseRegion matches a region name case-insensitively. The empty string
// and unknown names return ok=false.
func ParseRegion(s string) (Region, bool) {
	for _, r := range Regions {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return "", false
}

type Param string

const (
	ParamTemperature Param = "temperature"
	ParamSalinity    Param = "salinity"
	ParamPressure    Param = "pressure"
	ParamOxygen      Param = "oxygen"
)

// Params lists the queryable parameters in canonical order.
var Params = []Param{ParamTemperature, ParamSalinity, ParamPressure, ParamOxygen}

func ParseParam(s string) (Param, bool) {
	for _, p := range Params {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return "", false
}

type FloatType string

const (
	FloatTypeCore           FloatType = "core"
	FloatTypeBiogeochemical FloatType = "biogeochemical"
)

func ParseFloatType(s string) (FloatType, bool) {
	switch {
	case strings.EqualFold(s, string(FloatTypeCore)):
		return FloatTypeCore, true
	case strings.EqualFold(s, string(FloatTypeBiogeochemical)), strings.EqualFold(s, "bgc"):
		return FloatTypeBiogeochemical, true
	}
	return "", false
}

type Analysis string

const (
	AnalysisNone    Analysis = "none"
	AnalysisAverage Analysis = "average"
	AnalysisMaximum Analysis = "maximum"
	AnalysisMinimum Analysis = "minimum"
	AnalysisTrend   Analysis = "trend"
)

// Measurement is a single profile sample. Fields a float did not report are
// left invalid.
type Measurement struct {
	Date        time.Time
	Temperature sql.NullFloat64
	Salinity    sql.NullFloat64
	Pressure    sql.NullFloat64
	Oxygen      sql.NullFloat64
	Depth       sql.NullFloat64
}

// Value returns the measurement's reading for p.
func (m Measurement) Value(p Param) (float64, bool) {
	var v sql.NullFloat64
	switch p {
	case ParamTemperature:
		v = m.Temperature
	case ParamSalinity:
		v = m.Salinity
	case ParamPressure:
		v = m.Pressure
	case ParamOxygen:
		v = m.Oxygen
	}
	return v.Float64, v.Valid
}

type Float struct {
	ID           string
	Region       Region
	Latitude     float64
	Longitude    float64
	Measurements []Measurement // ordered by date
}

type Intent struct {
	Parameters    []Param  `json:"parameters"`
	Regions       []Region `json:"regions"`
	Analysis      Analysis `json:"analysis"`
	Visualization bool     `json:"visualization"`
	FloatID       string   `json:"float_id,omitempty"` // set when the query names a float ("float 12345")
}


// IsEmpty reports whether the query matched no parameter, region or analysis keyword.
func (i Intent) IsEmpty() bool {
	return len(i.Parameters) == 0 && len(i.Regions) == 0 &&
		(i.Analysis == "" || i.Analysis == AnalysisNone)
}

// FilterState holds the sidebar selections. Zero values mean "no constraint".
type FilterState struct {
	Region    Region    `json:"region,omitempty"`
	Year      int       `json:"time,omitempty"`
	FloatType FloatType `json:"floatType,omitempty"`
	Parameter Param     `json:"parameters,omitempty"`
}

type Aggregate struct {
	Parameter Param     `json:"parameter"`
	Average   float64   `json:"average"`
	Maximum   float64   `json:"maximum"`
	Minimum   float64   `json:"minimum"`
	Count     int       `json:"count"`
	Values    []float64 `json:"values"`
}
