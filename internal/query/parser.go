// Package query turns free-text questions into an Intent using a fixed,
// ordered keyword table. Matching is case-insensitive substring search.
package query

import (
	"regexp"
	"strings"

	"github.com/lox/floatchat/internal/models"
)

type paramRule struct {
	keywords []string
	param    models.Param
}

type regionRule struct {
	keyword string
	region  models.Region
}

type analysisRule struct {
	keywords []string
	analysis models.Analysis
}

var paramRules = []paramRule{
	{keywords: []string{"temperature", "temp"}, param: models.ParamTemperature},
	{keywords: []string{"salinity", "salt"}, param: models.ParamSalinity},
	{keywords: []string{"pressure"}, param: models.ParamPressure},
	{keywords: []string{"oxygen"}, param: models.ParamOxygen},
}

var regionRules = []regionRule{
	{keyword: "atlantic", region: models.RegionAtlantic},
	{keyword: "pacific", region: models.RegionPacific},
	{keyword: "indian", region: models.RegionIndian},
	{keyword: "arctic", region: models.RegionArctic},
}

// First match wins.
var analysisRules = []analysisRule{
	{keywords: []string{"average", "mean"}, analysis: models.AnalysisAverage},
	{keywords: []string{"maximum", "max"}, analysis: models.AnalysisMaximum},
	{keywords: []string{"minimum", "min"}, analysis: models.AnalysisMinimum},
	{keywords: []string{"trend", "change"}, analysis: models.AnalysisTrend},
}

var visualizationKeywords = []string{"show", "plot", "chart", "graph"}

var floatNumberRe = regexp.MustCompile(`(?i)float\s*(\d+)`)

// Parse never fails; a query matching nothing yields an empty Intent.
func Parse(text string) models.Intent {
	lower := strings.ToLower(text)

	intent := models.Intent{Analysis: models.AnalysisNone}

	for _, rule := range paramRules {
		if containsAny(lower, rule.keywords) {
			intent.Parameters = append(intent.Parameters, rule.param)
		}
	}

	for _, rule := range regionRules {
		if strings.Contains(lower, rule.keyword) {
			intent.Regions = append(intent.Regions, rule.region)
		}
	}

	for _, rule := range analysisRules {
		if containsAny(lower, rule.keywords) {
			intent.Analysis = rule.analysis
			break
		}
	}

	intent.Visualization = containsAny(lower, visualizationKeywords)

	if m := floatNumberRe.FindStringSubmatch(text); m != nil {
		intent.FloatID = m[1]
	}

	return intent
}

// Values of the search backend's data_type field.
const (
	DataTypeFloat   = "float"
	DataTypeGeo     = "geo"
	DataTypeProfile = "profile"
)

// DataType classifies a query for the search backend's data_type field.
func DataType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "float"):
		return DataTypeFloat
	case containsAny(lower, []string{"location", "latitude", "longitude", "timeline", "geo"}):
		return DataTypeGeo
	default:
		return DataTypeProfile
	}
}

// Topics names the parameters a user can ask about, in rule order.
func Topics() []string {
	topics := make([]string, 0, len(paramRules))
	for _, rule := range paramRules {
		topics = append(topics, string(rule.param))
	}
	return topics
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
