// Package narrative renders analysis results as chat replies.
package narrative

import (
	"fmt"
	"strings"

	"github.com/lox/floatchat/internal/analysis"
	"github.com/lox/floatchat/internal/models"
	"github.com/lox/floatchat/internal/query"
)

const (
	DatabaseNotFoundText = "Database not found."
	DatasetNotLoadedText = "The float dataset has not been loaded yet. Please try again in a moment."
)

// NotFoundText is returned when the intent was understood but the current
// selection holds no matching measurements.
var NotFoundText = fmt.Sprintf(
	"I couldn't find any matching measurements for this selection. Try asking about %s.",
	joinTopics(query.Topics()),
)

var units = map[models.Param]string{
	models.ParamTemperature: "°C",
	models.ParamSalinity:    "PSU",
	models.ParamPressure:    "dbar",
	models.ParamOxygen:      "µmol/kg",
}

// Unit returns the display unit for p, or "" for parameters without one.
func Unit(p models.Param) string {
	return units[p]
}

// Label capitalises a parameter name for headings.
func Label(p models.Param) string {
	s := string(p)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type Response struct {
	Query    string   `json:"query"`
	Text     string   `json:"text"`
	Insights []string `json:"insights"`
}

// Generate describes res for the query. Only the statistics the intent asked
// for are listed; with no analysis keyword all three are shown.
func Generate(q string, intent models.Intent, res analysis.Result) Response {
	if res.Empty() {
		return Response{Query: q, Text: NotFoundText, Insights: []string{}}
	}

	var b strings.Builder
	if intent.FloatID != "" {
		fmt.Fprintf(&b, "Float %s: ", intent.FloatID)
	}
	fmt.Fprintf(&b, "Based on %s from %s:\n",
		plural(res.TotalMeasurements, "measurement"), plural(res.FloatCount, "float"))

	for _, p := range res.Params() {
		agg := res.Aggregates[p]
		unit := Unit(p)

		b.WriteString("\n")
		if unit != "" {
			fmt.Fprintf(&b, "%s (%s):\n", Label(p), unit)
		} else {
			fmt.Fprintf(&b, "%s:\n", Label(p))
		}

		switch intent.Analysis {
		case models.AnalysisAverage:
			fmt.Fprintf(&b, "  Average: %s\n", FormatValue(agg.Average, unit))
		case models.AnalysisMaximum:
			fmt.Fprintf(&b, "  Maximum: %s\n", FormatValue(agg.Maximum, unit))
		case models.AnalysisMinimum:
			fmt.Fprintf(&b, "  Minimum: %s\n", FormatValue(agg.Minimum, unit))
		case models.AnalysisTrend:
			fmt.Fprintf(&b, "  Range: %s to %s\n", FormatValue(agg.Minimum, unit), FormatValue(agg.Maximum, unit))
		default:
			fmt.Fprintf(&b, "  Average: %s\n", FormatValue(agg.Average, unit))
			fmt.Fprintf(&b, "  Maximum: %s\n", FormatValue(agg.Maximum, unit))
			fmt.Fprintf(&b, "  Minimum: %s\n", FormatValue(agg.Minimum, unit))
		}
		fmt.Fprintf(&b, "  Measurements: %d\n", agg.Count)
	}

	return Response{
		Query:    q,
		Text:     strings.TrimRight(b.String(), "\n"),
		Insights: Insights(res),
	}
}

// RangeLine describes a dataset-wide range reported by the search backend.
// Missing bounds render as n/a.
func RangeLine(p models.Param, min, max *float64) string {
	unit := Unit(p)
	lo, hi := "n/a", "n/a"
	if min != nil {
		lo = fmt.Sprintf("%.1f", *min)
	}
	if max != nil {
		hi = fmt.Sprintf("%.1f", *max)
	}
	line := fmt.Sprintf("Across the database, %s ranges from %s to %s", p, lo, hi)
	if unit != "" {
		line += " " + unit
	}
	return line + "."
}

// FormatValue renders v with two decimals and an optional unit.
func FormatValue(v float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, unit)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func joinTopics(topics []string) string {
	switch len(topics) {
	case 0:
		return ""
	case 1:
		return topics[0]
	}
	return strings.Join(topics[:len(topics)-1], ", ") + ", or " + topics[len(topics)-1]
}
