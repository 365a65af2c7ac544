package narrative

import (
	"fmt"

	"github.com/lox/floatchat/internal/analysis"
	"github.com/lox/floatchat/internal/models"
)

const (
	WarmWaterC   = 20.0
	ColdWaterC   = 10.0
	HighSalinity = 35.0
	LowSalinity  = 34.0
	HighOxygen   = 250.0
	LowOxygen    = 150.0
)

// Insights applies fixed threshold rules to each parameter's average.
func Insights(res analysis.Result) []string {
	insights := []string{}
	for _, p := range res.Params() {
		agg := res.Aggregates[p]
		if s := insightFor(p, agg.Average); s != "" {
			insights = append(insights, s)
		}
	}
	return insights
}

func insightFor(p models.Param, avg float64) string {
	v := FormatValue(avg, Unit(p))
	switch p {
	case models.ParamTemperature:
		switch {
		case avg > WarmWaterC:
			return fmt.Sprintf("Warm waters: an average of %s points to tropical or subtropical conditions.", v)
		case avg < ColdWaterC:
			return fmt.Sprintf("Cold waters: an average of %s is typical of polar or deep water masses.", v)
		default:
			return fmt.Sprintf("Temperate waters: an average of %s sits between cold and warm regimes.", v)
		}
	case models.ParamSalinity:
		switch {
		case avg > HighSalinity:
			return fmt.Sprintf("High salinity: %s suggests strong evaporation.", v)
		case avg < LowSalinity:
			return fmt.Sprintf("Low salinity: %s indicates freshwater input from rain, rivers or ice melt.", v)
		default:
			return fmt.Sprintf("Typical salinity: %s is within the usual open-ocean range.", v)
		}
	case models.ParamOxygen:
		switch {
		case avg > HighOxygen:
			return fmt.Sprintf("Well-oxygenated waters: %s supports active marine life.", v)
		case avg < LowOxygen:
			return fmt.Sprintf("Low oxygen: %s may indicate an oxygen minimum zone.", v)
		default:
			return fmt.Sprintf("Moderate oxygen: %s is within normal levels.", v)
		}
	}
	return ""
}
