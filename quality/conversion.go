package quality

import (
	"fmt"
	"math"

	"funnel_copy_generator/project"
)

// Conversion is a rough conversion-rate band, in percent.
type Conversion struct {
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Factors []string `json:"factors"`
}

type band struct{ min, max float64 }

var funnelBands = map[project.FunnelType]band{
	project.FunnelSalesPage: {1.0, 3.0},
	project.FunnelVSL:       {1.5, 4.0},
	project.FunnelWebinar:   {5.0, 15.0},
	project.FunnelLaunch:    {2.0, 6.0},
	project.FunnelChallenge: {3.0, 8.0},
}

var defaultBand = band{1.0, 3.0}

// EstimateConversion scales the funnel's typical band by the card's overall
// score: a score of 50 keeps the band, 100 widens it by half, 0 halves it.
func EstimateConversion(card ScoreCard, snap project.Snapshot) Conversion {
	b, ok := funnelBands[snap.Funnel]
	if !ok {
		b = defaultBand
	}
	factor := 0.5 + float64(card.OverallScore)/100

	factors := []string{fmt.Sprintf("funnel:%s", funnelName(snap.Funnel)), "grade:" + card.Grade}
	for _, f := range featureOrder {
		if card.Metrics["has_"+string(f)] == 1 {
			factors = append(factors, string(f))
		}
	}

	return Conversion{
		Min:     round2(b.min * factor),
		Max:     round2(b.max * factor),
		Factors: factors,
	}
}

func funnelName(f project.FunnelType) string {
	if f == "" {
		return "unknown"
	}
	return string(f)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
