package riskscore

import "github.com/advwatch/iapd/backend/internal/contracts"

// Mode names accepted by the engine.
const (
	ModeWeighted = "weighted"
	ModePoints   = "points"
)

// Weighted-mode factor weights. They sum to exactly 1.0; the test suite
// enforces that.
var factorWeights = map[string]float64{
	contracts.FactorDisclosure:          0.35,
	contracts.FactorAUMVolatility:       0.20,
	contracts.FactorClientConcentration: 0.15,
	contracts.FactorFilingCompliance:    0.15,
	contracts.FactorCCOStability:        0.10,
	contracts.FactorSize:                0.05,
}

// Weights exposes a copy of the weighted-mode weight table.
func Weights() map[string]float64 {
	out := make(map[string]float64, len(factorWeights))
	for k, v := range factorWeights {
		out[k] = v
	}
	return out
}

// WeightedOverall combines the six factor scores into the overall score.
func WeightedOverall(rec *contracts.RiskScoreRecord) float64 {
	var sum float64
	for name, score := range rec.FactorScores() {
		sum += factorWeights[name] * score
	}
	return sum
}

// CategorizeWeighted maps a weighted overall score in [0,1] to a category.
func CategorizeWeighted(score float64) contracts.RiskCategory {
	switch {
	case score < 0.3:
		return contracts.RiskLow
	case score < 0.6:
		return contracts.RiskMedium
	case score < 0.8:
		return contracts.RiskHigh
	default:
		return contracts.RiskCritical
	}
}

// CategorizePoints maps an additive point total to a category.
func CategorizePoints(points float64) contracts.RiskCategory {
	switch {
	case points >= 50:
		return contracts.RiskCritical
	case points >= 30:
		return contracts.RiskHigh
	case points >= 15:
		return contracts.RiskMedium
	default:
		return contracts.RiskLow
	}
}
