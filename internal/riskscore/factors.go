// Package riskscore computes per-filing risk scores from canonical filing
// histories. Two strategies exist: the weighted factor model and the
// additive point model. Their outputs live on the same record type but are
// numerically incomparable.
package riskscore

import (
	"math"
	"sort"
)

// Minimum active span used for rate denominators. Brand-new firms get a
// floor rather than a division blowup.
const minYearsActive = 0.1

// Calculator computes the six weighted-mode factors. All outputs are
// clipped to [0,1].
type Calculator struct {
	expectedFilingsPerYear float64
	optimalAUM             float64
	sizeCurveScale         float64
}

func NewCalculator(expectedPerYear, optimalAUM, sizeScale float64) *Calculator {
	if expectedPerYear <= 0 {
		expectedPerYear = 4.0
	}
	if optimalAUM <= 0 {
		optimalAUM = 5e9
	}
	if sizeScale <= 0 {
		sizeScale = 1.0
	}
	return &Calculator{
		expectedFilingsPerYear: expectedPerYear,
		optimalAUM:             optimalAUM,
		sizeCurveScale:         sizeScale,
	}
}

// DisclosureRisk scores the disciplinary disclosure rate on a log curve:
// log1p(rate)/ln(10), so ten disclosures per year saturate the factor.
// The rate itself is returned for the audit map.
func (c *Calculator) DisclosureRisk(disclosures int64, yearsActive float64) (score, rate float64) {
	if yearsActive < minYearsActive {
		yearsActive = minYearsActive
	}
	rate = float64(disclosures) / yearsActive
	return clip01(math.Log1p(rate) / math.Ln10), rate
}

// AUMVolatility scores the standard deviation of period-over-period AUM
// percentage changes, scaled so 10% stddev saturates. ok is false when the
// history has fewer than two reported AUM values; the factor is then
// degraded to zero.
func (c *Calculator) AUMVolatility(aums []float64) (score float64, ok bool) {
	if len(aums) < 2 {
		return 0, false
	}
	changes := make([]float64, 0, len(aums)-1)
	for i := 1; i < len(aums); i++ {
		if aums[i-1] == 0 {
			continue
		}
		changes = append(changes, (aums[i]-aums[i-1])/aums[i-1])
	}
	if len(changes) == 0 {
		return 0, false
	}
	return clip01(stddev(changes) * 10), true
}

// ClientConcentration scores the clients-per-account ratio against the
// population's 95th percentile. A firm at or above the p95 saturates. ok is
// false when the filing reports no client count; accounts default to one so
// a missing account count concentrates rather than divides by zero.
func (c *Calculator) ClientConcentration(clients, accounts *int64, p95 float64) (score, ratio float64, ok bool) {
	if clients == nil || p95 <= 0 {
		return 0, 0, false
	}
	ratio = ConcentrationRatio(*clients, accounts)
	return clip01(ratio / p95), ratio, true
}

// ConcentrationRatio is the raw clients-per-account ratio with the account
// floor applied.
func ConcentrationRatio(clients int64, accounts *int64) float64 {
	acct := int64(1)
	if accounts != nil && *accounts > 0 {
		acct = *accounts
	}
	return float64(clients) / float64(acct)
}

// FilingCompliance scores how far the firm's observed filing frequency
// falls short of the expected cadence. Filing at or above the expected rate
// scores zero.
func (c *Calculator) FilingCompliance(filings int, yearsActive float64) (score, freq float64) {
	if yearsActive < minYearsActive {
		yearsActive = minYearsActive
	}
	freq = float64(filings) / yearsActive
	return clip01(1 - freq/c.expectedFilingsPerYear), freq
}

// CCOStability scores compliance officer turnover: five observed changes
// saturate the factor.
func (c *Calculator) CCOStability(changes int) float64 {
	return clip01(float64(changes) / 5)
}

// SizeRisk scores distance from the optimal AUM on a tanh curve: both very
// small and very large advisers carry elevated operational risk. ok is
// false when the filing reports no AUM.
func (c *Calculator) SizeRisk(aum float64, reported bool) (score float64, ok bool) {
	if !reported {
		return 0, false
	}
	return math.Tanh(math.Abs(aum-c.optimalAUM) / (c.optimalAUM * c.sizeCurveScale)), true
}

// Percentile95 returns the 95th percentile of the values using the
// nearest-rank method. Zero when the population is empty.
func Percentile95(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	rank := int(math.Ceil(0.95*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var variance float64
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	variance /= float64(len(xs))
	return math.Sqrt(variance)
}

func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
