package riskscore

import "github.com/advwatch/iapd/backend/internal/contracts"

// Point-mode scorer: a simple additive tier model usable without any filing
// history. Disclosures add points, small AUM adds points, large average
// client size adds points. Factors with no tier contribute zero.

const maxDisclosurePoints = 25

// PointsScore fills a score record from a single filing using the additive
// tier model.
func PointsScore(f *contracts.FilingRecord, rec *contracts.RiskScoreRecord) {
	rec.Mode = ModePoints

	rec.DisclosureRisk = disclosurePoints(f.DisciplinaryDisclosures)
	rec.SizeFactorRisk = aumPoints(f)
	rec.ClientConcentrationRisk = clientSizePoints(f)

	rec.OverallScore = rec.DisclosureRisk + rec.SizeFactorRisk + rec.ClientConcentrationRisk
	rec.Category = CategorizePoints(rec.OverallScore)

	rec.Factors = map[string]float64{
		"disclosure_points":  rec.DisclosureRisk,
		"aum_points":         rec.SizeFactorRisk,
		"client_size_points": rec.ClientConcentrationRisk,
	}
}

func disclosurePoints(disclosures int64) float64 {
	pts := float64(disclosures) * 10
	if pts > maxDisclosurePoints {
		return maxDisclosurePoints
	}
	return pts
}

// aumPoints: smaller advisers carry more operational risk in this model.
// Unreported AUM is no signal and scores zero.
func aumPoints(f *contracts.FilingRecord) float64 {
	aum, ok := f.AUMFloat()
	if !ok {
		return 0
	}
	switch {
	case aum > 10e9:
		return 5
	case aum > 1e9:
		return 10
	case aum > 100e6:
		return 15
	default:
		return 20
	}
}

// clientSizePoints scores the average account size (AUM per client): large
// concentrated client books add points.
func clientSizePoints(f *contracts.FilingRecord) float64 {
	aum, ok := f.AUMFloat()
	if !ok || f.ClientCount == nil || *f.ClientCount <= 0 {
		return 0
	}
	avg := aum / float64(*f.ClientCount)
	switch {
	case avg > 10e6:
		return 15
	case avg > 1e6:
		return 10
	case avg > 100e3:
		return 5
	default:
		return 0
	}
}
