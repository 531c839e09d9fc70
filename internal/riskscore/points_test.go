package riskscore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/advwatch/iapd/backend/internal/contracts"
)

func pointsFiling(aum float64, clients int64, disclosures int64) *contracts.FilingRecord {
	f := &contracts.FilingRecord{
		CRD:                     1,
		FilingDate:              time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		DisciplinaryDisclosures: disclosures,
	}
	if aum >= 0 {
		d := decimal.NewFromFloat(aum)
		f.AUM = &d
	}
	if clients > 0 {
		f.ClientCount = &clients
	}
	return f
}

func TestPointsScoreSmallDisciplinedFirm(t *testing.T) {
	// 2 disclosures (20) + small AUM (20) + no client data (0) = 40 -> High
	rec := &contracts.RiskScoreRecord{}
	PointsScore(pointsFiling(50e6, 0, 2), rec)

	assert.Equal(t, ModePoints, rec.Mode)
	assert.Equal(t, 20.0, rec.DisclosureRisk)
	assert.Equal(t, 20.0, rec.SizeFactorRisk)
	assert.Zero(t, rec.ClientConcentrationRisk)
	assert.Equal(t, 40.0, rec.OverallScore)
	assert.Equal(t, contracts.RiskHigh, rec.Category)
}

func TestPointsScoreDisclosureCap(t *testing.T) {
	rec := &contracts.RiskScoreRecord{}
	PointsScore(pointsFiling(50e9, 0, 9), rec)
	assert.Equal(t, 25.0, rec.DisclosureRisk)
}

func TestPointsScoreAUMTiers(t *testing.T) {
	tiers := []struct {
		aum  float64
		want float64
	}{
		{50e9, 5},
		{5e9, 10},
		{500e6, 15},
		{50e6, 20},
	}
	for _, tt := range tiers {
		rec := &contracts.RiskScoreRecord{}
		PointsScore(pointsFiling(tt.aum, 0, 0), rec)
		assert.Equal(t, tt.want, rec.SizeFactorRisk, "aum %v", tt.aum)
	}
}

func TestPointsScoreUnreportedAUMIsNoSignal(t *testing.T) {
	rec := &contracts.RiskScoreRecord{}
	PointsScore(pointsFiling(-1, 0, 0), rec)
	assert.Zero(t, rec.SizeFactorRisk, "no data must not score as the riskiest tier")
	assert.Zero(t, rec.OverallScore)
	assert.Equal(t, contracts.RiskLow, rec.Category)
}

func TestPointsScoreClientSizeTiers(t *testing.T) {
	// 1e9 AUM over 50 clients: 20M average -> 15 points
	rec := &contracts.RiskScoreRecord{}
	PointsScore(pointsFiling(1e9, 50, 0), rec)
	assert.Equal(t, 15.0, rec.ClientConcentrationRisk)

	// 1e9 over 2000 clients: 500K average -> 5 points
	rec = &contracts.RiskScoreRecord{}
	PointsScore(pointsFiling(1e9, 2000, 0), rec)
	assert.Equal(t, 5.0, rec.ClientConcentrationRisk)

	// Retail book: 50K average -> 0 points
	rec = &contracts.RiskScoreRecord{}
	PointsScore(pointsFiling(100e6, 2000, 0), rec)
	assert.Zero(t, rec.ClientConcentrationRisk)
}

func TestPointsScoreLargeCleanFirmIsLow(t *testing.T) {
	rec := &contracts.RiskScoreRecord{}
	PointsScore(pointsFiling(50e9, 100000, 0), rec)
	assert.Equal(t, contracts.RiskLow, rec.Category)
	assert.True(t, rec.OverallScore < 15)
}
