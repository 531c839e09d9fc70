package contracts

import "time"

// RiskCategory is the four-level review bucket derived from an overall score
type RiskCategory string

const (
	RiskLow      RiskCategory = "Low"
	RiskMedium   RiskCategory = "Medium"
	RiskHigh     RiskCategory = "High"
	RiskCritical RiskCategory = "Critical"
)

// Factor names shared by the scoring engine, the persistence layer and the
// read API. The weights attached to each factor live in the scoring package.
const (
	FactorDisclosure          = "disclosure_risk"
	FactorAUMVolatility       = "aum_volatility_risk"
	FactorClientConcentration = "client_concentration_risk"
	FactorFilingCompliance    = "filing_compliance_risk"
	FactorCCOStability        = "cco_stability_risk"
	FactorSize                = "size_factor_risk"
)

// RiskScoreRecord holds the scored result for one qualifying filing. Every
// qualifying filing is scored, not only the latest per firm. The record is
// fully regenerable from filing history and is rebuilt in full-recompute
// batches.
type RiskScoreRecord struct {
	CRD        int64     `json:"crd"`
	FilingDate time.Time `json:"filing_date"`

	// Scoring strategy that produced this record: "weighted" or "points".
	// The two modes are numerically incomparable.
	Mode string `json:"mode"`

	OverallScore float64      `json:"overall_score"`
	Category     RiskCategory `json:"risk_category"`

	// Individual factor scores, each in [0,1] for weighted mode. In points
	// mode these hold the raw tier points instead.
	DisclosureRisk          float64 `json:"disclosure_risk"`
	AUMVolatilityRisk       float64 `json:"aum_volatility_risk"`
	ClientConcentrationRisk float64 `json:"client_concentration_risk"`
	FilingComplianceRisk    float64 `json:"filing_compliance_risk"`
	CCOStabilityRisk        float64 `json:"cco_stability_risk"`
	SizeFactorRisk          float64 `json:"size_factor_risk"`

	// Audit map of named sub-factors: the intermediate values that produced
	// each score (disclosure rate, years active, volatility, officer change
	// count, ...). Serialized as JSONB for the dashboard.
	Factors map[string]float64 `json:"factors"`

	CalculatedAt time.Time `json:"calculated_at"`
}

// FactorScores returns the six factor scores keyed by canonical factor name
func (r *RiskScoreRecord) FactorScores() map[string]float64 {
	return map[string]float64{
		FactorDisclosure:          r.DisclosureRisk,
		FactorAUMVolatility:       r.AUMVolatilityRisk,
		FactorClientConcentration: r.ClientConcentrationRisk,
		FactorFilingCompliance:    r.FilingComplianceRisk,
		FactorCCOStability:        r.CCOStabilityRisk,
		FactorSize:                r.SizeFactorRisk,
	}
}
