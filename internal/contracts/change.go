package contracts

import "time"

// ChangeRecord holds per-period deltas between a filing and its immediate
// predecessor for the same firm. Change records are derived data: they are
// rebuilt from the ordered filing history whenever that history changes and
// are never edited directly.
type ChangeRecord struct {
	CRD        int64     `json:"crd"`
	FilingDate time.Time `json:"filing_date"`

	// Percentage drops, capped at 100. Zero when the quantity did not drop
	// or the previous value was zero or unreported.
	AUMDropPct     float64 `json:"raum_drop_pct"`
	ClientDropPct  float64 `json:"client_drop_pct"`
	AccountDropPct float64 `json:"account_drop_pct"`

	// True iff the disclosure count increased from the previous period
	NewDisclosure bool `json:"new_disclosure"`

	// True iff the compliance officer token differs from the previous
	// period, including transitions to or from an unreported officer.
	CCOChanged bool `json:"cco_changed"`

	// True iff the rolling average AUM drop across the trend window
	// meets the configured threshold. Requires a full window of history.
	DeclineTrend bool `json:"decline_trend"`

	// Years between this filing and the firm's earliest observed filing
	FirmAgeYears int `json:"firm_age_years"`
}

// HasAnyDrop reports whether any tracked quantity dropped this period
func (c *ChangeRecord) HasAnyDrop() bool {
	return c.AUMDropPct > 0 || c.ClientDropPct > 0 || c.AccountDropPct > 0
}
