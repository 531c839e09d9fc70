package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// FilingRecord is the canonical, immutable representation of one adviser
// filing at one period. Exactly one record exists per (CRD, FilingDate) pair.
// The CRD number is the canonical firm identifier; rows that only carry an
// SEC number are rejected at ingestion.
type FilingRecord struct {
	CRD        int64     `json:"crd"`
	FilingDate time.Time `json:"filing_date"`

	// Firm profile
	FirmName          string `json:"firm_name,omitempty"`
	LegalName         string `json:"legal_name,omitempty"`
	SECNumber         string `json:"sec_number,omitempty"`
	SECRegion         string `json:"sec_region,omitempty"`
	SECStatus         string `json:"sec_status,omitempty"`
	MainOfficeCity    string `json:"main_office_city,omitempty"`
	MainOfficeState   string `json:"main_office_state,omitempty"`
	MainOfficeCountry string `json:"main_office_country,omitempty"`
	Website           string `json:"website,omitempty"`
	UmbrellaRegistration *bool `json:"umbrella_registration,omitempty"`

	// Metrics. Pointers distinguish "not reported" from zero.
	AUM                     *decimal.Decimal `json:"raum,omitempty"`
	ClientCount             *int64           `json:"client_count,omitempty"`
	AccountCount            *int64           `json:"account_count,omitempty"`
	DisciplinaryDisclosures int64            `json:"disciplinary_disclosures"`
	DisclosureFlag          bool             `json:"disclosure_flag"`

	// Composite compliance officer identity: FIRST|LAST|CRD, used to detect
	// officer turnover between periods.
	CCOID *string `json:"cco_id,omitempty"`

	// Source batch the record came from
	SourceFile string `json:"source_file,omitempty"`
}

// FilingKey identifies a FilingRecord
type FilingKey struct {
	CRD        int64
	FilingDate time.Time
}

// Key returns the record's identity
func (f *FilingRecord) Key() FilingKey {
	return FilingKey{CRD: f.CRD, FilingDate: f.FilingDate}
}

// AUMFloat returns the reported AUM as a float64 for scoring math.
// The second return is false when AUM was not reported.
func (f *FilingRecord) AUMFloat() (float64, bool) {
	if f.AUM == nil {
		return 0, false
	}
	return f.AUM.InexactFloat64(), true
}

// HasCCO reports whether a compliance officer identity is present
func (f *FilingRecord) HasCCO() bool {
	return f.CCOID != nil && *f.CCOID != ""
}
