package ingest

// Canonical field names. These are the only identifiers the rest of the
// pipeline knows; everything source-specific lives in the variant lists
// below.
const (
	FieldCRD           = "crd"
	FieldSECNumber     = "sec_number"
	FieldFilingDate    = "filing_date"
	FieldFirmName      = "firm_name"
	FieldLegalName     = "legal_name"
	FieldSECRegion     = "sec_region"
	FieldSECStatus     = "sec_status"
	FieldAUM           = "raum"
	FieldAccountCount  = "account_count"
	FieldDisclosure    = "disclosure_flag"
	FieldCCOName       = "cco_name"
	FieldCCOFirstName  = "cco_first_name"
	FieldCCOLastName   = "cco_last_name"
	FieldCCOCRD        = "cco_crd"
	FieldUmbrella      = "umbrella_registration"
	FieldWebsite       = "website"
	FieldOfficeCity    = "main_office_city"
	FieldOfficeState   = "main_office_state"
	FieldOfficeCountry = "main_office_country"
)

// FieldMapping maps each canonical field to its known header variants across
// compilation vintages, ordered most specific / most common first. Resolution
// stops at the first variant present in a batch, so order is significant.
// New vintages are supported by adding variants here, not by new code.
type FieldMapping map[string][]string

// DefaultMapping covers the header layouts observed in the SEC IAPD monthly
// compilations from 2015 onward: the report-style CSV exports ("SEC#",
// "5F(2)(c)", ...) and the older feed-style spreadsheets ("FirmCrdNb",
// "RAUM_5B2", ...).
func DefaultMapping() FieldMapping {
	return FieldMapping{
		FieldCRD:           {"Organization CRD#", "FirmCrdNb"},
		FieldSECNumber:     {"SEC#", "SECNb"},
		FieldFilingDate:    {"FilingDate", "Filing Date", "Dt"},
		FieldFirmName:      {"Primary Business Name", "BusNm"},
		FieldLegalName:     {"Legal Name"},
		FieldSECRegion:     {"SEC Region"},
		FieldSECStatus:     {"SEC Current Status"},
		FieldAUM:           {"5F(2)(c)", "RAUM_5B2", "RegulatoryAssetsUnderManagement", "Total_RAUM"},
		FieldAccountCount:  {"5F(2)(f)", "Item5F2f_TotalAccts", "TotalNumberOfAccounts"},
		FieldDisclosure:    {"Item11DisclosureFlag", "HasDisciplinaryHistory"},
		FieldCCOName:       {"Chief Compliance Officer Name"},
		FieldCCOFirstName:  {"ChiefComplianceOfficer_FirstName"},
		FieldCCOLastName:   {"ChiefComplianceOfficer_LastName"},
		FieldCCOCRD:        {"Chief Compliance Officer CRD", "ChiefComplianceOfficer_CRD"},
		FieldUmbrella:      {"Umbrella Registration"},
		FieldWebsite:       {"Website Address"},
		FieldOfficeCity:    {"Main Office City"},
		FieldOfficeState:   {"Main Office State"},
		FieldOfficeCountry: {"Main Office Country"},
	}
}

// Client-count bucket families. Item 5D reports client counts per client
// type; the aggregate client count is the sum across the family present in
// the batch.
var (
	// Report-style CSVs: 5D(a)(1) through 5D(n)(1)
	clientBucketLetters = "abcdefghijklmn"

	// Feed-style spreadsheets: Item5D_1a, Item5D_1b, ...
	clientBucketPrefix = "Item5D_1"
)

// clientBucketColumns returns the client-type bucket columns present in the
// realized header set, preferring the report-style family when both exist.
func clientBucketColumns(headers []string) []string {
	set := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		set[h] = struct{}{}
	}

	var cols []string
	for _, letter := range clientBucketLetters {
		name := "5D(" + string(letter) + ")(1)"
		if _, ok := set[name]; ok {
			cols = append(cols, name)
		}
	}
	if len(cols) > 0 {
		return cols
	}

	for _, h := range headers {
		if hasPrefix(h, clientBucketPrefix) {
			cols = append(cols, h)
		}
	}
	return cols
}

// disciplinaryCountColumns returns the Item 11 per-category count columns
// (for example "11B(1) Count"). Used only when no summary disclosure flag
// column resolves for the batch.
func disciplinaryCountColumns(headers []string) []string {
	var cols []string
	for _, h := range headers {
		if hasPrefix(h, "11") && contains(h, "Count") {
			cols = append(cols, h)
		}
	}
	return cols
}
