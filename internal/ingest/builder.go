package ingest

import (
	"time"

	"github.com/advwatch/iapd/backend/internal/contracts"
)

// Row drop reasons, reported per ingest run.
const (
	DropMissingCRD    = "missing_crd"
	DropBadCRD        = "bad_crd"
	DropMissingPeriod = "missing_period"
	DropBadNumeric    = "bad_numeric"
)

// Builder turns raw batch rows into canonical filing records. A Builder is
// bound to one batch; build it from the batch headers and reuse it for every
// row of that file.
type Builder struct {
	res         *Resolver
	sourceFile  string
	filePeriod  time.Time
	hasPeriod   bool
	buckets     []string
	disciplines []string
}

// NewBuilder resolves the batch against the mapping. The filing period is
// taken from the file name when present; otherwise each row must carry a
// parseable date column or it is dropped.
func NewBuilder(mapping FieldMapping, batch *Batch) (*Builder, error) {
	res, err := NewResolver(mapping, batch.Headers)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		res:         res,
		sourceFile:  batch.SourceFile,
		buckets:     res.ClientBuckets(),
		disciplines: res.DisciplinaryCounts(),
	}
	if p, ok := PeriodFromFilename(batch.SourceFile); ok {
		b.filePeriod = p
		b.hasPeriod = true
	}
	return b, nil
}

// Build converts one row. A nil record with a non-empty reason means the row
// was dropped; the caller counts drops by reason.
func (b *Builder) Build(row Row) (*contracts.FilingRecord, string) {
	crdRaw := b.res.Value(row, FieldCRD)
	if crdRaw == "" {
		return nil, DropMissingCRD
	}
	crd, ok, err := ParseInt(crdRaw)
	if err != nil || !ok || crd <= 0 {
		return nil, DropBadCRD
	}

	period, ok := b.period(row)
	if !ok {
		return nil, DropMissingPeriod
	}

	rec := &contracts.FilingRecord{
		CRD:        crd,
		FilingDate: period,
		SourceFile: b.sourceFile,
		FirmName:   b.res.Value(row, FieldFirmName),
		LegalName:  b.res.Value(row, FieldLegalName),
		SECNumber:  b.res.Value(row, FieldSECNumber),
		SECRegion:  b.res.Value(row, FieldSECRegion),
		SECStatus:  b.res.Value(row, FieldSECStatus),
		Website:    b.res.Value(row, FieldWebsite),
	}
	rec.MainOfficeCity = b.res.Value(row, FieldOfficeCity)
	rec.MainOfficeState = b.res.Value(row, FieldOfficeState)
	rec.MainOfficeCountry = b.res.Value(row, FieldOfficeCountry)

	rec.UmbrellaRegistration = ParseBool(b.res.Value(row, FieldUmbrella))

	// Core numerics: a non-empty cell that does not parse invalidates the
	// row. Empty stays null.
	if aum, ok, err := ParseDecimal(b.res.Value(row, FieldAUM)); err != nil {
		return nil, DropBadNumeric
	} else if ok {
		rec.AUM = &aum
	}
	if n, ok, err := ParseInt(b.res.Value(row, FieldAccountCount)); err != nil {
		return nil, DropBadNumeric
	} else if ok {
		rec.AccountCount = &n
	}

	if total, ok := SumClientBuckets(row, b.buckets); ok {
		rec.ClientCount = &total
	}

	b.applyDisclosures(row, rec)
	b.applyCCO(row, rec)

	return rec, ""
}

// period resolves the filing period for a row: file-name date first, then
// the date column.
func (b *Builder) period(row Row) (time.Time, bool) {
	if b.hasPeriod {
		return b.filePeriod, true
	}
	if t, ok := ParseDate(b.res.Value(row, FieldFilingDate)); ok {
		return t, true
	}
	return time.Time{}, false
}

// applyDisclosures prefers the summary flag column; batches without one,
// and rows whose flag cell is unreadable, fall back to summing the Item 11
// per-category counts.
func (b *Builder) applyDisclosures(row Row, rec *contracts.FilingRecord) {
	if b.res.Has(FieldDisclosure) {
		if flag := ParseBool(b.res.Value(row, FieldDisclosure)); flag != nil {
			rec.DisclosureFlag = *flag
			if *flag {
				rec.DisciplinaryDisclosures = 1
			}
			return
		}
		// Unreadable flag cell: the count columns decide instead.
	}
	total := SumDisciplinaryCounts(row, b.disciplines)
	rec.DisciplinaryDisclosures = total
	rec.DisclosureFlag = total > 0
}

func (b *Builder) applyCCO(row Row, rec *contracts.FilingRecord) {
	if b.res.Has(FieldCCOFirstName) || b.res.Has(FieldCCOLastName) {
		if tok, ok := CCOToken(
			b.res.Value(row, FieldCCOFirstName),
			b.res.Value(row, FieldCCOLastName),
			b.res.Value(row, FieldCCOCRD),
		); ok {
			rec.CCOID = &tok
		}
		return
	}
	if tok, ok := CCOTokenFromName(
		b.res.Value(row, FieldCCOName),
		b.res.Value(row, FieldCCOCRD),
	); ok {
		rec.CCOID = &tok
	}
}
