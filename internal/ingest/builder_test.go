package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportBatch(rows ...Row) *Batch {
	return &Batch{
		SourceFile: "ia070125.csv",
		Headers: []string{
			"SEC#", "Organization CRD#", "Primary Business Name", "Legal Name",
			"5F(2)(c)", "5F(2)(f)", "5D(a)(1)", "5D(b)(1)",
			"11A(1) Count", "11B(1) Count",
			"Chief Compliance Officer Name",
		},
		Rows: rows,
	}
}

func TestBuilderHappyPath(t *testing.T) {
	batch := reportBatch(Row{
		"SEC#":                          "801-12345",
		"Organization CRD#":             "100200",
		"Primary Business Name":         "ACME ADVISORS",
		"Legal Name":                    "Acme Advisors LLC",
		"5F(2)(c)":                      "2,500,000,000",
		"5F(2)(f)":                      "850",
		"5D(a)(1)":                      "40",
		"5D(b)(1)":                      "12",
		"11A(1) Count":                  "1",
		"11B(1) Count":                  "2",
		"Chief Compliance Officer Name": "Jane Doe",
	})
	b, err := NewBuilder(DefaultMapping(), batch)
	require.NoError(t, err)

	rec, reason := b.Build(batch.Rows[0])
	require.Empty(t, reason)
	require.NotNil(t, rec)

	assert.Equal(t, int64(100200), rec.CRD)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), rec.FilingDate)
	assert.Equal(t, "ACME ADVISORS", rec.FirmName)
	require.NotNil(t, rec.AUM)
	assert.Equal(t, "2500000000", rec.AUM.String())
	require.NotNil(t, rec.AccountCount)
	assert.Equal(t, int64(850), *rec.AccountCount)
	require.NotNil(t, rec.ClientCount)
	assert.Equal(t, int64(52), *rec.ClientCount)
	assert.Equal(t, int64(3), rec.DisciplinaryDisclosures)
	assert.True(t, rec.DisclosureFlag)
	require.NotNil(t, rec.CCOID)
	assert.Equal(t, "JANE|DOE|", *rec.CCOID)
	assert.Equal(t, "ia070125.csv", rec.SourceFile)
}

func TestBuilderDropsRowWithoutCRD(t *testing.T) {
	batch := reportBatch(Row{"Primary Business Name": "NO CRD LLC"})
	b, err := NewBuilder(DefaultMapping(), batch)
	require.NoError(t, err)

	rec, reason := b.Build(batch.Rows[0])
	assert.Nil(t, rec)
	assert.Equal(t, DropMissingCRD, reason)

	rec, reason = b.Build(Row{"Organization CRD#": "not-a-number"})
	assert.Nil(t, rec)
	assert.Equal(t, DropBadCRD, reason)
}

func TestBuilderDropsUnparseableCoreNumeric(t *testing.T) {
	batch := reportBatch(Row{
		"Organization CRD#": "42",
		"5F(2)(c)":          "see attachment",
	})
	b, err := NewBuilder(DefaultMapping(), batch)
	require.NoError(t, err)

	rec, reason := b.Build(batch.Rows[0])
	assert.Nil(t, rec)
	assert.Equal(t, DropBadNumeric, reason)
}

func TestBuilderEmptyNumericsStayNull(t *testing.T) {
	batch := reportBatch(Row{"Organization CRD#": "42"})
	b, err := NewBuilder(DefaultMapping(), batch)
	require.NoError(t, err)

	rec, reason := b.Build(batch.Rows[0])
	require.Empty(t, reason)
	assert.Nil(t, rec.AUM)
	assert.Nil(t, rec.AccountCount)
	require.NotNil(t, rec.ClientCount, "bucket columns exist, empty cells sum to zero")
	assert.Equal(t, int64(0), *rec.ClientCount)
}

func TestBuilderMalformedBucketContributesZero(t *testing.T) {
	batch := reportBatch(Row{
		"Organization CRD#": "42",
		"5D(a)(1)":          "nine",
		"5D(b)(1)":          "7",
	})
	b, err := NewBuilder(DefaultMapping(), batch)
	require.NoError(t, err)

	rec, reason := b.Build(batch.Rows[0])
	require.Empty(t, reason)
	require.NotNil(t, rec.ClientCount)
	assert.Equal(t, int64(7), *rec.ClientCount)
}

func TestBuilderPeriodFromDateColumn(t *testing.T) {
	batch := &Batch{
		SourceFile: "advisers-2024.csv",
		Headers:    []string{"FirmCrdNb", "FilingDate", "Item11DisclosureFlag"},
		Rows: []Row{
			{"FirmCrdNb": "7", "FilingDate": "2024-03-31", "Item11DisclosureFlag": "Y"},
			{"FirmCrdNb": "8"},
		},
	}
	b, err := NewBuilder(DefaultMapping(), batch)
	require.NoError(t, err)

	rec, reason := b.Build(batch.Rows[0])
	require.Empty(t, reason)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), rec.FilingDate)
	assert.True(t, rec.DisclosureFlag)
	assert.Equal(t, int64(1), rec.DisciplinaryDisclosures)

	rec, reason = b.Build(batch.Rows[1])
	assert.Nil(t, rec)
	assert.Equal(t, DropMissingPeriod, reason, "no filename date and no date column")
}

func TestBuilderUnrecognizedFlagTokensStayUnknown(t *testing.T) {
	batch := &Batch{
		SourceFile: "ia070125.csv",
		Headers:    []string{"Organization CRD#", "Umbrella Registration"},
		Rows: []Row{
			{"Organization CRD#": "42", "Umbrella Registration": "UNKNOWN"},
			{"Organization CRD#": "43", "Umbrella Registration": "N"},
			{"Organization CRD#": "44"},
		},
	}
	b, err := NewBuilder(DefaultMapping(), batch)
	require.NoError(t, err)

	rec, reason := b.Build(batch.Rows[0])
	require.Empty(t, reason)
	assert.Nil(t, rec.UmbrellaRegistration, "garbage token must not read as a definite no")

	rec, _ = b.Build(batch.Rows[1])
	require.NotNil(t, rec.UmbrellaRegistration)
	assert.False(t, *rec.UmbrellaRegistration)

	rec, _ = b.Build(batch.Rows[2])
	assert.Nil(t, rec.UmbrellaRegistration)
}

func TestBuilderUnreadableDisclosureFlagFallsBackToCounts(t *testing.T) {
	batch := &Batch{
		SourceFile: "ia070125.csv",
		Headers:    []string{"Organization CRD#", "Item11DisclosureFlag", "11A(1) Count"},
		Rows: []Row{
			{"Organization CRD#": "42", "Item11DisclosureFlag": "??", "11A(1) Count": "2"},
			{"Organization CRD#": "43", "Item11DisclosureFlag": "N", "11A(1) Count": "2"},
		},
	}
	b, err := NewBuilder(DefaultMapping(), batch)
	require.NoError(t, err)

	rec, reason := b.Build(batch.Rows[0])
	require.Empty(t, reason)
	assert.Equal(t, int64(2), rec.DisciplinaryDisclosures, "unreadable flag defers to the count columns")
	assert.True(t, rec.DisclosureFlag)

	rec, _ = b.Build(batch.Rows[1])
	assert.Equal(t, int64(0), rec.DisciplinaryDisclosures, "a readable no wins over the counts")
	assert.False(t, rec.DisclosureFlag)
}

func TestBuilderSplitCCOColumns(t *testing.T) {
	batch := &Batch{
		SourceFile: "ia010120.xlsx",
		Headers:    []string{"FirmCrdNb", "ChiefComplianceOfficer_FirstName", "ChiefComplianceOfficer_LastName", "ChiefComplianceOfficer_CRD"},
		Rows: []Row{{
			"FirmCrdNb":                        "55",
			"ChiefComplianceOfficer_FirstName": "Ann",
			"ChiefComplianceOfficer_LastName":  "Smith",
			"ChiefComplianceOfficer_CRD":       "777",
		}},
	}
	b, err := NewBuilder(DefaultMapping(), batch)
	require.NoError(t, err)

	rec, reason := b.Build(batch.Rows[0])
	require.Empty(t, reason)
	require.NotNil(t, rec.CCOID)
	assert.Equal(t, "ANN|SMITH|777", *rec.CCOID)
}
