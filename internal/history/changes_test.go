package history

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advwatch/iapd/backend/internal/contracts"
)

func filing(crd int64, date string, aum float64) *contracts.FilingRecord {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	f := &contracts.FilingRecord{CRD: crd, FilingDate: t}
	if aum >= 0 {
		d := decimal.NewFromFloat(aum)
		f.AUM = &d
	}
	return f
}

func i64(n int64) *int64 { return &n }

func str(s string) *string { return &s }

func TestChangesAUMDrop(t *testing.T) {
	calc := NewCalculator(3, 7.0)
	filings := []*contracts.FilingRecord{
		filing(1, "2024-01-01", 1000e6),
		filing(1, "2024-04-01", 400e6),
	}

	changes := calc.Changes(filings)
	require.Len(t, changes, 1)
	assert.InDelta(t, 60.0, changes[0].AUMDropPct, 1e-9)
	assert.True(t, changes[0].HasAnyDrop())
}

func TestChangesNoDropWhenGrowing(t *testing.T) {
	calc := NewCalculator(3, 7.0)
	changes := calc.Changes([]*contracts.FilingRecord{
		filing(1, "2024-01-01", 100e6),
		filing(1, "2024-04-01", 250e6),
	})
	require.Len(t, changes, 1)
	assert.Zero(t, changes[0].AUMDropPct)
}

func TestChangesZeroOrMissingPrevious(t *testing.T) {
	calc := NewCalculator(3, 7.0)

	changes := calc.Changes([]*contracts.FilingRecord{
		filing(1, "2024-01-01", 0),
		filing(1, "2024-04-01", 500e6),
	})
	require.Len(t, changes, 1)
	assert.Zero(t, changes[0].AUMDropPct, "zero previous value never divides")

	changes = calc.Changes([]*contracts.FilingRecord{
		filing(1, "2024-01-01", -1), // unreported
		filing(1, "2024-04-01", 500e6),
	})
	require.Len(t, changes, 1)
	assert.Zero(t, changes[0].AUMDropPct)
}

func TestChangesDropToUnreportedCapsAtFull(t *testing.T) {
	calc := NewCalculator(3, 7.0)
	changes := calc.Changes([]*contracts.FilingRecord{
		filing(1, "2024-01-01", 800e6),
		filing(1, "2024-04-01", -1),
	})
	require.Len(t, changes, 1)
	assert.Equal(t, 100.0, changes[0].AUMDropPct)
}

func TestChangesClientAndAccountDrops(t *testing.T) {
	calc := NewCalculator(3, 7.0)
	a := filing(1, "2024-01-01", 100e6)
	a.ClientCount = i64(200)
	a.AccountCount = i64(1000)
	b := filing(1, "2024-04-01", 100e6)
	b.ClientCount = i64(150)
	b.AccountCount = i64(1100)

	changes := calc.Changes([]*contracts.FilingRecord{a, b})
	require.Len(t, changes, 1)
	assert.InDelta(t, 25.0, changes[0].ClientDropPct, 1e-9)
	assert.Zero(t, changes[0].AccountDropPct)
}

func TestChangesNewDisclosure(t *testing.T) {
	calc := NewCalculator(3, 7.0)
	a := filing(1, "2024-01-01", 100e6)
	a.DisciplinaryDisclosures = 1
	b := filing(1, "2024-04-01", 100e6)
	b.DisciplinaryDisclosures = 3
	c := filing(1, "2024-07-01", 100e6)
	c.DisciplinaryDisclosures = 3

	changes := calc.Changes([]*contracts.FilingRecord{a, b, c})
	require.Len(t, changes, 2)
	assert.True(t, changes[0].NewDisclosure)
	assert.False(t, changes[1].NewDisclosure)
}

func TestChangesCCOTransitions(t *testing.T) {
	calc := NewCalculator(3, 7.0)
	a := filing(1, "2024-01-01", 100e6)
	a.CCOID = str("JANE|DOE|1")
	b := filing(1, "2024-04-01", 100e6)
	b.CCOID = str("JOHN|ROE|2")
	c := filing(1, "2024-07-01", 100e6) // officer no longer reported
	d := filing(1, "2024-10-01", 100e6) // still none

	changes := calc.Changes([]*contracts.FilingRecord{a, b, c, d})
	require.Len(t, changes, 3)
	assert.True(t, changes[0].CCOChanged, "different officer")
	assert.True(t, changes[1].CCOChanged, "officer dropped")
	assert.False(t, changes[2].CCOChanged, "absent both periods")
}

func TestChangesDeclineTrend(t *testing.T) {
	calc := NewCalculator(3, 7.0)
	// Drops of 10%, 10%, 10%: rolling average 10 >= 7 once the window fills.
	filings := []*contracts.FilingRecord{
		filing(1, "2024-01-01", 1000e6),
		filing(1, "2024-04-01", 900e6),
		filing(1, "2024-07-01", 810e6),
		filing(1, "2024-10-01", 729e6),
	}

	changes := calc.Changes(filings)
	require.Len(t, changes, 3)
	assert.False(t, changes[0].DeclineTrend, "window not yet full")
	assert.False(t, changes[1].DeclineTrend)
	assert.True(t, changes[2].DeclineTrend)
}

func TestChangesTrendBelowThreshold(t *testing.T) {
	calc := NewCalculator(3, 7.0)
	filings := []*contracts.FilingRecord{
		filing(1, "2024-01-01", 1000e6),
		filing(1, "2024-04-01", 980e6),
		filing(1, "2024-07-01", 960e6),
		filing(1, "2024-10-01", 940e6),
	}
	changes := calc.Changes(filings)
	require.Len(t, changes, 3)
	for _, c := range changes {
		assert.False(t, c.DeclineTrend)
	}
}

func TestChangesFirmAge(t *testing.T) {
	calc := NewCalculator(3, 7.0)
	changes := calc.Changes([]*contracts.FilingRecord{
		filing(1, "2019-06-01", 100e6),
		filing(1, "2024-09-01", 100e6),
	})
	require.Len(t, changes, 1)
	assert.Equal(t, 5, changes[0].FirmAgeYears)
}

func TestChangesFirmAgeCrossesYearBoundary(t *testing.T) {
	calc := NewCalculator(3, 7.0)
	changes := calc.Changes([]*contracts.FilingRecord{
		filing(1, "2020-12-01", 100e6),
		filing(1, "2021-01-01", 100e6),
	})
	require.Len(t, changes, 1)
	assert.Equal(t, 1, changes[0].FirmAgeYears, "year subtraction, not floored elapsed time")
}

func TestChangesSingleFiling(t *testing.T) {
	calc := NewCalculator(3, 7.0)
	assert.Nil(t, calc.Changes([]*contracts.FilingRecord{filing(1, "2024-01-01", 100e6)}))
}

func TestGroupByFirmRetainsLastSeenDuplicate(t *testing.T) {
	a := filing(1, "2024-01-01", 100e6)
	dup := filing(1, "2024-01-01", 200e6)
	b := filing(2, "2024-01-01", 50e6)

	byFirm := GroupByFirm([]*contracts.FilingRecord{a, dup, b})
	require.Len(t, byFirm, 2)
	require.Len(t, byFirm[1], 1)
	v, ok := byFirm[1][0].AUMFloat()
	require.True(t, ok)
	assert.Equal(t, 200e6, v)
}

func TestLatestPair(t *testing.T) {
	hist := []*contracts.FilingRecord{
		filing(1, "2024-01-01", 1),
		filing(1, "2024-04-01", 2),
		filing(1, "2024-07-01", 3),
	}
	cur, prev := LatestPair(hist)
	require.NotNil(t, cur)
	require.NotNil(t, prev)
	assert.Equal(t, "2024-07-01", cur.FilingDate.Format("2006-01-02"))
	assert.Equal(t, "2024-04-01", prev.FilingDate.Format("2006-01-02"))

	cur, prev = LatestPair(hist[:1])
	require.NotNil(t, cur)
	assert.Nil(t, prev)
}
