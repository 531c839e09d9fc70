// Package history derives per-firm deltas from the ordered filing record.
// Everything here is a pure function of the filing history; change records
// are fully rebuilt on every scoring run rather than patched in place.
package history

import (
	"sort"

	"github.com/advwatch/iapd/backend/internal/contracts"
)

// Calculator computes change records from a firm's filing history.
type Calculator struct {
	trendWindow int
	trendMinPct float64
}

// NewCalculator configures the decline-trend detector: a trend fires when
// the rolling average AUM drop across window consecutive periods reaches
// minPct percent.
func NewCalculator(window int, minPct float64) *Calculator {
	if window < 1 {
		window = 1
	}
	return &Calculator{trendWindow: window, trendMinPct: minPct}
}

// Changes computes one change record per filing after the first, in filing
// order. The first filing has no predecessor and produces no record. The
// input is sorted in place by filing date.
func (c *Calculator) Changes(filings []*contracts.FilingRecord) []*contracts.ChangeRecord {
	if len(filings) < 2 {
		return nil
	}
	sort.Slice(filings, func(i, j int) bool {
		return filings[i].FilingDate.Before(filings[j].FilingDate)
	})

	firstYear := filings[0].FilingDate.Year()
	out := make([]*contracts.ChangeRecord, 0, len(filings)-1)
	aumDrops := make([]float64, 0, len(filings)-1)

	for i := 1; i < len(filings); i++ {
		prev, cur := filings[i-1], filings[i]

		rec := &contracts.ChangeRecord{
			CRD:          cur.CRD,
			FilingDate:   cur.FilingDate,
			// Calendar-year subtraction, not elapsed duration: a firm
			// first seen in December is one year old the next January.
			FirmAgeYears: cur.FilingDate.Year() - firstYear,
		}

		rec.AUMDropPct = decimalDropPct(prev.AUM != nil, cur.AUM != nil, aumOf(prev), aumOf(cur))
		rec.ClientDropPct = countDropPct(prev.ClientCount, cur.ClientCount)
		rec.AccountDropPct = countDropPct(prev.AccountCount, cur.AccountCount)

		rec.NewDisclosure = cur.DisciplinaryDisclosures > prev.DisciplinaryDisclosures ||
			(cur.DisclosureFlag && !prev.DisclosureFlag)
		rec.CCOChanged = ccoChanged(prev, cur)

		aumDrops = append(aumDrops, rec.AUMDropPct)
		rec.DeclineTrend = c.declineTrend(aumDrops)

		out = append(out, rec)
	}
	return out
}

// declineTrend checks the rolling average of the most recent trendWindow AUM
// drops. Too little history means no trend, not a degraded signal.
func (c *Calculator) declineTrend(drops []float64) bool {
	if len(drops) < c.trendWindow {
		return false
	}
	var sum float64
	for _, d := range drops[len(drops)-c.trendWindow:] {
		sum += d
	}
	return sum/float64(c.trendWindow) >= c.trendMinPct
}

func aumOf(f *contracts.FilingRecord) float64 {
	v, _ := f.AUMFloat()
	return v
}

// decimalDropPct computes max(0, (prev-cur)/prev)*100 capped at 100.
// Unreported or zero previous values yield zero; a drop to unreported is
// treated as a drop to zero.
func decimalDropPct(prevOK, curOK bool, prev, cur float64) float64 {
	if !prevOK || prev <= 0 {
		return 0
	}
	if !curOK {
		cur = 0
	}
	return clampPct((prev - cur) / prev * 100)
}

func countDropPct(prev, cur *int64) float64 {
	if prev == nil || *prev <= 0 {
		return 0
	}
	var c float64
	if cur != nil {
		c = float64(*cur)
	}
	return clampPct((float64(*prev) - c) / float64(*prev) * 100)
}

func clampPct(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ccoChanged reports officer turnover between consecutive periods. A firm
// gaining or losing a reported officer counts as a change; two periods with
// no officer at all do not.
func ccoChanged(prev, cur *contracts.FilingRecord) bool {
	switch {
	case prev.HasCCO() != cur.HasCCO():
		return true
	case !prev.HasCCO():
		return false
	default:
		return *prev.CCOID != *cur.CCOID
	}
}
