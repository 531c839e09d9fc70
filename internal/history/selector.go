package history

import (
	"sort"

	"github.com/advwatch/iapd/backend/internal/contracts"
)

// GroupByFirm splits a flat filing set into per-firm histories sorted by
// filing date. Duplicate (crd, filing_date) entries keep the last one seen,
// matching the ingestion overwrite policy.
func GroupByFirm(filings []*contracts.FilingRecord) map[int64][]*contracts.FilingRecord {
	dedup := make(map[contracts.FilingKey]*contracts.FilingRecord, len(filings))
	for _, f := range filings {
		dedup[f.Key()] = f
	}

	byFirm := make(map[int64][]*contracts.FilingRecord)
	for _, f := range dedup {
		byFirm[f.CRD] = append(byFirm[f.CRD], f)
	}
	for _, hist := range byFirm {
		sort.Slice(hist, func(i, j int) bool {
			return hist[i].FilingDate.Before(hist[j].FilingDate)
		})
	}
	return byFirm
}

// Latest returns the most recent filing of a sorted history, or nil.
func Latest(history []*contracts.FilingRecord) *contracts.FilingRecord {
	if len(history) == 0 {
		return nil
	}
	return history[len(history)-1]
}

// LatestPair returns the most recent filing and its predecessor. previous is
// nil when the firm has a single filing.
func LatestPair(history []*contracts.FilingRecord) (current, previous *contracts.FilingRecord) {
	switch len(history) {
	case 0:
		return nil, nil
	case 1:
		return history[0], nil
	default:
		return history[len(history)-1], history[len(history)-2]
	}
}
