package contracts

import "time"

// IngestReport summarizes one ingestion run. Nothing is silently absorbed:
// every dropped row, skipped batch and conflict is counted here.
type IngestReport struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	FilesProcessed int `json:"files_processed"`
	FilesSkipped   int `json:"files_skipped"`
	FilesFailed    int `json:"files_failed"`

	RowsIngested int `json:"rows_ingested"`
	RowsDropped  int `json:"rows_dropped"`

	// Dropped rows broken down by reason (missing_crd, missing_period, ...)
	DropReasons map[string]int `json:"drop_reasons"`

	// Duplicate-key conflicts observed under the reject policy
	Conflicts int `json:"conflicts"`

	// Per-batch failures, keyed by source file name
	BatchErrors map[string]string `json:"batch_errors,omitempty"`
}

// NewIngestReport creates an empty report for a run
func NewIngestReport(runID string) *IngestReport {
	return &IngestReport{
		RunID:       runID,
		StartedAt:   time.Now(),
		DropReasons: make(map[string]int),
		BatchErrors: make(map[string]string),
	}
}

// AddDrop counts a dropped row under the given reason
func (r *IngestReport) AddDrop(reason string, n int) {
	if n <= 0 {
		return
	}
	r.RowsDropped += n
	r.DropReasons[reason] += n
}

// ScoreReport summarizes one scoring run
type ScoreReport struct {
	RunID     string        `json:"run_id"`
	Mode      string        `json:"mode"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	FirmsScored   int `json:"firms_scored"`
	FilingsScored int `json:"filings_scored"`

	// Factors that defaulted to zero for lack of history, by factor name.
	// Degraded factors are "no signal", not missing data, and never block
	// the other factors.
	DegradedFactors map[string]int `json:"degraded_factors"`

	// Distribution of resulting categories
	Categories map[RiskCategory]int `json:"categories"`
}

// NewScoreReport creates an empty scoring report
func NewScoreReport(runID, mode string) *ScoreReport {
	return &ScoreReport{
		RunID:           runID,
		Mode:            mode,
		StartedAt:       time.Now(),
		DegradedFactors: make(map[string]int),
		Categories:      make(map[RiskCategory]int),
	}
}
