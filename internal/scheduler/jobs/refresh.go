// Package jobs holds the scheduled pipeline jobs.
package jobs

import (
	"context"
	"fmt"

	"github.com/advwatch/iapd/backend/internal/ingest"
	"github.com/advwatch/iapd/backend/internal/riskscore"
	"github.com/advwatch/iapd/backend/internal/source"
	"github.com/advwatch/iapd/backend/pkg/config"
	"github.com/advwatch/iapd/backend/pkg/logger"
)

// RefreshJob runs the full monthly pipeline: fetch new archives, extract
// them, ingest the new compilations, then rescore every firm. Each stage
// only does new work, so running the whole chain is cheap when nothing new
// was published.
type RefreshJob struct {
	cfg       *config.Config
	fetcher   *source.Fetcher
	extractor *source.Extractor
	ingester  *ingest.Runner
	engine    *riskscore.Engine
	logger    *logger.Logger
}

func NewRefreshJob(cfg *config.Config, fetcher *source.Fetcher, extractor *source.Extractor, ingester *ingest.Runner, engine *riskscore.Engine, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		ingester:  ingester,
		engine:    engine,
		logger:    log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "filing_refresh"
}

// Schedule runs at 03:00 on the 2nd of each month, the day after the
// compilations are typically published.
func (j *RefreshJob) Schedule() string {
	return "0 0 3 2 * *"
}

// Run executes the pipeline end to end
func (j *RefreshJob) Run(ctx context.Context) error {
	fetched, err := j.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	j.logger.WithFields(map[string]interface{}{
		"downloaded": fetched.Downloaded,
		"skipped":    fetched.Skipped,
		"failed":     fetched.Failed,
	}).Info("Archive fetch completed")

	extracted, err := j.extractor.ExtractAll()
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	j.logger.WithFields(map[string]interface{}{
		"extracted": extracted.Extracted,
		"skipped":   extracted.Skipped,
	}).Info("Archive extraction completed")

	report, err := j.ingester.Run(ctx, j.cfg.Source.ExtractDir)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	j.logger.WithFields(map[string]interface{}{
		"run_id":        report.RunID,
		"rows_ingested": report.RowsIngested,
		"rows_dropped":  report.RowsDropped,
	}).Info("Ingestion completed")

	if report.FilesProcessed == 0 {
		j.logger.Info("No new filings, skipping rescore")
		return nil
	}

	scoreReport, err := j.engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}
	j.logger.WithFields(map[string]interface{}{
		"run_id":         scoreReport.RunID,
		"firms_scored":   scoreReport.FirmsScored,
		"filings_scored": scoreReport.FilingsScored,
	}).Info("Scoring completed")

	return nil
}
