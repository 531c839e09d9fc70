package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/advwatch/iapd/backend/internal/history"
	"github.com/advwatch/iapd/backend/internal/riskscore"
	"github.com/advwatch/iapd/backend/pkg/config"
	"github.com/advwatch/iapd/backend/pkg/database"
	"github.com/advwatch/iapd/backend/pkg/logger"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Recompute change records and risk scores",
	Long: `Runs a full scoring pass over the canonical filing history.

This command:
- Rebuilds every firm's period-over-period change records
- Scores every filing under the configured strategy
- Reports degraded factors and the category distribution

Scoring modes:
  weighted - six-factor weighted score in [0,1] (default)
  points   - additive tier points, review thresholds at 15/30/50

Example:
  go run ./cmd/iapd score
  go run ./cmd/iapd score --mode points`,
	RunE: runScore,
}

var scoreMode string

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreMode, "mode", "", "scoring mode (weighted|points, default from config)")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if scoreMode != "" {
		cfg.Scoring.Mode = config.ScoringMode(scoreMode)
		if cfg.Scoring.Mode != config.ScoringWeighted && cfg.Scoring.Mode != config.ScoringPoints {
			return fmt.Errorf("invalid scoring mode: %s", scoreMode)
		}
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	start := time.Now()
	engine := riskscore.NewEngine(cfg, history.NewRepository(db), riskscore.NewRepository(db), log)

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Hour)
	defer cancel()

	report, err := engine.Run(ctx)
	if err != nil {
		PrintRunFailure("Risk Scoring", err)
		return err
	}

	PrintRunHeader(RunMetadata{
		RunID:     report.RunID,
		Stage:     "Risk Scoring",
		Timestamp: Timestamp(),
		Source:    "mode=" + report.Mode,
	})
	PrintCount("Firms scored", report.FirmsScored)
	PrintCount("Filings scored", report.FilingsScored)
	for cat, n := range report.Categories {
		PrintCount("  "+string(cat), n)
	}
	for factor, n := range report.DegradedFactors {
		PrintCount("  degraded: "+factor, n)
	}

	PrintRunCompletion("Risk Scoring", time.Since(start))
	return nil
}
