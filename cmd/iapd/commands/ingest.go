package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/advwatch/iapd/backend/internal/ingest"
	"github.com/advwatch/iapd/backend/pkg/config"
	"github.com/advwatch/iapd/backend/pkg/database"
	"github.com/advwatch/iapd/backend/pkg/logger"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest extracted compilation files",
	Long: `Reads every extracted compilation file, normalizes the rows into
canonical filing records and persists them.

This command:
- Resolves each file's header layout against the known vintages
- Drops and counts rows missing a firm identifier or filing period
- Writes each file inside its own transaction (a bad file never
  leaves partial rows)
- Skips files that were already ingested

Example:
  go run ./cmd/iapd ingest
  go run ./cmd/iapd ingest --dir ./data/extracted`,
	RunE: runIngest,
}

var ingestDir string

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "directory of extracted files (default from config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	dir := ingestDir
	if dir == "" {
		dir = cfg.Source.ExtractDir
	}

	start := time.Now()
	runner := ingest.NewRunner(cfg, ingest.NewRepository(db, cfg.Ingest.DuplicatePolicy), log)

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Hour)
	defer cancel()

	report, err := runner.Run(ctx, dir)
	if err != nil {
		PrintRunFailure("Ingestion", err)
		return err
	}

	PrintRunHeader(RunMetadata{
		RunID:     report.RunID,
		Stage:     "Ingestion",
		Timestamp: Timestamp(),
		Source:    dir,
	})
	PrintCount("Files processed", report.FilesProcessed)
	PrintCount("Files skipped", report.FilesSkipped)
	PrintCount("Files failed", report.FilesFailed)
	PrintCount("Rows ingested", report.RowsIngested)
	PrintCount("Rows dropped", report.RowsDropped)
	PrintCount("Key conflicts", report.Conflicts)
	for reason, n := range report.DropReasons {
		PrintCount("  dropped: "+reason, n)
	}

	PrintRunCompletion("Ingestion", time.Since(start))
	return nil
}
