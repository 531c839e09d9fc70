package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/advwatch/iapd/backend/internal/source"
	"github.com/advwatch/iapd/backend/pkg/config"
	"github.com/advwatch/iapd/backend/pkg/httputil"
	"github.com/advwatch/iapd/backend/pkg/logger"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download and extract compilation archives",
	Long: `Scrapes the compilation listing page, downloads archives not yet on
disk and extracts their data files into the ingest directory.

This command:
- Fetches the published archive listing
- Downloads new monthly archives (existing files are skipped)
- Extracts CSV/XLSX data files from every archive

Example:
  go run ./cmd/iapd fetch
  go run ./cmd/iapd fetch --skip-download`,
	RunE: runFetch,
}

var skipDownload bool

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().BoolVar(&skipDownload, "skip-download", false, "only extract archives already on disk")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	start := time.Now()
	PrintRunHeader(RunMetadata{
		RunID:     "-",
		Stage:     "Archive Fetch",
		Timestamp: Timestamp(),
		Source:    cfg.Source.ListingURL,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	if !skipDownload {
		fetcher := source.NewFetcher(cfg, httputil.New(cfg, log), log)
		result, err := fetcher.Fetch(ctx)
		if err != nil {
			PrintRunFailure("Archive Fetch", err)
			return err
		}
		PrintCount("Archives listed", result.Found)
		PrintCount("Downloaded", result.Downloaded)
		PrintCount("Skipped", result.Skipped)
		PrintCount("Failed", result.Failed)
	}

	extractor := source.NewExtractor(cfg.Source.ArchiveDir, cfg.Source.ExtractDir, log)
	extracted, err := extractor.ExtractAll()
	if err != nil {
		PrintRunFailure("Archive Fetch", err)
		return err
	}
	PrintCount("Files extracted", extracted.Extracted)
	PrintCount("Already extracted", extracted.Skipped)

	PrintRunCompletion("Archive Fetch", time.Since(start))
	return nil
}
