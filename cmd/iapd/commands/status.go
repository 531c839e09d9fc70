package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/advwatch/iapd/backend/pkg/config"
	"github.com/advwatch/iapd/backend/pkg/database"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline data status",
	Long: `Shows row counts and coverage of the pipeline tables.

Displayed:
- Filing, change and score row counts
- Distinct firms and filing periods
- Latest filing period on record

Example:
  go run ./cmd/iapd status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("=== Adviser Watch Status ===")
	for _, table := range []string{"ia_filing", "ia_change", "ia_risk_score"} {
		var n int64
		err := db.Pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
		if err != nil {
			fmt.Printf("  %-14s: unavailable (%v)\n", table, err)
			continue
		}
		fmt.Printf("  %-14s: %d rows\n", table, n)
	}

	var firms, periods int64
	var latest *time.Time
	err = db.Pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT crd), COUNT(DISTINCT filing_date), MAX(filing_date)
		FROM ia_filing`).Scan(&firms, &periods, &latest)
	if err == nil {
		fmt.Printf("  %-14s: %d\n", "firms", firms)
		fmt.Printf("  %-14s: %d\n", "periods", periods)
		if latest != nil {
			fmt.Printf("  %-14s: %s\n", "latest period", latest.Format("2006-01-02"))
		}
	}

	return nil
}
