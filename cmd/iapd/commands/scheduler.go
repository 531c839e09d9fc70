package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/advwatch/iapd/backend/internal/history"
	"github.com/advwatch/iapd/backend/internal/ingest"
	"github.com/advwatch/iapd/backend/internal/riskscore"
	"github.com/advwatch/iapd/backend/internal/scheduler"
	"github.com/advwatch/iapd/backend/internal/scheduler/jobs"
	"github.com/advwatch/iapd/backend/internal/source"
	"github.com/advwatch/iapd/backend/pkg/config"
	"github.com/advwatch/iapd/backend/pkg/database"
	"github.com/advwatch/iapd/backend/pkg/httputil"
	"github.com/advwatch/iapd/backend/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the pipeline scheduler",
	Long: `Starts the scheduler daemon or manages its jobs.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run a job immediately

Registered jobs:
  filing_refresh: 03:00 on the 2nd of each month
                  (fetch -> extract -> ingest -> score)

Example:
  go run ./cmd/iapd scheduler start
  go run ./cmd/iapd scheduler run filing_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		Long: `Starts the scheduler and registers all pipeline jobs.

The scheduler runs until Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobNow,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func buildScheduler(cfg *config.Config, db *database.DB, log *logger.Logger) (*scheduler.Scheduler, error) {
	httpClient := httputil.New(cfg, log)
	fetcher := source.NewFetcher(cfg, httpClient, log)
	extractor := source.NewExtractor(cfg.Source.ArchiveDir, cfg.Source.ExtractDir, log)
	ingester := ingest.NewRunner(cfg, ingest.NewRepository(db, cfg.Ingest.DuplicatePolicy), log)
	engine := riskscore.NewEngine(cfg, history.NewRepository(db), riskscore.NewRepository(db), log)

	sched := scheduler.New(log)
	refresh := jobs.NewRefreshJob(cfg, fetcher, extractor, ingester, engine, log)
	if err := sched.AddJob(refresh); err != nil {
		return nil, err
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Adviser Watch Scheduler ===")

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

	sched, err := buildScheduler(cfg, db, log)
	if err != nil {
		return fmt.Errorf("build scheduler: %w", err)
	}

	sched.Start()
	fmt.Println("Scheduler running. Press Ctrl+C to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
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

	sched, err := buildScheduler(cfg, db, log)
	if err != nil {
		return fmt.Errorf("build scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", name)
	}
	return nil
}

func runJobNow(cmd *cobra.Command, args []string) error {
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

	sched, err := buildScheduler(cfg, db, log)
	if err != nil {
		return fmt.Errorf("build scheduler: %w", err)
	}

	jobName := args[0]
	if err := sched.RunJob(jobName); err != nil {
		return err
	}
	fmt.Printf("Job %s triggered. Waiting for completion (Ctrl+C to detach)...\n", jobName)

	// RunJob is asynchronous; poll the history until the run lands
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			return nil
		case <-time.After(time.Second):
		}
		history, err := sched.GetJobHistory(jobName)
		if err != nil {
			return err
		}
		if latest := history.Latest(); latest != nil {
			if latest.Success {
				fmt.Printf("Job %s completed in %.2fs\n", jobName, latest.Duration.Seconds())
			} else {
				fmt.Printf("Job %s failed: %s\n", jobName, latest.Error)
			}
			return nil
		}
	}
}
