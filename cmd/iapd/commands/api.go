package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/advwatch/iapd/backend/internal/api"
	"github.com/advwatch/iapd/backend/internal/api/handlers"
	"github.com/advwatch/iapd/backend/internal/history"
	"github.com/advwatch/iapd/backend/internal/riskscore"
	"github.com/advwatch/iapd/backend/pkg/config"
	"github.com/advwatch/iapd/backend/pkg/database"
	"github.com/advwatch/iapd/backend/pkg/logger"
	"github.com/advwatch/iapd/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the dashboard API server",
	Long: `Starts the REST API server for the risk dashboard.

Endpoints:
  GET  /health                - Health check
  GET  /api/stats             - Firm totals and category distribution
  GET  /api/stats/categories  - Category distribution only
  GET  /api/stats/trends      - Average score per filing period
  GET  /api/firms             - Paginated firm listing
  GET  /api/firms/top         - Highest-risk firms
  GET  /api/firms/{crd}       - One firm's score and change history

Example:
  go run ./cmd/iapd api
  go run ./cmd/iapd api --port 8084`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from config)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Adviser Watch API Server ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)
	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Connected to database")

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, "iapd")

	scoreRepo := riskscore.NewRepository(db)
	histRepo := history.NewRepository(db)

	firmHandler := handlers.NewFirmHandler(scoreRepo, histRepo, cache, log)
	statsHandler := handlers.NewStatsHandler(scoreRepo, cache, log)
	router := api.NewRouter(firmHandler, statsHandler, log)

	server := api.New(cfg, log, router)

	// Run until SIGINT/SIGTERM, then drain in-flight requests
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
