package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ScoringMode selects the risk scoring strategy.
// The two strategies produce numerically different outputs and are never
// inferred from the data; the mode must be chosen explicitly per run.
type ScoringMode string

const (
	ScoringWeighted ScoringMode = "weighted" // normalized six-factor weighted score in [0,1]
	ScoringPoints   ScoringMode = "points"   // additive point score with fixed tier tables
)

// DuplicatePolicy controls what happens when a (crd, filing_date) pair is
// ingested more than once.
type DuplicatePolicy string

const (
	DuplicateReject    DuplicatePolicy = "reject"    // keep first-committed record, count the conflict
	DuplicateOverwrite DuplicatePolicy = "overwrite" // last write wins
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Source archives (SEC IAPD monthly compilations)
	Source SourceConfig

	// Ingestion
	Ingest IngestConfig

	// Scoring
	Scoring ScoringConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Bounded retry for transient persistence failures
	MaxRetries   int
	RetryBackoff time.Duration
	QueryTimeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// SourceConfig holds settings for fetching and extracting SEC IAPD archives
type SourceConfig struct {
	ListingURL    string
	UserAgent     string
	ArchiveDir    string
	ExtractDir    string
	IncludeExempt bool
	Timeout       time.Duration
	RatePerSecond float64 // SEC fair-access guideline
}

// IngestConfig holds settings for the canonical record builder
type IngestConfig struct {
	Workers         int
	DuplicatePolicy DuplicatePolicy
}

// ScoringConfig holds the tunable parameters of the risk engine
type ScoringConfig struct {
	Mode ScoringMode

	// Multi-period decline trend
	TrendWindow       int     // number of consecutive periods averaged
	TrendThresholdPct float64 // average asset drop (%) that trips the flag

	// Filing compliance
	ExpectedFilingsPerYear float64

	// Size factor (U-shaped curve around an optimal AUM)
	OptimalAUM     float64
	SizeCurveScale float64 // divisor applied to the deviation before tanh
}

// Load reads configuration from environment variables.
// This function is the only caller of os.Getenv in the codebase.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8084"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "iapd"),
			User:            getEnv("DB_USER", "iapd"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
			MaxRetries:      getEnvAsInt("DB_MAX_RETRIES", 3),
			RetryBackoff:    getEnvAsDuration("DB_RETRY_BACKOFF", "2s"),
			QueryTimeout:    getEnvAsDuration("DB_QUERY_TIMEOUT", "30s"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Source: SourceConfig{
			ListingURL: getEnv("SEC_LISTING_URL",
				"https://www.sec.gov/data-research/sec-markets-data/information-about-registered-investment-advisers-exempt-reporting-advisers"),
			UserAgent:     getEnv("SEC_USER_AGENT", "advwatch-iapd/1.0 (+mailto:ops@advwatch.io)"),
			ArchiveDir:    getEnv("SOURCE_ARCHIVE_DIR", "data/raw/iapd"),
			ExtractDir:    getEnv("SOURCE_EXTRACT_DIR", "data/unzipped/iapd"),
			IncludeExempt: getEnvAsBool("SOURCE_INCLUDE_EXEMPT", false),
			Timeout:       getEnvAsDuration("SOURCE_TIMEOUT", "30s"),
			RatePerSecond: getEnvAsFloat("SOURCE_RATE_PER_SECOND", 2.0),
		},

		Ingest: IngestConfig{
			Workers:         getEnvAsInt("INGEST_WORKERS", 4),
			DuplicatePolicy: DuplicatePolicy(getEnv("INGEST_DUPLICATE_POLICY", string(DuplicateOverwrite))),
		},

		Scoring: ScoringConfig{
			Mode:                   ScoringMode(getEnv("SCORING_MODE", string(ScoringWeighted))),
			TrendWindow:            getEnvAsInt("SCORING_TREND_WINDOW", 3),
			TrendThresholdPct:      getEnvAsFloat("SCORING_TREND_THRESHOLD_PCT", 7.0),
			ExpectedFilingsPerYear: getEnvAsFloat("SCORING_EXPECTED_FILINGS_PER_YEAR", 4.0),
			OptimalAUM:             getEnvAsFloat("SCORING_OPTIMAL_AUM", 5e9),
			SizeCurveScale:         getEnvAsFloat("SCORING_SIZE_CURVE_SCALE", 1.0),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Scoring.Mode {
	case ScoringWeighted, ScoringPoints:
	default:
		return fmt.Errorf("SCORING_MODE must be one of: %s, %s", ScoringWeighted, ScoringPoints)
	}

	switch c.Ingest.DuplicatePolicy {
	case DuplicateReject, DuplicateOverwrite:
	default:
		return fmt.Errorf("INGEST_DUPLICATE_POLICY must be one of: %s, %s", DuplicateReject, DuplicateOverwrite)
	}

	if c.Scoring.TrendWindow < 1 {
		return fmt.Errorf("SCORING_TREND_WINDOW must be at least 1")
	}

	if c.Scoring.ExpectedFilingsPerYear <= 0 {
		return fmt.Errorf("SCORING_EXPECTED_FILINGS_PER_YEAR must be positive")
	}

	if c.Scoring.OptimalAUM <= 0 {
		return fmt.Errorf("SCORING_OPTIMAL_AUM must be positive")
	}

	if c.Ingest.Workers < 1 {
		return fmt.Errorf("INGEST_WORKERS must be at least 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
