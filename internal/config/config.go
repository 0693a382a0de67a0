package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

type Config struct {
	Port     string
	LogLevel string

	// Storage
	DataBackend  string
	JSONDataPath string
	SQLiteDBPath string

	// Change events. An empty AMQPURL disables publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets backend
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Analytics
	KeywordTablePath string
	BudgetTarget     float64
	ViewCacheSize    int
	ViewCacheTTL     time.Duration
	CacheSweep       time.Duration
	TesseractPath    string

	// HTTP rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Worker
	InsightRefresh time.Duration
	MetricsAddr    string
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:  strings.ToLower(getEnv("DATA_BACKEND", BackendJSON)),
		JSONDataPath: getEnv("JSON_DATA_PATH", "./data/expenses.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/spendlens.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spendlens"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "records_changed"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Records"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		KeywordTablePath: getEnv("KEYWORD_TABLE_PATH", ""),
		BudgetTarget:     getEnvFloat("BUDGET_TARGET", 0),
		ViewCacheSize:    getEnvInt("VIEW_CACHE_SIZE", 128),
		ViewCacheTTL:     getEnvDuration("VIEW_CACHE_TTL", 5*time.Minute),
		CacheSweep:       getEnvDuration("CACHE_SWEEP_INTERVAL", time.Minute),
		TesseractPath:    getEnv("TESSERACT_PATH", ""),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),

		InsightRefresh: getEnvDuration("INSIGHT_REFRESH_INTERVAL", 15*time.Minute),
		MetricsAddr:    getEnv("WORKER_METRICS_ADDR", ""),
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be a number between 1 and 65535, got %q", c.Port))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendJSON:
		if strings.TrimSpace(c.JSONDataPath) == "" {
			errs = append(errs, "JSON_DATA_PATH is required for the json backend")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.SQLiteDBPath) == "" {
			errs = append(errs, "SQLITE_DB_PATH is required for the sqlite backend")
		}
	case BackendSheets:
		if strings.TrimSpace(c.GoogleSpreadsheetID) == "" {
			errs = append(errs, "GOOGLE_SPREADSHEET_ID is required for the sheets backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("DATA_BACKEND must be one of memory, json, sqlite, sheets, got %q", c.DataBackend))
	}

	if c.AMQPURL != "" {
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP_EXCHANGE is required when AMQP_URL is set")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP_QUEUE is required when AMQP_URL is set")
		}
	}

	if c.BudgetTarget < 0 {
		errs = append(errs, fmt.Sprintf("BUDGET_TARGET must not be negative, got %v", c.BudgetTarget))
	}
	if c.ViewCacheSize <= 0 {
		errs = append(errs, "VIEW_CACHE_SIZE must be positive")
	}
	if c.ViewCacheTTL <= 0 {
		errs = append(errs, "VIEW_CACHE_TTL must be positive")
	}
	if c.CacheSweep <= 0 {
		errs = append(errs, "CACHE_SWEEP_INTERVAL must be positive")
	}
	if c.RateLimitRPS <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitBurst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive")
	}
	if c.InsightRefresh <= 0 {
		errs = append(errs, "INSIGHT_REFRESH_INTERVAL must be positive")
	}

	if len(errs) > 0 {
		return errors.New("configuration validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateWorker adds the checks only the insight worker needs.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AMQPURL == "" {
		return errors.New("configuration validation failed:\n- AMQP_URL is required for the worker")
	}
	return nil
}

// Budget returns the configured target, or nil when none is set.
func (c *Config) Budget() *float64 {
	if c.BudgetTarget <= 0 {
		return nil
	}
	b := c.BudgetTarget
	return &b
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
