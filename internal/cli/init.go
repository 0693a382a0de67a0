// Package cli holds the start-up steps shared by the spendlens binaries.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spendlens/internal/backend"
	"spendlens/internal/classify"
	"spendlens/internal/config"
	"spendlens/internal/extract"
	"spendlens/internal/log"
	"spendlens/internal/services"
)

// LoadEnvFile loads .env (or the given files) for local development.
// A missing file is not an error; production sets real variables.
func LoadEnvFile(files ...string) {
	_ = godotenv.Load(files...)
}

// SetupLogger builds the process logger from LOG_LEVEL and makes it the
// slog default. An unknown level falls back to info with a warning.
func SetupLogger(level, component string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	cfg := log.DefaultConfig()
	cfg.Level = lvl
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info level", log.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig loads configuration and runs validate on it.
// The process exits on validation failure.
func LoadAndValidateConfig(logger *log.Logger, validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if validate == nil {
		validate = (*config.Config).Validate
	}
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend opens the configured store.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.Result, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).Open(ctx, bc)
}

// ReportsConfig wires the classifier, extractor and recognizer named by cfg.
func ReportsConfig(cfg *config.Config, observer services.Observer) (services.ReportsConfig, error) {
	classifier := classify.Default()
	if cfg.KeywordTablePath != "" {
		table, err := classify.LoadTable(cfg.KeywordTablePath)
		if err != nil {
			return services.ReportsConfig{}, fmt.Errorf("load keyword table: %w", err)
		}
		classifier = classify.New(table)
	}

	var recognizer extract.TextRecognizer = extract.NoRecognizer{}
	if t := extract.NewTesseract(cfg.TesseractPath); t.Supported() {
		recognizer = t
	}

	return services.ReportsConfig{
		Classifier:   classifier,
		Extractor:    extract.NewExtractor(extract.FuzzyDateParser{}, classifier),
		Recognizer:   recognizer,
		BudgetTarget: cfg.BudgetTarget,
		CacheSize:    cfg.ViewCacheSize,
		CacheTTL:     cfg.ViewCacheTTL,
		Observer:     observer,
	}, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
