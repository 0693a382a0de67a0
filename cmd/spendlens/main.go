package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlens/internal/amqp"
	"spendlens/internal/cache"
	"spendlens/internal/cli"
	"spendlens/internal/config"
	apphttp "spendlens/internal/http"
	"spendlens/internal/log"
	"spendlens/internal/metrics"
	"spendlens/internal/middleware/ratelimit"
	"spendlens/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	be, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.Close()

	m := metrics.New()
	ledger := services.NewLedger(be.Store, logger)
	ledger.Subscribe(m.LedgerChanged)

	rc, err := cli.ReportsConfig(cfg, m)
	if err != nil {
		return err
	}
	logger.Info("Keyword table loaded", "table_version", rc.Classifier.TableVersion())
	reports := services.NewReports(ledger, rc, logger)
	if !reports.OCRSupported() {
		logger.Info("Receipt OCR unavailable, image ingestion disabled")
	}

	if err := ledger.Load(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer client.Close()

		publisher := services.NewChangePublisher(client, services.DefaultPublisherConfig(), logger)
		ledger.Subscribe(publisher.Notify)
		if err := m.WatchPublisher(publisher.Dropped); err != nil {
			return err
		}
		g.Go(func() error { return publisher.Run(gctx) })
	} else {
		logger.Info("AMQP_URL not set, change events disabled")
	}

	if err := m.WatchCache("views", reports.Views().Stats); err != nil {
		return err
	}

	caches := cache.NewManager(logger)
	caches.Register(reports.Views())
	g.Go(func() error { return caches.Run(gctx, cfg.CacheSweep) })

	rl := ratelimit.DefaultConfig()
	rl.RequestsPerSecond = cfg.RateLimitRPS
	rl.Burst = cfg.RateLimitBurst

	srv := apphttp.NewServer(apphttp.Config{
		Addr:      ":" + cfg.Port,
		RateLimit: rl,
	}, apphttp.Deps{
		Ledger:   ledger,
		Reports:  reports,
		Metrics:  m.Handler(),
		Ready:    be.Ping,
		LastSave: be.LastSave,
		Recorder: m,
		Logger:   logger,
	})

	g.Go(func() error {
		logger.Info("Starting spendlens server", "port", cfg.Port, "backend", cfg.DataBackend,
			"records", len(ledger.Records()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
