package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/khoahotran/folio/adapters/event"
	"github.com/khoahotran/folio/adapters/media_storage"
	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/application/service"
	mediaUC "github.com/khoahotran/folio/internal/application/usecase/media"
	workerUC "github.com/khoahotran/folio/internal/application/usecase/worker"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/tracing"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("cannot load config: " + err.Error())
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Starting Folio Worker...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Jaeger.OTLPEndpoint != "" {
		tp, err := tracing.NewTracerProvider(ctx, cfg, appLogger, "folio-worker")
		if err != nil {
			appLogger.Fatal("Cannot init tracer", err)
		}
		defer tp.Shutdown(context.Background())
	}

	// Database
	dbPool, err := persistence.NewPostgresPool(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Postgres", err)
	}
	defer dbPool.Close()

	// Rendered page cache
	redisClient, err := persistence.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Redis", err)
	}
	defer redisClient.Close()

	// Asset store
	var uploader service.Uploader
	if cfg.Storage.Assets == "s3" {
		uploader, err = media_storage.NewS3Adapter(ctx, cfg, appLogger)
	} else {
		uploader, err = media_storage.NewCloudinaryAdapter(cfg, appLogger)
	}
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}

	// Repositories
	portfolioRepo := persistence.NewPostgresPortfolioRepo(dbPool, appLogger)

	// Worker Use Case
	processEventUC := workerUC.NewProcessPortfolioEventUseCase(
		persistence.NewRedisPageCache(redisClient, cfg.Render.CacheTTL, appLogger),
		mediaUC.NewReleaseAssetsUseCase(portfolioRepo, uploader, appLogger),
		appLogger,
	)

	// Kafka Consumer
	consumer := event.NewPortfolioConsumer(cfg, appLogger)
	defer consumer.Close()

	if err := consumer.Run(ctx, processEventUC.Execute); err != nil {
		appLogger.Error("Worker stopped", err)
	}
	appLogger.Info("Worker stopped")
}
