package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/adapters/event"
	httpAdapter "github.com/khoahotran/folio/adapters/http"
	"github.com/khoahotran/folio/adapters/media_storage"
	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/application/service"
	authUC "github.com/khoahotran/folio/internal/application/usecase/auth"
	mediaUC "github.com/khoahotran/folio/internal/application/usecase/media"
	"github.com/khoahotran/folio/internal/application/usecase/publishing"
	renderUC "github.com/khoahotran/folio/internal/application/usecase/render"
	wizardUC "github.com/khoahotran/folio/internal/application/usecase/wizard"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/internal/domain/catalog"
	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/plan"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/internal/domain/render"
	"github.com/khoahotran/folio/internal/domain/wizard"
	"github.com/khoahotran/folio/internal/templates"
	"github.com/khoahotran/folio/pkg/auth"
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
	appLogger.Info("Start Folio API Server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Jaeger.OTLPEndpoint != "" {
		tp, err := tracing.NewTracerProvider(ctx, cfg, appLogger, "folio-api")
		if err != nil {
			appLogger.Fatal("Cannot init tracer", err)
		}
		defer tp.Shutdown(context.Background())
	}

	// Repositories
	var (
		portfolioRepo portfolio.Repository
		accountRepo   account.Repository
	)
	switch cfg.Storage.Driver {
	case "memory":
		appLogger.Warn("Using in-memory storage, data is lost on restart")
		portfolioRepo = persistence.NewMemoryPortfolioRepo()
		accountRepo = persistence.NewMemoryAccountRepo()
	default:
		var dbPool *pgxpool.Pool
		dbPool, err = persistence.NewPostgresPool(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot connect Postgres", err)
		}
		defer dbPool.Close()
		portfolioRepo = persistence.NewPostgresPortfolioRepo(dbPool, appLogger)
		accountRepo = persistence.NewPostgresAccountRepo(dbPool, appLogger)
	}

	// Drafts and rendered pages
	var (
		draftStore wizard.Store
		pageCache  service.PageCache
	)
	if cfg.Redis.Addr != "" {
		var redisClient *redis.Client
		redisClient, err = persistence.NewRedisClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot connect Redis", err)
		}
		defer redisClient.Close()
		draftStore = persistence.NewRedisDraftStore(redisClient, cfg.Wizard.DraftTTL)
		pageCache = persistence.NewRedisPageCache(redisClient, cfg.Render.CacheTTL, appLogger)
	} else {
		appLogger.Warn("Redis not configured, drafts and page cache kept in memory")
		draftStore = persistence.NewMemoryDraftStore(cfg.Wizard.DraftTTL)
		pageCache = persistence.NewMemoryPageCache()
	}

	// Events
	var events service.EventPublisher = event.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		events = kafkaClient
	}

	// Services
	uploader, err := newUploader(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)

	initialPolicy, err := plan.LoadFile(cfg.Plans.File)
	if err != nil {
		appLogger.Fatal("Cannot load plan policy", err)
	}
	policy := plan.NewHolder(initialPolicy)
	go reloadPolicyOnHangup(ctx, policy, cfg.Plans.File, appLogger)

	cat := catalog.Builtin()
	validator := content.NewValidator()
	renderers, err := templates.Renderers()
	if err != nil {
		appLogger.Fatal("Cannot parse site templates", err)
	}

	// Use Cases
	resolver := publishing.NewResolver(portfolioRepo, accountRepo, policy, cat, validator, events, appLogger)
	authoring := wizardUC.NewAuthoringUseCase(draftStore, wizard.NewMachine(validator, cat), accountRepo, portfolioRepo, policy, resolver, appLogger)
	renderPage := renderUC.NewRenderPageUseCase(
		portfolioRepo, accountRepo, policy, render.NewDispatcher(cat, renderers), pageCache,
		renderUC.Settings{BaseURL: cfg.App.BaseURL, CountViews: cfg.Render.CountViews},
		appLogger,
	)
	feed := renderUC.NewFeedUseCase(portfolioRepo, cat, cfg.App.BaseURL, appLogger)

	// HTTP Handlers
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpAdapter.NewRouter(httpAdapter.Handlers{
		Auth: httpAdapter.NewAuthHandler(
			authUC.NewLoginUseCase(accountRepo, jwtSvc, appLogger),
			authUC.NewSignupUseCase(accountRepo, jwtSvc, appLogger),
			authUC.NewMeUseCase(accountRepo, policy, appLogger),
			appLogger,
		),
		Wizard:    httpAdapter.NewWizardHandler(authoring, cfg.App.BaseURL, appLogger),
		Portfolio: httpAdapter.NewPortfolioHandler(resolver, cat, cfg.App.BaseURL, appLogger),
		Media:     httpAdapter.NewMediaHandler(mediaUC.NewUploadAssetUseCase(uploader, appLogger), appLogger),
		Site:      httpAdapter.NewSiteHandler(renderPage, feed, appLogger),
	}, jwtSvc, appLogger)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
}

func newUploader(ctx context.Context, cfg config.Config, log logger.Logger) (service.Uploader, error) {
	if cfg.Storage.Assets == "s3" {
		return media_storage.NewS3Adapter(ctx, cfg, log)
	}
	return media_storage.NewCloudinaryAdapter(cfg, log)
}

// reloadPolicyOnHangup swaps in the plans file on every SIGHUP. A bad file
// keeps the current policy.
func reloadPolicyOnHangup(ctx context.Context, policy *plan.Holder, path string, log logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := policy.Reload(path); err != nil {
				log.Error("Failed to reload plan policy", err, zap.String("file", path))
				continue
			}
			log.Info("Plan policy reloaded", zap.String("file", path))
		}
	}
}
