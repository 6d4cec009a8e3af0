package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/octobees/dealdesk/api/internal/auth"
	"github.com/octobees/dealdesk/api/internal/config"
	"github.com/octobees/dealdesk/api/internal/database"
	"github.com/octobees/dealdesk/api/internal/handler"
	"github.com/octobees/dealdesk/api/internal/logging"
	"github.com/octobees/dealdesk/api/internal/metrics"
	"github.com/octobees/dealdesk/api/internal/repository"
	"github.com/octobees/dealdesk/api/internal/router"
	"github.com/octobees/dealdesk/api/internal/service"
	"github.com/octobees/dealdesk/api/internal/storage"
	"github.com/octobees/dealdesk/api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := database.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := database.Migrate(startupCtx, pool); err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied")
	}

	usersRepo := repository.NewPGXUsersRepository(pool)
	inboundRepo := repository.NewPGXInboundLeadsRepository(pool)
	crmRepo := repository.NewPGXCRMRepository(pool)
	integrationsRepo := repository.NewPGXIntegrationLeadsRepository(pool)
	rodRepo := repository.NewPGXRODRepository(pool)

	if cfg.DefaultLeadOwnerID == nil {
		logger.Warn("DEFAULT_LEAD_OWNER_ID not set, legacy leads will be queued without CRM records")
	} else if _, err := usersRepo.FindByID(startupCtx, *cfg.DefaultLeadOwnerID); err != nil {
		logger.Warn("default lead owner could not be loaded", zap.Stringer("owner_id", cfg.DefaultLeadOwnerID), zap.Error(err))
	}
	if cfg.IngestSecret == "" {
		logger.Warn("CRM_INGEST_SECRET not set, /ingest-lead will reject every request")
	}

	var store storage.ObjectStore
	if cfg.Storage.Endpoint != "" {
		s3Store, err := storage.NewS3Store(startupCtx, cfg.Storage)
		if err != nil {
			logger.Fatal("failed to configure object storage", zap.Error(err))
		}
		store = s3Store
	} else {
		logger.Warn("object storage not configured, valuation_pdf requests will fail")
	}

	var newsletter worker.Poster
	if cfg.NewsletterWorkerURL != "" {
		client, err := worker.NewClient(startupCtx, &http.Client{Timeout: 30 * time.Second}, cfg.NewsletterWorkerURL)
		if err != nil {
			logger.Fatal("failed to configure newsletter worker client", zap.Error(err))
		}
		newsletter = client
	}

	m := metrics.New()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	ingestService := service.NewIngestService(service.IngestDeps{
		Inbound:      inboundRepo,
		CRM:          crmRepo,
		Integrations: integrationsRepo,
		Store:        store,
		HTTPClient:   &http.Client{Timeout: cfg.PDFFetchTimeout},
		Logger:       logger.Named("ingest"),
		Metrics:      m,
	}, service.IngestOptions{
		DefaultOwnerID:  cfg.DefaultLeadOwnerID,
		PhoneRegion:     cfg.PhoneDefaultRegion,
		PDFFetchTimeout: cfg.PDFFetchTimeout,
	})
	rodService := service.NewRODService(rodRepo, newsletter, logger.Named("rod"), m)
	authService := service.NewAuthService(usersRepo, jwtManager)

	e := router.New(logger, m)
	router.Register(e, cfg, jwtManager, m, router.Handlers{
		Health: handler.NewHealthHandler(pool),
		Auth:   handler.NewAuthHandler(authService),
		Ingest: handler.NewIngestHandler(ingestService, cfg.IngestSecret, cfg.MaxBodyBytes, logger.Named("ingest")),
		ROD:    handler.NewRODHandler(rodService, cfg.MaxBodyBytes),
	})

	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = cfg.PDFFetchTimeout + 30*time.Second
	e.Server.IdleTimeout = 2 * time.Minute

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("port", cfg.Port))
		serverErr <- e.Start(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
