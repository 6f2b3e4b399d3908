package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FluxtonX/partner-sub002/docs"
	"github.com/FluxtonX/partner-sub002/internal/auth"
	"github.com/FluxtonX/partner-sub002/internal/config"
	"github.com/FluxtonX/partner-sub002/internal/database"
	"github.com/FluxtonX/partner-sub002/internal/http/handler"
	"github.com/FluxtonX/partner-sub002/internal/http/middleware"
	"github.com/FluxtonX/partner-sub002/internal/http/router"
	"github.com/FluxtonX/partner-sub002/internal/jobs"
	"github.com/FluxtonX/partner-sub002/internal/logger"
	"github.com/FluxtonX/partner-sub002/internal/repository"
	"github.com/FluxtonX/partner-sub002/internal/service"
	"github.com/FluxtonX/partner-sub002/internal/storage"
	"go.uber.org/zap"
)

// @title Estimate API
// @version 1.0
// @description Estimate pricing, profitability and approval API

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API key for service callers; requires X-Business-ID
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for logging setup
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// In staging/production secrets come from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	exportStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Repositories
	estimateRepo := repository.NewEstimateRepository(db)
	lineItemRepo := repository.NewLineItemRepository(db)
	settingsRepo := repository.NewBusinessSettingsRepository(db)

	// Services
	estimateService := service.NewEstimateService(estimateRepo, lineItemRepo, settingsRepo, log, db)
	settingsService := service.NewSettingsService(settingsRepo, estimateService, log)
	exportService := service.NewExportService(estimateService, exportStorage, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	estimateHandler := handler.NewEstimateHandler(estimateService, exportService, log)
	settingsHandler := handler.NewSettingsHandler(settingsService, log)
	exportHandler := handler.NewExportHandler(exportService, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		estimateHandler,
		settingsHandler,
		exportHandler,
	)

	var scheduler *jobs.Scheduler
	if cfg.Jobs.TotalsRefreshEnabled {
		scheduler = jobs.NewScheduler(log)

		if _, err := jobs.RegisterTotalsRefreshJob(
			scheduler,
			estimateService,
			log,
			cfg.Jobs.TotalsRefreshCron,
			cfg.Jobs.TotalsRefreshTimeoutDuration(),
			cfg.Jobs.TotalsRefreshOnStartup,
		); err != nil {
			log.Error("Failed to register totals refresh job", zap.Error(err))
			scheduler = nil
		} else {
			scheduler.Start()
			log.Info("Scheduler started with totals refresh job",
				zap.String("cron_expr", cfg.Jobs.TotalsRefreshCron),
				zap.Duration("timeout", cfg.Jobs.TotalsRefreshTimeoutDuration()),
			)
		}
	} else {
		log.Info("Totals refresh job disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if err := database.Close(db); err != nil {
			log.Warn("Error closing database connection", zap.Error(err))
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
