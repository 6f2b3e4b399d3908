package router

import (
	"encoding/json"
	"net/http"

	"github.com/FluxtonX/partner-sub002/internal/auth"
	"github.com/FluxtonX/partner-sub002/internal/config"
	"github.com/FluxtonX/partner-sub002/internal/database"
	"github.com/FluxtonX/partner-sub002/internal/http/handler"
	"github.com/FluxtonX/partner-sub002/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/FluxtonX/partner-sub002/docs" // Import swagger docs
)

type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	db              *gorm.DB
	authMiddleware  *auth.Middleware
	rateLimiter     *middleware.RateLimiter
	estimateHandler *handler.EstimateHandler
	settingsHandler *handler.SettingsHandler
	exportHandler   *handler.ExportHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	estimateHandler *handler.EstimateHandler,
	settingsHandler *handler.SettingsHandler,
	exportHandler *handler.ExportHandler,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		authMiddleware:  authMiddleware,
		rateLimiter:     rateLimiter,
		estimateHandler: estimateHandler,
		settingsHandler: settingsHandler,
		exportHandler:   exportHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)
	if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
		r.Use(chimiddleware.Timeout(timeout))
	}

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		writeHealth(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		status := http.StatusOK

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		overall := "healthy"
		if status != http.StatusOK {
			overall = "unhealthy"
		}
		writeHealth(w, status, map[string]interface{}{
			"status": overall,
			"checks": checks,
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.LimitByBusiness)

		// Estimates
		r.Route("/estimates", func(r chi.Router) {
			r.Get("/", rt.estimateHandler.List)
			r.Post("/", rt.estimateHandler.Create)
			r.Post("/calculate", rt.estimateHandler.Calculate)
			r.Get("/{id}", rt.estimateHandler.GetByID)
			r.Put("/{id}", rt.estimateHandler.Update)
			r.Delete("/{id}", rt.estimateHandler.Delete)

			// Lifecycle endpoints
			r.Post("/{id}/submit", rt.estimateHandler.Submit)
			r.Post("/{id}/status", rt.estimateHandler.SetStatus)
			r.Post("/{id}/duplicate", rt.estimateHandler.Duplicate)

			// Line items
			r.Post("/{id}/items", rt.estimateHandler.AddLineItem)
			r.Put("/{id}/items/order", rt.estimateHandler.ReorderLineItems)
			r.Put("/{id}/items/{itemId}", rt.estimateHandler.UpdateLineItem)
			r.Delete("/{id}/items/{itemId}", rt.estimateHandler.RemoveLineItem)

			r.Get("/{id}/categories", rt.estimateHandler.Categories)
			r.Post("/{id}/export", rt.estimateHandler.Export)
		})

		r.Get("/exports/*", rt.exportHandler.Download)

		// Business settings
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", rt.settingsHandler.Get)
			r.Put("/", rt.settingsHandler.Upsert)
			r.Post("/indirect-rate", rt.settingsHandler.RecalculateIndirectRate)
		})
	})

	return r
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
