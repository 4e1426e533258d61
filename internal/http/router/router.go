package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vietbiz/crm-api/internal/config"
	"github.com/vietbiz/crm-api/internal/database"
	"github.com/vietbiz/crm-api/internal/erp"
	"github.com/vietbiz/crm-api/internal/http/handler"
	"github.com/vietbiz/crm-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/vietbiz/crm-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg               *config.Config
	logger            *zap.Logger
	db                *gorm.DB
	erpClient         *erp.Client
	rateLimiter       *middleware.RateLimiter
	customerHandler   *handler.CustomerHandler
	productHandler    *handler.ProductHandler
	dealHandler       *handler.DealHandler
	contractHandler   *handler.ContractHandler
	taskHandler       *handler.TaskHandler
	ticketHandler     *handler.TicketHandler
	deploymentHandler *handler.DeploymentHandler
	dashboardHandler  *handler.DashboardHandler
	userHandler       *handler.UserHandler
	presenceHandler   *handler.PresenceHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	erpClient *erp.Client,
	rateLimiter *middleware.RateLimiter,
	customerHandler *handler.CustomerHandler,
	productHandler *handler.ProductHandler,
	dealHandler *handler.DealHandler,
	contractHandler *handler.ContractHandler,
	taskHandler *handler.TaskHandler,
	ticketHandler *handler.TicketHandler,
	deploymentHandler *handler.DeploymentHandler,
	dashboardHandler *handler.DashboardHandler,
	userHandler *handler.UserHandler,
	presenceHandler *handler.PresenceHandler,
) *Router {
	return &Router{
		cfg:               cfg,
		logger:            logger,
		db:                db,
		erpClient:         erpClient,
		rateLimiter:       rateLimiter,
		customerHandler:   customerHandler,
		productHandler:    productHandler,
		dealHandler:       dealHandler,
		contractHandler:   contractHandler,
		taskHandler:       taskHandler,
		ticketHandler:     ticketHandler,
		deploymentHandler: deploymentHandler,
		dashboardHandler:  dashboardHandler,
		userHandler:       userHandler,
		presenceHandler:   presenceHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.Limit)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		// The ERP connection is optional; an unhealthy ERP degrades price
		// syncing but does not block readiness.
		if rt.erpClient.IsEnabled() {
			if err := rt.erpClient.HealthCheck(r.Context()); err != nil {
				checks["erp"] = map[string]interface{}{
					"status": "unhealthy",
					"error":  err.Error(),
				}
			} else {
				checks["erp"] = map[string]interface{}{
					"status": "healthy",
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Customers
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", rt.customerHandler.List)
			r.Post("/", rt.customerHandler.Create)
			r.Get("/refs", rt.customerHandler.Refs)
			r.Get("/{id}", rt.customerHandler.GetByID)
			r.Put("/{id}", rt.customerHandler.Update)
			r.Delete("/{id}", rt.customerHandler.Delete)
			r.Get("/{id}/deals", rt.customerHandler.ListDeals)
			r.Get("/{id}/contracts", rt.customerHandler.ListContracts)
		})

		// Product catalog
		r.Route("/products", func(r chi.Router) {
			r.Get("/", rt.productHandler.List)
			r.Post("/", rt.productHandler.Create)
			r.Get("/{id}", rt.productHandler.GetByID)
			r.Put("/{id}", rt.productHandler.Update)
			r.Delete("/{id}", rt.productHandler.Deactivate)
		})

		// Deals and quote exports
		r.Route("/deals", func(r chi.Router) {
			r.Get("/", rt.dealHandler.List)
			r.Post("/", rt.dealHandler.Create)
			r.Get("/{id}", rt.dealHandler.GetByID)
			r.Put("/{id}", rt.dealHandler.Update)
			r.Delete("/{id}", rt.dealHandler.Delete)
			r.Patch("/{id}/stage", rt.dealHandler.UpdateStage)
			r.Get("/{id}/stage-history", rt.dealHandler.StageHistory)
			r.Get("/{id}/quote.pdf", rt.dealHandler.ExportPDF)
			r.Get("/{id}/quote/print", rt.dealHandler.PrintView)
		})

		// Contracts
		r.Route("/contracts", func(r chi.Router) {
			r.Get("/", rt.contractHandler.List)
			r.Post("/", rt.contractHandler.Create)
			r.Get("/{id}", rt.contractHandler.GetByID)
			r.Put("/{id}", rt.contractHandler.Update)
			r.Delete("/{id}", rt.contractHandler.Delete)
		})

		// Tasks
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", rt.taskHandler.List)
			r.Post("/", rt.taskHandler.Create)
			r.Get("/{id}", rt.taskHandler.GetByID)
			r.Put("/{id}", rt.taskHandler.Update)
			r.Delete("/{id}", rt.taskHandler.Delete)
		})

		// Support tickets
		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", rt.ticketHandler.List)
			r.Post("/", rt.ticketHandler.Create)
			r.Get("/{id}", rt.ticketHandler.GetByID)
			r.Put("/{id}", rt.ticketHandler.Update)
			r.Delete("/{id}", rt.ticketHandler.Delete)
		})

		// Customer deployments
		r.Route("/deployments", func(r chi.Router) {
			r.Get("/", rt.deploymentHandler.List)
			r.Post("/", rt.deploymentHandler.Create)
			r.Get("/{id}", rt.deploymentHandler.GetByID)
			r.Put("/{id}", rt.deploymentHandler.Update)
			r.Delete("/{id}", rt.deploymentHandler.Delete)
		})

		// Dashboard
		r.Get("/dashboard/metrics", rt.dashboardHandler.Metrics)
		r.Get("/dashboard/deals-report.xlsx", rt.dashboardHandler.DealsReport)

		// Users
		r.Get("/users", rt.userHandler.ListActive)
		r.Get("/users/{id}", rt.userHandler.GetByID)

		// Presence
		r.Route("/presence", func(r chi.Router) {
			r.Get("/", rt.presenceHandler.Snapshot)
			r.Get("/stream", rt.presenceHandler.Stream)
			r.Post("/heartbeat", rt.presenceHandler.Heartbeat)
			r.Post("/leave", rt.presenceHandler.Leave)
		})
	})

	return r
}
