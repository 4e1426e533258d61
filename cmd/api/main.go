package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vietbiz/crm-api/docs"
	"github.com/vietbiz/crm-api/internal/config"
	"github.com/vietbiz/crm-api/internal/database"
	"github.com/vietbiz/crm-api/internal/erp"
	"github.com/vietbiz/crm-api/internal/http/handler"
	"github.com/vietbiz/crm-api/internal/http/middleware"
	"github.com/vietbiz/crm-api/internal/http/router"
	"github.com/vietbiz/crm-api/internal/jobs"
	"github.com/vietbiz/crm-api/internal/logger"
	"github.com/vietbiz/crm-api/internal/presence"
	"github.com/vietbiz/crm-api/internal/repository"
	"github.com/vietbiz/crm-api/internal/service"
	"github.com/vietbiz/crm-api/internal/storage"
	"go.uber.org/zap"
)

// @title VietBiz CRM API
// @version 1.0
// @description Customer, catalog, deal pricing and quote export API for the VietBiz CRM dashboard

// @contact.name VietBiz Solutions
// @contact.email contact@vietbiz.vn

// @host localhost:8080
// @BasePath /api/v1

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
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

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database with retry logic
	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize export archive storage
	archive, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// ERP price list source (optional, read-only). The catalog works
	// without it; the sync job is simply not registered.
	erpClient, err := erp.NewClient(&cfg.ERP, log)
	if err != nil {
		log.Warn("ERP connection failed, continuing without it", zap.Error(err))
		erpClient = nil
	}

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	dealRepo := repository.NewDealRepository(db)
	historyRepo := repository.NewDealStageHistoryRepository(db)
	contractRepo := repository.NewContractRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	deploymentRepo := repository.NewDeploymentRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	catalogService := service.NewCatalogService(productRepo, log)
	customerService := service.NewCustomerService(customerRepo, log)
	dealService := service.NewDealService(dealRepo, customerRepo, userRepo, historyRepo, catalogService, log)
	contractService := service.NewContractService(contractRepo, dealRepo, log)
	taskService := service.NewTaskService(taskRepo, userRepo, log)
	ticketService := service.NewTicketService(ticketRepo, customerRepo, userRepo, log)
	deploymentService := service.NewDeploymentService(deploymentRepo, customerRepo, log)
	dashboardService := service.NewDashboardService(dealRepo, customerRepo, productRepo, ticketRepo, taskRepo, log)
	userService := service.NewUserService(userRepo, log)
	exportService, err := service.NewExportService(dealRepo, customerRepo, &cfg.Company, archive, log)
	if err != nil {
		return fmt.Errorf("failed to initialize export service: %w", err)
	}

	// Presence hub and Redis-backed tracker
	hub := presence.NewHub(log)
	tracker, err := presence.NewTracker(&cfg.Redis, &cfg.Presence, hub, log)
	if err != nil {
		return fmt.Errorf("failed to initialize presence tracker: %w", err)
	}

	trackerCtx, trackerCancel := context.WithCancel(context.Background())
	defer trackerCancel()
	go tracker.Run(trackerCtx)

	// Initialize middleware
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	customerHandler := handler.NewCustomerHandler(customerService, dealService, contractService, log)
	productHandler := handler.NewProductHandler(catalogService, log)
	dealHandler := handler.NewDealHandler(dealService, exportService, log)
	contractHandler := handler.NewContractHandler(contractService, log)
	taskHandler := handler.NewTaskHandler(taskService, log)
	ticketHandler := handler.NewTicketHandler(ticketService, log)
	deploymentHandler := handler.NewDeploymentHandler(deploymentService, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, exportService, log)
	userHandler := handler.NewUserHandler(userService, log)
	presenceHandler := handler.NewPresenceHandler(hub, tracker, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		erpClient,
		rateLimiter,
		customerHandler,
		productHandler,
		dealHandler,
		contractHandler,
		taskHandler,
		ticketHandler,
		deploymentHandler,
		dashboardHandler,
		userHandler,
		presenceHandler,
	)

	// Background jobs
	scheduler := jobs.NewScheduler(log)
	if cfg.Jobs.ReconcileEnabled {
		if err := jobs.RegisterReconcileJob(scheduler, dealRepo, log, cfg.Jobs.ReconcileCron); err != nil {
			log.Error("Failed to register reconcile job", zap.Error(err))
		}
	}
	if err := jobs.RegisterERPSyncJob(scheduler, erpClient, productRepo, log, cfg.ERP.SyncCron, cfg.ERP.SyncTimeoutDuration()); err != nil {
		log.Error("Failed to register ERP sync job", zap.Error(err))
	}
	scheduler.Start()

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
		log.Info("Scheduler stopped")

		trackerCancel()
		if err := tracker.Close(); err != nil {
			log.Warn("Error closing presence tracker", zap.Error(err))
		}

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if err := erpClient.Close(); err != nil {
			log.Warn("Error closing ERP connection", zap.Error(err))
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
