package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ledgerapp "github.com/edufin/backend/internal/application/ledger"
	partyapp "github.com/edufin/backend/internal/application/party"
	"github.com/edufin/backend/internal/domain/party"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/edufin/backend/internal/infrastructure/cache"
	"github.com/edufin/backend/internal/infrastructure/config"
	"github.com/edufin/backend/internal/infrastructure/directory"
	"github.com/edufin/backend/internal/infrastructure/logger"
	"github.com/edufin/backend/internal/infrastructure/persistence"
	"github.com/edufin/backend/internal/interfaces/http/handler"
	"github.com/edufin/backend/internal/interfaces/http/middleware"
	"github.com/edufin/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting EduFin Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	conceptRepo := persistence.NewGormChargeConceptRepository(db.DB)
	obligationRepo := persistence.NewGormObligationRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	cashCloseRepo := persistence.NewGormCashCloseRepository(db.DB)
	thirdPartyRepo := persistence.NewGormThirdPartyRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Idempotency store (Redis when enabled, in-memory otherwise)
	idempotencyStore := cache.NewIdempotencyStore(cfg.Redis, log)
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// People-directory bridge for resolving students, guardians and staff
	var personDirectory party.PersonDirectory
	if cfg.Directory.BaseURL != "" {
		personDirectory, err = directory.NewHTTPDirectory(&directory.Config{
			BaseURL:        cfg.Directory.BaseURL,
			APIKey:         cfg.Directory.APIKey,
			TimeoutSeconds: cfg.Directory.TimeoutSeconds,
		})
		if err != nil {
			log.Fatal("Failed to configure people directory", zap.Error(err))
		}
		log.Info("People directory configured", zap.String("base_url", cfg.Directory.BaseURL))
	} else {
		personDirectory = directory.NewDisabled()
		log.Warn("People directory not configured; bulk charges by grade or group are unavailable")
	}

	// Resolve the cash-register timezone
	location, err := cfg.Ledger.Location()
	if err != nil {
		log.Fatal("Failed to load ledger timezone", zap.Error(err))
	}

	// Initialize application services
	conceptService := ledgerapp.NewConceptService(conceptRepo, log)
	obligationService := ledgerapp.NewObligationService(txManager, obligationRepo, log)
	bulkService := ledgerapp.NewBulkObligationService(txManager, personDirectory, log)
	paymentService := ledgerapp.NewPaymentService(txManager, paymentRepo, idempotencyStore, shared.IdempotencyConfig{
		TTL:     cfg.Ledger.IdempotencyTTL,
		Enabled: true,
	}, log)
	invoiceService := ledgerapp.NewInvoiceService(txManager, invoiceRepo, log)
	cashCloseService := ledgerapp.NewCashCloseService(txManager, cashCloseRepo, location, log)
	thirdPartyService := partyapp.NewThirdPartyService(thirdPartyRepo, obligationRepo, paymentRepo, personDirectory, log)

	// Background overdue sweep (opt-in; the sweep also runs on demand via the API)
	if cfg.Ledger.OverdueSweepEnabled {
		sweeper := ledgerapp.NewOverdueSweeper(obligationRepo, obligationService, ledgerapp.OverdueSweeperConfig{
			Interval: cfg.Ledger.OverdueSweepInterval,
		}, log)
		sweeper.Start(context.Background())
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := sweeper.Stop(stopCtx); err != nil {
				log.Error("Error stopping overdue sweeper", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	conceptHandler := handler.NewConceptHandler(conceptService)
	obligationHandler := handler.NewObligationHandler(obligationService, bulkService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	cashCloseHandler := handler.NewCashCloseHandler(cashCloseService)
	thirdPartyHandler := handler.NewThirdPartyHandler(thirdPartyService)
	healthHandler := handler.NewHealthHandler(db)

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID, panic recovery, request logging, CORS
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health probes live outside API versioning
	healthHandler.RegisterRoutes(engine.Group(""))

	// Versioned ledger API
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(conceptHandler).
		Register(obligationHandler).
		Register(paymentHandler).
		Register(invoiceHandler).
		Register(cashCloseHandler).
		Register(thirdPartyHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
