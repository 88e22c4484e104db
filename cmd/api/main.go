package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/disfruleg/disfruleg-pos/internal/application/service"
	"github.com/disfruleg/disfruleg-pos/internal/config"
	"github.com/disfruleg/disfruleg-pos/internal/infrastructure/database"
	"github.com/disfruleg/disfruleg-pos/internal/infrastructure/metrics"
	"github.com/disfruleg/disfruleg-pos/internal/infrastructure/receipt"
	"github.com/disfruleg/disfruleg-pos/internal/infrastructure/repository"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/handler"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/middleware"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/routes"
	"github.com/disfruleg/disfruleg-pos/pkg/clock"
	"github.com/disfruleg/disfruleg-pos/pkg/logger"
	"github.com/disfruleg/disfruleg-pos/pkg/printer"
	"github.com/disfruleg/disfruleg-pos/pkg/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()

	zlog, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	loc := cfg.App.Location()
	clk := clock.New(loc)

	// Connect to database
	db, err := database.Open(&cfg.Database, cfg.App.Debug, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db, zlog); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	// Seed the bootstrap administrator
	if err := database.SeedDefaultData(db, &cfg.Admin, zlog); err != nil {
		zlog.Warn("failed to seed default data", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	receiptMetrics := metrics.New(registry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize services
	osFs := afero.NewOsFs()
	renderer := receipt.NewRenderer(loc)
	store := receipt.NewStore(osFs, cfg.Receipt.Dir)

	authService := service.NewAuthService(userRepo, jwtManager, cfg.Auth, clk, zlog).WithMetrics(receiptMetrics)
	catalogService := service.NewCatalogService(catalogRepo)
	invoiceWriter := service.NewInvoiceWriter(invoiceRepo, idempotencyRepo, clk, zlog)
	receiptService := service.NewReceiptService(invoiceWriter, renderer, store, cfg.Receipt.BusinessName, receiptMetrics, zlog)

	sessions := service.NewSessionRegistry(service.SessionDeps{
		Catalog:    catalogRepo,
		Pricing:    service.NewPricingService(),
		Authorizer: authService,
		Writer:     invoiceWriter,
		Receipts:   receiptService,
		Clock:      clk,
		Metrics:    receiptMetrics,
		Log:        zlog,
	}, time.Minute)
	defer sessions.Stop()

	// Initialize thermal printer
	thermalPrinter, err := printer.New(printer.Options{
		Type:    cfg.Printer.Type,
		USBPath: cfg.Printer.USBPath,
		Address: cfg.Printer.Address,
		Timeout: cfg.Printer.Timeout,
	}, osFs)
	if err != nil {
		zlog.Warn("failed to initialize printer", zap.Error(err))
		thermalPrinter = printer.NewNullPrinter()
	}
	defer func() { _ = thermalPrinter.Close() }()
	printerService := service.NewPrinterService(thermalPrinter, invoiceWriter, renderer, cfg.Receipt.BusinessName, cfg.Printer.Type, cfg.Printer.Width, zlog)

	loginLimiter := middleware.NewIPRateLimiter(middleware.LoginRateLimiterConfig(cfg.RateLimit.Requests, cfg.RateLimit.Duration))
	defer loginLimiter.Stop()

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:    handler.NewAuthHandler(authService, sessions),
		Catalog: handler.NewCatalogHandler(catalogService),
		Receipt: handler.NewReceiptHandler(sessions),
		Invoice: handler.NewInvoiceHandler(invoiceWriter, receiptService),
		Printer: handler.NewPrinterHandler(printerService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:   jwtManager,
		Cfg:          cfg,
		Log:          zlog,
		Gatherer:     registry,
		LoginLimiter: loginLimiter,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("starting server",
			zap.String("name", cfg.App.Name),
			zap.String("port", port),
			zap.String("env", cfg.App.Env),
			zap.String("timezone", loc.String()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// In-flight Generate calls run detached from their requests; Shutdown
	// waits for their handlers to return.
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	zlog.Info("server stopped")
}
