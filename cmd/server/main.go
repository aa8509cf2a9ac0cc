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
	expiryapp "github.com/vendfleet/backend/internal/application/expiry"
	"github.com/vendfleet/backend/internal/domain/shared"
	"github.com/vendfleet/backend/internal/infrastructure/auth"
	"github.com/vendfleet/backend/internal/infrastructure/cache"
	"github.com/vendfleet/backend/internal/infrastructure/config"
	"github.com/vendfleet/backend/internal/infrastructure/logger"
	"github.com/vendfleet/backend/internal/infrastructure/persistence"
	"github.com/vendfleet/backend/internal/infrastructure/telemetry"
	"github.com/vendfleet/backend/internal/interfaces/http/handler"
	"github.com/vendfleet/backend/internal/interfaces/http/middleware"
	"github.com/vendfleet/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting vendfleet backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = loggerProvider.Bridge(log, zapcore.InfoLevel)

	// Database
	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{Logger: log, Tracing: &dbTracing})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	dbMetrics, err := telemetry.RegisterDBMetrics(ctx, db.DB, meterProvider, telemetry.DBMetricsConfig{
		SlowQueryThreshold: dbTracing.SlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}

	// Idempotency store for the commit route
	var idempotencyStore shared.IdempotencyStore
	var idempotencyGuard []gin.HandlerFunc
	if cfg.Idempotency.Enabled {
		store := cache.NewIdempotencyStore(ctx, cfg.Redis, log)
		idempotencyStore = store
		idempotencyGuard = append(idempotencyGuard, middleware.Idempotency(store, cfg.Idempotency.TTL))
	}

	// Application services
	settings := expiryapp.Settings{
		DefaultTimeZone:  cfg.Expiry.DefaultTimeZone,
		DefaultDaysAhead: cfg.Expiry.DefaultDaysAhead,
		MaxDaysAhead:     cfg.Expiry.MaxDaysAhead,
	}
	reconciliationService := expiryapp.NewReconciliationService(
		persistence.NewGormCompanyRepository(db.DB),
		persistence.NewGormRunRepository(db.DB),
		persistence.NewGormPickEntryRepository(db.DB),
		persistence.NewGormExpiryIgnoreRepository(db.DB),
		settings,
	)
	commitService := expiryapp.NewCommitService(persistence.NewGormTransactionScope(db.DB), settings)

	if meterProvider.IsEnabled() {
		expiryMetrics, err := telemetry.NewExpiryMetrics(telemetry.ExpiryMetricsConfig{
			Meter: meterProvider.Meter("vendfleet/expiry"),
		})
		if err != nil {
			log.Fatal("Failed to create expiry metrics", zap.Error(err))
		}
		reconciliationService.SetMetrics(expiryMetrics)
		commitService.SetMetrics(expiryMetrics)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(meterProvider.Meter("vendfleet/http"))
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	// Order: request ID first so every later log line and span carries it.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled))
	engine.Use(httpMetrics)
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access connection pool", zap.Error(err))
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, sqlDB)
	expiryHandler := handler.NewExpiryHandler(reconciliationService, commitService)

	engine.GET("/health", systemHandler.Health)

	jwtService := auth.NewJWTService(cfg.JWT)
	// RateLimit keys on the company set by JWTAuth
	apiMiddleware := []gin.HandlerFunc{middleware.JWTAuth(jwtService, log), middleware.SpanEnricher()}
	stopSweeper := make(chan struct{})
	defer close(stopSweeper)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go rateLimiter.RunSweeper(stopSweeper)
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Use(apiMiddleware...).
		Register(router.ExpiryRoutes(expiryHandler, idempotencyGuard...)).
		Register(router.SystemRoutes(systemHandler)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if idempotencyStore != nil {
		if err := idempotencyStore.Close(); err != nil {
			log.Warn("Error closing idempotency store", zap.Error(err))
		}
	}
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down tracer provider", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
