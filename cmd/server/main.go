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
	"github.com/orderdesk/backend/internal/application/credential"
	"github.com/orderdesk/backend/internal/application/reconciliation"
	appshipping "github.com/orderdesk/backend/internal/application/shipping"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/shipping"
	"github.com/orderdesk/backend/internal/infrastructure/auth"
	"github.com/orderdesk/backend/internal/infrastructure/cache"
	"github.com/orderdesk/backend/internal/infrastructure/carrier/fedex"
	"github.com/orderdesk/backend/internal/infrastructure/config"
	"github.com/orderdesk/backend/internal/infrastructure/ecommerce"
	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"github.com/orderdesk/backend/internal/infrastructure/persistence"
	"github.com/orderdesk/backend/internal/infrastructure/scheduler"
	"github.com/orderdesk/backend/internal/infrastructure/storage"
	"github.com/orderdesk/backend/internal/infrastructure/telemetry"
	"github.com/orderdesk/backend/internal/interfaces/http/handler"
	"github.com/orderdesk/backend/internal/interfaces/http/middleware"
	"github.com/orderdesk/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting order desk",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	meter := mp.Meter("orderdesk")
	orderMetrics, err := telemetry.NewOrderMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create order metrics", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Instrument(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		if err := telemetry.RegisterPoolMetrics(meter, sqlDB); err != nil {
			log.Warn("Failed to register pool metrics", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	key, err := cfg.Secrets.KeyBytes()
	if err != nil {
		log.Fatal("Invalid secrets key", zap.Error(err))
	}
	box, err := persistence.NewSecretBox(key)
	if err != nil {
		log.Fatal("Failed to create secret box", zap.Error(err))
	}

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	carrierCredRepo := persistence.NewGormCarrierCredentialRepository(db.DB, box)
	marketCredRepo := persistence.NewGormMarketplaceCredentialRepository(db.DB, box)
	profileRepo := persistence.NewGormShipperProfileRepository(db.DB)

	// Carrier token cache
	tokens, tokenCloser, err := cache.NewTokenCacheFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).CreateTokenCache(ctx)
	if err != nil {
		log.Fatal("Failed to create token cache", zap.Error(err))
	}
	defer func() {
		if err := tokenCloser.Close(); err != nil {
			log.Error("Error closing token cache", zap.Error(err))
		}
	}()

	// Outbound clients share one traced transport
	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	// Token expiry is stamped and checked against one clock
	clock := shipping.SystemClock{}
	carrierClient := fedex.NewClient(httpClient, fedex.Config{
		BaseURL: cfg.Carrier.BaseURL,
		Timeout: cfg.Carrier.Timeout,
		Clock:   clock,
	}, log)
	adapters := integration.NewAdapterRegistry(
		ecommerce.NewTaobaoAdapter(httpClient, log),
		ecommerce.NewDouyinAdapter(httpClient, log),
	)

	// Application services
	resolver := credential.NewResolver(carrierCredRepo, profileRepo, marketCredRepo,
		credential.DefaultsFromConfig(cfg.Carrier, cfg.Marketplace), log)
	reconSvc := reconciliation.NewService(orderRepo, adapters, resolver, log,
		reconciliation.WithMetrics(orderMetrics))

	labelOpts := []appshipping.LabelOption{
		appshipping.WithLabelMetrics(orderMetrics),
		appshipping.WithLabelClock(clock),
	}
	if cfg.Storage.Enabled {
		archive, err := storage.NewS3LabelArchive(ctx, &cfg.Storage,
			storage.WithLogger(log), storage.WithHTTPClient(httpClient))
		if err != nil {
			log.Fatal("Failed to create label archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Warn("Label archive bucket check failed", zap.String("bucket", archive.Bucket()), zap.Error(err))
		}
		labelOpts = append(labelOpts, appshipping.WithArchive(archive))
	}
	labelSvc := appshipping.NewLabelService(orderRepo, resolver, carrierClient, tokens, appshipping.LabelConfig{
		TokenMargin:              cfg.Carrier.TokenMargin,
		ElectronicTradeDocuments: cfg.Carrier.ETDEnabled,
	}, log, labelOpts...)
	optionsSvc := appshipping.NewCarrierOptionsService(orderRepo, log)

	// Periodic sync
	var syncScheduler *scheduler.OrderSyncScheduler
	if cfg.Sync.Enabled {
		syncScheduler, err = scheduler.NewOrderSyncScheduler(scheduler.ConfigFromSync(cfg.Sync),
			marketCredRepo, reconSvc, orderMetrics, log)
		if err != nil {
			log.Fatal("Invalid sync scheduler config", zap.Error(err))
		}
		if err := syncScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	engine.GET("/health", handler.NewHealthHandler(db).Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	if cfg.JWT.Enabled {
		r.Use(middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
			Validator: auth.NewJWTService(cfg.JWT),
			Logger:    log,
		}))
	} else {
		log.Warn("JWT disabled, tenant is taken from the X-Tenant-ID header")
	}
	r.Use(
		middleware.TenantMiddleware(middleware.TenantMiddlewareConfig{
			HeaderEnabled: !cfg.JWT.Enabled,
			Logger:        log,
		}),
		middleware.SpanAttributes(),
	)

	syncHandler := handler.NewOrderSyncHandler(reconSvc)
	optionsHandler := handler.NewCarrierOptionsHandler(optionsSvc)
	labelHandler := handler.NewLabelHandler(labelSvc)
	r.Register(router.OrderRoutes(syncHandler, optionsHandler, labelHandler)).
		Register(router.CarrierRoutes(optionsHandler))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if syncScheduler != nil {
		if err := syncScheduler.Stop(shutdownCtx); err != nil {
			log.Error("Sync scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited")
}
