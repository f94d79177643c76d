package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/cablenet/billing/docs"
	appbilling "github.com/cablenet/billing/internal/application/billing"
	appcatalog "github.com/cablenet/billing/internal/application/catalog"
	appclient "github.com/cablenet/billing/internal/application/client"
	appidentity "github.com/cablenet/billing/internal/application/identity"
	"github.com/cablenet/billing/internal/infrastructure/auth"
	"github.com/cablenet/billing/internal/infrastructure/cache"
	"github.com/cablenet/billing/internal/infrastructure/config"
	"github.com/cablenet/billing/internal/infrastructure/event"
	"github.com/cablenet/billing/internal/infrastructure/logger"
	"github.com/cablenet/billing/internal/infrastructure/persistence"
	"github.com/cablenet/billing/internal/infrastructure/scheduler"
	"github.com/cablenet/billing/internal/infrastructure/telemetry"
	"github.com/cablenet/billing/internal/interfaces/http/handler"
	"github.com/cablenet/billing/internal/interfaces/http/middleware"
	"github.com/cablenet/billing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

//	@title			Cablenet Billing API
//	@version		1.0
//	@description	Clients, monthly invoices and payments of a cable and internet provider

//	@contact.name	API Support
//	@contact.email	soporte@cablenet.example.com

//	@host		localhost:8000
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	// Telemetry providers are no-ops unless enabled.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() { _ = tracerProvider.Shutdown(context.Background()) }()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log provider", zap.Error(err))
	}
	defer func() { _ = logProvider.Shutdown(context.Background()) }()
	log = logProvider.Bridge(log, zapcore.InfoLevel)

	log.Info("Starting billing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
	)

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.DBTraceEnabled || cfg.Telemetry.MetricsEnabled {
		plugin, err := telemetry.NewDBTelemetryPlugin(telemetry.DBTelemetryConfig{
			Tracing:         cfg.Telemetry.DBTraceEnabled,
			Metrics:         cfg.Telemetry.MetricsEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, meterProvider.Meter("billing/db"), log)
		if err != nil {
			log.Fatal("Failed to create database telemetry plugin", zap.Error(err))
		}
		if err := db.Use(plugin); err != nil {
			log.Fatal("Failed to register database telemetry plugin", zap.Error(err))
		}
	}

	// Redis is optional; without it revocations, idempotency keys and
	// scheduler locks are kept per instance.
	var redisClient redis.UniversalClient
	if client, err := cache.NewRedisClient(cfg.Redis); err != nil {
		log.Warn("Redis unavailable, continuing without it", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
	} else {
		redisClient = client
		defer func() { _ = client.Close() }()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}
	stores := cache.NewFactory(redisClient, log)

	var blacklist auth.TokenBlacklist
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
	}

	// Repositories
	clientRepo := persistence.NewGormClientRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	serviceRepo := persistence.NewGormServiceOfferingRepository(db.DB)
	txScope := persistence.NewGormBillingTransactionScope(db.DB)
	runRepo := scheduler.NewGenerationRunRepository(db.DB)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	clientService := appclient.NewClientService(clientRepo, invoiceRepo)
	invoiceService := appbilling.NewInvoiceService(invoiceRepo, clientRepo)
	paymentService := appbilling.NewPaymentService(txScope, paymentRepo)
	generator := appbilling.NewInvoiceGenerator(txScope, cfg.Billing.DueDateOffsetDays, log)
	catalogService := appcatalog.NewServiceOfferingService(serviceRepo)
	authService := appidentity.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := appidentity.NewUserService(userRepo, blacklist, cfg.Billing.TenantUUID(), cfg.JWT.AccessTokenExpiration, log)

	// Domain events feed the business metrics.
	eventBus := event.NewInMemoryEventBus(log)
	if cfg.Telemetry.MetricsEnabled {
		billingMetrics, err := telemetry.NewBillingMetrics(telemetry.BillingMetricsConfig{
			Meter:        meterProvider.Meter("billing/business"),
			Logger:       log,
			DebtProvider: clientService,
		})
		if err != nil {
			log.Fatal("Failed to create billing metrics", zap.Error(err))
		}
		metricsHandler := appbilling.NewMetricsHandler(billingMetrics)
		eventBus.Subscribe(metricsHandler, metricsHandler.EventTypes()...)
		generator.SetSkipRecorder(billingMetrics)
		billingMetrics.StartPeriodicCollection(ctx, clientRepo, cfg.Telemetry.DebtCollectInterval)
		defer billingMetrics.Stop()
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	clientService.SetEventPublisher(eventBus)
	invoiceService.SetEventPublisher(eventBus)
	paymentService.SetEventPublisher(eventBus)
	generator.SetEventPublisher(eventBus)
	userService.SetEventPublisher(eventBus)

	// Manual generation goes through the scheduler so that it shares the
	// per-tenant lock and run history with the cron job.
	invoiceScheduler, err := scheduler.NewInvoiceScheduler(cfg.Scheduler, generator, clientRepo, stores.Locker(), log)
	if err != nil {
		log.Fatal("Invalid scheduler configuration", zap.Error(err))
	}
	invoiceScheduler.SetRunStore(runRepo)
	if cfg.Scheduler.Enabled {
		if err := invoiceScheduler.Start(); err != nil {
			log.Fatal("Failed to start invoice scheduler", zap.Error(err))
		}
		defer func() {
			if err := invoiceScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping invoice scheduler", zap.Error(err))
			}
		}()
		log.Info("Invoice scheduler started",
			zap.String("schedule", cfg.Scheduler.InvoiceCronSchedule),
			zap.String("timezone", cfg.Scheduler.Timezone),
		)
	}

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

	// Order matters: the request id must exist before logging, and recovery
	// must wrap everything after it.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(cfg.HTTP))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	if meterProvider.IsEnabled() {
		engine.Use(middleware.HTTPMetrics(meterProvider.Meter("billing/http"), log))
	}

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.Logger = log
	authenticate := middleware.JWTAuthMiddlewareWithConfig(jwtConfig)

	router.Mount(engine, router.Handlers{
		System:  handler.NewSystemHandler(db, cfg.App.Name, Version),
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(userService),
		Client:  handler.NewClientHandler(clientService, invoiceService),
		Invoice: handler.NewInvoiceHandler(invoiceService, invoiceScheduler, runRepo),
		Payment: handler.NewPaymentHandler(paymentService),
		Service: handler.NewServiceOfferingHandler(catalogService),
	}, router.Guards{
		Authenticate: authenticate,
		LoginLimit:   middleware.LoginRateLimit(middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow)),
		Idempotency:  middleware.Idempotency(stores.IdempotencyStore(), cfg.HTTP.IdempotencyTTL),
		Docs:         middleware.SwaggerProtection(cfg.Swagger, authenticate),
		After:        []gin.HandlerFunc{middleware.SpanEnricher()},
	})

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
