package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/smilecrm/smilecrm-voice/internal/adapter/ai/openai"
	"github.com/smilecrm/smilecrm-voice/internal/adapter/cache"
	"github.com/smilecrm/smilecrm-voice/internal/adapter/http/fiber/handlers"
	"github.com/smilecrm/smilecrm-voice/internal/adapter/http/fiber/middleware"
	"github.com/smilecrm/smilecrm-voice/internal/adapter/queue"
	"github.com/smilecrm/smilecrm-voice/internal/adapter/storage/postgres"
	"github.com/smilecrm/smilecrm-voice/internal/adapter/vault"
	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/infrastructure/circuitbreaker"
	"github.com/smilecrm/smilecrm-voice/internal/observability/telemetry"
	"github.com/smilecrm/smilecrm-voice/internal/ports"
	"github.com/smilecrm/smilecrm-voice/internal/service/auth"
	"github.com/smilecrm/smilecrm-voice/internal/service/health"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/scoring"
	"github.com/smilecrm/smilecrm-voice/pkg/config"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting SmileCRM voice service",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Service stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// 3. Secrets
	if cfg.Vault.Enabled {
		if err := loadSecrets(ctx, cfg, logger); err != nil {
			return err
		}
	}

	// 4. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tp, err := telemetry.InitTracer(cfg.OpenTelemetry.ServiceName, cfg.App.Version,
			cfg.OpenTelemetry.Jaeger.Endpoint, cfg.OpenTelemetry.Jaeger.SamplerParam)
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 5. Initialize PostgreSQL Connection Pool
	db, err := postgres.NewConnection(cfg.Database.URL, cfg.Database.PoolConfig, logger)
	if err != nil {
		return err
	}
	defer func() { _ = postgres.Close(db) }()

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			return err
		}
	}
	store := postgres.NewClinicStore(db, logger)

	// 6. Transcript cache: Redis when reachable, in-process otherwise
	var transcriptCache ports.Cache
	if cfg.Redis.URL != "" {
		transcriptCache, err = cache.NewRedisCache(cfg.Redis.URL, logger)
		if err != nil {
			logger.Warn("Redis unavailable, using in-memory cache", zap.Error(err))
		}
	}
	if transcriptCache == nil {
		transcriptCache, err = cache.NewLocalCache(cfg.Voice.LocalCacheEntries, logger)
		if err != nil {
			return err
		}
	}
	defer transcriptCache.Close()

	// 7. Message Queue (optional)
	mq, err := queue.New(cfg.Queue, logger)
	if err != nil {
		return err
	}
	if mq != nil {
		defer mq.Close()
		worker := voice.NewAuditWorker(mq, store, cfg.Voice.EventSubject, logger)
		if err := worker.Start(); err != nil {
			return fmt.Errorf("failed to start audit worker: %w", err)
		}
	}

	// 8. Voice pipeline
	providerBreaker := circuitbreaker.New(cfg.CircuitBreaker.Provider, logger)
	provider := openai.NewClient(cfg.OpenAI, providerBreaker, logger)
	transcriber := voice.NewCachedTranscriber(provider, transcriptCache, cfg.Voice.TranscriptCacheTTL, logger)
	scorer := scoring.NewScorer(cfg.Voice.Weights, cfg.Voice.ConfidenceThreshold)
	currency, _ := domain.ParseCurrency(cfg.Voice.DefaultCurrency)

	voiceService := voice.NewService(transcriber, provider, store, scorer, mq, voice.Config{
		MaxAudioBytes:   cfg.Voice.MaxAudioBytes,
		DefaultTimezone: cfg.Voice.DefaultTimezone,
		DefaultCurrency: currency,
		EventSubject:    cfg.Voice.EventSubject,
	}, logger)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenDuration, transcriptCache, logger)

	// 9. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		BodyLimit:             cfg.Voice.MaxUploadBytes,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(logger))

	breakers := []health.BreakerState{providerBreaker}

	// Health Check Endpoints
	healthService := health.NewService(&health.Config{
		Version:  cfg.App.Version,
		Store:    store,
		Cache:    transcriptCache,
		Breakers: breakers,
	}, logger)
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metrics(c.Context())
		return nil
	})

	// API v1 Routes; CORS answers preflights before auth sees them
	var chain []fiber.Handler
	if cfg.CORS.Enabled {
		corsHandler, err := middleware.VoiceCORS(cfg.CORS)
		if err != nil {
			return err
		}
		chain = append(chain, corsHandler)
	}
	chain = append(chain, middleware.AuthRequired(jwtService, logger))
	if cfg.CircuitBreaker.Enabled {
		apiBreaker := circuitbreaker.New(cfg.CircuitBreaker.API, logger)
		healthService.RegisterChecker("breaker_"+apiBreaker.Name(), func(context.Context) health.CheckResult {
			return health.CheckBreaker(apiBreaker)
		})
		chain = append(chain, middleware.CircuitBreaker(apiBreaker, logger))
	}
	voiceRoutes := app.Group("/api/v1/ai/voice", chain...)
	locale, _ := domain.ParseLocale(cfg.Voice.DefaultLocale)
	handlers.NewVoiceHandler(voiceService, locale, cfg.Voice.DefaultTimezone, logger).RegisterRoutes(voiceRoutes)

	// 10. Serve until a signal arrives
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})
	return g.Wait()
}

// loadSecrets fills secrets that were not set directly from Vault.
func loadSecrets(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	sm, err := vault.NewSecretManager(cfg.Vault.Config)
	if err != nil {
		return fmt.Errorf("failed to create vault client: %w", err)
	}
	fill := func(name string, dst *string, get func(context.Context) (string, error)) error {
		if *dst != "" {
			return nil
		}
		v, err := get(ctx)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", name, err)
		}
		*dst = v
		logger.Info("Loaded secret from vault", zap.String("secret", name))
		return nil
	}
	if err := fill("database url", &cfg.Database.URL, sm.GetDatabaseURL); err != nil {
		return err
	}
	if err := fill("openai api key", &cfg.OpenAI.APIKey, sm.GetOpenAIAPIKey); err != nil {
		return err
	}
	return fill("jwt secret", &cfg.JWT.Secret, sm.GetJWTSecret)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
