package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/assembler"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/catalog"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/config"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/demo"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/event"
	handler "github.com/IsaacDawn/Alibee-Affiliate-API/internal/handler/http"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository/postgres"
	redisrepo "github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository/redis"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/service"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/database"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/health"
	pkgkafka "github.com/IsaacDawn/Alibee-Affiliate-API/pkg/kafka"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/middleware"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/tracing"
)

// idempotencyTTL bounds how long a consumed search event id is remembered.
const idempotencyTTL = 24 * time.Hour

// App wires together all dependencies and runs the affiliate API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	history        *pkgkafka.Consumer
	limiter        *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, config.ServiceName)

	if cfg.DBAutoMigrate {
		if err := database.RunMigrations(ctx, pool, postgres.Migrations(), logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")
	}

	if threshold := cfg.SlowQueryThreshold(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, logger)
	}

	savedRepo := postgres.NewSavedRepository(pool)
	linkRepo := postgres.NewLinkRepository(pool)
	historyRepo := postgres.NewHistoryRepository(pool)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterOptional("catalog_credentials", func(context.Context) error {
		if !cfg.CatalogConfigured() {
			return errors.New("ALI_APP_KEY and ALI_APP_SECRET are not set")
		}
		return nil
	})

	// The response cache is optional; search degrades to demo or empty
	// results without it.
	var cache repository.ResponseCache
	var idempotency pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)
	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			logger.Warn("redis unavailable, response cache disabled",
				slog.String("error", err.Error()),
			)
		} else {
			a.redis = client
			cache = redisrepo.NewResponseCache(client, cfg.ResponseCacheTTL)
			idempotency = redisrepo.NewIdempotencyStore(client, idempotencyTTL)
			healthHandler.RegisterOptional("redis", func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			})
			logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
		}
	}

	historyHandler := event.HistoryHandler(historyRepo, logger)

	var publisher pkgkafka.Publisher
	if cfg.KafkaEnabled {
		producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := pingKafkaWithRetry(ctx, producer, logger); err != nil {
			logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		a.producer = producer
		a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		a.history = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topic:    event.TopicSearchPerformed,
			MinBytes: 1,
			MaxBytes: 10e6,
		}, pkgkafka.IdempotentHandler(idempotency, historyHandler, logger), a.dlq, logger)
		healthHandler.RegisterOptional("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
		publisher = producer
	} else {
		inline := event.NewInlinePublisher(logger)
		inline.Handle(event.TopicSearchPerformed, historyHandler)
		publisher = inline
		logger.Info("kafka disabled, search history is recorded inline")
	}
	eventProducer := event.NewProducer(publisher, logger)

	builder := catalog.NewRequestBuilder(cfg.Credentials(), time.Now)
	gateway := catalog.NewGateway(cfg.Gateway(), logger)
	if !cfg.CatalogConfigured() {
		logger.Warn("catalog credentials missing",
			slog.Bool("demo_on_missing_credentials", cfg.DemoOnMissingCredentials),
		)
	}

	svcs := handler.Services{
		Search: service.NewSearchService(
			builder,
			gateway,
			demo.NewPolicy(cfg.Demo()),
			assembler.New(savedRepo, logger),
			cache,
			eventProducer,
			service.SearchOptions{
				VideoExtraPages:    cfg.VideoSearchExtraPages,
				HotFallbackOnEmpty: cfg.HotFallbackOnEmpty,
				Budget:             cfg.SearchBudget,
			},
			logger,
		),
		Saved: service.NewSavedService(savedRepo, eventProducer, logger),
		Links: service.NewLinkService(builder, gateway, linkRepo, logger),
		Stats: service.NewStatsService(savedRepo, linkRepo, historyRepo, cfg.CatalogConfigured()),
	}

	if cfg.SearchRatePerSecond > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.SearchRatePerSecond, cfg.SearchRateBurst, logger)
	}

	router := handler.NewRouter(svcs, healthHandler, handler.RouterConfig{
		CORS:           cfg.CORS(),
		PprofEnabled:   cfg.PprofEnabled,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		SearchLimiter:  a.limiter,
		RequestTimeout: 30 * time.Second,
		SearchTimeout:  cfg.SearchTimeout(),
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.SearchTimeout() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("application initialized",
		slog.String("environment", cfg.Environment),
		slog.Bool("catalog_configured", cfg.CatalogConfigured()),
		slog.Bool("kafka_enabled", cfg.KafkaEnabled),
		slog.Bool("cache_enabled", cache != nil),
		slog.String("demo_fallback", fmt.Sprintf("missing=%t empty=%t error=%t",
			cfg.DemoOnMissingCredentials, cfg.DemoOnEmpty, cfg.DemoOnError)),
	)
	return a, nil
}

// Run starts the HTTP server and background workers, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.history != nil {
		go func() {
			if err := a.history.Start(ctx); err != nil {
				errCh <- fmt.Errorf("search history consumer: %w", err)
			}
		}()
	}

	if a.limiter != nil {
		go a.limiter.Run(ctx)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown stops components in order: HTTP server, tracer, Kafka consumer,
// Kafka producers, Redis, PostgreSQL.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Error("search history consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// pingKafkaWithRetry pings the producer up to 3 times with 1s/2s backoff and
// ±25% jitter.
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt < 2 {
			base := time.Duration(1<<uint(attempt)) * time.Second
			jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- retry jitter
			wait := base + jitter
			logger.Warn("kafka producer ping failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", 3),
				slog.Duration("backoff", wait),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("kafka ping: context canceled during retry: %w", ctx.Err())
			case <-time.After(wait):
			}
		}
	}
	return fmt.Errorf("kafka producer ping failed after 3 attempts: %w", lastErr)
}
