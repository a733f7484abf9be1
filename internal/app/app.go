package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coursehub/wishlist/internal/catalog"
	"github.com/coursehub/wishlist/internal/config"
	"github.com/coursehub/wishlist/internal/event"
	handler "github.com/coursehub/wishlist/internal/handler/http"
	redisrepo "github.com/coursehub/wishlist/internal/repository/redis"
	"github.com/coursehub/wishlist/internal/service"
	"github.com/coursehub/wishlist/internal/view"
	"github.com/coursehub/wishlist/pkg/database"
	"github.com/coursehub/wishlist/pkg/health"
	"github.com/coursehub/wishlist/pkg/httpclient"
	pkgkafka "github.com/coursehub/wishlist/pkg/kafka"
	"github.com/coursehub/wishlist/pkg/tracing"
)

const sweepInterval = time.Minute

// App wires together all dependencies and runs the wishlist service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	views          *view.Registry
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "wishlist",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize Redis client.
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	database.SetSlowCommandLogging(cfg.RedisSlowThreshold, logger)
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Course API client with circuit breaker.
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.CatalogTimeout
	httpCfg.MaxRetries = cfg.CatalogMaxRetries
	baseClient := httpclient.New(httpCfg)
	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "course-api",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     cfg.CBInterval,
		Timeout:      cfg.CBTimeout,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger).
		WithFallback(catalog.CircuitOpenFallback)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Duration("timeout", cbCfg.Timeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)

	// Build the dependency graph.
	store := redisrepo.NewWishlistRepository(rdb)
	counter := service.NewCounterPublisher(
		redisrepo.NewCounterRepository(rdb),
		event.NewProducer(producer, logger),
		logger,
	)
	fetcher := catalog.NewClient(catalog.NewRateLimitedGetter(cbClient, cfg.CatalogRPS, cfg.CatalogBurst))
	locales := catalog.NewLocales(cfg.CourseAPIURLs, cfg.DefaultLocale)

	views := view.NewRegistry(view.Deps{
		Store:       store,
		Fetcher:     fetcher,
		Counter:     counter,
		Concurrency: cfg.FetchConcurrency,
		Logger:      logger,
	}, locales)
	wishlistService := service.NewWishlistService(store, counter, fetcher, locales, cfg.FetchConcurrency, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	pageHandler, err := handler.NewPageHandler(views, logger)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("init page handler: %w", err)
	}
	router := handler.NewRouter(
		handler.NewWishlistHandler(views, wishlistService, logger),
		pageHandler,
		healthHandler,
		cfg.JWTSecret,
		logger,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      75 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		producer:       producer,
		views:          views,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and the idle view sweeper and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go a.views.RunSweeper(ctx, sweepInterval, a.cfg.SessionIdle())

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown drains HTTP, flushes spans, then closes Kafka and Redis.
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

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
