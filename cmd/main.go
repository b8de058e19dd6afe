package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/phq9/internal/adapters/http/api"
	"github.com/okian/phq9/internal/adapters/http/swagger"
	"github.com/okian/phq9/internal/adapters/ratelimit"
	app "github.com/okian/phq9/internal/app"
	"github.com/okian/phq9/internal/config"
	"github.com/okian/phq9/internal/domain/model"
	"github.com/okian/phq9/pkg/logger"
	"github.com/okian/phq9/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> .env -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
}

// run starts the service and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	limiter, closeLimiter := newLimiter(ctx, cfg, log)
	defer closeLimiter()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, limiter),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newService maps configuration onto service options.
func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	policy, err := model.ParseDuplicatePolicy(cfg.DuplicatePolicy)
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(log),
		app.WithSheetURL(cfg.SheetURL),
		app.WithFetchTimeout(cfg.SheetTimeout()),
		app.WithMaxBodyBytes(cfg.SheetMaxBytes),
		app.WithUserAgent(cfg.SheetUserAgent),
		app.WithLayout(model.Layout{IdentityColumns: cfg.IdentityColumns, ReservedColumns: cfg.ReservedColumns}),
		app.WithDuplicatePolicy(policy),
		app.WithPhrasesPath(cfg.PhrasesPath),
		app.WithNoRepeat(cfg.NoRepeatPhrases),
		app.WithPersonalization(cfg.PersonalizeImpressions),
	), nil
}

// newLimiter connects to Redis when rate limiting is enabled. An unreachable
// server disables limiting instead of failing startup.
func newLimiter(ctx context.Context, cfg *config.Config, log logger.Logger) (ratelimit.Limiter, func()) {
	noop := func() {}
	if !cfg.RateLimitEnabled {
		return nil, noop
	}
	rdb, err := ratelimit.NewRedisClient(ctx, ratelimit.ClientOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn(ctx, "redis unavailable; rate limiting disabled", logger.String("addr", cfg.RedisAddr), logger.Error(err))
		return nil, noop
	}
	log.Info(ctx, "rate limiting enabled",
		logger.String("redis", cfg.RedisAddr),
		logger.Int("capacity", cfg.RateLimitCapacity),
	)
	lim := ratelimit.NewRedisLimiter(rdb,
		ratelimit.WithCapacity(cfg.RateLimitCapacity),
		ratelimit.WithRefill(cfg.RateLimitRefillTokens, cfg.RateLimitRefillInterval()),
		ratelimit.WithTTL(cfg.RateLimitTTL()),
		ratelimit.WithPrefix(cfg.RateLimitPrefix),
	)
	return lim, func() { _ = rdb.Close() }
}

// newHandler builds the mux with every route and the shared middleware.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, limiter ratelimit.Limiter) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	opts := []api.Option{api.WithAllowedOrigins(cfg.AllowedOrigins())}
	if limiter != nil {
		opts = append(opts, api.WithLimiter(limiter), api.WithTrustProxy(cfg.RateLimitTrustProxy))
	}
	apiServer := api.NewServer(svc, svc, opts...)
	apiServer.Register(ctx, mux)
	return apiServer.Handler(mux)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
