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

	"github.com/redis/go-redis/v9"

	"github.com/okian/valuematrix/internal/adapters/http/api"
	"github.com/okian/valuematrix/internal/adapters/repository"
	app "github.com/okian/valuematrix/internal/app"
	"github.com/okian/valuematrix/internal/config"
	"github.com/okian/valuematrix/internal/domain/dedupe"
	"github.com/okian/valuematrix/internal/domain/ranking"
	"github.com/okian/valuematrix/pkg/logger"
	"github.com/okian/valuematrix/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	redisPingTimeout          = 3 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Init(metrics.WithNamespace(cfg.MetricsNamespace), metrics.WithSubsystem(cfg.MetricsSubsystem))

	opts, cleanup, err := serviceOptions(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := newHTTPServer(ctx, cfg, svc)
	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a server failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// serviceOptions translates configuration into service options, connecting
// the Postgres decision log and the Redis deduper when configured. cleanup
// releases what was connected here and not handed to the service.
func serviceOptions(ctx context.Context, cfg *config.Config, log logger.Logger) ([]app.Option, func(), error) {
	kind, err := ranking.ParseKind(cfg.DefaultStrategy)
	if err != nil {
		return nil, nil, fmt.Errorf("default strategy: %w", err)
	}
	scenarioMin, scenarioMax := cfg.ScenarioLatency()

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithWriteRetries(cfg.WriteRetries),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithShardCount(cfg.ShardCount),
		app.WithIdleTimeout(cfg.IdleTimeout()),
		app.WithItemLimits(cfg.MinItems, cfg.MaxItems),
		app.WithDefaultStrategy(kind),
		app.WithRefinement(cfg.RefinementSize, cfg.FinalTop),
		app.WithMaxTopLimit(cfg.MaxTopLimit),
		app.WithScenarioLatencyRange(scenarioMin, scenarioMax),
		app.WithEngineOptions(
			ranking.WithMaxTargetComparisons(cfg.MaxTargetComparisons),
			ranking.WithKFactor(cfg.EloKFactor),
			ranking.WithInitialRating(cfg.EloInitialRating),
			ranking.WithTieBreakCutoff(cfg.TieBreakCutoff),
			ranking.WithMaxTieBreakRounds(cfg.MaxTieBreakRounds),
		),
	}

	cleanup := func() {}

	if cfg.DecisionLogDSN != "" {
		decisionLog, err := repository.NewPostgresDecisionLog(ctx, cfg.DecisionLogDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open decision log: %w", err)
		}
		log.Info(ctx, "using postgres decision log")
		opts = append(opts, app.WithDecisionLog(decisionLog))
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Info(ctx, "using redis deduper", logger.String("addr", cfg.RedisAddr))
		opts = append(opts, app.WithDeduper(dedupe.NewRedisDeduper(client)))
		cleanup = func() { _ = client.Close() }
	}

	return opts, cleanup, nil
}

// newHTTPServer builds the HTTP server with every route registered.
func newHTTPServer(ctx context.Context, cfg *config.Config, svc *app.Service) *http.Server {
	apiServer := api.NewServer(svc, svc, api.WithCORSOrigins(cfg.CORSAllowedOrigins...))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(ctx),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
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

type statsRefresher interface {
	GetStats(ctx context.Context) map[string]interface{}
}

// startServiceMetricsUpdater refreshes the session and worker gauges, which
// the service updates whenever its stats are read.
func startServiceMetricsUpdater(ctx context.Context, svc statsRefresher) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats(ctx)
		}
	}
}
