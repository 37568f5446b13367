package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"statusboard/internal/api"
	"statusboard/internal/board"
	"statusboard/internal/config"
	"statusboard/internal/monitoring"
	"statusboard/internal/render"
	"statusboard/internal/screenshot"
	"statusboard/internal/source"
	"statusboard/internal/storage"
	"statusboard/internal/syncloop"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("could not load config", zap.Error(err))
	}

	// Initialize structured logger
	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	// Initialize Monitoring
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(reg)

	// Initialize Source
	proxies, err := source.NewProxyRotator(cfg.SourceProxies)
	if err != nil {
		logger.Fatal("invalid source proxies", zap.Error(err))
	}
	client, err := source.NewClient(cfg.SourceURL, proxies, logger)
	if err != nil {
		logger.Fatal("invalid source url", zap.Error(err))
	}

	b := board.New(cfg.BoardHeaders)
	var loopOpts []syncloop.Option
	var serverOpts []api.Option

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Storage Layer
	if cfg.RedisAddr != "" {
		redisStore := storage.NewRedisStore(cfg.RedisAddr, cfg.SnapshotTTL)
		defer redisStore.Close()
		if err := redisStore.Ping(ctx); err != nil {
			logger.Warn("redis is not reachable, continuing", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		loopOpts = append(loopOpts, syncloop.WithSnapshotStore(redisStore), syncloop.WithCycleLock(redisStore))
		serverOpts = append(serverOpts, api.WithHealthCheck("redis", redisStore))
	}
	if cfg.PostgresURL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pgStore.Close()
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to prepare postgres schema", zap.Error(err))
		}
		loopOpts = append(loopOpts, syncloop.WithCycleRecorder(pgStore))
		serverOpts = append(serverOpts, api.WithHistory(pgStore), api.WithHealthCheck("postgres", pgStore))
	}

	// Initialize Sync Loop
	loop, err := syncloop.New(syncloop.Config{
		Interval:     cfg.RefreshInterval,
		FetchTimeout: cfg.FetchTimeout,
		Location:     cfg.Location,
	}, client, b, metrics, logger, loopOpts...)
	if err != nil {
		logger.Fatal("could not create sync loop", zap.Error(err))
	}
	loop.Restore(ctx)

	if cfg.ScreenshotEnabled {
		capturer := screenshot.New(cfg.ScreenshotTimeout, logger)
		defer capturer.Close()
		serverOpts = append(serverOpts, api.WithCapturer(capturer))
	}

	// Initialize API Server
	renderer := render.NewRenderer(cfg.BoardTitle, cfg.RefreshInterval, cfg.Location)
	server := api.NewServer(cfg, b, loop, renderer, metrics, logger, serverOpts...)

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Start(ctx)
	}()

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started",
		zap.String("port", cfg.ServerPort),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
		zap.Int("proxies", proxies.Len()),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancel()
	<-loopDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}

func newLogger(level string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if level == "debug" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
