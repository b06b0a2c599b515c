package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/assistant"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/notify"
	"github.com/hackgods/clinic-scheduling/internal/observability/metrics"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/pkg/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("api-server starting up",
		"env", cfg.Env,
		"http_port", cfg.HTTPPort,
		"store", cfg.StoreBackend,
		"collision", cfg.Collision.String(),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.OpenStore(rootCtx, cfg)
	if err != nil {
		logger.Error("store setup error", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Redis only guards cross-replica booking; a single replica runs fine without it.
	var rdb *redis.Client
	var locker redisclient.Locker
	if cfg.LockingEnabled() {
		rdb, err = redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			logger.Warn("redis unavailable, slot locking disabled", "error", err)
			rdb = nil
		} else {
			locker = redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
			defer func() {
				if err := rdb.Close(); err != nil {
					logger.Warn("error closing redis", "error", err)
				}
			}()
			logger.Info("connected to Redis")
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var ai appointment.Assistant
	if cfg.GeminiAPIKey != "" {
		gen, err := assistant.NewGeminiGenerator(rootCtx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("gemini setup error", "error", err)
			os.Exit(1)
		}
		defer gen.Close()
		ai = assistant.New(gen, logger)
	} else {
		logger.Info("GEMINI_API_KEY not set, scheduling assistant disabled")
	}

	feed := notify.NewFeed(100, logger)
	svc := appointment.NewService(appointment.Deps{
		Store:     store.Snapshots,
		Events:    store.Events,
		Locker:    locker,
		Notifier:  feed,
		Assistant: ai,
		Metrics:   metrics.NewSchedulingMetrics(reg),
		Logger:    logger,
	}, appointment.OptionsFromConfig(cfg))

	if err := svc.Load(rootCtx); err != nil {
		logger.Error("schedule load error", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterConfig{
		Service:  svc,
		Feed:     feed,
		PgPool:   store.Pool,
		Redis:    rdb,
		Gatherer: reg,
		Logger:   logger,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // assistant calls are slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
