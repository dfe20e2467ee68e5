package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pabloERSH/nutrition-service/config"
	"github.com/pabloERSH/nutrition-service/middlewares"
	"github.com/pabloERSH/nutrition-service/observability"
	"github.com/pabloERSH/nutrition-service/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := observability.NewLogger(cfg)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg)
	if err != nil {
		logger.Error("tracing init failed", "error", err)
		os.Exit(1)
	}

	db, err := config.OpenDB(cfg)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}

	limiter := newLimiterStore(ctx, cfg)
	r := routes.SetupRouter(db, cfg, limiter, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(r, "nutrition-service"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newLimiterStore uses Redis when REDIS_ADDR is set so limits hold across
// instances, and in-process buckets otherwise.
func newLimiterStore(ctx context.Context, cfg *config.Config) middlewares.LimiterStore {
	policy := middlewares.LimitPolicy{RPM: cfg.RateLimitRPM, Burst: cfg.RateLimitBurst}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, rate limiter will fail open until it recovers", "addr", cfg.RedisAddr, "error", err)
		}
		return middlewares.NewRedisLimiterStore(client, policy)
	}

	store := middlewares.NewMemoryLimiterStore(policy)
	go store.Cleanup(ctx)
	return store
}
