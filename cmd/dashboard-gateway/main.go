package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/noah-isme/lms-admin-gateway/api/swagger"
	"github.com/noah-isme/lms-admin-gateway/internal/handler"
	"github.com/noah-isme/lms-admin-gateway/internal/repository"
	"github.com/noah-isme/lms-admin-gateway/internal/service"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
	"github.com/noah-isme/lms-admin-gateway/pkg/cache"
	"github.com/noah-isme/lms-admin-gateway/pkg/config"
	"github.com/noah-isme/lms-admin-gateway/pkg/logger"
)

// @title LMS Admin Gateway
// @version 1.0.0
// @description Backend for the learning analytics admin dashboard
// @BasePath /api/v1
// @schemes http

const sweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	client := upstream.New(upstream.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
		Logger:  logr,
		Metrics: metrics,
	})

	sessions, cacheRepo, closeStores := stores(cfg, logr)
	defer closeStores()

	var publicCache *service.CacheService
	if cfg.Cache.PublicTTL > 0 {
		publicCache = service.NewCacheService(cacheRepo, metrics, cfg.Cache.PublicTTL, logr)
	}

	validate := service.NewValidator()
	auth := service.NewAuthService(client, sessions, validate, logr, service.AuthConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Issuer: cfg.Session.Issuer,
	})
	registry := service.NewControllerRegistry(client, service.ControllerOptions{
		PageSize:      cfg.Table.PageSize,
		RetryAttempts: cfg.Upstream.RetryAttempts,
		RetryDelay:    cfg.Upstream.RetryDelay,
		Logger:        logr,
		Observer:      metrics,
		Validator:     validate,
	}, metrics)
	auth.OnLogout(registry.Drop)
	go sweepSessions(ctx, sessions, registry, cfg.Session.TTL, logr)

	retry := service.RetryPolicy{Attempts: cfg.Upstream.RetryAttempts, Delay: cfg.Upstream.RetryDelay, Observer: metrics}
	svc := handler.Services{
		Auth:      auth,
		Registry:  registry,
		Dashboard: service.NewDashboardService(client, retry, logr),
		Reports:   service.NewReportService(client, registry, validate, logr),
		Logs:      service.NewLogsService(client, cfg.Logs.Enabled),
		Settings:  service.NewSettingsService(client, logr),
		Contact:   service.NewContactService(client, logr),
		Public:    service.NewPublicService(client, publicCache),
		Exports:   service.NewExportService(registry, cfg.Export.Enabled, logr),
		Metrics:   metrics,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.NewRouter(cfg, svc, handler.NewLimits(cfg.RateLimit), logr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logr.Warn("server shutdown", zap.Error(err))
		}
	}()

	logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// stores picks Redis for sessions and the public cache when enabled, and
// in-memory stores otherwise.
func stores(cfg *config.Config, logr *zap.Logger) (service.SessionStore, service.CacheRepository, func()) {
	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	if rdb != nil {
		repo := repository.NewRedisSessionRepository(rdb, logr)
		return repo, repository.NewRedisCacheRepository(rdb), func() { _ = repo.Close() }
	}

	logr.Info("redis disabled, using in-memory stores")
	return repository.NewMemorySessionRepository(time.Now), repository.NewMemoryCacheRepository(time.Now), func() {}
}

type sweeper interface {
	Sweep() []string
}

// sweepSessions releases page state of sessions that ended without a logout
// until ctx ends. Expired in-memory sessions are removed first; page state
// idle for a whole session TTL covers sessions Redis expired on its own.
func sweepSessions(ctx context.Context, sessions service.SessionStore, registry *service.ControllerRegistry, ttl time.Duration, logr *zap.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if mem, ok := sessions.(sweeper); ok {
				expired := mem.Sweep()
				for _, id := range expired {
					registry.Drop(id)
				}
				if len(expired) > 0 {
					logr.Debug("expired sessions swept", zap.Int("count", len(expired)))
				}
			}
			if n := registry.SweepIdle(ttl); n > 0 {
				logr.Debug("idle page state swept", zap.Int("count", n))
			}
		}
	}
}
