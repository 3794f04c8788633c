package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/service-area-service/internal/adapter/census"
	httpadapter "github.com/couchcryptid/service-area-service/internal/adapter/http"
	"github.com/couchcryptid/service-area-service/internal/adapter/nominatim"
	"github.com/couchcryptid/service-area-service/internal/adapter/overpass"
	"github.com/couchcryptid/service-area-service/internal/bundle"
	"github.com/couchcryptid/service-area-service/internal/cache"
	"github.com/couchcryptid/service-area-service/internal/compose"
	"github.com/couchcryptid/service-area-service/internal/config"
	"github.com/couchcryptid/service-area-service/internal/observability"
	"github.com/couchcryptid/service-area-service/internal/resolver"
	"github.com/couchcryptid/service-area-service/internal/service"
	"github.com/couchcryptid/service-area-service/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	precomputed, err := bundle.Load(cfg.BundlePath)
	if err != nil {
		// A broken artifact should not keep the service down; live
		// resolution still works.
		logger.Warn("precomputed bundle unavailable", "path", cfg.BundlePath, "error", err)
	} else if precomputed != nil {
		logger.Info("precomputed bundle loaded",
			"path", cfg.BundlePath,
			"clients", precomputed.ClientCount,
			"generated_at", precomputed.GeneratedAt)
	}

	resolveCache, err := newCache(cfg)
	if err != nil {
		logger.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}

	chain := resolver.NewChain(
		nominatim.NewClient(cfg.NominatimBaseURL, cfg.UserAgent, cfg.ProviderTimeout, logger),
		overpass.NewClient(cfg.OverpassBaseURL, cfg.UserAgent, cfg.ProviderTimeout, logger),
		census.NewClient(cfg.CensusBaseURL, cfg.UserAgent, cfg.ProviderTimeout, logger),
		resolver.Options{
			Cache:        resolveCache,
			RequestDelay: cfg.RequestDelay,
			Attempts:     1,
		},
		logger, metrics)

	roster := store.NewCSVStore(cfg.SheetCSVURL, cfg.ProviderTimeout, logger)
	svc := service.New(roster, precomputed, chain, compose.New(logger), cfg.MaxTokensPerClient, cfg.PrefetchTimeout, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if cfg.PrefetchEnabled {
		go svc.PrefetchAll(ctx)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

func newCache(cfg *config.Config) (cache.Store, error) {
	switch cfg.CacheBackend {
	case config.CacheMemory:
		return cache.NewMemory(), nil
	case config.CacheFile:
		return cache.NewFile(cfg.CacheFile), nil
	case config.CacheRedis:
		return cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})), nil
	default:
		return nil, errors.New("unknown cache backend")
	}
}
