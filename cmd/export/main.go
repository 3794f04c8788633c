// Command export runs the batch precomputation job: it fetches the client
// roster, resolves every service-area entry through the full provider chain
// with pacing and retries, and writes the versioned service-areas bundle the
// server reads at startup.
//
// Usage:
//
//	go run ./cmd/export -out data/service-areas.json
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/service-area-service/internal/adapter/census"
	"github.com/couchcryptid/service-area-service/internal/adapter/nominatim"
	"github.com/couchcryptid/service-area-service/internal/adapter/overpass"
	"github.com/couchcryptid/service-area-service/internal/cache"
	"github.com/couchcryptid/service-area-service/internal/config"
	"github.com/couchcryptid/service-area-service/internal/export"
	"github.com/couchcryptid/service-area-service/internal/observability"
	"github.com/couchcryptid/service-area-service/internal/resolver"
	"github.com/couchcryptid/service-area-service/internal/store"
)

func main() {
	out := flag.String("out", "", "output path for the bundle (overrides BUNDLE_PATH)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *out != "" {
		cfg.BundlePath = *out
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	chain := resolver.NewChain(
		nominatim.NewClient(cfg.NominatimBaseURL, cfg.UserAgent, cfg.ProviderTimeout, logger),
		overpass.NewClient(cfg.OverpassBaseURL, cfg.UserAgent, cfg.ProviderTimeout, logger),
		census.NewClient(cfg.CensusBaseURL, cfg.UserAgent, cfg.ProviderTimeout, logger),
		resolver.Options{
			Cache:          cache.NewMemory(),
			RequestDelay:   cfg.RequestDelay,
			Attempts:       cfg.RetryCount,
			RetryBackoff:   cfg.RetryBackoff,
			CacheNegatives: true,
		},
		logger, metrics)

	roster := store.NewCSVStore(cfg.SheetCSVURL, cfg.ProviderTimeout, logger)
	job := export.NewJob(roster, chain, cfg.BundlePath, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := job.Run(ctx); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
}
