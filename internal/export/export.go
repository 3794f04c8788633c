// Package export implements the batch precomputation job. It walks the
// client roster, resolves every service-area token through the provider
// chain, and writes the versioned bundle artifact the runtime serves from.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/service-area-service/internal/bundle"
	"github.com/couchcryptid/service-area-service/internal/domain"
	"github.com/couchcryptid/service-area-service/internal/observability"
	"github.com/couchcryptid/service-area-service/internal/store"
)

// Job resolves the whole roster and writes the bundle artifact.
type Job struct {
	store    store.ClientStore
	resolver domain.AreaResolver
	outPath  string
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewJob creates an export job writing to outPath.
func NewJob(s store.ClientStore, r domain.AreaResolver, outPath string, logger *slog.Logger, metrics *observability.Metrics) *Job {
	return &Job{
		store:    s,
		resolver: r,
		outPath:  outPath,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run executes one full export. Clients are processed sequentially so the
// resolver's pacing bounds total provider load; per-token failures degrade
// to fewer polygons rather than failing the run. The artifact is written
// only after every client has been processed.
func (j *Job) Run(ctx context.Context) (*bundle.Bundle, error) {
	start := time.Now()

	clients, err := j.store.Clients(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}

	b := &bundle.Bundle{
		Version:     bundle.Version,
		GeneratedAt: domain.Now(),
		ClientCount: len(clients),
		Clients:     make([]bundle.Client, 0, len(clients)),
	}

	for _, c := range clients {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.Clients = append(b.Clients, j.exportClient(ctx, c))
	}

	if err := bundle.Write(j.outPath, b); err != nil {
		return nil, err
	}

	j.metrics.ExportDuration.Observe(time.Since(start).Seconds())
	j.metrics.ExportClients.Set(float64(len(clients)))
	j.logger.Info("export complete",
		"clients", len(clients),
		"path", j.outPath,
		"duration", time.Since(start))
	return b, nil
}

func (j *Job) exportClient(ctx context.Context, c domain.Client) bundle.Client {
	tokens := domain.CapTokens(domain.NormalizeServiceArea(c.ServiceArea), domain.MaxTokensPerClient)
	out := bundle.Client{
		Name:        c.Name,
		Industry:    c.Industry,
		Location:    c.Location,
		Lat:         c.Lat,
		Lng:         c.Lng,
		ServiceArea: c.ServiceArea,
		Polygons:    make([]bundle.Polygon, 0, len(tokens)),
	}

	for _, token := range tokens {
		area, err := j.resolver.Resolve(ctx, token)
		if err != nil {
			if !errors.Is(err, domain.ErrNoArea) {
				j.logger.Warn("token resolution failed", "client", c.Name, "token", token, "error", err)
			}
			continue
		}
		out.Polygons = append(out.Polygons, bundle.Polygon{
			Entry:   area.Token,
			Label:   area.Label,
			Feature: area.Feature,
		})
	}

	j.logger.Info("client exported", "client", c.Name, "tokens", len(tokens), "polygons", len(out.Polygons))
	return out
}
