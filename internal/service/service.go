// Package service is the interactive runtime core. It answers service-area
// requests from the precomputed bundle when one is available and falls back
// to live provider resolution otherwise, always producing a renderable
// bundle for known clients.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/service-area-service/internal/bundle"
	"github.com/couchcryptid/service-area-service/internal/compose"
	"github.com/couchcryptid/service-area-service/internal/domain"
	"github.com/couchcryptid/service-area-service/internal/observability"
	"github.com/couchcryptid/service-area-service/internal/store"
)

// ErrClientNotFound reports a request for a client absent from the roster.
var ErrClientNotFound = errors.New("client not found")

// Service resolves and composes service areas for roster clients.
type Service struct {
	store           store.ClientStore
	precomputed     *bundle.Bundle
	resolver        domain.AreaResolver
	composer        *compose.Composer
	maxTokens       int
	prefetchTimeout time.Duration
	logger          *slog.Logger
	metrics         *observability.Metrics
}

// New creates a Service. precomputed may be nil when no bundle artifact has
// been exported yet; every request then resolves live.
func New(s store.ClientStore, precomputed *bundle.Bundle, r domain.AreaResolver, c *compose.Composer, maxTokens int, prefetchTimeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:           s,
		precomputed:     precomputed,
		resolver:        r,
		composer:        c,
		maxTokens:       maxTokens,
		prefetchTimeout: prefetchTimeout,
		logger:          logger,
		metrics:         metrics,
	}
}

// Clients lists the roster.
func (s *Service) Clients(ctx context.Context) ([]domain.Client, error) {
	return s.store.Clients(ctx)
}

// ServiceArea returns the render bundle for the named client. Precomputed
// polygons win over live resolution; a client whose tokens all fail still
// gets the generic location bundle rather than an error.
func (s *Service) ServiceArea(ctx context.Context, name string) (*compose.Bundle, error) {
	client, ok, err := s.store.Client(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("looking up client: %w", err)
	}
	if !ok {
		return nil, ErrClientNotFound
	}

	areas, source := s.resolvedAreas(ctx, client)

	b := s.composer.Compose(areas)
	if b == nil {
		b = s.composer.FallbackBundle(client.Lng, client.Lat)
		source = "fallback"
	}

	s.metrics.ServiceAreaRequests.WithLabelValues(source).Inc()
	s.logger.Debug("service area served",
		"client", name,
		"source", source,
		"outlines", len(b.Outlines))
	return b, nil
}

func (s *Service) resolvedAreas(ctx context.Context, client domain.Client) ([]domain.ResolvedArea, string) {
	if pc, ok := s.precomputed.Lookup(client.Name); ok && len(pc.Polygons) > 0 {
		areas := make([]domain.ResolvedArea, 0, len(pc.Polygons))
		for _, p := range pc.Polygons {
			// The bundle file is externally produced; entries without a
			// feature cannot render and are dropped.
			if p.Feature == nil {
				s.logger.Warn("precomputed polygon has no feature", "client", client.Name, "entry", p.Entry)
				continue
			}
			areas = append(areas, domain.ResolvedArea{Token: p.Entry, Label: p.Label, Feature: p.Feature})
		}
		if len(areas) > 0 {
			return areas, "precomputed"
		}
	}

	tokens := domain.CapTokens(domain.NormalizeServiceArea(client.ServiceArea), s.maxTokens)
	return s.resolveTokens(ctx, tokens), "live"
}

// resolveTokens resolves each token in its own goroutine and joins the
// successes back in token order, so rendering is stable across requests.
func (s *Service) resolveTokens(ctx context.Context, tokens []string) []domain.ResolvedArea {
	results := make([]*domain.ResolvedArea, len(tokens))

	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			area, err := s.resolver.Resolve(ctx, token)
			if err != nil {
				if !errors.Is(err, domain.ErrNoArea) {
					s.logger.Warn("token resolution failed", "token", token, "error", err)
				}
				return
			}
			results[i] = &area
		}()
	}
	wg.Wait()

	areas := make([]domain.ResolvedArea, 0, len(tokens))
	for _, r := range results {
		if r != nil {
			areas = append(areas, *r)
		}
	}
	return areas
}

// PrefetchAll warms the resolver cache for every roster client in one
// best-effort pass. Resolution runs concurrently under the configured
// overall timeout; whatever has not finished by then is abandoned.
func (s *Service) PrefetchAll(ctx context.Context) {
	start := time.Now()
	s.metrics.PrefetchRunning.Set(1)
	defer func() {
		s.metrics.PrefetchRunning.Set(0)
		s.metrics.PrefetchDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, s.prefetchTimeout)
	defer cancel()

	clients, err := s.store.Clients(ctx)
	if err != nil {
		s.logger.Warn("prefetch skipped, roster unavailable", "error", err)
		return
	}

	tokens := make([]string, 0, len(clients))
	seen := make(map[string]struct{})
	for _, c := range clients {
		for _, token := range domain.CapTokens(domain.NormalizeServiceArea(c.ServiceArea), s.maxTokens) {
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
	}

	var wg sync.WaitGroup
	for _, token := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.resolver.Resolve(ctx, token)
		}()
	}
	wg.Wait()

	s.logger.Info("prefetch complete",
		"clients", len(clients),
		"tokens", len(tokens),
		"duration", time.Since(start))
}

// CheckReadiness reports whether the roster can be served.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if _, err := s.store.Clients(ctx); err != nil {
		return fmt.Errorf("roster unavailable: %w", err)
	}
	return nil
}
