// Package resolver implements the service-area provider chain: cache, then
// primary geocoding with polygon lookup, then postal boundary queries, then
// the government tabulation-area service, then synthetic fallback geometry.
// One implementation serves both the offline export job and the interactive
// runtime; they differ only in cache backend, pacing, and retry policy.
package resolver

import (
	"context"
	"log/slog"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/service-area-service/internal/cache"
	"github.com/couchcryptid/service-area-service/internal/domain"
	"github.com/couchcryptid/service-area-service/internal/observability"
)

// fallbackRadiusKm is the half-width of synthesized fallback squares.
const fallbackRadiusKm = 5

// Options tune a Chain for its call site.
type Options struct {
	// Cache consulted before any provider and written on every success.
	Cache cache.Store

	// RequestDelay is the minimum spacing between external calls,
	// respecting third-party usage policies. Zero disables pacing.
	RequestDelay time.Duration

	// Attempts is the per-provider call budget. The batch path uses 3;
	// the interactive path uses 1 (any failure falls straight through to
	// the next provider).
	Attempts int

	// RetryBackoff is the wait between attempts.
	RetryBackoff time.Duration

	// CacheNegatives records exhausted tokens in the cache so they are not
	// re-walked. Only the batch export path enables this; the interactive
	// runtime leaves it off so a transiently failed token can recover on a
	// later request.
	CacheNegatives bool
}

// Chain resolves tokens through the provider fallback chain.
type Chain struct {
	searcher domain.PlaceSearcher
	postal   domain.PostalBoundarySource
	zcta     domain.ZCTASource
	cache          cache.Store
	cacheNegatives bool
	limiter        *rate.Limiter
	attempts       int
	backoff        time.Duration
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// NewChain creates a resolver. All three providers are required; the cache
// may be nil, which disables caching (every call walks the chain).
func NewChain(searcher domain.PlaceSearcher, postal domain.PostalBoundarySource, zcta domain.ZCTASource, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Chain {
	limit := rate.Inf
	if opts.RequestDelay > 0 {
		limit = rate.Every(opts.RequestDelay)
	}
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return &Chain{
		searcher:       searcher,
		postal:         postal,
		zcta:           zcta,
		cache:          opts.Cache,
		cacheNegatives: opts.CacheNegatives,
		limiter:        rate.NewLimiter(limit, 1),
		attempts:       attempts,
		backoff:        opts.RetryBackoff,
		logger:         logger,
		metrics:        metrics,
	}
}

// Resolve maps one token to a labeled polygon, trying each provider in
// priority order and returning the first success. The result is written to
// the cache before returning. Returns domain.ErrNoArea when the chain is
// exhausted without even coordinates to synthesize from.
func (c *Chain) Resolve(ctx context.Context, token string) (domain.ResolvedArea, error) {
	if area, negative, ok := c.fromCache(ctx, token); ok {
		if negative {
			return domain.ResolvedArea{}, domain.ErrNoArea
		}
		return area, nil
	}

	isZip := domain.IsZip(token)

	place := c.search(ctx, token)
	label := token
	if isZip && place != nil {
		label = domain.ZipLabel(token, place.DisplayName)
	}

	if f := domain.EnsureFeature(c.lookup(ctx, place)); f != nil {
		return c.success(ctx, token, label, f), nil
	}

	if isZip {
		if b := c.postalBoundary(ctx, token); b != nil && b.Feature != nil {
			return c.success(ctx, token, domain.BoundaryLabel(token, b.PlaceName), b.Feature), nil
		}
		if f := c.zctaPolygon(ctx, token); f != nil {
			return c.success(ctx, token, token, f), nil
		}
	}

	// Coordinates but no boundary from any provider: synthesize a square
	// so the token still renders.
	if place != nil {
		c.metrics.ResolveRequests.WithLabelValues("synthetic", "success").Inc()
		return c.success(ctx, token, label, domain.SquareFeature(place.Lon, place.Lat, fallbackRadiusKm)), nil
	}

	c.metrics.TokensFailed.Inc()
	c.storeNegative(ctx, token)
	return domain.ResolvedArea{}, domain.ErrNoArea
}

func (c *Chain) fromCache(ctx context.Context, token string) (area domain.ResolvedArea, negative, ok bool) {
	if c.cache == nil {
		return domain.ResolvedArea{}, false, false
	}
	e, ok, err := c.cache.Get(ctx, token)
	if err != nil {
		c.logger.Warn("cache read failed", "token", token, "error", err)
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return domain.ResolvedArea{}, false, false
	}
	if !ok {
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return domain.ResolvedArea{}, false, false
	}
	if e == nil {
		c.metrics.CacheLookups.WithLabelValues("negative").Inc()
		return domain.ResolvedArea{}, true, true
	}
	c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return domain.ResolvedArea{Token: token, Label: e.Label, Feature: e.Feature}, false, true
}

func (c *Chain) success(ctx context.Context, token, label string, feature *geojson.Feature) domain.ResolvedArea {
	c.metrics.TokensResolved.Inc()
	if c.cache != nil {
		if err := c.cache.Set(ctx, token, &cache.Entry{Label: label, Feature: feature}); err != nil {
			c.logger.Warn("cache write failed", "token", token, "error", err)
		}
	}
	return domain.ResolvedArea{Token: token, Label: label, Feature: feature}
}

func (c *Chain) storeNegative(ctx context.Context, token string) {
	if c.cache == nil || !c.cacheNegatives {
		return
	}
	if err := c.cache.Set(ctx, token, nil); err != nil {
		c.logger.Warn("cache write failed", "token", token, "error", err)
	}
}

func (c *Chain) search(ctx context.Context, token string) *domain.Place {
	var place *domain.Place
	err := c.attempt(ctx, "nominatim", func(callCtx context.Context) error {
		var err error
		place, err = c.searcher.SearchPlace(callCtx, token)
		return err
	})
	switch {
	case err != nil:
		c.logger.Warn("place search failed", "token", token, "error", err)
		c.metrics.ResolveRequests.WithLabelValues("nominatim", "error").Inc()
		return nil
	case place == nil:
		c.metrics.ResolveRequests.WithLabelValues("nominatim", "empty").Inc()
		return nil
	}
	c.metrics.ResolveRequests.WithLabelValues("nominatim", "success").Inc()
	return place
}

func (c *Chain) lookup(ctx context.Context, place *domain.Place) *geojson.Geometry {
	if place == nil || place.OSMType == "" || place.OSMID == 0 {
		return nil
	}
	var geometry *geojson.Geometry
	err := c.attempt(ctx, "nominatim", func(callCtx context.Context) error {
		var err error
		geometry, err = c.searcher.LookupPolygon(callCtx, place)
		return err
	})
	if err != nil {
		c.logger.Warn("polygon lookup failed", "osm_type", place.OSMType, "osm_id", place.OSMID, "error", err)
		return nil
	}
	return geometry
}

func (c *Chain) postalBoundary(ctx context.Context, zip string) *domain.Boundary {
	var b *domain.Boundary
	err := c.attempt(ctx, "overpass", func(callCtx context.Context) error {
		var err error
		b, err = c.postal.PostalBoundary(callCtx, zip)
		return err
	})
	switch {
	case err != nil:
		c.logger.Warn("postal boundary query failed", "zip", zip, "error", err)
		c.metrics.ResolveRequests.WithLabelValues("overpass", "error").Inc()
		return nil
	case b == nil:
		c.metrics.ResolveRequests.WithLabelValues("overpass", "empty").Inc()
		return nil
	}
	c.metrics.ResolveRequests.WithLabelValues("overpass", "success").Inc()
	return b
}

func (c *Chain) zctaPolygon(ctx context.Context, zip string) *geojson.Feature {
	var f *geojson.Feature
	err := c.attempt(ctx, "census", func(callCtx context.Context) error {
		var err error
		f, err = c.zcta.ZCTAPolygon(callCtx, zip)
		return err
	})
	switch {
	case err != nil:
		c.logger.Warn("tabulation area query failed", "zip", zip, "error", err)
		c.metrics.ResolveRequests.WithLabelValues("census", "error").Inc()
		return nil
	case f == nil:
		c.metrics.ResolveRequests.WithLabelValues("census", "empty").Inc()
		return nil
	}
	c.metrics.ResolveRequests.WithLabelValues("census", "success").Inc()
	return f
}

// attempt runs one paced provider call, retrying transient failures up to
// the configured budget with a fixed backoff between tries.
func (c *Chain) attempt(ctx context.Context, provider string, fn func(context.Context) error) error {
	var err error
	for i := 0; i < c.attempts; i++ {
		if i > 0 && !sleepWithContext(ctx, c.backoff) {
			return ctx.Err()
		}
		if waitErr := c.limiter.Wait(ctx); waitErr != nil {
			return waitErr
		}

		start := time.Now()
		err = fn(ctx)
		c.metrics.ProviderDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

var _ domain.AreaResolver = (*Chain)(nil)
