package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// service-area resolution pipeline.
type Metrics struct {
	// Resolver metrics.
	ResolveRequests  *prometheus.CounterVec   // labels: provider={nominatim,overpass,census,synthetic}, outcome={success,error,empty}
	CacheLookups     *prometheus.CounterVec   // labels: result={hit,miss,negative}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	TokensResolved   prometheus.Counter
	TokensFailed     prometheus.Counter

	// Interactive runtime metrics.
	ServiceAreaRequests *prometheus.CounterVec // labels: source={precomputed,live,fallback}
	PrefetchDuration    prometheus.Histogram
	PrefetchRunning     prometheus.Gauge

	// Export job metrics.
	ExportDuration prometheus.Histogram
	ExportClients  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ResolveRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "service_area",
			Name:      "resolve_requests_total",
			Help:      "Provider chain requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "service_area",
			Name:      "cache_lookups_total",
			Help:      "Resolution cache lookups by result.",
		}, []string{"result"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "service_area",
			Name:      "provider_duration_seconds",
			Help:      "Provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		TokensResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "service_area",
			Name:      "tokens_resolved_total",
			Help:      "Tokens that resolved to a polygon, from any provider.",
		}),
		TokensFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "service_area",
			Name:      "tokens_failed_total",
			Help:      "Tokens that exhausted the provider chain with no result.",
		}),
		ServiceAreaRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "service_area",
			Name:      "requests_total",
			Help:      "Service-area requests by how the result was produced.",
		}, []string{"source"}),
		PrefetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "service_area",
			Name:      "prefetch_duration_seconds",
			Help:      "Duration of the background prefetch-all pass.",
			Buckets:   []float64{1, 5, 10, 20, 30, 45, 60, 90},
		}),
		PrefetchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "service_area",
			Name:      "prefetch_running",
			Help:      "1 while the background prefetch pass is active.",
		}),
		ExportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "service_area",
			Name:      "export_duration_seconds",
			Help:      "Duration of a complete bundle export run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		ExportClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "service_area",
			Name:      "export_clients",
			Help:      "Clients written to the bundle by the last export run.",
		}),
	}

	prometheus.MustRegister(
		m.ResolveRequests,
		m.CacheLookups,
		m.ProviderDuration,
		m.TokensResolved,
		m.TokensFailed,
		m.ServiceAreaRequests,
		m.PrefetchDuration,
		m.PrefetchRunning,
		m.ExportDuration,
		m.ExportClients,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ResolveRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "service_area", Name: "resolve_requests_total"}, []string{"provider", "outcome"}),
		CacheLookups:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "service_area", Name: "cache_lookups_total"}, []string{"result"}),
		ProviderDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "service_area", Name: "provider_duration_seconds"}, []string{"provider"}),
		TokensResolved:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "service_area", Name: "tokens_resolved_total"}),
		TokensFailed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "service_area", Name: "tokens_failed_total"}),
		ServiceAreaRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "service_area", Name: "requests_total"}, []string{"source"}),
		PrefetchDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "service_area", Name: "prefetch_duration_seconds"}),
		PrefetchRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "service_area", Name: "prefetch_running"}),
		ExportDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "service_area", Name: "export_duration_seconds"}),
		ExportClients:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "service_area", Name: "export_clients"}),
	}
}
