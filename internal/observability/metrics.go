package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream forecast API call rate by status class.
	ProviderAPICallsTotal *prometheus.CounterVec

	// Upstream API latency. Watch for: p95 > 2s (upstream degradation).
	ProviderAPIDuration *prometheus.HistogramVec

	// Requests rejected by an open circuit breaker.
	ProviderCircuitOpenTotal prometheus.Counter

	// Store lookups during cache-first retrieval, labelled hit or miss.
	StoreLookupsTotal *prometheus.CounterVec

	// Store failures by operation and classification (unique_violation, connectivity, query).
	StoreErrorsTotal *prometheus.CounterVec

	// Retrieval outcomes: cache_hit, provider_fetch, date_not_found.
	ForecastRetrievalsTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	ProviderAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerApiCallsTotal",
			Help: "Total number of upstream forecast API calls",
		},
		[]string{"status"},
	)
	ProviderAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "providerApiDurationSeconds",
			Help:    "Upstream forecast API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	ProviderCircuitOpenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "providerCircuitOpenTotal",
			Help: "Upstream calls rejected because the circuit breaker was open",
		},
	)
	StoreLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeLookupsTotal",
			Help: "Cache-first store lookups by result (hit, miss)",
		},
		[]string{"result"},
	)
	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeErrorsTotal",
			Help: "Store failures by operation and classification",
		},
		[]string{"operation", "kind"},
	)
	ForecastRetrievalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastRetrievalsTotal",
			Help: "Forecast retrievals by outcome (cache_hit, provider_fetch, date_not_found)",
		},
		[]string{"outcome"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		ProviderAPICallsTotal, ProviderAPIDuration, ProviderCircuitOpenTotal,
		StoreLookupsTotal, StoreErrorsTotal, ForecastRetrievalsTotal,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
