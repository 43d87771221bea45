// Package observability provides Prometheus metrics for the dashboard backend.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultCached  = "cached"
	ResultRefused = "refused"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	ForecastsTotal    *prometheus.CounterVec
	ForecastDuration  prometheus.Histogram
	ForecastCacheHits prometheus.Counter

	HistoryPoints    prometheus.Gauge
	HistoryRefreshes *prometheus.CounterVec

	SavedModels prometheus.Counter
}

// NewMetrics creates a Metrics instance registered on its own registry, so
// tests and multiple servers in one process do not collide.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "goldsight"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ForecastsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "requests_total",
			Help:      "Forecast generations by result",
		}, []string{"result"}),
		ForecastDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "duration_seconds",
			Help:      "Wall time of forecast generation including both model prompts",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		ForecastCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "cache_hits_total",
			Help:      "Forecasts served from the cache",
		}),

		HistoryPoints: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "points",
			Help:      "Number of points in the current history snapshot",
		}),
		HistoryRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "refreshes_total",
			Help:      "History snapshot regenerations by trigger",
		}, []string{"trigger"}),

		SavedModels: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "models",
			Name:      "saved_total",
			Help:      "Forecast models saved to the library",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
