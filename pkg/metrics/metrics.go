package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RunsInQueue         prometheus.Gauge
	DocumentsHarvested  *prometheus.CounterVec
	ItemsSkipped        *prometheus.CounterVec
	RunsTotal           *prometheus.CounterVec
	RunDuration         *prometheus.HistogramVec
	NavigationDuration  *prometheus.HistogramVec
}

// New registers the application metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		RunsInQueue: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "runs_in_queue",
				Help: "Current number of harvest requests waiting in the queue.",
			},
		),
		DocumentsHarvested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_harvested_total",
				Help: "Total number of documents assembled.",
			},
			[]string{"source"},
		),
		ItemsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "items_skipped_total",
				Help: "Total number of listing dates and articles skipped.",
			},
			[]string{"source", "reason"},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_runs_total",
				Help: "Total number of finished harvest runs.",
			},
			[]string{"source", "outcome"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvest_run_duration_seconds",
				Help:    "Duration of harvest runs.",
				Buckets: []float64{10, 30, 60, 120, 300, 600, 1800, 3600},
			},
			[]string{"source"},
		),
		NavigationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "navigation_duration_seconds",
				Help:    "Duration of page navigations.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"kind"}, // listing, article
		),
	}
}
