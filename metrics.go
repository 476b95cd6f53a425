package quarry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MustRegisterMetrics will register all query related metrics on the given registry.
// If metrics with the same name already exist on the registry this function will panic.
func MustRegisterMetrics(registry *prometheus.Registry) {
	registry.MustRegister(queryCounter, queryDuration, queryRows)
}

func sampleQuery(component, op string, elapsed time.Duration, rows int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	labels := prometheus.Labels{
		"status":    status,
		"component": component,
		"op":        op,
	}
	queryCounter.With(labels).Inc()
	queryDuration.With(labels).Observe(elapsed.Seconds())
	queryRows.With(labels).Observe(float64(rows))
}

var (
	queryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quarry_queries_total",
			Help: "Total number of statements executed",
		},
		[]string{"status", "component", "op"},
	)
	queryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quarry_query_duration_seconds",
			Help:    "Duration of statement execution including row scanning",
			Buckets: prometheus.ExponentialBucketsRange(0.0005, 30, 20),
		},
		[]string{"status", "component", "op"},
	)
	queryRows = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quarry_query_rows",
			Help:    "Number of rows returned per statement",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"status", "component", "op"},
	)
)
