// Package server — metrics.go registers all Prometheus metrics for the HTTP
// server and exposes helpers used by handlers and middleware.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// labelHandler partitions HTTP metrics by route pattern rather than the raw
// URL path, so /api/documents/{id} stays one series.
const labelHandler = "handler"

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// ingestTotal counts upload attempts by outcome: "ok", "rejected",
	// "error" or an error kind.
	ingestTotal *prometheus.CounterVec
	// ingestDuration records upload-to-swap latency.
	ingestDuration prometheus.Histogram
	// ingestPassages records passages per successfully ingested document.
	ingestPassages prometheus.Histogram
	// indexGeneration is the generation of the index currently served.
	indexGeneration prometheus.Gauge

	// answerTotal counts /api/ask requests by outcome.
	answerTotal *prometheus.CounterVec
	// answerDuration records /api/ask latency by outcome.
	answerDuration *prometheus.HistogramVec
	// answerTruncated counts answers whose context was cut to fit the budget.
	answerTruncated prometheus.Counter

	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, route pattern, and status code.
	httpRequestsTotal *prometheus.CounterVec
	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		ingestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfqa",
			Subsystem: "ingest",
			Name:      "requests_total",
			Help:      "Total number of document uploads, partitioned by outcome.",
		}, []string{"outcome"}),

		ingestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pdfqa",
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration from upload receipt to index swap.",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		}),

		ingestPassages: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pdfqa",
			Subsystem: "ingest",
			Name:      "passages",
			Help:      "Number of passages per ingested document.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),

		indexGeneration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pdfqa",
			Subsystem: "index",
			Name:      "generation",
			Help:      "Generation counter of the index currently answering questions.",
		}),

		answerTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfqa",
			Subsystem: "answer",
			Name:      "requests_total",
			Help:      "Total number of /api/ask requests, partitioned by outcome.",
		}, []string{"outcome"}),

		answerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pdfqa",
			Subsystem: "answer",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of /api/ask requests.",
			Buckets:   []float64{0.25, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),

		answerTruncated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pdfqa",
			Subsystem: "answer",
			Name:      "truncated_total",
			Help:      "Answers whose retrieved context was truncated to fit the token budget.",
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfqa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pdfqa",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),
	}
}

// instrument records request count and latency for every request served by
// next. The mux sets r.Pattern on the request it routes, so the label is read
// after the handler returns.
func (m *serverMetrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rw, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(rw.status)).Inc()
		m.httpDurationSeconds.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}
