package internal

import (
	"net/http"
	"strconv"
	"time"

	"asset-ledger-api/internal/ledger"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for HTTP requests and ledger operations.
// It satisfies ledger.Recorder.
type Metrics struct {
	reqTotal     *prometheus.CounterVec
	reqLatency   *prometheus.HistogramVec
	opsTotal     *prometheus.CounterVec
	quantityMove *prometheus.CounterVec
	registry     *prometheus.Registry
}

var _ ledger.Recorder = (*Metrics)(nil)

// NewMetrics creates a new Metrics instance with a private Prometheus registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	reqTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	reqLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	opsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	quantityMove := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_quantity_moved_total",
			Help: "Units moved by successful ledger operations",
		},
		[]string{"operation"},
	)

	registry.MustRegister(
		reqTotal, reqLatency, opsTotal, quantityMove,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		reqTotal:     reqTotal,
		reqLatency:   reqLatency,
		opsTotal:     opsTotal,
		quantityMove: quantityMove,
		registry:     registry,
	}
}

// RecordOperation counts one ledger operation. Quantity is only added for
// successful operations.
func (m *Metrics) RecordOperation(operation string, err error, quantity int) {
	outcome := "success"
	if err != nil {
		outcome = ledger.KindOf(err).String()
	}
	m.opsTotal.WithLabelValues(operation, outcome).Inc()
	if err == nil && quantity > 0 {
		m.quantityMove.WithLabelValues(operation).Add(float64(quantity))
	}
}

// Middleware returns a Chi middleware that collects metrics
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rw, r)

			// label by route pattern so /transfers/{id} stays one series
			path := r.URL.Path
			if chiCtx := chi.RouteContext(r.Context()); chiCtx != nil {
				if pattern := chiCtx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}

			status := strconv.Itoa(rw.code)
			m.reqTotal.WithLabelValues(r.Method, path, status).Inc()
			m.reqLatency.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler returns an http.Handler that serves Prometheus metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the HTTP status code for metrics
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	return sr.ResponseWriter.Write(b)
}
