// Package metrics exposes Prometheus counters for the HTTP surface and
// the peer-verification flow.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors and their registry so the whole set can
// be injected into the router instead of living in package globals.
type Metrics struct {
	registry *prometheus.Registry

	reqCount    *prometheus.CounterVec
	reqDuration *prometheus.HistogramVec

	ProofsSubmitted prometheus.Counter
	ProofLikes      prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reqCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goalpeer_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		reqDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "goalpeer_request_duration_seconds",
				Help: "Request duration seconds",
			},
			[]string{"method", "path"},
		),
		ProofsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goalpeer_proofs_submitted_total",
			Help: "Proofs uploaded for goals",
		}),
		ProofLikes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goalpeer_proof_likes_total",
			Help: "Like toggles applied to proofs",
		}),
	}
	m.registry.MustRegister(m.reqCount, m.reqDuration, m.ProofsSubmitted, m.ProofLikes)
	return m
}

// Handler serves the /metrics scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies per route pattern.
// It uses the chi route pattern rather than the raw URL so IDs do not
// explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		m.reqCount.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		m.reqDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
