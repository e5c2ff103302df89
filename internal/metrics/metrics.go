// Package metrics holds the Prometheus registry for the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics for FinGuru.
type Registry struct {
	// HTTP surface
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Mentor chat
	ChatCompletions *prometheus.CounterVec
	ChatLatency     prometheus.Histogram
	BreakerState    prometheus.Gauge

	// Gamification
	CheckIns prometheus.Counter

	// Notification scheduler
	NotificationsSent *prometheus.CounterVec

	// Cache performance
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates and registers the full metric set on reg (the default
// registerer when nil).
func New(reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Registry{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finguru_http_requests_total",
				Help: "Total HTTP requests by route and status class",
			},
			[]string{"route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finguru_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds by route",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"route"},
		),
		ChatCompletions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finguru_chat_completions_total",
				Help: "Mentor chat completions by outcome (ok, blocked, rate_limited, error)",
			},
			[]string{"outcome"},
		),
		ChatLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finguru_chat_latency_seconds",
				Help:    "Latency of upstream model calls in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 30},
			},
		),
		BreakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "finguru_chat_breaker_state",
				Help: "Circuit breaker state for the model API (0=closed, 1=half-open, 2=open)",
			},
		),
		CheckIns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "finguru_checkins_total",
				Help: "Total applied daily check-ins",
			},
		),
		NotificationsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finguru_notifications_sent_total",
				Help: "Notifications pushed by kind",
			},
			[]string{"kind"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finguru_cache_hits_total",
				Help: "Cache hits by key family",
			},
			[]string{"family"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finguru_cache_misses_total",
				Help: "Cache misses by key family",
			},
			[]string{"family"},
		),
	}

	reg.MustRegister(
		r.HTTPRequests,
		r.HTTPDuration,
		r.ChatCompletions,
		r.ChatLatency,
		r.BreakerState,
		r.CheckIns,
		r.NotificationsSent,
		r.CacheHits,
		r.CacheMisses,
	)
	return r
}

// ObserveRequest records one finished HTTP request.
func (r *Registry) ObserveRequest(route, status string, d time.Duration) {
	r.HTTPRequests.WithLabelValues(route, status).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler exposes the default gatherer for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
