package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Cache lookup results
const (
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultDegraded = "degraded"
)

// Queue request outcomes
const (
	OutcomeApplied   = "applied"
	OutcomeDropped   = "dropped"
	OutcomeCoalesced = "coalesced"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing, which keeps tests free of registry plumbing.
type Metrics struct {
	cacheLookups    *prometheus.CounterVec
	cacheWriteErrs  prometheus.Counter
	computeDuration *prometheus.HistogramVec
	queueRequests   *prometheus.CounterVec
	queueDepth      prometheus.Gauge
	httpDuration    *prometheus.SummaryVec
	httpRequests    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreboard_cache_lookups_total",
				Help: "Cache lookups by result",
			},
			[]string{"result"},
		),
		cacheWriteErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoreboard_cache_write_errors_total",
			Help: "Failed writes to the cache backend",
		}),
		computeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scoreboard_compute_duration_seconds",
				Help:    "Time spent recomputing cached values",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		queueRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreboard_invalidation_requests_total",
				Help: "Invalidation requests by outcome",
			},
			[]string{"outcome"},
		),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scoreboard_invalidation_queue_depth",
			Help: "Requests waiting in the invalidation queue",
		}),
		httpDuration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request duration in seconds",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.99: 0.001,
				},
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
	}

	reg.MustRegister(
		m.cacheLookups,
		m.cacheWriteErrs,
		m.computeDuration,
		m.queueRequests,
		m.queueDepth,
		m.httpDuration,
		m.httpRequests,
	)
	return m
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheWriteError() {
	if m == nil {
		return
	}
	m.cacheWriteErrs.Inc()
}

// ObserveCompute records how long a recomputation took. source is "read"
// for cache-aside misses and "queue" for invalidation rebuilds.
func (m *Metrics) ObserveCompute(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.computeDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) QueueOutcome(outcome string) {
	if m == nil {
		return
	}
	m.queueRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// Middleware records request counts and latency per route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
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
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)

		m.httpDuration.WithLabelValues(r.Method, path, code).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(r.Method, path, code).Inc()
	})
}
