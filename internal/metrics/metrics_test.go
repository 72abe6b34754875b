package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheLookup(ResultHit)
		m.CacheWriteError()
		m.ObserveCompute("read", time.Second)
		m.QueueOutcome(OutcomeApplied)
		m.SetQueueDepth(3)
	})

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CacheLookup(ResultHit)
	m.CacheLookup(ResultHit)
	m.CacheLookup(ResultMiss)
	m.QueueOutcome(OutcomeDropped)
	m.SetQueueDepth(4)
	m.CacheWriteError()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(ResultHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(ResultMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queueRequests.WithLabelValues(OutcomeDropped)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.queueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheWriteErrs))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/games/{gameID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/42", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/games/{gameID}", "418"))
	assert.Equal(t, 3.0, got)
}
