package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.CycleStarted()
	m.CycleFinished("manual", "ok", 1)
	m.CycleCancelled("manual")
	m.Check("fire")
	m.TimerExpired()
	m.Notified()
	m.PersistFailed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCycleCounters(t *testing.T) {
	m := New()
	m.CycleStarted()
	assert.Contains(t, scrape(t, m), "interlude_cycle_in_flight 1")

	m.CycleFinished("scheduled", "ok", 30)
	m.CycleFinished("scheduled", "failed", 0)
	m.Check("quiet")
	m.Check("quiet")

	out := scrape(t, m)
	assert.Contains(t, out, "interlude_cycle_in_flight 0")
	assert.Contains(t, out, `interlude_cycles_total{kind="scheduled",result="ok"} 1`)
	assert.Contains(t, out, `interlude_cycles_total{kind="scheduled",result="failed"} 1`)
	assert.Contains(t, out, `interlude_monitor_checks_total{action="quiet"} 2`)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.TimerExpired()

	assert.True(t, strings.Contains(scrape(t, m), "interlude_timer_expiries_total 1"))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/selections/tracks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/selections/tracks/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, scrape(t, m),
		`interlude_api_requests_total{method="GET",path="/selections/tracks/{id}",status="404"} 1`)
}
