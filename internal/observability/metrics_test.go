package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/HcVm/bytek-core-sub001/internal/jobs"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsHandlerExposesJobMetrics(t *testing.T) {
	metrics := NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	_ = jobs.Track("gl_integrity").End(nil)

	require.Contains(t, scrape(t, metrics), `bytek_jobs_total{job="gl_integrity",status="success"} 1`)
}

func TestObservePostingCountsOutcomes(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObservePosting("posted")
	metrics.ObservePosting("posted")
	metrics.ObservePosting("UnbalancedEntry")

	body := scrape(t, metrics)
	require.Contains(t, body, `bytek_journal_postings_total{outcome="posted"} 2`)
	require.Contains(t, body, `bytek_journal_postings_total{outcome="UnbalancedEntry"} 1`)

	var nilMetrics *Metrics
	nilMetrics.ObservePosting("posted")
	nilMetrics.ObserveCacheBumpFailure()
}

func TestObserveCacheBumpFailure(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveCacheBumpFailure()
	require.Contains(t, scrape(t, metrics), "bytek_report_cache_bump_failures_total 1")
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `bytek_http_requests_total{code="418",route="/test"} 1`)
	require.Contains(t, body, `bytek_http_request_duration_seconds_bucket{route="/test"`)
}
