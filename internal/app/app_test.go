package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HcVm/bytek-core-sub001/internal/observability"
	"github.com/HcVm/bytek-core-sub001/internal/shared"
)

func TestLoadConfigIncomePolicy(t *testing.T) {
	t.Setenv("INCOME_TAX_RATE", "29.5")
	t.Setenv("COST_OF_SALES_PREFIXES", "69, 61")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	policy, err := cfg.IncomePolicy()
	require.NoError(t, err)
	require.Equal(t, "29.5", policy.TaxRate.String())
	require.Equal(t, []string{"69", "61"}, policy.CostPrefixes)
}

func TestLoadConfigRejectsTaxRate(t *testing.T) {
	for _, rate := range []string{"abc", "-1", "101"} {
		t.Setenv("INCOME_TAX_RATE", rate)
		_, err := LoadConfig()
		require.Error(t, err, rate)
	}
}

func TestActorMiddleware(t *testing.T) {
	var seen int64
	var present bool
	h := ActorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, present = shared.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, "42")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, present)
	require.Equal(t, int64(42), seen)

	seen, present = 0, false
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, present)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, "admin")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	router := NewRouter(RouterParams{Config: &Config{}, Metrics: observability.NewMetrics()})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "bytek_http_requests_total")
}
