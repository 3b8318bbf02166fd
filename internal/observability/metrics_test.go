package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRouteAndCode(t *testing.T) {
	metrics := NewMetrics()

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/widgets/{widgetID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/widgets/42", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	count := testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("/widgets/{widgetID}", "204"))
	require.Equal(t, 1.0, count)
}

func TestCountMovement(t *testing.T) {
	metrics := NewMetrics()
	metrics.CountMovement("sale")
	metrics.CountMovement("sale")
	metrics.CountMovement("restock")

	require.Equal(t, 2.0, testutil.ToFloat64(metrics.movementsTotal.WithLabelValues("sale")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.movementsTotal.WithLabelValues("restock")))
}

func TestHandlerServesRegistry(t *testing.T) {
	metrics := NewMetrics()
	metrics.CountMovement("adjustment")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "stockroom_movements_posted_total"))
}

func TestNilMetricsAreInert(t *testing.T) {
	var metrics *Metrics
	metrics.CountMovement("sale")

	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	metrics.Middleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)
}
