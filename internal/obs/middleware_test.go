package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics(obs.HTTPMetricsConfig{Namespace: "toko", Buckets: []float64{1, 10}, Registerer: registry})
	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/storefront/cart/items", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/api/v1/storefront/cart/items"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodPost, "/api/v1/storefront/cart/items", "201")))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.ResponseBytes.WithLabelValues("/api/v1/storefront/cart/items")))
	require.NotZero(t, testutil.CollectAndCount(metrics.Duration))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.InFlight))

	again := obs.NewHTTPMetrics(obs.HTTPMetricsConfig{Namespace: "toko", Registerer: registry})
	require.Same(t, metrics.Requests, again.Requests)
}

func TestHTTPMetricsUsesChiRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics(obs.HTTPMetricsConfig{Namespace: "toko", Registerer: registry})

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/api/v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products/101", nil))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "/api/v1/products/{id}", "200")))
}

func TestNilHTTPMetricsPassesThrough(t *testing.T) {
	var metrics *obs.HTTPMetrics
	called := false
	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)
}

func TestRequestLoggerIncludesAnnotations(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	handler := obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		obs.Annotate(r.Context(), "session_id", "sess-42")
		w.WriteHeader(http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products/9999", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "sess-42", line["session_id"])
	require.Equal(t, "warn", line["level"])
	require.Equal(t, float64(http.StatusNotFound), line["status"])
	require.Equal(t, "http_request", line["message"])
}

func TestAnnotateWithoutLoggerIsNoop(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NotPanics(t, func() { obs.Annotate(req.Context(), "k", "v") })
}

func TestDomainMetricsRegisterOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("toko_test", registry)
	require.NotNil(t, obs.CartItemsAddedTotal)
	obs.CartItemsAddedTotal.WithLabelValues("new").Inc()
	require.Equal(t, 1.0, testutil.ToFloat64(obs.CartItemsAddedTotal.WithLabelValues("new")))

	require.NotPanics(t, func() { obs.MustRegisterDomainMetrics("toko_test", registry) })
}

func TestParseBucketsCSV(t *testing.T) {
	require.Equal(t, []float64{5, 50.5}, obs.ParseBucketsCSV(" 50.5, x, -1, 5, 5 "))
	require.Nil(t, obs.ParseBucketsCSV(""))
}
