package obs_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/noah-isme/toko-promo/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("promo", []float64{1, 10}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/health/ready"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/health/ready", "204"))
	if total != 1 {
		t.Fatalf("expected counter to be 1, got %v", total)
	}

	samples := testutil.CollectAndCount(metrics.ReqDur)
	if samples == 0 {
		t.Fatalf("expected histogram sample")
	}

	if val := testutil.ToFloat64(metrics.InFlight); val != 0 {
		t.Fatalf("expected no in-flight requests, got %v", val)
	}
}

func TestHTTPMetricsUseChiRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("promo", nil, registry)

	r := chi.NewRouter()
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/api/v1/carts/{cartId}/summary", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/carts/abc/summary", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/api/v1/carts/{cartId}/summary", "200")))
}

func TestRequestLoggerIncludesCartAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := chi.NewRouter()
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Get("/api/v1/carts/{cartId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/carts/c-1", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "c-1", entry["cart_id"])
	require.Equal(t, "/api/v1/carts/{cartId}", entry["route"])
	require.Equal(t, float64(http.StatusNotFound), entry["status"])
	require.Equal(t, "http_request", entry["message"])
}

func TestTracingMiddlewareNamesSpanByRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	r := chi.NewRouter()
	r.Use(obs.TracingMiddleware)
	r.Post("/api/v1/carts/{cartId}/items", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/carts/c-1/items", nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "POST /api/v1/carts/{cartId}/items", spans[0].Name())
}

func TestDomainMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("promo_test", registry)

	obs.ObserveEvaluation(true)
	obs.ObserveDiscount("ITEM", 5)
	obs.ObserveDiscount("ITEM", 5)
	obs.ObserveCartMutation("add_item", nil)
	obs.ObserveCartMutation("add_item", errors.New("boom"))

	require.Equal(t, float64(1), testutil.ToFloat64(obs.PricingEvaluationsTotal.WithLabelValues("discounted")))
	require.Equal(t, float64(2), testutil.ToFloat64(obs.PromotionDiscountsTotal.WithLabelValues("ITEM")))
	require.Equal(t, float64(10), testutil.ToFloat64(obs.PromotionDiscountAmountTotal.WithLabelValues("ITEM")))
	require.Equal(t, float64(1), testutil.ToFloat64(obs.CartMutationsTotal.WithLabelValues("add_item", "error")))
}
