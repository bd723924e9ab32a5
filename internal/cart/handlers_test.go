package cart_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-promo/internal/cart"
	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/pricing"
)

type envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newCartRouter(t *testing.T, write ...func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	svc, _ := newService(t, nil)
	r := chi.NewRouter()
	r.Route("/api/v1/carts", func(r chi.Router) {
		(&cart.Handler{Svc: svc}).Routes(r, write...)
	})
	return r
}

func call(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCartLifecycleOverHTTP(t *testing.T) {
	h := newCartRouter(t)

	rec := call(t, h, http.MethodPost, "/api/v1/carts", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[cart.Cart](t, rec)
	require.Equal(t, "Cart created successfully", created.Message)
	base := "/api/v1/carts/" + created.Data.ID

	for _, body := range []string{
		`{"productId":"B"}`,
		`{"productId":"A","quantity":3}`,
		`{"productId":"B"}`,
	} {
		rec = call(t, h, http.MethodPost, base+"/items", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	item := decode[cart.Item](t, rec)
	require.Equal(t, "B", item.Data.ProductID)
	require.Equal(t, 2, item.Data.Quantity)
	require.Equal(t, int64(5), item.Data.DiscountAmount)

	rec = call(t, h, http.MethodGet, base+"/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[pricing.Summary](t, rec)
	require.Equal(t, pricing.Money(130), summary.Data.Subtotal)
	require.Equal(t, pricing.Money(10), summary.Data.TotalDiscount)
	require.Equal(t, pricing.Money(120), summary.Data.FinalTotal)

	rec = call(t, h, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[cart.Cart](t, rec)
	require.Equal(t, int64(120), got.Data.FinalPrice)
	require.Len(t, got.Data.Items, 2)

	rec = call(t, h, http.MethodDelete, base+"/items/A", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, h, http.MethodDelete, base+"/items/A", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "item not found in cart", decode[any](t, rec).Error.Message)

	rec = call(t, h, http.MethodDelete, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Cart cleared successfully", decode[any](t, rec).Message)
}

func TestAddItemValidationOverHTTP(t *testing.T) {
	h := newCartRouter(t)
	created := decode[cart.Cart](t, call(t, h, http.MethodPost, "/api/v1/carts", ""))
	path := "/api/v1/carts/" + created.Data.ID + "/items"

	cases := map[string]struct {
		body    string
		status  int
		message string
	}{
		"missing product":    {`{"quantity":2}`, http.StatusBadRequest, "productId is required"},
		"zero quantity":      {`{"productId":"A","quantity":0}`, http.StatusBadRequest, "quantity must be greater than 0"},
		"negative quantity":  {`{"productId":"A","quantity":-1}`, http.StatusBadRequest, "quantity must be greater than 0"},
		"oversized quantity": {`{"productId":"A","quantity":200000000}`, http.StatusBadRequest, "quantity must be at most 1000"},
		"unknown product":    {`{"productId":"Z"}`, http.StatusNotFound, "product Z not found"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := call(t, h, http.MethodPost, path, tc.body)
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.message, decode[any](t, rec).Error.Message)
		})
	}

	rec := call(t, h, http.MethodPost, "/api/v1/carts/0b7c1a5e-8a51-4f5e-9a7c-2f3f4b8f0d11/items", `{"productId":"A"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "cart not found", decode[any](t, rec).Error.Message)
}

func TestClearUnknownCartSucceeds(t *testing.T) {
	h := newCartRouter(t)
	rec := call(t, h, http.MethodDelete, "/api/v1/carts/0b7c1a5e-8a51-4f5e-9a7c-2f3f4b8f0d11", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodGet, "/api/v1/carts/0b7c1a5e-8a51-4f5e-9a7c-2f3f4b8f0d11", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteRoutesAreIdempotent(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := newCartRouter(t, common.Idem{R: client, TTL: time.Minute}.Middleware)
	created := decode[cart.Cart](t, call(t, h, http.MethodPost, "/api/v1/carts", ""))
	path := "/api/v1/carts/" + created.Data.ID + "/items"

	rec := call(t, h, http.MethodPost, path, `{"productId":"A"}`, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, h, http.MethodPost, path, `{"productId":"A"}`, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusConflict, rec.Code)

	got := decode[cart.Cart](t, call(t, h, http.MethodGet, "/api/v1/carts/"+created.Data.ID, ""))
	require.Len(t, got.Data.Items, 1)
	require.Equal(t, 1, got.Data.Items[0].Quantity)

	rec = call(t, h, http.MethodGet, "/api/v1/carts/"+created.Data.ID+"/summary", "", "Idempotency-Key", "k1")
	require.Equal(t, http.StatusOK, rec.Code)
}
