package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/pricing"
	"github.com/noah-isme/toko-promo/internal/resilience"
)

type fakeStore struct {
	mu       sync.Mutex
	products map[string]pricing.Product
	lists    int
}

func newFakeStore(products ...pricing.Product) *fakeStore {
	s := &fakeStore{products: map[string]pricing.Product{}}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (f *fakeStore) ListProducts(context.Context) ([]pricing.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	out := make([]pricing.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) GetProduct(_ context.Context, id string) (pricing.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return pricing.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, p pricing.Product) (pricing.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; ok {
		return pricing.Product{}, catalog.ErrDuplicateProduct
	}
	f.products[p.ID] = p
	return p, nil
}

func seedProducts() []pricing.Product {
	return []pricing.Product{
		{ID: "D", Name: "Product D", Price: 15},
		{ID: "A", Name: "Product A", Price: 30},
		{ID: "C", Name: "Product C", Price: 50},
		{ID: "B", Name: "Product B", Price: 20},
	}
}

func newRouter(t *testing.T, store catalog.Store, cache *catalog.Cache) http.Handler {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceConfig{Store: store, Cache: cache})
	require.NoError(t, err)
	r := chi.NewRouter()
	r.Route("/api/v1/products", catalog.NewHandler(catalog.HandlerConfig{Service: svc}).Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type listResponse struct {
	Data []pricing.Product `json:"data"`
}

type productResponse struct {
	Data    pricing.Product `json:"data"`
	Message string          `json:"message"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestListSortedByID(t *testing.T) {
	h := newRouter(t, newFakeStore(seedProducts()...), nil)
	rec := do(t, h, http.MethodGet, "/api/v1/products", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	ids := make([]string, 0, len(body.Data))
	for _, p := range body.Data {
		ids = append(ids, p.ID)
	}
	require.Equal(t, []string{"A", "B", "C", "D"}, ids)
}

func TestListEmptyCatalogIsArray(t *testing.T) {
	h := newRouter(t, newFakeStore(), nil)
	rec := do(t, h, http.MethodGet, "/api/v1/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestGetProduct(t *testing.T) {
	h := newRouter(t, newFakeStore(seedProducts()...), nil)

	rec := do(t, h, http.MethodGet, "/api/v1/products/C", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, pricing.Product{ID: "C", Name: "Product C", Price: 50}, body.Data)

	rec = do(t, h, http.MethodGet, "/api/v1/products/Z", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var errBody errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	require.Equal(t, "product Z not found", errBody.Error.Message)
}

func TestCreateProduct(t *testing.T) {
	store := newFakeStore(seedProducts()...)
	h := newRouter(t, store, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/products", `{"id":"E","name":"Product E","price":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var body productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "E", body.Data.ID)
	require.Equal(t, "product created", body.Message)

	rec = do(t, h, http.MethodPost, "/api/v1/products", `{"id":"A","name":"Again","price":1}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	cases := map[string]string{
		"missing id":     `{"name":"X","price":1}`,
		"missing price":  `{"id":"X","name":"X"}`,
		"negative price": `{"id":"X","name":"X","price":-1}`,
		"blank name":     `{"id":"X","name":"   ","price":1}`,
		"malformed":      `{"id":`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/products", payload)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec = do(t, h, http.MethodPost, "/api/v1/products", `{"id":"F","name":"Free","price":0}`)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestListUsesCacheAndCreateInvalidates(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newFakeStore(seedProducts()...)
	h := newRouter(t, store, catalog.NewCache(client, time.Minute))

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/products", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/products", "").Code)
	require.Equal(t, 1, store.lists)
	require.True(t, mr.Exists("catalog:products:v1"))

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/products", `{"id":"E","name":"Product E","price":5}`).Code)
	require.False(t, mr.Exists("catalog:products:v1"))

	rec := do(t, h, http.MethodGet, "/api/v1/products", "")
	var body listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 5)
	require.Equal(t, 2, store.lists)
}

func TestListFallsBackToStoreWhenCacheBreakerOpens(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	breaker := resilience.NewBreaker("catalog-cache", 1, 1, time.Hour)
	store := newFakeStore(seedProducts()...)
	h := newRouter(t, store, catalog.NewCache(client, time.Minute).WithBreaker(breaker))

	mr.SetError("LOADING")
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/products", "").Code)
	require.Equal(t, resilience.Open, breaker.State())

	mr.SetError("")
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/products", "").Code)
	require.Equal(t, 2, store.lists)
	require.False(t, mr.Exists("catalog:products:v1"))
}
