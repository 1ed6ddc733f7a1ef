package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/printhaus/storefront-api/internal/cache"
	"github.com/printhaus/storefront-api/internal/common"
)

type fakeStore struct {
	items     []ListItem
	products  map[string]*Product
	regions   []Region
	listCalls int
}

func (f *fakeStore) ListProducts(_ context.Context, filter ListFilter) ([]ListItem, int64, error) {
	f.listCalls++
	if filter.Offset >= len(f.items) {
		return nil, int64(len(f.items)), nil
	}
	end := filter.Offset + filter.Limit
	if end > len(f.items) {
		end = len(f.items)
	}
	return f.items[filter.Offset:end], int64(len(f.items)), nil
}

func (f *fakeStore) GetProductByHandle(_ context.Context, handle string, _ uuid.UUID) (*Product, error) {
	if p, ok := f.products[handle]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (f *fakeStore) GetProductByID(_ context.Context, id uuid.UUID, _ uuid.UUID) (*Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ListRegions(_ context.Context) ([]Region, error) {
	return f.regions, nil
}

func (f *fakeStore) GetRegion(_ context.Context, id uuid.UUID) (Region, error) {
	for _, r := range f.regions {
		if r.ID == id {
			return r, nil
		}
	}
	return Region{}, ErrNotFound
}

func newTestService(t *testing.T, store *fakeStore) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := NewService(ServiceConfig{
		Store: store,
		Cache: cache.New(client, time.Minute),
	})
	require.NoError(t, err)
	return svc
}

func testStore() *fakeStore {
	poster := &Product{
		ID:     uuid.New(),
		Handle: "custom-poster",
		Title:  "Custom Poster",
		Variants: []Variant{
			{ID: uuid.New(), ManageInventory: false},
		},
		RequiresDimensions: true,
		RequiresArtwork:    true,
	}
	return &fakeStore{
		items: []ListItem{
			{ID: poster.ID, Handle: poster.Handle, Title: poster.Title},
			{ID: uuid.New(), Handle: "plain-mug", Title: "Plain Mug"},
		},
		products: map[string]*Product{poster.Handle: poster},
		regions: []Region{
			{ID: uuid.New(), Name: "Europe", CurrencyCode: "EUR", Locale: "de-DE"},
		},
	}
}

func TestParseListParams(t *testing.T) {
	svc := newTestService(t, testStore())

	params, err := svc.ParseListParams(url.Values{"q": {" mug "}, "page": {"2"}, "limit": {"5"}})
	require.NoError(t, err)
	require.Equal(t, "mug", params.Query)
	require.Equal(t, 2, params.Page)
	require.Equal(t, 5, params.Limit)

	params, err = svc.ParseListParams(url.Values{"limit": {"9999"}})
	require.NoError(t, err)
	require.Equal(t, 100, params.Limit)

	_, err = svc.ParseListParams(url.Values{"page": {"0"}})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)
}

func TestListProductsCachesFrontPage(t *testing.T) {
	store := testStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	params, err := svc.ParseListParams(url.Values{})
	require.NoError(t, err)

	first, err := svc.ListProducts(ctx, params)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.Equal(t, int64(2), first.Total)
	require.Equal(t, 1, store.listCalls)

	second, err := svc.ListProducts(ctx, params)
	require.NoError(t, err)
	require.Equal(t, first.Items, second.Items)
	require.Equal(t, 1, store.listCalls, "front page should be served from cache")

	// A filtered query bypasses the cache.
	filtered, err := svc.ParseListParams(url.Values{"q": {"mug"}})
	require.NoError(t, err)
	_, err = svc.ListProducts(ctx, filtered)
	require.NoError(t, err)
	require.Equal(t, 2, store.listCalls)
}

func TestGetProductNotFound(t *testing.T) {
	svc := newTestService(t, testStore())

	_, err := svc.GetProduct(context.Background(), "missing", uuid.Nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)

	_, err = svc.GetProduct(context.Background(), "  ", uuid.Nil)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)
}

func TestProductDetailHandler(t *testing.T) {
	svc := newTestService(t, testStore())
	handler := NewHandler(HandlerConfig{Service: svc})

	r := chi.NewRouter()
	r.Get("/products/{handle}", handler.ProductDetail)
	r.Get("/products", handler.Products)
	r.Get("/regions", handler.Regions)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/custom-poster", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Data Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Equal(t, "custom-poster", detail.Data.Handle)
	require.True(t, detail.Data.RequiresDimensions)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/custom-poster?region=not-a-uuid", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2", rec.Header().Get("X-Total-Count"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/regions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var regions struct {
		Data []Region `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &regions))
	require.Len(t, regions.Data, 1)
	require.Equal(t, "EUR", regions.Data[0].CurrencyCode)
}
