package bundle

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/printhaus/storefront-api/internal/cache"
	"github.com/printhaus/storefront-api/internal/catalog"
	"github.com/printhaus/storefront-api/internal/lock"
	"github.com/printhaus/storefront-api/internal/obs"
)

type fakeStore struct {
	bundles   []Bundle
	listCalls int
}

func (f *fakeStore) ListBundles(_ context.Context, _ uuid.UUID) ([]Bundle, error) {
	f.listCalls++
	return f.bundles, nil
}

func (f *fakeStore) GetBundle(_ context.Context, id uuid.UUID, _ uuid.UUID) (*Bundle, error) {
	for i := range f.bundles {
		if f.bundles[i].ID == id {
			return &f.bundles[i], nil
		}
	}
	return nil, ErrNotFound
}

type fakeRegions struct {
	region catalog.Region
}

func (f *fakeRegions) GetRegion(_ context.Context, _ uuid.UUID) (catalog.Region, error) {
	return f.region, nil
}

func newTestService(t *testing.T, store *fakeStore) *Service {
	t.Helper()
	obs.MustRegisterDomainMetrics("bundletest", prometheus.NewRegistry())
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := NewService(ServiceConfig{
		Store:   store,
		Regions: &fakeRegions{region: catalog.Region{ID: uuid.New(), CurrencyCode: "EUR", Locale: "de-DE"}},
		Cache:   cache.New(client, time.Minute),
		Locker:  &lock.Locker{R: client},
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return svc
}

func TestListCachesAssembledCards(t *testing.T) {
	store := &fakeStore{bundles: []Bundle{
		{ID: uuid.New(), Handle: "poster-pack", Title: "Poster pack", Items: []Item{
			{Title: "A3", CalculatedAmount: amount(1800)},
			{Title: "A2", CalculatedAmount: amount(2500)},
		}},
		{ID: uuid.New(), Handle: "sticker-pack", Title: "Sticker pack"},
	}}
	svc := newTestService(t, store)
	regionID := uuid.New()

	cards, err := svc.List(context.Background(), regionID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	require.NotNil(t, cards[0].CheapestPrice)
	require.Equal(t, int64(1800), cards[0].CheapestPrice.CalculatedAmount)
	require.Nil(t, cards[1].CheapestPrice)
	require.Equal(t, 1, store.listCalls)

	// Second read is served from the cache.
	cards, err = svc.List(context.Background(), regionID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	require.Equal(t, 1, store.listCalls)

	// A different region misses and rebuilds.
	_, err = svc.List(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, 2, store.listCalls)
}

func TestGetBundle(t *testing.T) {
	b := Bundle{ID: uuid.New(), Handle: "poster-pack", Title: "Poster pack", Items: []Item{
		{Title: "A3", CalculatedAmount: amount(1800), OriginalAmount: amount(2000)},
	}}
	svc := newTestService(t, &fakeStore{bundles: []Bundle{b}})

	card, err := svc.Get(context.Background(), b.ID, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, card.CheapestPrice)
	require.Equal(t, 10, card.CheapestPrice.PercentageDiff)

	_, err = svc.Get(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
}
