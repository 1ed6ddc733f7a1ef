package pricing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/printhaus/storefront-api/internal/pricing"
	"github.com/printhaus/storefront-api/internal/resilience"
)

func newAuthority(t *testing.T, handler http.HandlerFunc) *pricing.AuthorityClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &pricing.AuthorityClient{
		BaseURL: server.URL,
		HTTP: &resilience.HTTPClient{
			Client:      server.Client(),
			MaxAttempts: 2,
			BaseBackoff: time.Millisecond,
			Timeout:     time.Second,
		},
	}
}

func TestAuthorityClientQuote(t *testing.T) {
	tuple := pricing.Tuple{
		VariantID: uuid.New(),
		RegionID:  uuid.New(),
		Metadata:  pricing.Metadata{"width": 30, "height": 40},
	}

	client := newAuthority(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/quotes", r.URL.Path)
		var body struct {
			VariantID uuid.UUID          `json:"variant_id"`
			RegionID  uuid.UUID          `json:"region_id"`
			Metadata  map[string]float64 `json:"metadata"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, tuple.VariantID, body.VariantID)
		require.Equal(t, tuple.RegionID, body.RegionID)
		require.Equal(t, float64(30), body.Metadata["width"])
		_ = json.NewEncoder(w).Encode(map[string]int64{"amount": 12900})
	})

	amount, err := client.Quote(context.Background(), tuple)
	require.NoError(t, err)
	require.Equal(t, int64(12900), amount)
}

func TestAuthorityClientErrors(t *testing.T) {
	t.Run("non-200 response", func(t *testing.T) {
		client := newAuthority(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusBadRequest)
		})
		_, err := client.Quote(context.Background(), pricing.Tuple{})
		require.Error(t, err)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		client := newAuthority(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]int64{"amount": -1})
		})
		_, err := client.Quote(context.Background(), pricing.Tuple{})
		require.Error(t, err)
	})

	t.Run("retries server failures", func(t *testing.T) {
		var calls int
		client := newAuthority(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]int64{"amount": 500})
		})
		amount, err := client.Quote(context.Background(), pricing.Tuple{})
		require.NoError(t, err)
		require.Equal(t, int64(500), amount)
		require.Equal(t, 2, calls)
	})
}

func TestTupleEqual(t *testing.T) {
	variant := uuid.New()
	region := uuid.New()
	a := pricing.Tuple{VariantID: variant, RegionID: region, Metadata: pricing.Metadata{"width": 30}}
	b := pricing.Tuple{VariantID: variant, RegionID: region, Metadata: pricing.Metadata{"width": 30}}
	require.True(t, a.Equal(b))

	require.False(t, a.Equal(pricing.Tuple{VariantID: uuid.New(), RegionID: region, Metadata: a.Metadata}))
	require.False(t, a.Equal(pricing.Tuple{VariantID: variant, RegionID: region, Metadata: pricing.Metadata{"width": 31}}))
	require.False(t, a.Equal(pricing.Tuple{VariantID: variant, RegionID: region}))

	t.Run("nil metadata equals empty", func(t *testing.T) {
		x := pricing.Tuple{VariantID: variant, RegionID: region}
		y := pricing.Tuple{VariantID: variant, RegionID: region, Metadata: pricing.Metadata{}}
		require.True(t, x.Equal(y))
	})
}
