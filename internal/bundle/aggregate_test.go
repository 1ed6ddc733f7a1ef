package bundle

import (
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/printhaus/storefront-api/internal/obs"
)

func amount(v int64) *int64 { return &v }

func TestCheapestPricePicksLowestItem(t *testing.T) {
	obs.MustRegisterDomainMetrics("bundletest", prometheus.NewRegistry())
	b := &Bundle{
		ID: uuid.New(),
		Items: []Item{
			{Title: "A2 poster", CalculatedAmount: amount(2500), OriginalAmount: amount(3000)},
			{Title: "A3 poster", CalculatedAmount: amount(1800), OriginalAmount: amount(2000)},
			{Title: "A4 poster"}, // no stored price for this region
		},
	}

	view, err := CheapestPrice(b, "EUR", "de-DE")
	require.NoError(t, err)
	require.NotNil(t, view)
	require.Equal(t, int64(1800), view.CalculatedAmount)
	// The struck-through original comes from the same item as the winner.
	require.NotNil(t, view.OriginalAmount)
	require.Equal(t, int64(2000), *view.OriginalAmount)
	require.Equal(t, 10, view.PercentageDiff)
}

func TestCheapestPriceAbsence(t *testing.T) {
	obs.MustRegisterDomainMetrics("bundletest", prometheus.NewRegistry())

	view, err := CheapestPrice(&Bundle{ID: uuid.New()}, "EUR", "de-DE")
	require.NoError(t, err)
	require.Nil(t, view)

	view, err = CheapestPrice(&Bundle{
		ID:    uuid.New(),
		Items: []Item{{Title: "unpriced"}},
	}, "EUR", "de-DE")
	require.NoError(t, err)
	require.Nil(t, view)
}

func TestCheapestPriceInvalidInput(t *testing.T) {
	obs.MustRegisterDomainMetrics("bundletest", prometheus.NewRegistry())

	_, err := CheapestPrice(nil, "EUR", "de-DE")
	require.Error(t, err)

	_, err = CheapestPrice(&Bundle{}, "EUR", "de-DE")
	require.Error(t, err)
}
