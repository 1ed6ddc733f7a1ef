package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printhaus/storefront-api/internal/pricing"
)

func TestConvertToLocaleStable(t *testing.T) {
	first := pricing.ConvertToLocale(249000, "USD", "en-US")
	second := pricing.ConvertToLocale(249000, "USD", "en-US")
	require.Equal(t, first, second, "same input must render the same string")
	require.Contains(t, first, "2,490")

	t.Run("zero-decimal currency", func(t *testing.T) {
		out := pricing.ConvertToLocale(5000, "JPY", "ja-JP")
		require.Contains(t, out, "5,000")
	})

	t.Run("unknown currency stays total", func(t *testing.T) {
		out := pricing.ConvertToLocale(1234, "ZZZ", "en-US")
		require.Equal(t, "ZZZ 12.34", out)
	})

	t.Run("negative amounts clamp to zero", func(t *testing.T) {
		require.Equal(t, pricing.ConvertToLocale(0, "USD", "en-US"), pricing.ConvertToLocale(-5, "USD", "en-US"))
	})
}

func TestPercentageDiff(t *testing.T) {
	tests := []struct {
		name       string
		original   int64
		calculated int64
		want       int
	}{
		{name: "twenty percent off", original: 1000, calculated: 800, want: 20},
		{name: "zero original", original: 0, calculated: 800, want: 0},
		{name: "negative original", original: -100, calculated: 50, want: 0},
		{name: "equal amounts", original: 800, calculated: 800, want: 0},
		{name: "calculated above original", original: 800, calculated: 1000, want: 0},
		{name: "rounds to nearest", original: 300, calculated: 200, want: 33},
		{name: "full discount", original: 500, calculated: 0, want: 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, pricing.PercentageDiff(tc.original, tc.calculated))
		})
	}
}

func TestNewView(t *testing.T) {
	original := int64(1000)
	v := pricing.NewView(800, &original, "USD", "en-US")
	require.Equal(t, int64(800), v.CalculatedAmount)
	require.Equal(t, 20, v.PercentageDiff)
	require.NotEmpty(t, v.CalculatedPrice)
	require.NotEmpty(t, v.OriginalPrice)

	t.Run("no original means no discount", func(t *testing.T) {
		v := pricing.NewView(800, nil, "USD", "en-US")
		require.Zero(t, v.PercentageDiff)
		require.Nil(t, v.OriginalAmount)
		require.Empty(t, v.OriginalPrice)
	})
}
