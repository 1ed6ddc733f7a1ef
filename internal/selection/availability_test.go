package selection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printhaus/storefront-api/internal/catalog"
)

func TestInStock(t *testing.T) {
	cases := []struct {
		name    string
		variant *catalog.Variant
		want    bool
	}{
		{"no variant", nil, false},
		{"inventory not managed", &catalog.Variant{ManageInventory: false}, true},
		{"backorder allowed even at zero", &catalog.Variant{ManageInventory: true, AllowBackorder: true, InventoryQuantity: 0}, true},
		{"managed with stock", &catalog.Variant{ManageInventory: true, InventoryQuantity: 3}, true},
		{"managed and exhausted", &catalog.Variant{ManageInventory: true, InventoryQuantity: 0}, false},
		{"managed and negative", &catalog.Variant{ManageInventory: true, InventoryQuantity: -2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, InStock(tc.variant))
		})
	}
}
