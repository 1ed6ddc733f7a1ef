package selection

import (
	"github.com/printhaus/storefront-api/internal/catalog"
)

// InStock evaluates purchasability for a resolved variant. The rule order
// matters: backorder permission wins over a zero quantity.
func InStock(v *catalog.Variant) bool {
	// No resolved variant means nothing to buy.
	if v == nil {
		return false
	}
	// Untracked inventory is always purchasable.
	if !v.ManageInventory {
		return true
	}
	// Backorders are allowed regardless of the current count.
	if v.AllowBackorder {
		return true
	}
	return v.InventoryQuantity > 0
}
