package bundle

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/printhaus/storefront-api/internal/common"
	"github.com/printhaus/storefront-api/internal/obs"
	"github.com/printhaus/storefront-api/internal/pricing"
)

// CheapestPrice returns the lowest stored item price in a bundle as a
// display-ready view, used as the teaser amount on bundle cards. The original
// amount shown next to it belongs to the same item, so the struck-through
// pairing stays coherent.
//
// A bundle with no items, or whose items all lack a stored price for the
// region, yields a nil view and no error; the card simply renders without a
// price. A nil or unidentified bundle is a caller bug and reported as
// INVALID_INPUT.
func CheapestPrice(b *Bundle, currencyCode, locale string) (*pricing.View, error) {
	if b == nil || b.ID == uuid.Nil {
		countOutcome("invalid")
		return nil, &common.AppError{
			Code:       common.CodeInvalidInput,
			Message:    "bundle is missing or has no identity",
			HTTPStatus: http.StatusBadRequest,
		}
	}

	var cheapest *Item
	for i := range b.Items {
		item := &b.Items[i]
		if item.CalculatedAmount == nil {
			continue
		}
		if cheapest == nil || *item.CalculatedAmount < *cheapest.CalculatedAmount {
			cheapest = item
		}
	}
	if cheapest == nil {
		countOutcome("absent")
		return nil, nil
	}

	countOutcome("ok")
	view := pricing.NewView(*cheapest.CalculatedAmount, cheapest.OriginalAmount, currencyCode, locale)
	return &view, nil
}

func countOutcome(result string) {
	if obs.BundlePriceTotal != nil {
		obs.BundlePriceTotal.WithLabelValues(result).Inc()
	}
}
