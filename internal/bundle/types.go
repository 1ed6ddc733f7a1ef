package bundle

import (
	"github.com/google/uuid"
)

// Bundle groups several catalog products sold together, typically a pack of
// neighbouring print formats. Item prices come from the stored price lists of
// the variants behind each item, scoped to the requested region.
type Bundle struct {
	ID          uuid.UUID `json:"id"`
	Handle      string    `json:"handle"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Thumbnail   *string   `json:"thumbnail,omitempty"`
	Items       []Item    `json:"items"`
}

// Item is one product inside a bundle, pinned to a concrete variant.
type Item struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"productId"`
	ProductHandle string    `json:"productHandle"`
	VariantID     uuid.UUID `json:"variantId"`
	Title         string    `json:"title"`
	Thumbnail     *string   `json:"thumbnail,omitempty"`
	Quantity      int       `json:"quantity"`

	// Region-scoped price-list amounts in minor units; nil when the region
	// has no stored price for the variant.
	CalculatedAmount *int64 `json:"calculatedAmount,omitempty"`
	OriginalAmount   *int64 `json:"originalAmount,omitempty"`
}
