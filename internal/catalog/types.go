package catalog

import (
	"github.com/google/uuid"
)

// Product is the storefront view of a catalog product. It is loaded once per
// request cycle and treated as immutable afterwards.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Handle      string    `json:"handle"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Thumbnail   *string   `json:"thumbnail,omitempty"`
	Options     []Option  `json:"options"`
	Variants    []Variant `json:"variants"`
	// RequiresDimensions marks personalized products whose price depends on
	// buyer-supplied width/height.
	RequiresDimensions bool `json:"requiresDimensions"`
	// RequiresArtwork marks print-on-demand products that expect an uploaded
	// graphic before checkout.
	RequiresArtwork bool              `json:"requiresArtwork"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// Option is a named configuration axis with an enumerated value set.
type Option struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Values []string  `json:"values"`
}

// OptionValue assigns a single value to one of the parent product's options.
type OptionValue struct {
	OptionID uuid.UUID `json:"optionId"`
	Value    string    `json:"value"`
}

// Variant is a purchasable configuration of a product, distinguished by
// exactly one value per option defined on the parent product.
type Variant struct {
	ID      uuid.UUID     `json:"id"`
	SKU     *string       `json:"sku,omitempty"`
	Options []OptionValue `json:"options"`

	ManageInventory   bool `json:"manageInventory"`
	AllowBackorder    bool `json:"allowBackorder"`
	InventoryQuantity int  `json:"inventoryQuantity"`

	// CalculatedAmount and OriginalAmount are the static price-list amounts
	// in minor units. Personalized products are priced by the pricing
	// authority instead; for those the fields stay nil.
	CalculatedAmount *int64 `json:"calculatedAmount,omitempty"`
	OriginalAmount   *int64 `json:"originalAmount,omitempty"`
}

// Region carries the currency and display locale for a sales region.
type Region struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	CurrencyCode string    `json:"currencyCode"`
	Locale       string    `json:"locale"`
}

// KeyMap maps option identities to chosen values. A variant's assignments and
// a buyer's in-progress selection encode to the same shape so that matching is
// a single map comparison.
type KeyMap map[uuid.UUID]string

// OptionsAsKeyMap flattens a variant's option assignments into a KeyMap.
// Later assignments for the same option overwrite earlier ones, mirroring the
// invariant that a variant carries exactly one value per option.
func OptionsAsKeyMap(assignments []OptionValue) KeyMap {
	m := make(KeyMap, len(assignments))
	for _, a := range assignments {
		m[a.OptionID] = a.Value
	}
	return m
}

// Equal reports whether two key maps carry the same option set with the same
// values. Key order is irrelevant; a nil map equals an empty one.
func (m KeyMap) Equal(other KeyMap) bool {
	if len(m) != len(other) {
		return false
	}
	for id, value := range m {
		if got, ok := other[id]; !ok || got != value {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the key map.
func (m KeyMap) Clone() KeyMap {
	out := make(KeyMap, len(m))
	for id, value := range m {
		out[id] = value
	}
	return out
}

// VariantByID returns the variant with the given identity, or nil.
func (p *Product) VariantByID(id uuid.UUID) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}
