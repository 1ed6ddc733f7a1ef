package selection

import (
	"github.com/printhaus/storefront-api/internal/catalog"
)

// Resolve returns the unique variant whose encoded option assignments equal
// the buyer's selection exactly: same option set, same values, nothing
// partial. It returns nil when no variant matches. Resolution is a pure
// function of its inputs and is cheap enough to re-run on every mutation.
func Resolve(variants []catalog.Variant, selected catalog.KeyMap) *catalog.Variant {
	for i := range variants {
		if catalog.OptionsAsKeyMap(variants[i].Options).Equal(selected) {
			return &variants[i]
		}
	}
	return nil
}

// IsValid reports whether the selection corresponds to some variant. It
// derives from the same equality scan as Resolve so the two can never
// disagree.
func IsValid(variants []catalog.Variant, selected catalog.KeyMap) bool {
	return Resolve(variants, selected) != nil
}

// AutoPopulate returns the initial selection for a product. Single-variant
// products start with that variant's assignments already selected; products
// with several variants start empty.
func AutoPopulate(p *catalog.Product) catalog.KeyMap {
	if len(p.Variants) == 1 {
		return catalog.OptionsAsKeyMap(p.Variants[0].Options)
	}
	return catalog.KeyMap{}
}
