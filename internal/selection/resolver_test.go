package selection

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/printhaus/storefront-api/internal/catalog"
)

func buildShirt() (*catalog.Product, uuid.UUID, uuid.UUID) {
	sizeID := uuid.New()
	colorID := uuid.New()
	p := &catalog.Product{
		ID:     uuid.New(),
		Handle: "classic-shirt",
		Options: []catalog.Option{
			{ID: sizeID, Title: "Size", Values: []string{"S", "M", "L"}},
			{ID: colorID, Title: "Color", Values: []string{"black", "white"}},
		},
		Variants: []catalog.Variant{
			{ID: uuid.New(), Options: []catalog.OptionValue{
				{OptionID: sizeID, Value: "S"}, {OptionID: colorID, Value: "black"},
			}},
			{ID: uuid.New(), Options: []catalog.OptionValue{
				{OptionID: sizeID, Value: "M"}, {OptionID: colorID, Value: "white"},
			}},
		},
	}
	return p, sizeID, colorID
}

func TestResolveExactMatch(t *testing.T) {
	p, sizeID, colorID := buildShirt()

	got := Resolve(p.Variants, catalog.KeyMap{sizeID: "M", colorID: "white"})
	require.NotNil(t, got)
	require.Equal(t, p.Variants[1].ID, got.ID)

	// Key order in the selection map must not matter.
	got = Resolve(p.Variants, catalog.KeyMap{colorID: "black", sizeID: "S"})
	require.NotNil(t, got)
	require.Equal(t, p.Variants[0].ID, got.ID)
}

func TestResolveRejectsPartialAndSuperset(t *testing.T) {
	p, sizeID, colorID := buildShirt()

	require.Nil(t, Resolve(p.Variants, catalog.KeyMap{sizeID: "M"}))
	require.Nil(t, Resolve(p.Variants, catalog.KeyMap{
		sizeID: "M", colorID: "white", uuid.New(): "extra",
	}))
	require.Nil(t, Resolve(p.Variants, catalog.KeyMap{sizeID: "L", colorID: "white"}))
	require.Nil(t, Resolve(nil, catalog.KeyMap{sizeID: "M"}))
}

func TestIsValid(t *testing.T) {
	p, sizeID, colorID := buildShirt()
	require.True(t, IsValid(p.Variants, catalog.KeyMap{sizeID: "S", colorID: "black"}))
	require.False(t, IsValid(p.Variants, catalog.KeyMap{sizeID: "S"}))
}

func TestAutoPopulateSingleVariant(t *testing.T) {
	optID := uuid.New()
	p := &catalog.Product{
		Options: []catalog.Option{{ID: optID, Title: "Finish", Values: []string{"matte"}}},
		Variants: []catalog.Variant{
			{ID: uuid.New(), Options: []catalog.OptionValue{{OptionID: optID, Value: "matte"}}},
		},
	}
	got := AutoPopulate(p)
	require.Equal(t, catalog.KeyMap{optID: "matte"}, got)

	multi, _, _ := buildShirt()
	require.Empty(t, AutoPopulate(multi))
}
