package pricing

import (
	"github.com/google/uuid"
)

// Metadata carries buyer-supplied numeric parameters that influence the
// price, e.g. the physical dimensions of a personalized print.
type Metadata map[string]float64

// Equal reports whether two metadata maps carry identical keys and values.
func (m Metadata) Equal(other Metadata) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if got, ok := other[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Tuple identifies the exact input state a quote was produced for. A quote is
// meaningless detached from its tuple: whenever any component changes, every
// quote derived from the previous tuple is invalid.
type Tuple struct {
	VariantID uuid.UUID
	RegionID  uuid.UUID
	Metadata  Metadata
}

// Equal reports whether two tuples describe the same pricing input.
func (t Tuple) Equal(other Tuple) bool {
	return t.VariantID == other.VariantID &&
		t.RegionID == other.RegionID &&
		t.Metadata.Equal(other.Metadata)
}

// Quote is an authoritative price for a single input tuple, in minor units.
// It has no persistent identity; it is produced and discarded per resolution
// cycle.
type Quote struct {
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
	Tuple        Tuple  `json:"-"`
}
