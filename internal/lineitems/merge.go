// Package lineitems computes and synchronizes the checkout line-item sequence.
//
// The sequence holds at most one entry per variant. Adding a variant that is
// already present sums the quantities in place; a new variant goes to the front.
package lineitems

import (
	"maps"
	"math"

	"golang.org/x/text/unicode/norm"

	"shopsync/internal/model"
)

// MaxQuantity is the largest quantity a single line item may hold.
const MaxQuantity = math.MaxInt32

// Merge returns the sequence that results from adding candidate to items.
// items is not modified.
//
// Matching is strict equality on VariantID. On a match the entry keeps its
// position, its quantity becomes the sum, and each custom attribute present on
// candidate overwrites the existing one. Otherwise candidate is prepended.
// A summed quantity saturates at MaxQuantity; callers that must reject such
// adds check QuantityAfter first.
func Merge(items []model.LineItem, candidate model.LineItem) []model.LineItem {
	out := model.CloneLineItems(items)

	for i, existing := range out {
		if existing.VariantID != candidate.VariantID {
			continue
		}
		out[i] = mergeItem(existing, candidate)
		return out
	}

	return append([]model.LineItem{candidate.Clone()}, out...)
}

func mergeItem(existing, candidate model.LineItem) model.LineItem {
	merged := existing.Clone()
	merged.Quantity = addQuantity(existing.Quantity, candidate.Quantity)

	if len(candidate.CustomAttributes) > 0 {
		if merged.CustomAttributes == nil {
			merged.CustomAttributes = make(map[string]string, len(candidate.CustomAttributes))
		}
		maps.Copy(merged.CustomAttributes, candidate.CustomAttributes)
	}

	return merged
}

// QuantityAfter returns the quantity variantID would hold after adding
// quantity to items, and false when that exceeds MaxQuantity.
func QuantityAfter(items []model.LineItem, variantID string, quantity int) (int, bool) {
	current := 0
	for _, item := range items {
		if item.VariantID == variantID {
			current = item.Quantity
			break
		}
	}
	if quantity > MaxQuantity || current > MaxQuantity-quantity {
		return 0, false
	}
	return current + quantity, true
}

func addQuantity(a, b int) int {
	if b > 0 && a > MaxQuantity-b {
		return MaxQuantity
	}
	return a + b
}

// NormalizeAttributes returns attrs with keys and values in Unicode NFC, so
// that canonically equivalent keys overwrite each other on merge.
// An empty map yields nil.
func NormalizeAttributes(attrs map[string]string) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[norm.NFC.String(k)] = norm.NFC.String(v)
	}
	return out
}
