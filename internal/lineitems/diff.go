package lineitems

import "shopsync/internal/model"

// Changes describes how one line-item sequence differs from another.
type Changes struct {
	Added   []model.LineItem `json:"added,omitempty"`   // Variants in next but not prev
	Updated []QuantityChange `json:"updated,omitempty"` // Variants in both with different quantities
	Removed []string         `json:"removed,omitempty"` // Variant IDs in prev but not next
}

// QuantityChange records a quantity change for one variant.
type QuantityChange struct {
	VariantID   string `json:"variant_id"`
	OldQuantity int    `json:"old_quantity"`
	NewQuantity int    `json:"new_quantity"`
}

// IsEmpty returns true if the sequences hold the same variants and quantities.
func (c *Changes) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

// Diff compares prev and next by VariantID. Results follow the order of next
// (Added, Updated) and prev (Removed).
func Diff(prev, next []model.LineItem) *Changes {
	changes := &Changes{}

	prevByVariant := make(map[string]model.LineItem, len(prev))
	for _, item := range prev {
		prevByVariant[item.VariantID] = item
	}
	nextByVariant := make(map[string]struct{}, len(next))

	for _, item := range next {
		nextByVariant[item.VariantID] = struct{}{}

		old, exists := prevByVariant[item.VariantID]
		if !exists {
			changes.Added = append(changes.Added, item.Clone())
			continue
		}
		if old.Quantity != item.Quantity {
			changes.Updated = append(changes.Updated, QuantityChange{
				VariantID:   item.VariantID,
				OldQuantity: old.Quantity,
				NewQuantity: item.Quantity,
			})
		}
	}

	for _, item := range prev {
		if _, exists := nextByVariant[item.VariantID]; !exists {
			changes.Removed = append(changes.Removed, item.VariantID)
		}
	}

	return changes
}
