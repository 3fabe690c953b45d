package lineitems

import (
	"testing"

	"shopsync/internal/model"
)

func TestDiff_EmptyToItems(t *testing.T) {
	next := []model.LineItem{
		{VariantID: "v1", Quantity: 2},
		{VariantID: "v2", Quantity: 1},
	}

	changes := Diff(nil, next)

	if len(changes.Added) != 2 {
		t.Errorf("Added = %d, want 2", len(changes.Added))
	}
	if len(changes.Updated) != 0 {
		t.Errorf("Updated = %d, want 0", len(changes.Updated))
	}
	if len(changes.Removed) != 0 {
		t.Errorf("Removed = %d, want 0", len(changes.Removed))
	}
}

func TestDiff_ItemsToEmpty(t *testing.T) {
	prev := []model.LineItem{
		{VariantID: "v1", Quantity: 2},
		{VariantID: "v2", Quantity: 1},
	}

	changes := Diff(prev, []model.LineItem{})

	if len(changes.Removed) != 2 {
		t.Errorf("Removed = %d, want 2", len(changes.Removed))
	}
	if changes.Removed[0] != "v1" || changes.Removed[1] != "v2" {
		t.Errorf("Removed = %v, want [v1 v2]", changes.Removed)
	}
}

func TestDiff_QuantityUpdate(t *testing.T) {
	prev := []model.LineItem{{VariantID: "v1", Quantity: 2}}
	next := []model.LineItem{{VariantID: "v1", Quantity: 5}}

	changes := Diff(prev, next)

	if len(changes.Updated) != 1 {
		t.Fatalf("Updated = %d, want 1", len(changes.Updated))
	}
	if changes.Updated[0].OldQuantity != 2 {
		t.Errorf("OldQuantity = %d, want 2", changes.Updated[0].OldQuantity)
	}
	if changes.Updated[0].NewQuantity != 5 {
		t.Errorf("NewQuantity = %d, want 5", changes.Updated[0].NewQuantity)
	}
}

func TestDiff_NoChange(t *testing.T) {
	items := []model.LineItem{{VariantID: "v1", Quantity: 2}}

	changes := Diff(items, items)

	if !changes.IsEmpty() {
		t.Error("Expected empty diff for identical items")
	}
}

func TestDiff_MixedOperations(t *testing.T) {
	prev := []model.LineItem{
		{VariantID: "v1", Quantity: 2}, // removed
		{VariantID: "v2", Quantity: 1}, // updated
		{VariantID: "v3", Quantity: 3}, // unchanged
	}
	next := []model.LineItem{
		{VariantID: "v4", Quantity: 1}, // added
		{VariantID: "v2", Quantity: 5},
		{VariantID: "v3", Quantity: 3},
	}

	changes := Diff(prev, next)

	if len(changes.Added) != 1 || changes.Added[0].VariantID != "v4" {
		t.Errorf("Added = %+v, want [v4]", changes.Added)
	}
	if len(changes.Updated) != 1 || changes.Updated[0].VariantID != "v2" {
		t.Errorf("Updated = %+v, want [v2]", changes.Updated)
	}
	if len(changes.Removed) != 1 || changes.Removed[0] != "v1" {
		t.Errorf("Removed = %v, want [v1]", changes.Removed)
	}
}
