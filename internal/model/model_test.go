package model_test

import (
	"encoding/json"
	"testing"

	"github.com/nikbrunner/tabdeck/internal/model"
)

func stringPtr(s string) *string { return &s }

func TestItem_JSONSerialization(t *testing.T) {
	tests := []struct {
		name string
		item model.Item
	}{
		{
			name: "leaf with all fields",
			item: model.Item{
				ID:       "i1",
				Title:    "TanStack Router",
				URL:      "https://tanstack.com/router",
				Kind:     model.ItemLeaf,
				ParentID: stringPtr("f1"),
			},
		},
		{
			name: "top level folder",
			item: model.Item{
				ID:       "f1",
				Title:    "Development",
				Kind:     model.ItemFolder,
				ParentID: nil,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.item)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}

			var got model.Item
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}

			if got.ID != tt.item.ID {
				t.Errorf("ID mismatch: got %q, want %q", got.ID, tt.item.ID)
			}
			if got.Title != tt.item.Title {
				t.Errorf("Title mismatch: got %q, want %q", got.Title, tt.item.Title)
			}
			if got.Kind != tt.item.Kind {
				t.Errorf("Kind mismatch: got %v, want %v", got.Kind, tt.item.Kind)
			}
		})
	}
}

func testItems(ids ...string) []model.Item {
	items := make([]model.Item, len(ids))
	for i, id := range ids {
		items[i] = model.Item{ID: id, Title: id, Kind: model.ItemFolder}
	}
	return items
}

func orderIDs(o *model.Order) []string {
	items := o.Items()
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func TestOrder_ApplyMove(t *testing.T) {
	tests := []struct {
		name string
		from int
		to   int
		want []string
	}{
		{name: "no-op", from: 2, to: 2, want: []string{"A", "B", "C", "D", "E"}},
		{name: "last to front", from: 4, to: 0, want: []string{"E", "A", "B", "C", "D"}},
		{name: "first to back", from: 0, to: 4, want: []string{"B", "C", "D", "E", "A"}},
		{name: "forward one", from: 1, to: 2, want: []string{"A", "C", "B", "D", "E"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := model.NewOrder(nil, testItems("A", "B", "C", "D", "E"))
			if err := order.ApplyMove(tt.from, tt.to); err != nil {
				t.Fatalf("ApplyMove(%d, %d): %v", tt.from, tt.to, err)
			}
			got := orderIDs(order)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("order mismatch: got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestOrder_ApplyMove_OutOfRange(t *testing.T) {
	order := model.NewOrder(nil, testItems("A", "B"))
	if err := order.ApplyMove(0, 2); err == nil {
		t.Error("expected error for to == len")
	}
	if err := order.ApplyMove(-1, 0); err == nil {
		t.Error("expected error for negative from")
	}
}

func TestOrder_Replace(t *testing.T) {
	order := model.NewOrder(nil, testItems("A", "B", "C"))

	if changed := order.Replace(testItems("A", "B", "C")); changed {
		t.Error("identical replacement should report unchanged")
	}
	if changed := order.Replace(testItems("C", "A", "B")); !changed {
		t.Error("reordered replacement should report changed")
	}
	if changed := order.Replace(testItems("C", "A")); !changed {
		t.Error("shrunk replacement should report changed")
	}
	if order.Len() != 2 {
		t.Errorf("expected length 2, got %d", order.Len())
	}
}

func TestOrder_IndexOf(t *testing.T) {
	order := model.NewOrder(nil, testItems("A", "B", "C"))
	if got := order.IndexOf("B"); got != 1 {
		t.Errorf("IndexOf(B) = %d, want 1", got)
	}
	if got := order.IndexOf("missing"); got != -1 {
		t.Errorf("IndexOf(missing) = %d, want -1", got)
	}
}
