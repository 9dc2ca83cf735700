package reorder_test

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/nikbrunner/tabdeck/internal/reorder"
)

func TestResolveTargetIndex(t *testing.T) {
	tests := []struct {
		name string
		from int
		slot int
		n    int
		want int
	}{
		{name: "first item to first slot", from: 0, slot: 0, n: 5, want: 0},
		{name: "last item to first slot", from: 4, slot: 0, n: 5, want: 0},
		{name: "first item to last slot", from: 0, slot: 5, n: 5, want: 4},
		{name: "own slot is a no-op", from: 2, slot: 2, n: 5, want: 2},
		{name: "slot after own is a no-op", from: 2, slot: 3, n: 5, want: 2},
		{name: "forward past removal point", from: 1, slot: 4, n: 5, want: 3},
		{name: "backward before removal point", from: 3, slot: 1, n: 5, want: 1},
		{name: "single item", from: 0, slot: 1, n: 1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reorder.ResolveTargetIndex(tt.from, tt.slot, tt.n)
			if err != nil {
				t.Fatalf("ResolveTargetIndex(%d, %d, %d): %v", tt.from, tt.slot, tt.n, err)
			}
			if got != tt.want {
				t.Errorf("ResolveTargetIndex(%d, %d, %d) = %d, want %d", tt.from, tt.slot, tt.n, got, tt.want)
			}
		})
	}
}

func TestResolveTargetIndex_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		from int
		slot int
		n    int
	}{
		{name: "empty sequence", from: 0, slot: 0, n: 0},
		{name: "negative from", from: -1, slot: 0, n: 3},
		{name: "from at length", from: 3, slot: 0, n: 3},
		{name: "negative slot", from: 0, slot: -1, n: 3},
		{name: "slot past last gap", from: 0, slot: 4, n: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reorder.ResolveTargetIndex(tt.from, tt.slot, tt.n)
			if !errors.Is(err, reorder.ErrInvalidIndex) {
				t.Errorf("expected ErrInvalidIndex, got %v", err)
			}
		})
	}
}

func TestResolveTargetIndex_RangeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 50).Draw(t, "n")
		from := rapid.IntRange(0, n-1).Draw(t, "from")
		slot := rapid.IntRange(0, n).Draw(t, "slot")

		got, err := reorder.ResolveTargetIndex(from, slot, n)
		if err != nil {
			t.Fatalf("valid input rejected: %v", err)
		}
		if got < 0 || got >= n {
			t.Fatalf("ResolveTargetIndex(%d, %d, %d) = %d, outside [0, %d)", from, slot, n, got, n)
		}
	})
}

func TestResolveTargetIndex_NoOpProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 50).Draw(t, "n")
		k := rapid.IntRange(0, n-1).Draw(t, "k")

		if got, _ := reorder.ResolveTargetIndex(k, k, n); got != k {
			t.Fatalf("ResolveTargetIndex(%d, %d, %d) = %d, want %d", k, k, n, got, k)
		}
		if got, _ := reorder.ResolveTargetIndex(k, k+1, n); got != k {
			t.Fatalf("ResolveTargetIndex(%d, %d, %d) = %d, want %d", k, k+1, n, got, k)
		}
	})
}

func TestResolveTargetIndex_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 20).Draw(t, "n")
		from := rapid.IntRange(0, n-1).Draw(t, "from")
		slot := rapid.IntRange(0, n).Draw(t, "slot")

		items := make([]model.Item, n)
		for i := range items {
			items[i] = model.Item{ID: string(rune('a' + i))}
		}
		original := model.NewOrder(nil, items)
		order := model.NewOrder(nil, items)

		target, err := reorder.ResolveTargetIndex(from, slot, n)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if err := order.ApplyMove(from, target); err != nil {
			t.Fatalf("apply: %v", err)
		}

		// Moving the item back to the gap it came from restores the
		// original order: slot from if it went right, from+1 if left.
		backSlot := from
		if target < from {
			backSlot = from + 1
		}
		backTarget, err := reorder.ResolveTargetIndex(target, backSlot, n)
		if err != nil {
			t.Fatalf("resolve back: %v", err)
		}
		if err := order.ApplyMove(target, backTarget); err != nil {
			t.Fatalf("apply back: %v", err)
		}

		want := original.Items()
		got := order.Items()
		for i := range want {
			if got[i].ID != want[i].ID {
				t.Fatalf("round trip broke order: got %v, want %v", got, want)
			}
		}
	})
}
