// Package reorder turns pick-up/drop gestures into confirmed index
// mutations against the bookmark store, keeping the in-memory order, the
// rendered view, and the store in agreement.
package reorder

import (
	"errors"
	"fmt"
)

// ErrInvalidIndex reports resolver input outside the valid range. This is
// a programming error in the caller, never a user-visible condition.
var ErrInvalidIndex = errors.New("reorder: index out of range")

// ResolveTargetIndex converts a drop on insertion slot toSlot into the
// final index for an item currently at fromIndex, in a sequence of n
// items. Slots number the n+1 gaps around the items: slot 0 is before the
// first item, slot n after the last.
//
// All index arithmetic for moves lives here. Dropping past the source
// collapses the pointed-at slot by one because removing the item shifts
// everything after it left; dropping at or before the source does not.
// Both no-op gestures (toSlot == fromIndex and toSlot == fromIndex+1)
// resolve to fromIndex.
func ResolveTargetIndex(fromIndex, toSlot, n int) (int, error) {
	if n <= 0 || fromIndex < 0 || fromIndex >= n || toSlot < 0 || toSlot > n {
		return 0, fmt.Errorf("%w: fromIndex=%d toSlot=%d n=%d", ErrInvalidIndex, fromIndex, toSlot, n)
	}
	if toSlot > fromIndex {
		return toSlot - 1, nil
	}
	return toSlot, nil
}
