package model

import "fmt"

// Order is the in-memory ordered sequence for one level of the bookmark
// store. It mirrors the last confirmed store state for that level; the
// reorder engine is the only writer.
type Order struct {
	parentID *string
	items    []Item
}

// NewOrder creates an Order for the given parent level.
// Pass nil for the top level.
func NewOrder(parentID *string, items []Item) *Order {
	return &Order{
		parentID: parentID,
		items:    append([]Item{}, items...),
	}
}

// ParentID returns the parent level this order mirrors (nil = top level).
func (o *Order) ParentID() *string {
	return o.parentID
}

// Len returns the number of items.
func (o *Order) Len() int {
	return len(o.items)
}

// At returns the item at index i, or false if i is out of range.
func (o *Order) At(i int) (Item, bool) {
	if i < 0 || i >= len(o.items) {
		return Item{}, false
	}
	return o.items[i], true
}

// IndexOf returns the index of the item with the given ID, or -1.
func (o *Order) IndexOf(id string) int {
	for i := range o.items {
		if o.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Items returns a copy of the current sequence.
func (o *Order) Items() []Item {
	return append([]Item{}, o.items...)
}

// ApplyMove removes the item at from and reinserts it at to. Both indices
// are positions in the current sequence (to is a final index, not a slot).
func (o *Order) ApplyMove(from, to int) error {
	n := len(o.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move %d -> %d out of range for %d items", from, to, n)
	}
	if from == to {
		return nil
	}
	item := o.items[from]
	rest := append(append([]Item{}, o.items[:from]...), o.items[from+1:]...)
	o.items = append(append(append([]Item{}, rest[:to]...), item), rest[to:]...)
	return nil
}

// Replace swaps in a new authoritative sequence, e.g. after re-listing the
// store. Returns true if the order actually changed.
func (o *Order) Replace(items []Item) bool {
	changed := len(items) != len(o.items)
	if !changed {
		for i := range items {
			if items[i].ID != o.items[i].ID {
				changed = true
				break
			}
		}
	}
	o.items = append([]Item{}, items...)
	return changed
}
