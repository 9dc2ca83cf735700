// Package store defines the external bookmark store contract: an ordered
// tree of items with move/create/remove operations and change
// notifications. The reorder engine treats implementations as eventually
// consistent; the only ordering authority is what List reports after a
// confirmed mutation.
package store

import (
	"context"
	"errors"

	"github.com/nikbrunner/tabdeck/internal/model"
)

// Common errors.
var (
	ErrNotFound     = errors.New("store: item not found")
	ErrInvalidIndex = errors.New("store: index out of range")
)

// Store is the external ordered-tree bookmark store.
type Store interface {
	// List returns the children of parentID in sibling order.
	// Pass nil for the top level.
	List(ctx context.Context, parentID *string) ([]model.Item, error)

	// Move repositions the item to newIndex among its siblings.
	Move(ctx context.Context, id string, newIndex int) error

	// Create inserts the item at index among the children of item.ParentID.
	// index == len(children) appends.
	Create(ctx context.Context, item model.Item, index int) error

	// Remove deletes the item.
	Remove(ctx context.Context, id string) error

	Close() error
}

// Notifier is implemented by stores that emit change notifications,
// including changes made outside this process.
type Notifier interface {
	Events() <-chan Event
}

// EventKind identifies the kind of store change.
type EventKind int

const (
	EventMoved EventKind = iota
	EventCreated
	EventRemoved
	EventChildrenReordered
)

// String returns a short name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventMoved:
		return "moved"
	case EventCreated:
		return "created"
	case EventRemoved:
		return "removed"
	case EventChildrenReordered:
		return "children-reordered"
	}
	return "unknown"
}

// Event describes one store change. ItemID is empty for
// EventChildrenReordered, which covers a whole level.
type Event struct {
	Kind     EventKind
	ItemID   string
	ParentID *string
	OldIndex int
	NewIndex int
}
