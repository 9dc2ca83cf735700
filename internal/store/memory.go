package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikbrunner/tabdeck/internal/model"
)

// MemoryStore is an in-process Store used by tests and as a scratch backend.
// It keeps full ordering semantics and emits the same events as the
// persistent backends.
type MemoryStore struct {
	mu     sync.Mutex
	items  []model.Item // sibling order = slice order within each parent
	events chan Event

	// MoveErr, when set, makes the next Move call fail with this error
	// and clears itself. Used to simulate store rejections.
	MoveErr error
}

// NewMemoryStore creates a MemoryStore seeded with the given items.
// Sibling order follows the order items appear in the slice.
func NewMemoryStore(items []model.Item) *MemoryStore {
	return &MemoryStore{
		items:  append([]model.Item{}, items...),
		events: make(chan Event, 16),
	}
}

// Events implements Notifier.
func (s *MemoryStore) Events() <-chan Event {
	return s.events
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, parentID *string) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return childrenOf(s.items, parentID), nil
}

// Move implements Store.
func (s *MemoryStore) Move(ctx context.Context, id string, newIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.MoveErr != nil {
		err := s.MoveErr
		s.MoveErr = nil
		return err
	}

	item, oldIndex, err := find(s.items, id)
	if err != nil {
		return err
	}

	siblings := childrenOf(s.items, item.ParentID)
	if newIndex < 0 || newIndex >= len(siblings) {
		return fmt.Errorf("%w: %d of %d siblings", ErrInvalidIndex, newIndex, len(siblings))
	}
	if newIndex == oldIndex {
		return nil
	}

	moved := siblings[oldIndex]
	rest := append(append([]model.Item{}, siblings[:oldIndex]...), siblings[oldIndex+1:]...)
	reordered := append(append(append([]model.Item{}, rest[:newIndex]...), moved), rest[newIndex:]...)
	s.items = replaceChildren(s.items, item.ParentID, reordered)

	s.emit(Event{Kind: EventMoved, ItemID: id, ParentID: item.ParentID, OldIndex: oldIndex, NewIndex: newIndex})
	return nil
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, item model.Item, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	siblings := childrenOf(s.items, item.ParentID)
	if index < 0 || index > len(siblings) {
		return fmt.Errorf("%w: %d of %d siblings", ErrInvalidIndex, index, len(siblings))
	}
	reordered := append(append(append([]model.Item{}, siblings[:index]...), item), siblings[index:]...)
	s.items = replaceChildren(s.items, item.ParentID, reordered)

	s.emit(Event{Kind: EventCreated, ItemID: item.ID, ParentID: item.ParentID, NewIndex: index})
	return nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, oldIndex, err := find(s.items, id)
	if err != nil {
		return err
	}

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}

	s.emit(Event{Kind: EventRemoved, ItemID: id, ParentID: item.ParentID, OldIndex: oldIndex})
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// InjectReorder rewrites one level and emits a children-reordered event,
// simulating a change made outside the UI.
func (s *MemoryStore) InjectReorder(parentID *string, children []model.Item) {
	s.mu.Lock()
	s.items = replaceChildren(s.items, parentID, children)
	s.mu.Unlock()
	s.emit(Event{Kind: EventChildrenReordered, ParentID: parentID})
}

// emit delivers an event without ever blocking a store mutation.
func (s *MemoryStore) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}
