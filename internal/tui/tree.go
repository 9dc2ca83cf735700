package tui

import (
	"sync"

	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/nikbrunner/tabdeck/internal/view"
)

// deckTree is the rendered deck as the readiness controller and registry
// see it: item elements tagged with their index, slot elements for the
// n+1 insertion gaps, and a structural mutation signal. The app rebuilds
// it wholesale from the order snapshot after every confirmed change.
type deckTree struct {
	mu        sync.Mutex
	elements  []view.Element
	slots     []view.Slot
	mutations chan struct{}
}

func newDeckTree() *deckTree {
	return &deckTree{
		mutations: make(chan struct{}, 1),
	}
}

// ItemElements implements view.Tree.
func (t *deckTree) ItemElements() []view.Element {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]view.Element{}, t.elements...)
}

// SlotElements implements view.Tree.
func (t *deckTree) SlotElements() []view.Slot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]view.Slot{}, t.slots...)
}

// Mutations implements view.Tree.
func (t *deckTree) Mutations() <-chan struct{} {
	return t.mutations
}

// Rebuild replaces the element set from an order snapshot and signals a
// structural mutation.
func (t *deckTree) Rebuild(items []model.Item) {
	elements := make([]view.Element, len(items))
	for i, it := range items {
		elements[i] = view.Element{ID: it.ID, Index: i}
	}
	slots := make([]view.Slot, len(items)+1)
	for i := range slots {
		slots[i] = view.Slot{Index: i}
	}

	t.mu.Lock()
	t.elements = elements
	t.slots = slots
	t.mu.Unlock()

	select {
	case t.mutations <- struct{}{}:
	default:
	}
}
