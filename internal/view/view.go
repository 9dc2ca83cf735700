// Package view holds the engine-facing contract of the rendered deck: a
// queryable tree of item and slot elements, a registry that is the only
// path for attaching interaction handlers to those elements, and a
// readiness controller that waits for the rendered element set to match
// the expected model before handlers are wired.
package view

// Element is one rendered item, tagged with the index it occupies.
type Element struct {
	ID    string
	Index int
}

// Slot is one rendered insertion gap. N items yield N+1 slots; slot 0 is
// before the first item, slot N after the last.
type Slot struct {
	Index int
}

// Tree is the rendered deck as the engine sees it. The concrete tree is
// produced by an asynchronous view layer, so the element set may lag
// behind the model; Mutations signals structural changes so readiness
// checks can re-run without polling.
type Tree interface {
	ItemElements() []Element
	SlotElements() []Slot
	Mutations() <-chan struct{}
}
