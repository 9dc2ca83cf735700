package view

import "sync"

// Handler is an interaction handler bound to an element.
type Handler func()

// Registry tracks element-to-handler bindings so they can be torn down
// exactly once. It is the only path allowed to attach interaction
// handlers to item elements: a full teardown is then an explicit,
// auditable operation instead of a side effect of replacing elements,
// which is how unrelated bindings get corrupted.
type Registry struct {
	mu       sync.Mutex
	bindings map[string]map[string][]Handler // elementID -> event -> handlers
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]map[string][]Handler),
	}
}

// Bind attaches a handler for an event on an element.
func (r *Registry) Bind(elementID, event string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.bindings[elementID]
	if events == nil {
		events = make(map[string][]Handler)
		r.bindings[elementID] = events
	}
	events[event] = append(events[event], h)
}

// Dispatch invokes the handlers bound for an event on an element, in
// binding order. Returns the number of handlers invoked.
func (r *Registry) Dispatch(elementID, event string) int {
	r.mu.Lock()
	handlers := append([]Handler{}, r.bindings[elementID][event]...)
	r.mu.Unlock()

	for _, h := range handlers {
		h()
	}
	return len(handlers)
}

// UnbindAll removes every binding for one element. Unbinding an unknown
// element is a no-op.
func (r *Registry) UnbindAll(elementID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, elementID)
}

// UnbindAllTracked removes every binding the registry has ever tracked.
// After it returns, zero handlers remain reachable.
func (r *Registry) UnbindAllTracked() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = make(map[string]map[string][]Handler)
}

// BindingCount returns the total number of bound handlers.
func (r *Registry) BindingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, events := range r.bindings {
		for _, handlers := range events {
			count += len(handlers)
		}
	}
	return count
}
