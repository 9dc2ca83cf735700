package reorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/nikbrunner/tabdeck/internal/store"
)

// Engine errors.
var (
	ErrStale          = errors.New("reorder: order changed since the move was resolved")
	ErrCommitInFlight = errors.New("reorder: a commit is already in flight")
)

// MoveError reports a store rejection of a move. The in-memory order is
// left untouched; it still matches the last confirmed store state.
type MoveError struct {
	Reason string
	Err    error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("reorder: store move failed: %s", e.Reason)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// PendingMove is a resolved, not yet confirmed move. Created when a drop
// is committed, destroyed when the store confirms or the move is declared
// failed.
type PendingMove struct {
	ItemID      string
	FromIndex   int
	ToSlot      int
	TargetIndex int
	IssuedAt    time.Time
}

// Engine owns the commit path: it is the only writer of the order model,
// and it updates the model strictly after store confirmation. At most one
// commit is in flight at a time.
type Engine struct {
	mu       sync.Mutex
	order    *model.Order
	store    store.Store
	log      zerolog.Logger
	inFlight bool

	// echo suppression: the engine's own confirmed move comes back as a
	// store event and must not be treated as an external change.
	expectEcho   bool
	echoItemID   string
	echoNewIndex int

	onReconciled     []func([]model.Item)
	onCleanup        []func()
	onExternalChange []func()
}

// EngineParams holds parameters for creating an Engine.
type EngineParams struct {
	Store    store.Store
	ParentID *string        // level this engine manages, nil = top level
	Logger   zerolog.Logger // zero value = no logging
}

// NewEngine creates an Engine for one store level. Call Load before use.
func NewEngine(params EngineParams) *Engine {
	return &Engine{
		order: model.NewOrder(params.ParentID, nil),
		store: params.Store,
		log:   params.Logger,
	}
}

// Load fetches the level from the store and resets the order model.
func (e *Engine) Load(ctx context.Context) error {
	items, err := e.store.List(ctx, e.order.ParentID())
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.order.Replace(items)
	e.mu.Unlock()
	return nil
}

// OrderSnapshot returns a copy of the current confirmed order.
func (e *Engine) OrderSnapshot() []model.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.order.Items()
}

// OnReconciled registers a callback invoked with the new order after every
// confirmed mutation. The view rebuilds itself from this snapshot instead
// of patching elements in place.
func (e *Engine) OnReconciled(fn func([]model.Item)) {
	e.onReconciled = append(e.onReconciled, fn)
}

// OnCleanup registers a callback invoked exactly once per commit attempt,
// success or failure. Transient gesture state (candidate markers, the
// active session) is cleared here so no outcome can leave it lingering.
func (e *Engine) OnCleanup(fn func()) {
	e.onCleanup = append(e.onCleanup, fn)
}

// OnExternalChange registers a callback invoked when the store reports a
// change this engine did not issue. An active gesture must be cancelled:
// its snapshot indices are no longer trustworthy.
func (e *Engine) OnExternalChange(fn func()) {
	e.onExternalChange = append(e.onExternalChange, fn)
}

// Resolve turns a committed gesture into a PendingMove against the
// current order.
func (e *Engine) Resolve(g Gesture) (PendingMove, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolveLocked(g)
}

func (e *Engine) resolveLocked(g Gesture) (PendingMove, error) {
	target, err := ResolveTargetIndex(g.FromIndex, g.ToSlot, e.order.Len())
	if err != nil {
		return PendingMove{}, err
	}
	return PendingMove{
		ItemID:      g.ItemID,
		FromIndex:   g.FromIndex,
		ToSlot:      g.ToSlot,
		TargetIndex: target,
		IssuedAt:    time.Now(),
	}, nil
}

// Commit applies a pending move: validate against the current order, call
// the store, and only then fold the same remove/insert transform into the
// order model. Rejected with ErrCommitInFlight while another commit is
// outstanding and with ErrStale when the order changed since Resolve.
func (e *Engine) Commit(ctx context.Context, pm PendingMove) error {
	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return ErrCommitInFlight
	}
	if err := e.validateLocked(pm); err != nil {
		e.mu.Unlock()
		e.runCleanup()
		return err
	}
	e.inFlight = true
	e.mu.Unlock()

	err := e.commitConfirmed(ctx, pm)

	e.mu.Lock()
	e.inFlight = false
	e.mu.Unlock()
	e.runCleanup()

	if err != nil {
		return err
	}

	e.notifyReconciled()
	return nil
}

// validateLocked rejects moves resolved against an order that has since
// changed.
func (e *Engine) validateLocked(pm PendingMove) error {
	n := e.order.Len()
	if pm.FromIndex < 0 || pm.FromIndex >= n || pm.TargetIndex < 0 || pm.TargetIndex >= n {
		return fmt.Errorf("%w: move %d -> %d against %d items", ErrStale, pm.FromIndex, pm.TargetIndex, n)
	}
	item, _ := e.order.At(pm.FromIndex)
	if item.ID != pm.ItemID {
		return fmt.Errorf("%w: item %s no longer at index %d", ErrStale, pm.ItemID, pm.FromIndex)
	}
	return nil
}

// commitConfirmed issues the store call and, on confirmation, applies the
// transform to the order model.
func (e *Engine) commitConfirmed(ctx context.Context, pm PendingMove) error {
	if pm.TargetIndex == pm.FromIndex {
		// No-op gesture: nothing to persist, nothing to reorder.
		return nil
	}

	if err := e.store.Move(ctx, pm.ItemID, pm.TargetIndex); err != nil {
		e.log.Warn().Err(err).
			Str("item", pm.ItemID).
			Int("from", pm.FromIndex).
			Int("target", pm.TargetIndex).
			Msg("store rejected move")
		return &MoveError{Reason: err.Error(), Err: err}
	}

	e.mu.Lock()
	e.expectEcho = true
	e.echoItemID = pm.ItemID
	e.echoNewIndex = pm.TargetIndex
	err := e.order.ApplyMove(pm.FromIndex, pm.TargetIndex)
	e.mu.Unlock()
	if err != nil {
		// The store confirmed but the model transform failed; re-list so
		// the model converges on the store's order instead of diverging.
		return e.reconcileFromStore(ctx)
	}

	e.log.Info().
		Str("item", pm.ItemID).
		Int("from", pm.FromIndex).
		Int("slot", pm.ToSlot).
		Int("target", pm.TargetIndex).
		Msg("move confirmed")
	return nil
}

// RequestMove resolves and commits in one step, the entry point used by
// the view layer. A stale resolution is recomputed against the fresh
// order and retried once.
func (e *Engine) RequestMove(ctx context.Context, g Gesture) error {
	pm, err := e.Resolve(g)
	if err != nil {
		return err
	}
	err = e.Commit(ctx, pm)
	if !errors.Is(err, ErrStale) {
		return err
	}

	e.mu.Lock()
	fresh := Gesture{
		ItemID:    g.ItemID,
		FromIndex: e.order.IndexOf(g.ItemID),
		ToSlot:    g.ToSlot,
	}
	n := e.order.Len()
	e.mu.Unlock()

	if fresh.FromIndex < 0 {
		return err
	}
	if fresh.ToSlot > n {
		fresh.ToSlot = n
	}
	pm, rerr := e.Resolve(fresh)
	if rerr != nil {
		return rerr
	}
	return e.Commit(ctx, pm)
}

// HandleStoreEvent reconciles a store change notification. The engine's
// own confirmed move echoes back as an event and is swallowed; everything
// else (native bookmark manager, another process) forces gesture
// cancellation and a re-list from the store.
func (e *Engine) HandleStoreEvent(ctx context.Context, ev store.Event) error {
	if !e.concernsLevel(ev) {
		return nil
	}

	e.mu.Lock()
	if e.expectEcho && ev.Kind == store.EventMoved &&
		ev.ItemID == e.echoItemID && ev.NewIndex == e.echoNewIndex {
		e.expectEcho = false
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	e.log.Info().
		Stringer("kind", ev.Kind).
		Str("item", ev.ItemID).
		Msg("external store change")

	for _, fn := range e.onExternalChange {
		fn()
	}
	return e.reconcileFromStore(ctx)
}

// concernsLevel reports whether an event touches the level this engine
// manages.
func (e *Engine) concernsLevel(ev store.Event) bool {
	return model.PtrEqual(ev.ParentID, e.order.ParentID())
}

// reconcileFromStore re-lists the store level and, if the order changed,
// notifies the view to rebuild.
func (e *Engine) reconcileFromStore(ctx context.Context) error {
	items, err := e.store.List(ctx, e.order.ParentID())
	if err != nil {
		return err
	}

	e.mu.Lock()
	changed := e.order.Replace(items)
	e.mu.Unlock()

	if changed {
		e.notifyReconciled()
	}
	return nil
}

func (e *Engine) notifyReconciled() {
	snapshot := e.OrderSnapshot()
	for _, fn := range e.onReconciled {
		fn(snapshot)
	}
}

func (e *Engine) runCleanup() {
	for _, fn := range e.onCleanup {
		fn()
	}
}
