package reorder_test

import (
	"context"
	"errors"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/nikbrunner/tabdeck/internal/reorder"
	"github.com/nikbrunner/tabdeck/internal/store"
)

func seedItems(ids ...string) []model.Item {
	items := make([]model.Item, len(ids))
	for i, id := range ids {
		items[i] = model.Item{ID: id, Title: id, Kind: model.ItemFolder}
	}
	return items
}

func ids(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func newTestEngine(t *testing.T, ms *store.MemoryStore) *reorder.Engine {
	t.Helper()
	engine := reorder.NewEngine(reorder.EngineParams{Store: ms})
	assert.NilError(t, engine.Load(context.Background()))
	return engine
}

func TestEngine_RequestMove_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		from int
		slot int
		want []string
	}{
		{name: "first to first slot is a no-op", from: 0, slot: 0, want: []string{"A", "B", "C", "D", "E"}},
		{name: "last to front", from: 4, slot: 0, want: []string{"E", "A", "B", "C", "D"}},
		{name: "first to last slot", from: 0, slot: 5, want: []string{"B", "C", "D", "E", "A"}},
		{name: "own slot is a no-op", from: 2, slot: 2, want: []string{"A", "B", "C", "D", "E"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := store.NewMemoryStore(seedItems("A", "B", "C", "D", "E"))
			engine := newTestEngine(t, ms)

			snapshot := engine.OrderSnapshot()
			g := reorder.Gesture{
				ItemID:    snapshot[tt.from].ID,
				FromIndex: tt.from,
				ToSlot:    tt.slot,
			}
			assert.NilError(t, engine.RequestMove(context.Background(), g))
			assert.DeepEqual(t, ids(engine.OrderSnapshot()), tt.want)

			// The store converged on the same order.
			stored, err := ms.List(context.Background(), nil)
			assert.NilError(t, err)
			assert.DeepEqual(t, ids(stored), tt.want)
		})
	}
}

func TestEngine_SequentialMovesRestoreOrder(t *testing.T) {
	ms := store.NewMemoryStore(seedItems("A", "B", "C", "D", "E"))
	engine := newTestEngine(t, ms)
	ctx := context.Background()

	// Move index 0 to slot 3, then the item now at index 2 to slot 0.
	snap := engine.OrderSnapshot()
	assert.NilError(t, engine.RequestMove(ctx, reorder.Gesture{ItemID: snap[0].ID, FromIndex: 0, ToSlot: 3}))
	assert.DeepEqual(t, ids(engine.OrderSnapshot()), []string{"B", "C", "A", "D", "E"})

	snap = engine.OrderSnapshot()
	assert.NilError(t, engine.RequestMove(ctx, reorder.Gesture{ItemID: snap[2].ID, FromIndex: 2, ToSlot: 0}))
	assert.DeepEqual(t, ids(engine.OrderSnapshot()), []string{"A", "B", "C", "D", "E"})
}

func TestEngine_StoreRejectionLeavesOrderUntouched(t *testing.T) {
	ms := store.NewMemoryStore(seedItems("A", "B", "C", "D", "E"))
	engine := newTestEngine(t, ms)

	before := ids(engine.OrderSnapshot())
	ms.MoveErr = errors.New("store busy")

	err := engine.RequestMove(context.Background(), reorder.Gesture{ItemID: "A", FromIndex: 0, ToSlot: 5})

	var moveErr *reorder.MoveError
	assert.Assert(t, errors.As(err, &moveErr), "expected MoveError, got %v", err)
	assert.Equal(t, moveErr.Reason, "store busy")
	assert.DeepEqual(t, ids(engine.OrderSnapshot()), before)

	stored, lerr := ms.List(context.Background(), nil)
	assert.NilError(t, lerr)
	assert.DeepEqual(t, ids(stored), before)
}

func TestEngine_SecondCommitOfAppliedMoveIsStale(t *testing.T) {
	ms := store.NewMemoryStore(seedItems("A", "B", "C", "D", "E"))
	engine := newTestEngine(t, ms)
	ctx := context.Background()

	pm, err := engine.Resolve(reorder.Gesture{ItemID: "A", FromIndex: 0, ToSlot: 3})
	assert.NilError(t, err)
	assert.Equal(t, pm.TargetIndex, 2)

	assert.NilError(t, engine.Commit(ctx, pm))
	after := ids(engine.OrderSnapshot())

	// Replaying the same confirmed move is detected, not applied.
	err = engine.Commit(ctx, pm)
	assert.Assert(t, errors.Is(err, reorder.ErrStale), "expected ErrStale, got %v", err)
	assert.DeepEqual(t, ids(engine.OrderSnapshot()), after)
}

func TestEngine_CleanupRunsOncePerAttempt(t *testing.T) {
	ms := store.NewMemoryStore(seedItems("A", "B", "C"))
	engine := newTestEngine(t, ms)
	ctx := context.Background()

	cleanups := 0
	engine.OnCleanup(func() { cleanups++ })

	assert.NilError(t, engine.RequestMove(ctx, reorder.Gesture{ItemID: "A", FromIndex: 0, ToSlot: 3}))
	assert.Equal(t, cleanups, 1)

	ms.MoveErr = errors.New("store busy")
	err := engine.RequestMove(ctx, reorder.Gesture{ItemID: "B", FromIndex: 1, ToSlot: 0})
	assert.Assert(t, err != nil)
	assert.Equal(t, cleanups, 2)

	// Even a stale rejection counts as one attempt with one cleanup.
	stale := reorder.PendingMove{ItemID: "A", FromIndex: 0, ToSlot: 3, TargetIndex: 2}
	err = engine.Commit(ctx, stale)
	assert.Assert(t, errors.Is(err, reorder.ErrStale), "got %v", err)
	assert.Equal(t, cleanups, 3)
}

// blockingStore wraps a Store, parking Move calls until released.
type blockingStore struct {
	store.Store
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Move(ctx context.Context, id string, newIndex int) error {
	b.entered <- struct{}{}
	<-b.release
	return b.Store.Move(ctx, id, newIndex)
}

func TestEngine_ReentrantCommitRejected(t *testing.T) {
	ms := store.NewMemoryStore(seedItems("A", "B", "C", "D", "E"))
	bs := &blockingStore{
		Store:   ms,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	engine := reorder.NewEngine(reorder.EngineParams{Store: bs})
	assert.NilError(t, engine.Load(context.Background()))
	ctx := context.Background()

	pm, err := engine.Resolve(reorder.Gesture{ItemID: "A", FromIndex: 0, ToSlot: 5})
	assert.NilError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- engine.Commit(ctx, pm)
	}()

	<-bs.entered // first commit is now inside the store call

	second, err := engine.Resolve(reorder.Gesture{ItemID: "B", FromIndex: 1, ToSlot: 0})
	assert.NilError(t, err)
	err = engine.Commit(ctx, second)
	assert.Assert(t, errors.Is(err, reorder.ErrCommitInFlight), "expected ErrCommitInFlight, got %v", err)

	close(bs.release)
	assert.NilError(t, <-done)
	assert.DeepEqual(t, ids(engine.OrderSnapshot()), []string{"B", "C", "D", "E", "A"})
}

func TestEngine_OwnMoveEchoIsSwallowed(t *testing.T) {
	ms := store.NewMemoryStore(seedItems("A", "B", "C"))
	engine := newTestEngine(t, ms)
	ctx := context.Background()

	external := 0
	engine.OnExternalChange(func() { external++ })

	assert.NilError(t, engine.RequestMove(ctx, reorder.Gesture{ItemID: "A", FromIndex: 0, ToSlot: 3}))

	// The store notified the move the engine itself issued.
	echo := <-ms.Events()
	assert.Equal(t, echo.Kind, store.EventMoved)
	assert.NilError(t, engine.HandleStoreEvent(ctx, echo))
	assert.Equal(t, external, 0)
}

func TestEngine_ExternalChangeCancelsGestureAndReconciles(t *testing.T) {
	ms := store.NewMemoryStore(seedItems("A", "B", "C"))
	engine := newTestEngine(t, ms)
	ctx := context.Background()

	session := reorder.NewSession(reorder.SessionParams{})
	engine.OnExternalChange(session.Cancel)

	var reconciled []model.Item
	engine.OnReconciled(func(items []model.Item) { reconciled = items })

	assert.NilError(t, session.Arm("A", 0))
	assert.NilError(t, session.Drag())

	// The native bookmark manager reorders the level behind our back.
	ms.InjectReorder(nil, seedItems("C", "A", "B"))
	ev := <-ms.Events()
	assert.Equal(t, ev.Kind, store.EventChildrenReordered)

	assert.NilError(t, engine.HandleStoreEvent(ctx, ev))
	assert.Equal(t, session.State(), reorder.StateIdle)
	assert.DeepEqual(t, ids(engine.OrderSnapshot()), []string{"C", "A", "B"})
	assert.DeepEqual(t, ids(reconciled), []string{"C", "A", "B"})
}

func TestEngine_EventForOtherLevelIgnored(t *testing.T) {
	parent := "f1"
	ms := store.NewMemoryStore(seedItems("A", "B", "C"))
	engine := newTestEngine(t, ms)

	external := 0
	engine.OnExternalChange(func() { external++ })

	ev := store.Event{Kind: store.EventChildrenReordered, ParentID: &parent}
	assert.NilError(t, engine.HandleStoreEvent(context.Background(), ev))
	assert.Equal(t, external, 0)
}
