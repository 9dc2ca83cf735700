package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/tabdeck/internal/store"
)

func TestWatcher_ExternalRewriteEmitsEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.json")

	s, err := store.NewJSONStore(path)
	assert.NilError(t, err)
	seedLevel(t, s, nil, "a", "b", "c")
	drainEvents(s)

	w := store.NewWatcher(s, store.WithDebounce(20*time.Millisecond))
	assert.NilError(t, w.Start())
	defer w.Stop()

	// Another process rewrites the file with a different order.
	other, err := store.NewJSONStore(path)
	assert.NilError(t, err)
	assert.NilError(t, other.Move(context.Background(), "c", 0))

	select {
	case ev := <-s.Events():
		assert.Equal(t, ev.Kind, store.EventChildrenReordered)
	case <-time.After(5 * time.Second):
		t.Fatal("no event after external rewrite")
	}

	assert.DeepEqual(t, levelIDs(t, s, nil), []string{"c", "a", "b"})
}

func TestWatcher_StartTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.json")
	s, err := store.NewJSONStore(path)
	assert.NilError(t, err)

	w := store.NewWatcher(s)
	assert.NilError(t, w.Start())
	defer w.Stop()

	err = w.Start()
	assert.Assert(t, errors.Is(err, store.ErrWatcherStarted), "got %v", err)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.json")
	s, err := store.NewJSONStore(path)
	assert.NilError(t, err)

	w := store.NewWatcher(s)
	assert.NilError(t, w.Start())
	w.Stop()
	w.Stop()

	// Restart after stop works.
	assert.NilError(t, w.Start())
	w.Stop()
}
