package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nikbrunner/tabdeck/internal/model"
)

// jsonFile is the on-disk shape. Sibling order within each parent is the
// order items appear in the array.
type jsonFile struct {
	Items []model.Item `json:"items"`
}

// JSONStore implements Store backed by a single JSON file. The file is the
// system of record; every mutation is written through atomically so that
// other programs (and the file watcher) always observe a complete document.
type JSONStore struct {
	mu     sync.Mutex
	path   string
	items  []model.Item
	events chan Event
}

// NewJSONStore opens (or initializes) a JSON store at path.
// A missing file yields an empty store.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{
		path:   path,
		events: make(chan Event, 16),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}

	var f jsonFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("store: parsing %s: %w", path, err)
	}
	s.items = f.Items
	return s, nil
}

// Path returns the store file path.
func (s *JSONStore) Path() string {
	return s.path
}

// Events implements Notifier.
func (s *JSONStore) Events() <-chan Event {
	return s.events
}

// List implements Store.
func (s *JSONStore) List(ctx context.Context, parentID *string) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return childrenOf(s.items, parentID), nil
}

// Move implements Store.
func (s *JSONStore) Move(ctx context.Context, id string, newIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

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

	if err := s.saveLocked(); err != nil {
		return err
	}
	s.emit(Event{Kind: EventMoved, ItemID: id, ParentID: item.ParentID, OldIndex: oldIndex, NewIndex: newIndex})
	return nil
}

// Create implements Store.
func (s *JSONStore) Create(ctx context.Context, item model.Item, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	siblings := childrenOf(s.items, item.ParentID)
	if index < 0 || index > len(siblings) {
		return fmt.Errorf("%w: %d of %d siblings", ErrInvalidIndex, index, len(siblings))
	}
	reordered := append(append(append([]model.Item{}, siblings[:index]...), item), siblings[index:]...)
	s.items = replaceChildren(s.items, item.ParentID, reordered)

	if err := s.saveLocked(); err != nil {
		return err
	}
	s.emit(Event{Kind: EventCreated, ItemID: item.ID, ParentID: item.ParentID, NewIndex: index})
	return nil
}

// Remove implements Store.
func (s *JSONStore) Remove(ctx context.Context, id string) error {
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

	if err := s.saveLocked(); err != nil {
		return err
	}
	s.emit(Event{Kind: EventRemoved, ItemID: id, ParentID: item.ParentID, OldIndex: oldIndex})
	return nil
}

// Close implements Store.
func (s *JSONStore) Close() error {
	return nil
}

// Reload re-reads the file and emits a children-reordered event for every
// level whose order changed. Called by the file watcher when the file is
// modified outside this process.
func (s *JSONStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			data = []byte(`{"items":[]}`)
		} else {
			return err
		}
	}

	var f jsonFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("store: parsing %s: %w", s.path, err)
	}

	s.mu.Lock()
	old := s.items
	s.items = f.Items
	s.mu.Unlock()

	for _, parentID := range changedLevels(old, f.Items) {
		s.emit(Event{Kind: EventChildrenReordered, ParentID: parentID})
	}
	return nil
}

// saveLocked writes the store atomically: temp file in the same directory,
// then rename over the target.
func (s *JSONStore) saveLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(jsonFile{Items: s.items}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tabdeck-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *JSONStore) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// childrenOf returns the ordered children of parentID.
func childrenOf(items []model.Item, parentID *string) []model.Item {
	var result []model.Item
	for _, it := range items {
		if model.PtrEqual(it.ParentID, parentID) {
			result = append(result, it)
		}
	}
	return result
}

// replaceChildren rewrites one level, leaving every other level untouched.
func replaceChildren(items []model.Item, parentID *string, children []model.Item) []model.Item {
	kept := make([]model.Item, 0, len(items))
	for _, it := range items {
		if !model.PtrEqual(it.ParentID, parentID) {
			kept = append(kept, it)
		}
	}
	return append(kept, children...)
}

// find locates an item and its index among its siblings.
func find(items []model.Item, id string) (model.Item, int, error) {
	for _, it := range items {
		if it.ID == id {
			siblings := childrenOf(items, it.ParentID)
			for i := range siblings {
				if siblings[i].ID == id {
					return it, i, nil
				}
			}
		}
	}
	return model.Item{}, -1, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// changedLevels returns the parent IDs whose child order differs between
// two snapshots. Levels present in only one snapshot count as changed.
func changedLevels(prev, curr []model.Item) []*string {
	keyOf := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	parents := make(map[string]*string)
	collect := func(items []model.Item) {
		for _, it := range items {
			parents[keyOf(it.ParentID)] = it.ParentID
		}
	}
	collect(prev)
	collect(curr)

	var changed []*string
	for _, parentID := range parents {
		a := childrenOf(prev, parentID)
		b := childrenOf(curr, parentID)
		if len(a) != len(b) {
			changed = append(changed, parentID)
			continue
		}
		for i := range a {
			if a[i].ID != b[i].ID {
				changed = append(changed, parentID)
				break
			}
		}
	}
	return changed
}
