package store

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces bursts of file events into one reload.
// Atomic writes produce create+rename pairs; editors often write twice.
const DefaultWatchDebounce = 200 * time.Millisecond

// ErrWatcherStarted is returned when Start is called twice.
var ErrWatcherStarted = errors.New("store: watcher already started")

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the debounce window for bursts of file events.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithOnError sets the callback invoked on watch or reload errors.
func WithOnError(fn func(error)) WatchOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// Watcher monitors a JSONStore's file for changes made outside this
// process and reloads the store when they occur, which makes the store
// emit children-reordered events for any level whose order changed.
//
// The watch is on the containing directory, not the file: the store (and
// most editors) replace the file by rename, which would silently detach a
// direct file watch.
type Watcher struct {
	store    *JSONStore
	debounce time.Duration
	onError  func(error)

	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// NewWatcher creates a watcher for the given JSON store.
func NewWatcher(s *JSONStore, opts ...WatchOption) *Watcher {
	w := &Watcher{
		store:    s,
		debounce: DefaultWatchDebounce,
		onError:  func(error) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns once the watch is established; events
// are handled on a background goroutine until Stop is called.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrWatcherStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.store.Path())); err != nil {
		fsw.Close()
		return err
	}

	w.fsw = fsw
	w.done = make(chan struct{})
	w.started = true
	go w.loop()
	return nil
}

// Stop ends the watch. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	w.started = false
	close(w.done)
	w.fsw.Close()
}

// loop consumes fsnotify events, debounces them, and reloads the store.
func (w *Watcher) loop() {
	target := filepath.Base(w.store.Path())

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					<-timerC
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.store.Reload(); err != nil {
				w.onError(err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
