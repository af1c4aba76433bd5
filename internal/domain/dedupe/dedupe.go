// Package dedupe tracks submission ids so that a replayed judge input is
// applied at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 50_000

// Deduper records seen submission ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it
	// when it was not. Check and insert happen atomically.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so that a submission that could not be queued can
	// be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// Window is a Deduper that remembers the most recent ids. Once full, the
// oldest id is forgotten first. A non-positive size keeps every id.
type Window struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List
	seen    map[string]*list.Element
}

// NewWindow creates a deduper with the given options.
func NewWindow(opts ...Option) *Window {
	w := &Window{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(w)
	}
	w.order = list.New()
	w.seen = make(map[string]*list.Element)
	return w
}

// SeenAndRecord implements Deduper.
func (w *Window) SeenAndRecord(_ context.Context, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.seen[id]; ok {
		return true
	}
	if w.maxSize > 0 && w.order.Len() >= w.maxSize {
		oldest := w.order.Front()
		w.order.Remove(oldest)
		delete(w.seen, oldest.Value.(string))
	}
	w.seen[id] = w.order.PushBack(id)
	return false
}

// Unrecord implements Deduper.
func (w *Window) Unrecord(_ context.Context, id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if el, ok := w.seen[id]; ok {
		w.order.Remove(el)
		delete(w.seen, id)
	}
}

// Size implements Deduper.
func (w *Window) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int64(w.order.Len())
}
