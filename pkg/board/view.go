package board

import (
	"sync"

	"github.com/grovetools/board/pkg/models"
)

// ChangeType identifies what kind of mutation a View went through.
type ChangeType string

const (
	ChangeSnapshot ChangeType = "snapshot"
	ChangeInsert   ChangeType = "insert"
	ChangeTeardown ChangeType = "teardown"
)

// Change is delivered to View subscribers after each mutation.
type Change struct {
	Type ChangeType
	// Item is set for ChangeInsert.
	Item models.Item
	// Len is the number of items in the view after the change.
	Len int
}

// View is the ordered, newest-first collection of items shown to the user.
//
// It has exactly three mutation entry points: LoadSnapshot, Ingest and
// Teardown. No two items in a View share a nonzero id. After Teardown every
// mutation is a no-op.
type View struct {
	mu          sync.RWMutex
	items       []models.Item // newest first
	ids         map[int64]struct{}
	loaded      bool
	closed      bool
	subscribers map[chan Change]struct{}
}

// NewView creates an empty view.
func NewView() *View {
	return &View{
		ids:         make(map[int64]struct{}),
		subscribers: make(map[chan Change]struct{}),
	}
}

// LoadSnapshot replaces the view's contents with a store snapshot. The store
// returns items oldest-first, so they are installed reversed.
//
// Items ingested before the snapshot arrived (the channel is opened first)
// stay in front of the snapshot unless the snapshot already contains their id;
// an id present in both appears once, at its snapshot position. Unassigned
// items are always kept. Duplicate nonzero ids inside the snapshot keep the
// newest occurrence.
//
// It returns false if the view has been torn down; the snapshot is discarded.
func (v *View) LoadSnapshot(items []models.Item) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false
	}

	snapshot := make([]models.Item, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if item.Assigned() {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
		}
		snapshot = append(snapshot, item)
	}

	merged := make([]models.Item, 0, len(v.items)+len(snapshot))
	for _, item := range v.items {
		if !item.Assigned() {
			merged = append(merged, item)
			continue
		}
		if _, inSnapshot := seen[item.ID]; !inSnapshot {
			merged = append(merged, item)
			seen[item.ID] = struct{}{}
		}
	}
	merged = append(merged, snapshot...)

	v.items = merged
	v.ids = seen
	v.loaded = true
	v.notify(Change{Type: ChangeSnapshot, Len: len(v.items)})
	return true
}

// Ingest prepends a single item. It returns false, leaving the view
// unchanged, when the view has been torn down or already holds the item's
// nonzero id.
func (v *View) Ingest(item models.Item) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false
	}
	if item.Assigned() {
		if _, exists := v.ids[item.ID]; exists {
			return false
		}
		v.ids[item.ID] = struct{}{}
	}

	v.items = append(v.items, models.Item{})
	copy(v.items[1:], v.items)
	v.items[0] = item

	v.notify(Change{Type: ChangeInsert, Item: item, Len: len(v.items)})
	return true
}

// Teardown freezes the view and closes all subscriber channels. It is safe to
// call more than once.
func (v *View) Teardown() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true
	v.notify(Change{Type: ChangeTeardown, Len: len(v.items)})
	for ch := range v.subscribers {
		close(ch)
	}
	v.subscribers = make(map[chan Change]struct{})
}

// Items returns a copy of the current contents, newest first.
func (v *View) Items() []models.Item {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Item, len(v.items))
	copy(out, v.items)
	return out
}

// Len returns the number of items in the view.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.items)
}

// Loaded reports whether a snapshot has been installed.
func (v *View) Loaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

// Closed reports whether the view has been torn down.
func (v *View) Closed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.closed
}

// Subscribe returns a buffered channel receiving subsequent changes. A
// subscriber whose buffer is full misses changes rather than stalling
// ingestion, so a change is a signal to re-read Items, not a complete log.
// The channel is closed on Teardown or Unsubscribe.
func (v *View) Subscribe() <-chan Change {
	v.mu.Lock()
	defer v.mu.Unlock()

	ch := make(chan Change, 64)
	if v.closed {
		close(ch)
		return ch
	}
	v.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (v *View) Unsubscribe(sub <-chan Change) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for ch := range v.subscribers {
		if ch == sub {
			delete(v.subscribers, ch)
			close(ch)
			return
		}
	}
}

// notify must be called with v.mu held.
func (v *View) notify(c Change) {
	for ch := range v.subscribers {
		select {
		case ch <- c:
		default:
		}
	}
}
