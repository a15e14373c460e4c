// Package store is the authoritative listings store behind `board serve`.
// It assigns ids, persists through a Backend and fans every created item out
// to its subscribers.
package store

import (
	"context"
	"sync"

	"github.com/grovetools/board/errors"
	"github.com/grovetools/board/pkg/models"
)

// subscriberBuffer is how many created items a subscriber may lag behind
// before it is disconnected.
const subscriberBuffer = 100

// Backend persists listings.
type Backend interface {
	// List returns every item, oldest first.
	List(ctx context.Context) ([]models.Item, error)
	// Insert stores item under the next id and returns it with the id set.
	Insert(ctx context.Context, item models.Item) (models.Item, error)
	// Count returns the number of stored items.
	Count(ctx context.Context) (int, error)
	Close() error
}

// Store is thread-safe and supports pub/sub of created items.
type Store struct {
	backend Backend

	// createMu serializes Insert+broadcast so subscribers see items in id order.
	createMu sync.Mutex

	mu          sync.RWMutex
	subscribers map[chan models.Item]struct{}
}

// New creates a store over backend.
func New(backend Backend) *Store {
	return &Store{
		backend:     backend,
		subscribers: make(map[chan models.Item]struct{}),
	}
}

// List returns every item, oldest first.
func (s *Store) List(ctx context.Context) ([]models.Item, error) {
	items, err := s.backend.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStore, "failed to list listings")
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

// Create assigns the next id to item, persists it and broadcasts it to every
// subscriber. Any id on the incoming item is ignored.
func (s *Store) Create(ctx context.Context, item models.Item) (models.Item, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	item.ID = 0
	created, err := s.backend.Insert(ctx, item)
	if err != nil {
		return models.Item{}, errors.Wrap(err, errors.ErrCodeStore, "failed to create listing")
	}

	s.broadcast(created)
	return created, nil
}

// Seed creates item only when the store is empty. It reports whether the item
// was created.
func (s *Store) Seed(ctx context.Context, item models.Item) (bool, error) {
	n, err := s.backend.Count(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeStore, "failed to count listings")
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.Create(ctx, item); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) broadcast(item models.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subscribers {
		select {
		case ch <- item:
		default:
			// A subscriber that cannot keep up is cut off rather than silently
			// missing an item; its client reconnects and reloads the snapshot.
			delete(s.subscribers, ch)
			close(ch)
		}
	}
}

// Subscribe creates a new subscription channel for created items. The channel
// is closed by Unsubscribe, by Close, or when the subscriber falls too far
// behind.
func (s *Store) Subscribe() <-chan models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan models.Item, subscriberBuffer)
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel. Unknown or
// already closed subscriptions are ignored.
func (s *Store) Unsubscribe(sub <-chan models.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		if ch == sub {
			delete(s.subscribers, ch)
			close(ch)
			return
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (s *Store) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Close ends every subscription and closes the backend.
func (s *Store) Close() error {
	s.mu.Lock()
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan models.Item]struct{})
	s.mu.Unlock()

	return s.backend.Close()
}
