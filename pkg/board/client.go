// Package board keeps a local, newest-first view of the listings board in
// step with the store: a one-shot snapshot followed by a live push channel.
package board

import (
	"context"

	"github.com/grovetools/board/pkg/models"
)

// SnapshotSource returns the full item collection, oldest first.
type SnapshotSource interface {
	ListItems(ctx context.Context) ([]models.Item, error)
}

// Creator sends a create request for one item with id 0.
type Creator interface {
	CreateItem(ctx context.Context, item models.Item) error
}

// PushSource opens the push channel.
type PushSource interface {
	Subscribe(ctx context.Context) (Stream, error)
}

// Stream is an open push channel. Messages are delivered in arrival order on a
// single channel, which is closed when the transport drops or the stream is
// closed. Err reports why the channel closed; it is nil after Close.
type Stream interface {
	Messages() <-chan []byte
	Err() error
	Close() error
}

// Client is everything a Board needs from the store.
type Client interface {
	SnapshotSource
	Creator
	PushSource

	// Health returns nil when the store answers its health check.
	Health(ctx context.Context) error

	// Close releases idle connections held by the client.
	Close() error
}
