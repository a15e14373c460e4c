package board

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/grovetools/board/pkg/models"
)

// fakeStream is a Stream driven by the test through push and drop.
type fakeStream struct {
	msgs       chan []byte
	closeCalls atomic.Int32

	mu     sync.Mutex
	err    error
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{msgs: make(chan []byte, 64)}
}

func (s *fakeStream) Messages() <-chan []byte { return s.msgs }

func (s *fakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeStream) Close() error {
	s.closeCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.msgs)
	}
	return nil
}

// push delivers a raw frame; frames sent after close are ignored.
func (s *fakeStream) push(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.msgs <- data
}

func (s *fakeStream) pushItem(item models.Item) {
	data, _ := json.Marshal(item)
	s.push(data)
}

// drop simulates the transport going away.
func (s *fakeStream) drop(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.err = err
	s.closed = true
	close(s.msgs)
}

// fakeClient implements Client in memory. When echo is set, CreateItem
// assigns an id and pushes the item over the open stream like a real store.
type fakeClient struct {
	mu        sync.Mutex
	snapshot  []models.Item
	listErr   error
	listGate  chan struct{}
	listCalls int
	createErr error
	created   []models.Item
	subErr    error
	echo      bool
	nextID    int64
	streams   []*fakeStream
}

func (c *fakeClient) ListItems(ctx context.Context) ([]models.Item, error) {
	c.mu.Lock()
	c.listCalls++
	gate := c.listGate
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]models.Item, len(c.snapshot))
	copy(out, c.snapshot)
	return out, nil
}

func (c *fakeClient) CreateItem(ctx context.Context, item models.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return c.createErr
	}
	c.nextID++
	item.ID = c.nextID
	c.created = append(c.created, item)
	c.snapshot = append(c.snapshot, item)
	if c.echo && len(c.streams) > 0 {
		c.streams[len(c.streams)-1].pushItem(item)
	}
	return nil
}

func (c *fakeClient) Subscribe(ctx context.Context) (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subErr != nil {
		return nil, c.subErr
	}
	s := newFakeStream()
	c.streams = append(c.streams, s)
	return s, nil
}

func (c *fakeClient) Health(ctx context.Context) error { return nil }

func (c *fakeClient) Close() error { return nil }

func (c *fakeClient) stream(i int) *fakeStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streams[i]
}

func ids(items []models.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func titles(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}
