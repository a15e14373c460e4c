package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/board/errors"
	"github.com/grovetools/board/pkg/models"
)

// maxSnapshotBytes bounds the snapshot body read into memory.
const maxSnapshotBytes = 32 << 20

// RemoteClient implements Client against the store's HTTP API and websocket channel.
type RemoteClient struct {
	httpClient *http.Client
	dialer     *websocket.Dialer
	endpoints  Endpoints
}

// NewRemoteClient creates a client for the store at base. Requests other than
// the push channel are bounded by timeout.
func NewRemoteClient(base string, timeout time.Duration) (*RemoteClient, error) {
	endpoints, err := ResolveEndpoints(base)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid store address").
			WithDetail("base", base)
	}

	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		DisableKeepAlives: false,
		MaxIdleConns:      10,
		IdleConnTimeout:   90 * time.Second,
	}

	return &RemoteClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		},
		endpoints: endpoints,
	}, nil
}

// Endpoints returns the addresses the client talks to.
func (c *RemoteClient) Endpoints() Endpoints {
	return c.endpoints
}

// ListItems fetches every item, oldest first.
func (c *RemoteClient) ListItems(ctx context.Context) ([]models.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.Listings, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Transport("list listings", c.endpoints.Listings, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.UnexpectedStatus("list listings", c.endpoints.Listings, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, errors.Transport("read listings", c.endpoints.Listings, err)
	}

	items, err := models.ParseItems(body)
	if err != nil {
		return nil, errors.Malformed("listings snapshot", err)
	}
	return items, nil
}

// CreateItem sends a create request. The id is always sent as 0; the
// assigned id arrives over the push channel.
func (c *RemoteClient) CreateItem(ctx context.Context, item models.Item) error {
	item.ID = 0
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode item: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.Listings, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Transport("create listing", c.endpoints.Listings, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.UnexpectedStatus("create listing", c.endpoints.Listings, resp.StatusCode)
	}
	return nil
}

// Subscribe opens the push channel.
func (c *RemoteClient) Subscribe(ctx context.Context) (Stream, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.endpoints.Channel, nil)
	if err != nil {
		if resp != nil {
			return nil, errors.UnexpectedStatus("open channel", c.endpoints.Channel, resp.StatusCode)
		}
		return nil, errors.Transport("open channel", c.endpoints.Channel, err)
	}
	return newWSStream(conn), nil
}

// Health returns nil when the store answers its health check.
func (c *RemoteClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.Health, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Transport("health check", c.endpoints.Health, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.UnexpectedStatus("health check", c.endpoints.Health, resp.StatusCode)
	}
	return nil
}

// Close cleans up any resources used by the client.
func (c *RemoteClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Ensure RemoteClient implements Client interface.
var _ Client = (*RemoteClient)(nil)

// wsStream adapts a websocket connection to Stream. One goroutine reads
// frames and forwards them in order.
type wsStream struct {
	conn      *websocket.Conn
	msgs      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func newWSStream(conn *websocket.Conn) *wsStream {
	s := &wsStream{
		conn: conn,
		msgs: make(chan []byte, 16),
		done: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *wsStream) readLoop() {
	defer close(s.msgs)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// Closed locally; not a transport failure.
			default:
				s.setErr(errors.Wrap(err, errors.ErrCodeChannelClosed, "push channel closed"))
			}
			return
		}

		select {
		case s.msgs <- data:
		case <-s.done:
			return
		}
	}
}

func (s *wsStream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Messages returns the ordered message channel.
func (s *wsStream) Messages() <-chan []byte {
	return s.msgs
}

// Err reports why the message channel closed.
func (s *wsStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close sends a close frame and releases the connection. Only the first call
// has any effect.
func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		err = s.conn.Close()
	})
	return err
}
