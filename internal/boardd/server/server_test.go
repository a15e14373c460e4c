package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/board/internal/boardd/store"
	"github.com/grovetools/board/logging"
	"github.com/grovetools/board/pkg/board"
	"github.com/grovetools/board/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu    sync.Mutex
	items []models.Item
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Notify(ctx context.Context, item models.Item) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, item)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.items)
}

func newTestServer(t *testing.T, origins ...string) (*Server, *httptest.Server, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	s, err := New(store.New(store.NewMemoryBackend()), Options{
		Logger:      logging.Discard(),
		CORSOrigins: origins,
		Notifier:    notifier,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
		srv.Close()
	})
	return s, srv, notifier
}

func post(t *testing.T, base, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(base+"/listings", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func dial(t *testing.T, base string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(base, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServer_Health(t *testing.T) {
	_, srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestServer_CreateAndList(t *testing.T) {
	_, srv, notifier := newTestServer(t)

	resp := post(t, srv.URL, `{"id": 50, "title": "Villa", "description": "Sea view", "price": 550000, "image_url": "v.png"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created models.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, int64(1), created.ID)

	post(t, srv.URL, `{"title": "Flat", "description": "Two rooms", "price": 900}`)

	listResp, err := http.Get(srv.URL + "/listings")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var items []models.Item
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&items))

	require.Len(t, items, 2)
	assert.Equal(t, "Villa", items[0].Title)
	assert.Equal(t, "Flat", items[1].Title)
	assert.Eventually(t, func() bool { return notifier.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestServer_ListEmptyIsArray(t *testing.T) {
	_, srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/listings")
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, `[]`, string(raw))
}

func TestServer_CreateRejectsInvalidPayload(t *testing.T) {
	_, srv, notifier := newTestServer(t)

	for _, body := range []string{
		`{"description": "no title", "price": 1}`,
		`{"title": "x", "description": "y", "price": -5}`,
		`not json`,
	} {
		resp := post(t, srv.URL, body)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, body)
	}
	assert.Equal(t, 0, notifier.count())
}

func TestServer_BroadcastsCreatedItems(t *testing.T) {
	s, srv, _ := newTestServer(t)
	first := dial(t, srv.URL)
	second := dial(t, srv.URL)
	require.Eventually(t, func() bool { return s.Clients() == 2 }, time.Second, 5*time.Millisecond)

	post(t, srv.URL, `{"title": "Villa", "description": "Sea view", "price": 1}`)
	post(t, srv.URL, `{"title": "Flat", "description": "Two rooms", "price": 2}`)

	for _, conn := range []*websocket.Conn{first, second} {
		for _, want := range []int64{1, 2} {
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			msgType, data, err := conn.ReadMessage()
			require.NoError(t, err)
			assert.Equal(t, websocket.TextMessage, msgType)

			item, err := models.ParseItem(data)
			require.NoError(t, err)
			assert.Equal(t, want, item.ID)
		}
	}
}

func TestServer_ClientDisconnectUnregisters(t *testing.T) {
	s, srv, _ := newTestServer(t)
	conn := dial(t, srv.URL)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return s.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestServer_CORS(t *testing.T) {
	_, srv, _ := newTestServer(t, "https://board.example.com")

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/listings", nil)
	req.Header.Set("Origin", "https://board.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://board.example.com", resp.Header.Get("Access-Control-Allow-Origin"))

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, wsResp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	require.Error(t, err)
	if wsResp != nil {
		assert.Equal(t, http.StatusForbidden, wsResp.StatusCode)
	}
}

func TestServer_ItemSchema(t *testing.T) {
	_, srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/schema/item")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var doc map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Contains(t, doc, "properties")
}

func TestServer_BoardEndToEnd(t *testing.T) {
	s, srv, _ := newTestServer(t)
	post(t, srv.URL, `{"title": "A", "description": "first", "price": 1}`)
	post(t, srv.URL, `{"title": "B", "description": "second", "price": 2}`)

	client, err := board.NewRemoteClient(srv.URL, 5*time.Second)
	require.NoError(t, err)
	b := board.New(client, logging.Discard())
	t.Cleanup(b.Deactivate)

	require.NoError(t, b.Activate(context.Background()))
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"B", "A"}, titlesOf(b.View().Items()))

	form := &board.Form{Title: "C", Description: "third", Price: "oops"}
	require.NoError(t, b.Submit(context.Background(), form))

	require.Eventually(t, func() bool { return b.View().Len() == 3 }, 2*time.Second, 5*time.Millisecond)
	items := b.View().Items()
	assert.Equal(t, []string{"C", "B", "A"}, titlesOf(items))
	assert.Equal(t, int64(3), items[0].ID)
	assert.Equal(t, 0.0, items[0].Price)

	b.Deactivate()
	assert.Eventually(t, func() bool { return s.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func titlesOf(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}
