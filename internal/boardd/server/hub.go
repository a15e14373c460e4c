package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/grovetools/board/internal/boardd/store"
	"github.com/grovetools/board/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxClientFrame = 4096
)

// hub pushes every created listing to each connected websocket client.
type hub struct {
	store    *store.Store
	upgrader websocket.Upgrader
	logger   *logrus.Entry

	mu      sync.Mutex
	clients map[string]*websocket.Conn
}

func newHub(st *store.Store, checkOrigin func(string) bool, logger *logrus.Entry) *hub {
	return &hub{
		store: st,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r.Header.Get("Origin"))
			},
		},
		logger:  logger,
		clients: make(map[string]*websocket.Conn),
	}
}

// serve upgrades the request and streams created items until either side
// goes away. Each text frame is one JSON item.
func (h *hub) serve(c *gin.Context) {
	// Subscribe before the handshake completes: once the client sees the
	// channel open, every later creation must reach it.
	sub := h.store.Subscribe()
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.store.Unsubscribe(sub)
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}

	id := uuid.NewString()
	h.add(id, conn)
	logger := h.logger.WithField("client", id)
	logger.WithField("remote", c.Request.RemoteAddr).Info("Channel client connected")

	defer func() {
		h.store.Unsubscribe(sub)
		h.remove(id)
		conn.Close()
		logger.Info("Channel client disconnected")
	}()

	done := make(chan struct{})
	go readLoop(conn, done)
	h.writeLoop(conn, sub, done, logger)
}

// readLoop drains client frames; the channel is one-way, reading only detects
// disconnects and answers pings.
func readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxClientFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *hub) writeLoop(conn *websocket.Conn, sub <-chan models.Item, done <-chan struct{}, logger *logrus.Entry) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case item, ok := <-sub:
			if !ok {
				// The store cut this subscriber off (too slow, or shutting down).
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscription ended"),
					time.Now().Add(writeWait))
				return
			}
			data, err := json.Marshal(item)
			if err != nil {
				logger.WithError(err).Error("Failed to encode listing")
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.WithError(err).Debug("Channel write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *hub) add(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[id] = conn
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
}

// count returns the number of connected clients.
func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// closeAll disconnects every client; http.Server.Shutdown does not track
// hijacked connections.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
	}
}

// Clients returns the number of connected channel clients.
func (s *Server) Clients() int {
	return s.hub.count()
}
