// Package server provides the HTTP and websocket API of the board store.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grovetools/board/internal/boardd/notify"
	"github.com/grovetools/board/internal/boardd/store"
	"github.com/grovetools/board/pkg/models"
	"github.com/grovetools/board/schema"
	"github.com/sirupsen/logrus"
)

const (
	maxBodyBytes  = 1 << 20
	notifyTimeout = 15 * time.Second
)

// Options configures a Server.
type Options struct {
	Logger      *logrus.Entry
	CORSOrigins []string
	Notifier    notify.Notifier
}

// Server serves the listings API over HTTP.
type Server struct {
	logger    *logrus.Entry
	store     *store.Store
	validator *schema.Validator
	hub       *hub
	handler   http.Handler
	cors      []string

	notifierMu sync.RWMutex
	notifier   notify.Notifier
	notifyWG   sync.WaitGroup

	server *http.Server
}

// New creates a server over st.
func New(st *store.Store, opts Options) (*Server, error) {
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.New())
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewLogNotifier(opts.Logger)
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	s := &Server{
		logger:    opts.Logger,
		store:     st,
		validator: validator,
		notifier:  opts.Notifier,
		cors:      opts.CORSOrigins,
	}
	s.hub = newHub(st, s.originAllowed, opts.Logger)
	s.handler = accessLog(s.routes(), opts.Logger)
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(s.cors))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/listings", s.handleList)
	r.POST("/listings", s.handleCreate)
	r.GET("/ws", s.hub.serve)
	r.GET("/schema/item", s.handleItemSchema)

	return r
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// SetNotifier replaces the creation notifier.
func (s *Server) SetNotifier(n notify.Notifier) {
	s.notifierMu.Lock()
	defer s.notifierMu.Unlock()
	s.notifier = n
}

// Notifier returns the active creation notifier.
func (s *Server) Notifier() notify.Notifier {
	s.notifierMu.RLock()
	defer s.notifierMu.RUnlock()
	return s.notifier
}

// ListenAndServe listens on addr and serves until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.WithField("addr", listener.Addr().String()).Info("Board store listening")
	err := s.server.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, disconnects every channel client and
// waits for pending notifications.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	err := s.server.Shutdown(ctx)
	s.hub.closeAll()

	done := make(chan struct{})
	go func() {
		s.notifyWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	return err
}

// handleList returns every listing, oldest first.
func (s *Server) handleList(c *gin.Context) {
	items, err := s.store.List(c.Request.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list listings"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// handleCreate validates the payload, creates the listing (broadcasting it to
// every channel) and returns it with its assigned id.
func (s *Server) handleCreate(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return
	}

	if err := s.validator.ValidateJSON(body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var item models.Item
	if err := json.Unmarshal(body, &item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := s.store.Create(c.Request.Context(), item)
	if err != nil {
		s.logger.WithError(err).Error("Failed to create listing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create listing"})
		return
	}

	s.logger.WithFields(logrus.Fields{
		"id":          created.ID,
		"title":       created.Title,
		"subscribers": s.store.Subscribers(),
	}).Info("Listing created")

	s.announce(created)
	c.JSON(http.StatusOK, created)
}

func (s *Server) announce(item models.Item) {
	n := s.Notifier()
	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := n.Notify(ctx, item); err != nil {
			s.logger.WithError(err).
				WithField("notifier", n.Name()).
				Warn("Failed to send creation notice")
		}
	}()
}

func (s *Server) handleItemSchema(c *gin.Context) {
	data, err := schema.GenerateItemSchema()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/schema+json", data)
}

func (s *Server) originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range s.cors {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
