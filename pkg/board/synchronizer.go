package board

import (
	"context"
	"fmt"
	"sync"

	"github.com/grovetools/board/errors"
	"github.com/grovetools/board/logging"
	"github.com/grovetools/board/pkg/models"
	"github.com/sirupsen/logrus"
)

// State is the push channel's connection state.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Stats counts what a Synchronizer did with the messages it received.
type Stats struct {
	Ingested   int
	Skipped    int // malformed payloads
	Duplicates int // ids already in the view
	Dropped    int // arrived after Stop
}

// Synchronizer keeps a View current by prepending every item pushed over the
// store's channel, in arrival order.
//
// Precondition: the store never re-delivers an id that was already part of
// the snapshot it served at channel-open time. The View refuses duplicate ids,
// so a violation is logged and counted instead of corrupting the view.
//
// A Synchronizer is single use: Start once, Stop any number of times. It never
// reconnects on its own; see Board.Reconnect.
type Synchronizer struct {
	source PushSource
	view   *View
	logger *logrus.Entry

	mu      sync.Mutex
	state   State
	started bool
	stream  Stream
	cancel  context.CancelFunc
	err     error
	stats   Stats

	releaseOnce sync.Once
	done        chan struct{}
	loopDone    chan struct{}
}

// NewSynchronizer creates a synchronizer feeding view from source.
func NewSynchronizer(source PushSource, view *View, logger *logrus.Entry) *Synchronizer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Synchronizer{
		source:   source,
		view:     view,
		logger:   logger,
		state:    StateConnecting,
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
}

// Start performs the channel handshake and begins ingesting. If the handshake
// fails the synchronizer moves to Closed and the error is returned. Stop
// during the handshake cancels it.
func (s *Synchronizer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("synchronizer already started")
	}
	s.started = true
	if s.state == StateClosed {
		// Stopped before it was ever started.
		s.mu.Unlock()
		close(s.loopDone)
		return errors.New(errors.ErrCodeChannelClosed, "synchronizer stopped before start")
	}
	// The same context bounds the handshake and the consumer loop; release
	// cancels it.
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Debug("Opening push channel")
	stream, err := s.source.Subscribe(loopCtx)
	if err != nil {
		s.mu.Lock()
		stopped := s.state == StateClosed
		if !stopped {
			s.err = err
		}
		s.mu.Unlock()
		close(s.loopDone)
		s.release()
		if stopped {
			return errors.Wrap(err, errors.ErrCodeChannelClosed, "synchronizer stopped during handshake")
		}
		return err
	}

	s.mu.Lock()
	if s.state == StateClosed {
		// Stop raced the handshake; give the fresh stream straight back.
		s.mu.Unlock()
		_ = stream.Close()
		close(s.loopDone)
		return errors.New(errors.ErrCodeChannelClosed, "synchronizer stopped during handshake")
	}
	s.stream = stream
	s.state = StateOpen
	s.mu.Unlock()

	s.logger.Info("Push channel open")
	go s.run(loopCtx, stream)
	return nil
}

// run is the single consumer of the stream; messages are handled one at a
// time in arrival order.
func (s *Synchronizer) run(ctx context.Context, stream Stream) {
	defer close(s.loopDone)

	for {
		select {
		case <-ctx.Done():
			s.release()
			return
		case msg, ok := <-stream.Messages():
			if !ok {
				cause := stream.Err()
				if cause == nil {
					cause = errors.New(errors.ErrCodeChannelClosed, "push channel closed")
				}
				s.mu.Lock()
				if s.state != StateClosed {
					s.err = cause
				}
				s.mu.Unlock()
				s.release()
				return
			}
			s.ingest(msg)
		}
	}
}

func (s *Synchronizer) ingest(msg []byte) {
	// Holding mu across the view mutation means nothing is applied once Stop
	// has marked the synchronizer closed.
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		s.stats.Dropped++
		return
	}

	item, err := models.ParseItem(msg)
	if err != nil {
		s.stats.Skipped++
		s.logger.WithError(errors.Malformed("pushed item", err)).
			WithField("bytes", len(msg)).
			Warn("Skipping malformed channel message")
		return
	}

	if !s.view.Ingest(item) {
		if s.view.Closed() {
			s.stats.Dropped++
			return
		}
		s.stats.Duplicates++
		s.logger.WithError(errors.DuplicateID(item.ID)).
			Warn("Store re-delivered an item already in the view")
		return
	}

	s.stats.Ingested++
	s.logger.WithField("id", item.ID).Debug("Ingested pushed item")
}

// release moves to Closed and closes the stream. Every exit path goes through
// here; the stream is closed exactly once.
func (s *Synchronizer) release() {
	s.releaseOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		stream := s.stream
		cancel := s.cancel
		err := s.err
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if stream != nil {
			if cerr := stream.Close(); cerr != nil {
				s.logger.WithError(cerr).Debug("Error closing push channel")
			}
		}
		if err != nil {
			s.logger.WithError(err).Warn("Push channel closed unexpectedly")
		} else {
			s.logger.Info("Push channel closed")
		}
		close(s.done)
	})
}

// Stop tears the channel down and waits for the consumer to exit. After Stop
// returns no message can reach the View. It is safe to call more than once
// and from any goroutine.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	started := s.started
	s.state = StateClosed
	s.mu.Unlock()

	s.release()
	if started {
		<-s.loopDone
	}
}

// State returns the current connection state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the synchronizer reaches Closed.
func (s *Synchronizer) Done() <-chan struct{} {
	return s.done
}

// Err returns why the channel closed: nil after a deliberate Stop, the
// transport error after a drop or failed handshake.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stats returns a snapshot of the message counters.
func (s *Synchronizer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
