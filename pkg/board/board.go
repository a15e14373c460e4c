package board

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/grovetools/board/logging"
	"github.com/sirupsen/logrus"
)

// Board ties one View to its Loader, Synchronizer and Submitter for a single
// activation: Activate once, Deactivate once (further calls are no-ops).
type Board struct {
	client    Client
	view      *View
	logger    *logrus.Entry
	submitter *Submitter

	mu          sync.Mutex
	activated   bool
	deactivated bool
	ctx         context.Context
	cancel      context.CancelFunc
	sync        *Synchronizer
}

// New creates an inactive board over client.
func New(client Client, logger *logrus.Entry) *Board {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Board{
		client:    client,
		view:      NewView(),
		logger:    logger,
		submitter: NewSubmitter(client, logger.WithField("part", "submit")),
	}
}

// View returns the board's view.
func (b *Board) View() *View {
	return b.view
}

// Synchronizer returns the synchronizer of the current connection, or nil
// before Activate.
func (b *Board) Synchronizer() *Synchronizer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sync
}

// Activate opens the push channel and then loads the snapshot. Opening the
// channel first means nothing created after the snapshot was taken can be
// missed; the View reconciles items that show up in both.
//
// Failures are non-fatal: they are logged and returned, and the board stays
// usable (possibly empty) until Deactivate. ctx bounds the whole activation.
func (b *Board) Activate(ctx context.Context) error {
	b.mu.Lock()
	if b.activated {
		b.mu.Unlock()
		return fmt.Errorf("board already activated")
	}
	b.activated = true
	if b.deactivated {
		b.mu.Unlock()
		return fmt.Errorf("board was deactivated")
	}
	b.ctx, b.cancel = context.WithCancel(ctx)
	actx := b.ctx
	syncer := NewSynchronizer(b.client, b.view, b.logger.WithField("part", "sync"))
	b.sync = syncer
	b.mu.Unlock()

	return b.connect(actx, actx, syncer)
}

// Reconnect replaces the current synchronizer with a fresh one over the same
// View and reloads the snapshot to pick up anything missed while the channel
// was down. It is the surrounding application's retry hook.
func (b *Board) Reconnect(ctx context.Context) error {
	b.mu.Lock()
	if !b.activated || b.deactivated {
		b.mu.Unlock()
		return fmt.Errorf("board is not active")
	}
	old := b.sync
	syncer := NewSynchronizer(b.client, b.view, b.logger.WithField("part", "sync"))
	b.sync = syncer
	actx := b.ctx
	b.mu.Unlock()

	if old != nil {
		old.Stop()
	}

	b.logger.Info("Reconnecting push channel")
	// The subscription lives as long as the activation; only the snapshot
	// request is bounded by the caller's context.
	return b.connect(actx, ctx, syncer)
}

func (b *Board) connect(subCtx, loadCtx context.Context, syncer *Synchronizer) error {
	var errs []error
	if err := syncer.Start(subCtx); err != nil {
		errs = append(errs, fmt.Errorf("open channel: %w", err))
	}
	if err := NewLoader(b.client, b.view, b.logger.WithField("part", "loader")).Load(loadCtx); err != nil {
		errs = append(errs, fmt.Errorf("load snapshot: %w", err))
	}
	return stderrors.Join(errs...)
}

// Deactivate tears the view down, abandons any in-flight snapshot request and
// releases the push channel. It is safe to call more than once.
func (b *Board) Deactivate() {
	b.mu.Lock()
	if b.deactivated {
		b.mu.Unlock()
		return
	}
	b.deactivated = true
	cancel := b.cancel
	syncer := b.sync
	b.mu.Unlock()

	b.view.Teardown()
	if cancel != nil {
		cancel()
	}
	if syncer != nil {
		syncer.Stop()
	}
	b.logger.Debug("Board deactivated")
}

// Submit sends a new listing to the store. See Submitter.Submit.
func (b *Board) Submit(ctx context.Context, form *Form) error {
	return b.submitter.Submit(ctx, form)
}
