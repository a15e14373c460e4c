package board

import (
	"context"
	"sync"

	"github.com/grovetools/board/errors"
	"github.com/grovetools/board/logging"
	"github.com/sirupsen/logrus"
)

// Loader installs the store's snapshot into a View, once.
type Loader struct {
	source SnapshotSource
	view   *View
	logger *logrus.Entry
	once   sync.Once
}

// NewLoader creates a loader for one activation of view.
func NewLoader(source SnapshotSource, view *View, logger *logrus.Entry) *Loader {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Loader{source: source, view: view, logger: logger}
}

// Load issues the single retrieval request of this activation and installs
// the result, newest first. Calls after the first do nothing and return nil.
//
// Failures are non-fatal: the view is left as it was, a warning is logged and
// the error is returned for the caller to surface or ignore. A snapshot that
// resolves after the view was torn down is discarded.
func (l *Loader) Load(ctx context.Context) error {
	var err error
	ran := false
	l.once.Do(func() {
		ran = true
		err = l.load(ctx)
	})
	if !ran {
		l.logger.Debug("Snapshot already loaded for this activation")
	}
	return err
}

func (l *Loader) load(ctx context.Context) error {
	items, err := l.source.ListItems(ctx)
	if err != nil {
		if l.view.Closed() || ctx.Err() != nil {
			l.logger.WithError(err).Debug("Snapshot request abandoned")
			return err
		}
		l.logger.WithError(err).
			WithField("code", errors.GetCode(err)).
			Warn("Failed to load listings snapshot; view stays as it is")
		return err
	}

	if !l.view.LoadSnapshot(items) {
		l.logger.WithField("items", len(items)).Debug("Discarding snapshot for a deactivated view")
		return nil
	}

	l.logger.WithField("items", len(items)).Info("Loaded listings snapshot")
	return nil
}
