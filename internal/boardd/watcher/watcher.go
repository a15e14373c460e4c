// Package watcher reloads the store server's configuration when board.yml
// changes on disk.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/board/config"
	"github.com/sirupsen/logrus"
)

const defaultDebounce = 200 * time.Millisecond

// ConfigWatcher watches one configuration file and hands every successfully
// reloaded configuration to a callback.
type ConfigWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onReload func(*config.Config)
	logger   *logrus.Entry

	mu    sync.Mutex
	timer *time.Timer
}

// New watches the directory holding path. fsnotify does not follow renames of
// a single file, and most editors save by renaming, so the parent directory is
// watched and events are filtered by name.
func New(path string, debounce time.Duration, onReload func(*config.Config), logger *logrus.Entry) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &ConfigWatcher{
		watcher:  w,
		path:     abs,
		debounce: debounce,
		onReload: onReload,
		logger:   logger,
	}, nil
}

// Start processes events until ctx is cancelled. It blocks.
func (w *ConfigWatcher) Start(ctx context.Context) {
	defer w.stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			return
		}
	}
}

// schedule (re)arms the reload timer so a burst of writes reloads once.
func (w *ConfigWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *ConfigWatcher) reload() {
	cfg, err := config.Load(w.path)
	if err == nil {
		cfg.ApplyEnv()
		err = cfg.Validate()
	}
	if err != nil {
		w.logger.WithError(err).Warn("Ignoring invalid configuration change")
		return
	}
	w.logger.Infof("Config changed: %s", filepath.Base(w.path))
	if w.onReload != nil {
		w.onReload(cfg)
	}
}

func (w *ConfigWatcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.watcher.Close()
}
