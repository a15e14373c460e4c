package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/board/config"
	"github.com/grovetools/board/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: http://localhost:8000\n"), 0644))

	reloaded := make(chan *config.Config, 4)
	w, err := New(path, 20*time.Millisecond, func(cfg *config.Config) { reloaded <- cfg }, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	body := "api_url: http://localhost:8000\nnotify:\n  telegram:\n    token: abc\n    chat_id: \"42\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	select {
	case cfg := <-reloaded:
		assert.True(t, cfg.Notify.Telegram.Enabled())
		assert.Equal(t, "42", cfg.Notify.Telegram.ChatID)
	case <-time.After(3 * time.Second):
		t.Fatal("configuration was not reloaded")
	}
}

func TestConfigWatcher_IgnoresOtherFilesAndInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: http://localhost:8000\n"), 0644))

	reloaded := make(chan *config.Config, 4)
	w, err := New(path, 20*time.Millisecond, func(cfg *config.Config) { reloaded <- cfg }, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yml"), []byte("x: 1\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("api_url: ftp://nowhere\n"), 0644))

	select {
	case <-reloaded:
		t.Fatal("unexpected reload")
	case <-time.After(300 * time.Millisecond):
	}
}
