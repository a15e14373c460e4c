package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/board/internal/boardd/server"
	"github.com/grovetools/board/internal/boardd/store"
	"github.com/grovetools/board/logging"
	"github.com/grovetools/board/pkg/board"
	"github.com/grovetools/board/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startStore runs a store server and writes a board.yml pointing at it.
func startStore(t *testing.T) (string, *store.Store) {
	t.Helper()
	st := store.New(store.NewMemoryBackend())
	srv, err := server.New(st, server.Options{Logger: logging.Discard()})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		ts.Close()
	})

	cfgPath := filepath.Join(t.TempDir(), "board.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("api_url: "+ts.URL+"\n"), 0o644))
	return cfgPath, st
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPostThenList(t *testing.T) {
	cfgPath, st := startStore(t)

	out, err := run(t, "post", "--config", cfgPath, "--title", "Lake cabin", "--description", "Two bedrooms", "--price", "120000")
	require.NoError(t, err)
	assert.Contains(t, out, `Submitted "Lake cabin"`)

	_, err = run(t, "post", "--config", cfgPath, "--title", "Loft", "--description", "City centre", "--price", "cheap")
	require.NoError(t, err)

	items, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 120000.0, items[0].Price)
	assert.Equal(t, 0.0, items[1].Price)

	out, err = run(t, "list", "--config", cfgPath, "--json")
	require.NoError(t, err)
	var listed []models.Item
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, "Loft", listed[0].Title, "newest first")
	assert.Equal(t, "Lake cabin", listed[1].Title)

	out, err = run(t, "list", "--config", cfgPath, "--match", "cabni")
	require.NoError(t, err)
	assert.Contains(t, out, "Lake cabin")
	assert.NotContains(t, out, "Loft")
}

func TestPost_MissingTitle(t *testing.T) {
	cfgPath, st := startStore(t)

	_, err := run(t, "post", "--config", cfgPath, "--description", "No title")
	require.Error(t, err)

	items, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestList_Empty(t *testing.T) {
	cfgPath, _ := startStore(t)

	out, err := run(t, "list", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No listings")
}

func TestSchemaCmd(t *testing.T) {
	out, err := run(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"title"`)

	out, err = run(t, "schema", "config")
	require.NoError(t, err)
	assert.Contains(t, out, `"api_url"`)

	_, err = run(t, "schema", "nope")
	assert.Error(t, err)
}

func TestPathsCmd(t *testing.T) {
	out, err := run(t, "paths")
	require.NoError(t, err)

	var got PathsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.PidFile)
	assert.Equal(t, "listings.sqlite3", filepath.Base(got.Database))
}

func TestConfigCmd_MasksToken(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "board.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`api_url: http://localhost:9000
notify:
  telegram:
    token: secret-token
    chat_id: "42"
`), 0o644))

	out, err := run(t, "config", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "http://localhost:9000")
	assert.NotContains(t, out, "secret-token")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchPlain(t *testing.T) {
	cfgPath, st := startStore(t)
	_, err := st.Create(context.Background(), models.Item{Title: "Seeded", Description: "d", Price: 1})
	require.NoError(t, err)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	base := strings.TrimSpace(strings.TrimPrefix(string(data), "api_url: "))

	client, err := board.NewRemoteClient(base, time.Second)
	require.NoError(t, err)
	b := board.New(client, logging.Discard())
	defer b.Deactivate()

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- watchPlain(ctx, b, out, 0, logging.Discard()) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Seeded")
	}, 2*time.Second, 10*time.Millisecond)

	_, err = run(t, "post", "--config", cfgPath, "--title", "Fresh", "--description", "d")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "+ #2  Fresh")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchPlain did not return after cancel")
	}
}

func TestChangePrinter_PrintsInsertsWhoseChangeWasDropped(t *testing.T) {
	view := board.NewView()
	changes := view.Subscribe()
	view.LoadSnapshot([]models.Item{{ID: 1, Title: "Seeded"}})

	var out bytes.Buffer
	p := newChangePrinter(&out, view)
	p.print(<-changes)

	// More pushes than the subscription buffer holds.
	const pushed = 100
	for i := 2; i <= pushed+1; i++ {
		require.True(t, view.Ingest(models.Item{ID: int64(i), Title: "burst"}))
	}

	for drained := false; !drained; {
		select {
		case c := <-changes:
			p.print(c)
		default:
			drained = true
		}
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	var inserts []string
	for _, line := range lines {
		if strings.HasPrefix(line, "+ ") {
			inserts = append(inserts, line)
		}
	}
	require.Len(t, inserts, pushed)
	assert.True(t, strings.HasPrefix(inserts[0], "+ #2 "), "oldest push first")
	assert.True(t, strings.HasPrefix(inserts[pushed-1], "+ #101 "))
}
