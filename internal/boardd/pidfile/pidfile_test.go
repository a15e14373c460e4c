package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/grovetools/board/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "board-server.pid")

	require.NoError(t, Acquire(path))
	running, pid, err := IsRunning(path)
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, Release(path))
	running, _, err = IsRunning(path)
	require.NoError(t, err)
	assert.False(t, running)
}

func TestAcquire_StaleFileIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board-server.pid")
	// PIDs this large are never handed out on Linux or macOS.
	require.NoError(t, os.WriteFile(path, []byte("999999999"), 0644))

	require.NoError(t, Acquire(path))
	pid, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestAcquire_LiveProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board-server.pid")
	// The parent (the test runner) is alive and is not us.
	parent := os.Getppid()
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(parent)), 0644))

	err := Acquire(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeAlreadyRunning))
}

func TestIsAlive(t *testing.T) {
	assert.True(t, IsAlive(os.Getpid()))
	assert.False(t, IsAlive(0))
	assert.False(t, IsAlive(-1))
}
