// Package paths provides XDG-compliant path resolution for the board tools.
//
// Resolution order:
// 1. BOARD_HOME (portable root) → $BOARD_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/board
// 3. Platform defaults → ~/.config/board, ~/.local/state/board
package paths

import (
	"os"
	"path/filepath"
)

const appName = "board"

func baseDir(sub, xdgVar string, fallback ...string) string {
	if home := os.Getenv("BOARD_HOME"); home != "" {
		return filepath.Join(home, sub)
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append(append([]string{homeDir}, fallback...), appName)...)
	}
	return ""
}

// ConfigDir returns the configuration directory.
// Used as the last place board.yml is searched for.
func ConfigDir() string {
	return baseDir("config", "XDG_CONFIG_HOME", ".config")
}

// StateDir returns the state directory.
// Used for runtime state: the server PID file, SQLite databases and logs.
func StateDir() string {
	return baseDir("state", "XDG_STATE_HOME", ".local", "state")
}

// LogDir returns the directory for component log files.
func LogDir() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "logs")
}

// PidFilePath returns the path to the board server PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "board-server.pid")
}

// DefaultDatabasePath returns the SQLite database used when no DSN is configured.
func DefaultDatabasePath() string {
	return filepath.Join(StateDir(), "listings.sqlite3")
}

// EnsureDirs creates the board directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), StateDir(), LogDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
