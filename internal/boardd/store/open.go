package store

import (
	"fmt"

	"github.com/grovetools/board/config"
	"github.com/grovetools/board/pkg/paths"
)

// OpenBackend returns the backend selected by cfg. An empty SQLite DSN uses
// the database file in the state directory.
func OpenBackend(cfg config.DatabaseConfig) (Backend, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return NewMemoryBackend(), nil
	case config.DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			if err := paths.EnsureDirs(); err != nil {
				return nil, err
			}
			dsn = fmt.Sprintf("file:%s?_busy_timeout=5000", paths.DefaultDatabasePath())
		}
		return OpenSQL(config.DriverSQLite, dsn)
	case config.DriverMySQL:
		return OpenSQL(config.DriverMySQL, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
