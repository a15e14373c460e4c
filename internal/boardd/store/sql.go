package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/grovetools/board/config"
	"github.com/grovetools/board/pkg/models"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations
var migrationsFS embed.FS

// SQLBackend stores listings in SQLite or MySQL.
type SQLBackend struct {
	db     *sql.DB
	driver string
}

// OpenSQL opens the database, applies pending migrations and returns the
// backend. driver is config.DriverSQLite or config.DriverMySQL.
func OpenSQL(driver, dsn string) (*SQLBackend, error) {
	if driver != config.DriverSQLite && driver != config.DriverMySQL {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == config.DriverSQLite {
		// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	if err := runMigrations(db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate %s database: %w", driver, err)
	}

	return &SQLBackend{db: db, driver: driver}, nil
}

// runMigrations applies the embedded migrations for driver to db.
func runMigrations(db *sql.DB, driver string) error {
	var (
		instance database.Driver
		err      error
	)
	switch driver {
	case config.DriverSQLite:
		instance, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case config.DriverMySQL:
		instance, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	}
	if err != nil {
		return err
	}

	source, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, instance)
	if err != nil {
		return err
	}

	err = m.Up()
	if err == migrate.ErrNoChange {
		return nil
	}
	return err
}

func (b *SQLBackend) List(ctx context.Context) ([]models.Item, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, title, description, price, image_url FROM listings ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Price, &item.ImageURL); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (b *SQLBackend) Insert(ctx context.Context, item models.Item) (models.Item, error) {
	res, err := b.db.ExecContext(ctx,
		`INSERT INTO listings (title, description, price, image_url) VALUES (?, ?, ?, ?)`,
		item.Title, item.Description, item.Price, item.ImageURL)
	if err != nil {
		return models.Item{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Item{}, err
	}
	item.ID = id
	return item, nil
}

func (b *SQLBackend) Count(ctx context.Context) (int, error) {
	var n int
	err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n)
	return n, err
}

// Close closes the database. The migrate instance is never closed because it
// would close the shared *sql.DB.
func (b *SQLBackend) Close() error {
	return b.db.Close()
}
