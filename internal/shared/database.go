package shared

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	// DriverCGO is the cgo-backed mattn/go-sqlite3 driver.
	DriverCGO = "sqlite3"
	// DriverPure is the pure Go modernc.org/sqlite driver.
	DriverPure = "sqlite"
)

// NewDatabase opens a connection to a SQLite database at the specified path using the default driver.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*sql.DB, error) {
	return OpenDatabase(DriverCGO, path)
}

// OpenDatabase opens a SQLite database with the named driver ([DriverCGO] or [DriverPure]).
//
// In-memory databases are pinned to a single connection so every statement sees the same data.
func OpenDatabase(driver, path string) (*sql.DB, error) {
	switch driver {
	case "":
		driver = DriverCGO
	case DriverCGO, DriverPure:
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", ErrInvalidConfig, driver)
	}

	if path == "" {
		return nil, fmt.Errorf("%w: database path is empty", ErrInvalidConfig)
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if IsMemoryPath(path) {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// IsMemoryPath reports whether path names an in-memory SQLite database.
func IsMemoryPath(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// ConfigureDatabase sets connection pool settings for the database.
// Zero values leave the driver defaults in place.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}
