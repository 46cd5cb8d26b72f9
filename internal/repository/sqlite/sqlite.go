// Package sqlite implements the local fallback store on SQLite.
//
// WHY SQLITE FOR THE FALLBACK?
// The fallback tier has to work when everything else is down. SQLite is an
// embedded database: a single file next to the binary, no server to reach.
// If the primary document store refuses a write, the record still lands here.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary
// builds without a C toolchain and ":memory:" databases make tests cheap.
//
// DATABASE/SQL OVERVIEW:
//   - sql.DB   is a connection pool (NOT a single connection!)
//   - sql.Rows holds multiple result rows (must be closed!)
//
// The pattern is always:
//  1. sql.Open(driverName, dataSourceName) → creates a pool
//  2. db.QueryContext / db.ExecContext     → runs queries
//  3. rows.Scan(&field1, &field2)          → reads results into Go variables
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// BLANK IMPORT:
	// The sqlite package's init() registers a database/sql driver named
	// "sqlite". We never call it directly.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements
// repository.FallbackRepository.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/intellicrawl.db" → file-based database (persistent)
//   - ":memory:"             → in-memory database (tests)
//
// The parent directory of a file path is created if it doesn't exist.
func New(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database exists per connection. Pin the pool to one
	// connection so every query sees the same tables.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// sql.Open doesn't connect. Ping surfaces a bad path now, not on the
	// first request.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress. The HTTP
	// handlers and the reconciler hit this file concurrently.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Defer it right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database file is still reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS is safe to run
// on every start.
//
// The whole candidate record lives in the document column as JSON, the
// same shape the primary store keeps. The other columns exist only for
// ordering and for the reconciler.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS developers (
			id              TEXT PRIMARY KEY,
			github_username TEXT NOT NULL DEFAULT '',
			document        TEXT NOT NULL,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_developers_created_at ON developers(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating developers table: %w", err)
	}

	// pending = 1 marks a write the primary store never acknowledged.
	// Added as a separate step so databases created before the reconciler
	// existed pick it up too.
	if err := db.addColumnIfNotExists("developers", "pending",
		"INTEGER NOT NULL DEFAULT 0"); err != nil {
		return fmt.Errorf("adding pending to developers: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_developers_pending ON developers(pending);
	`)
	if err != nil {
		return fmt.Errorf("creating developers pending index: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// ALTER TABLE errors on a duplicate column, so check pragma_table_info first.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}
