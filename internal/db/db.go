package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"roamexport/internal/apperr"
)

// DB wraps a read-only connection to an org-roam SQLite database
type DB struct {
	conn *sql.DB
	Path string
}

// OpenDB opens the org-roam database at path in read-only mode and verifies
// the connection. The exporter never writes to the store.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, &apperr.StoreLoadError{Path: path, Op: "open", Err: err}
	}

	// sql.Open is lazy; a missing or corrupt file only shows up on first use.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, &apperr.StoreLoadError{Path: path, Op: "open", Err: err}
	}

	return &DB{conn: conn, Path: path}, nil
}

// dsn builds a read-only file URI for the modernc driver.
func dsn(path string) string {
	return fmt.Sprintf("file:%s?mode=ro", path)
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (d *DB) Conn() *sql.DB {
	return d.conn
}
