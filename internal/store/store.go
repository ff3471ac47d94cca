// Package store opens the embedded SQLite database and applies schema
// migrations. The index and sync packages share one database file; each
// invocation uses a single connection.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// migrations are applied sequentially; each entry runs in its own
// transaction and bumps schema_version. Never reorder or edit a shipped
// entry, only append.
var migrations = []string{
	// 1: page/link index tables.
	`
	CREATE TABLE pages (
		path            TEXT PRIMARY KEY,
		title           TEXT NOT NULL,
		namespace       TEXT NOT NULL DEFAULT '',
		is_redirect     INTEGER NOT NULL DEFAULT 0,
		redirect_target TEXT NOT NULL DEFAULT '',
		hash            TEXT NOT NULL DEFAULT '',
		size            INTEGER NOT NULL DEFAULT 0,
		indexed_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX idx_pages_title ON pages(title);
	CREATE INDEX idx_pages_namespace ON pages(namespace);

	CREATE TABLE page_links (
		source_path      TEXT NOT NULL,
		source_title     TEXT NOT NULL,
		target_title     TEXT NOT NULL,
		target_namespace TEXT NOT NULL DEFAULT '',
		is_category      INTEGER NOT NULL DEFAULT 0,
		UNIQUE(source_path, target_title, is_category)
	);
	CREATE INDEX idx_page_links_source ON page_links(source_path);
	CREATE INDEX idx_page_links_target ON page_links(target_title);
	`,
	// 2: sync ledger and watermark config.
	`
	CREATE TABLE sync_ledger (
		title_key        TEXT PRIMARY KEY,
		title            TEXT NOT NULL,
		namespace_id     INTEGER NOT NULL DEFAULT 0,
		rel_path         TEXT NOT NULL,
		hash             TEXT NOT NULL DEFAULT '',
		remote_timestamp TEXT NOT NULL DEFAULT '',
		revision_id      INTEGER NOT NULL DEFAULT 0,
		page_id          INTEGER NOT NULL DEFAULT 0,
		is_redirect      INTEGER NOT NULL DEFAULT 0,
		synced_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE sync_config (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`,
	// 3: persisted template category overrides for the path codec.
	`
	CREATE TABLE template_categories (
		prefix   TEXT PRIMARY KEY,
		category TEXT NOT NULL
	);
	`,
}

// DB wraps the shared sql.DB handle.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the database file, creating parent directories as
// needed, and applies any pending migrations.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

// Handle exposes the underlying connection to the index and sync packages.
func (d *DB) Handle() *sql.DB { return d.conn }

// Close closes the underlying connection.
func (d *DB) Close() error { return d.conn.Close() }

func migrate(conn *sql.DB) error {
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("store: create schema_version: %w", err)
	}
	var current int
	if err := conn.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("store: read schema version: %w", err)
	}
	for v := current + 1; v <= len(migrations); v++ {
		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("store: begin migration %d: %w", v, err)
		}
		if _, err := tx.Exec(migrations[v-1]); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: apply migration %d: %w", v, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, v); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: record migration %d: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("store: commit migration %d: %w", v, err)
		}
	}
	return nil
}
