// Package syncer reconciles the local file tree against a remote wiki. The
// ledger records the last-known remote state per title; the pull, push and
// diff engines compare the current scan, the ledger and the remote to decide
// what moves.
package syncer

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/wikisync/internal/apperr"
	"github.com/starford/wikisync/internal/store"
)

// LedgerEntry is the last-synced remote state of one title.
type LedgerEntry struct {
	TitleKey        string
	Title           string
	NamespaceID     int
	RelPath         string
	Hash            string
	RemoteTimestamp string
	RevisionID      int64
	PageID          int64
	IsRedirect      bool
}

// NormalizeKey folds case and underscores so "Main_Page" and "main page"
// address the same ledger row. Titles differing only in case or spacing
// collide on purpose; the last one processed wins.
func NormalizeKey(title string) string {
	return strings.ToLower(strings.ReplaceAll(title, "_", " "))
}

// Ledger reads and writes the sync_ledger and sync_config tables.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *store.DB) *Ledger {
	return &Ledger{db: db.Handle()}
}

const ledgerColumns = `title_key, title, namespace_id, rel_path, hash,
	remote_timestamp, revision_id, page_id, is_redirect`

// Get looks up the entry for a title. The title is normalized before lookup.
func (l *Ledger) Get(title string) (*LedgerEntry, error) {
	row := l.db.QueryRow(`SELECT `+ledgerColumns+` FROM sync_ledger WHERE title_key = ?`,
		NormalizeKey(title))
	e, err := scanLedgerEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("syncer: ledger entry for %q: %w", title, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("syncer: read ledger: %w", err)
	}
	return e, nil
}

// All returns every ledger entry, ordered by key.
func (l *Ledger) All() ([]LedgerEntry, error) {
	rows, err := l.db.Query(`SELECT ` + ledgerColumns + ` FROM sync_ledger ORDER BY title_key`)
	if err != nil {
		return nil, fmt.Errorf("syncer: list ledger: %w", err)
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("syncer: scan ledger row: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLedgerEntry(row rowScanner) (*LedgerEntry, error) {
	var e LedgerEntry
	err := row.Scan(&e.TitleKey, &e.Title, &e.NamespaceID, &e.RelPath, &e.Hash,
		&e.RemoteTimestamp, &e.RevisionID, &e.PageID, &e.IsRedirect)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Apply commits a batch of upserts and deletions in one transaction, so a
// crash mid-run cannot leave a half-written ledger. Delete keys must already
// be normalized.
func (l *Ledger) Apply(upserts []LedgerEntry, deleteKeys []string) error {
	if len(upserts) == 0 && len(deleteKeys) == 0 {
		return nil
	}
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("syncer: begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	up, err := tx.Prepare(`
		INSERT INTO sync_ledger (` + ledgerColumns + `, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(title_key) DO UPDATE SET
			title = excluded.title,
			namespace_id = excluded.namespace_id,
			rel_path = excluded.rel_path,
			hash = excluded.hash,
			remote_timestamp = excluded.remote_timestamp,
			revision_id = excluded.revision_id,
			page_id = excluded.page_id,
			is_redirect = excluded.is_redirect,
			synced_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("syncer: prepare ledger upsert: %w", err)
	}
	defer up.Close()

	for _, e := range upserts {
		key := e.TitleKey
		if key == "" {
			key = NormalizeKey(e.Title)
		}
		_, err := up.Exec(key, e.Title, e.NamespaceID, e.RelPath, e.Hash,
			e.RemoteTimestamp, e.RevisionID, e.PageID, e.IsRedirect)
		if err != nil {
			return fmt.Errorf("syncer: upsert ledger %q: %w", e.Title, err)
		}
	}
	for _, key := range deleteKeys {
		if _, err := tx.Exec(`DELETE FROM sync_ledger WHERE title_key = ?`, key); err != nil {
			return fmt.Errorf("syncer: delete ledger %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("syncer: commit ledger tx: %w", err)
	}
	return nil
}

// GetConfig returns the stored value for a sync_config key, or "" when the
// key has never been set.
func (l *Ledger) GetConfig(key string) (string, error) {
	var value string
	err := l.db.QueryRow(`SELECT value FROM sync_config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("syncer: read config %q: %w", key, err)
	}
	return value, nil
}

// SetConfig upserts a sync_config key.
func (l *Ledger) SetConfig(key, value string) error {
	_, err := l.db.Exec(`
		INSERT INTO sync_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("syncer: write config %q: %w", key, err)
	}
	return nil
}
