package store

import (
	"path/filepath"
	"testing"
)

func TestOpen_AppliesAllMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "wikisync.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var version int
	if err := db.Handle().QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("schema_version: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("version = %d, want %d", version, len(migrations))
	}

	for _, table := range []string{"pages", "page_links", "sync_ledger", "sync_config", "template_categories"} {
		var n int
		if err := db.Handle().QueryRow(`SELECT count(*) FROM ` + table).Scan(&n); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wikisync.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	db.Close()

	// Reopening an up-to-date database must be a no-op.
	db2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	db2.Close()
}
