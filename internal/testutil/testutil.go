// Package testutil provides shared test helpers for setting up project
// directories and databases.
package testutil

import (
	"testing"

	"github.com/starford/wikisync/internal/project"
	"github.com/starford/wikisync/internal/store"
)

// TestProject creates a temporary project directory with its content,
// templates and state trees, and an open database that is closed on cleanup.
func TestProject(t *testing.T) (*project.Layout, *store.DB) {
	t.Helper()
	layout, err := project.NewLayout(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := layout.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	db, err := store.Open(layout.DBPath())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return layout, db
}
