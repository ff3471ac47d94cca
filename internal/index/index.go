// Package index maintains the derived link graph of the local file tree in
// SQLite, with optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/wikisync/internal/pathcodec"
	"github.com/starford/wikisync/internal/store"
)

// PageRow is one row of the pages table.
type PageRow struct {
	Path           string    `json:"path"`
	Title          string    `json:"title"`
	Namespace      string    `json:"namespace"`
	IsRedirect     bool      `json:"is_redirect"`
	RedirectTarget string    `json:"redirect_target,omitempty"`
	Hash           string    `json:"hash"`
	Size           int64     `json:"size"`
	IndexedAt      time.Time `json:"indexed_at"`
}

// Link is one outgoing link extracted from a page.
type Link struct {
	TargetTitle     string `json:"target"`
	TargetNamespace string `json:"namespace"`
	IsCategory      bool   `json:"is_category"`
}

// SearchResult is one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
}

// Querier is the read side of the index, implemented by *Index and by test
// doubles in the transport packages.
type Querier interface {
	GetPage(title string) (*PageRow, error)
	Backlinks(title string) ([]string, error)
	Orphans() ([]PageRow, error)
	EmptyCategories() ([]PageRow, error)
	BrokenLinks() ([]BrokenLink, error)
	DoubleRedirects() ([]DoubleRedirect, error)
	Uncategorized() ([]PageRow, error)
	Search(query string, limit int) ([]SearchResult, error)
}

// Index wraps the shared database handle with link-graph operations.
type Index struct {
	db *sql.DB
}

var _ Querier = (*Index)(nil)

// New builds an Index over the shared store, preparing the full-text table
// when the sqlite_fts5 build tag is present.
func New(db *store.DB) (*Index, error) {
	ix := &Index{db: db.Handle()}
	if err := initFTS(ix.db); err != nil {
		return nil, fmt.Errorf("index: init fts: %w", err)
	}
	return ix, nil
}

// TemplateCategories loads persisted prefix-to-category overrides for the
// path codec.
func (ix *Index) TemplateCategories() ([]pathcodec.PrefixCategory, error) {
	rows, err := ix.db.Query(`SELECT prefix, category FROM template_categories ORDER BY prefix`)
	if err != nil {
		return nil, fmt.Errorf("index: template categories: %w", err)
	}
	defer rows.Close()

	var out []pathcodec.PrefixCategory
	for rows.Next() {
		var e pathcodec.PrefixCategory
		if err := rows.Scan(&e.Prefix, &e.Category); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SetTemplateCategory upserts one prefix-to-category override.
func (ix *Index) SetTemplateCategory(prefix, category string) error {
	_, err := ix.db.Exec(`
		INSERT INTO template_categories (prefix, category) VALUES (?, ?)
		ON CONFLICT(prefix) DO UPDATE SET category = excluded.category
	`, prefix, category)
	if err != nil {
		return fmt.Errorf("index: set template category: %w", err)
	}
	return nil
}
