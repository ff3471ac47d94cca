package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/wikisync/internal/apperr"
)

// BrokenLink is a link whose Main-namespace target has no indexed page.
type BrokenLink struct {
	SourceTitle string `json:"source"`
	TargetTitle string `json:"target"`
}

// DoubleRedirect is a redirect whose target is itself a redirect.
type DoubleRedirect struct {
	Title       string `json:"title"`
	Target      string `json:"target"`
	FinalTarget string `json:"final_target"`
}

// GetPage returns the indexed row for a title, or apperr.ErrNotFound.
func (ix *Index) GetPage(title string) (*PageRow, error) {
	var p PageRow
	err := ix.db.QueryRow(`
		SELECT path, title, namespace, is_redirect, redirect_target, hash, size, indexed_at
		FROM pages WHERE title = ?
	`, title).Scan(&p.Path, &p.Title, &p.Namespace, &p.IsRedirect, &p.RedirectTarget, &p.Hash, &p.Size, &p.IndexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get page: %w", err)
	}
	return &p, nil
}

// Backlinks returns the distinct source titles linking to title.
func (ix *Index) Backlinks(title string) ([]string, error) {
	rows, err := ix.db.Query(`
		SELECT DISTINCT source_title FROM page_links
		WHERE target_title = ?
		ORDER BY source_title
	`, title)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	return scanStrings(rows)
}

// OutgoingLinks returns every link extracted from the page at sourcePath.
func (ix *Index) OutgoingLinks(sourcePath string) ([]Link, error) {
	rows, err := ix.db.Query(`
		SELECT target_title, target_namespace, is_category FROM page_links
		WHERE source_path = ?
		ORDER BY target_title
	`, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("index: outgoing links: %w", err)
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.TargetTitle, &l.TargetNamespace, &l.IsCategory); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Orphans returns Main-namespace, non-redirect pages with no incoming link
// from another Main-namespace, non-redirect page. Self-links do not count.
func (ix *Index) Orphans() ([]PageRow, error) {
	return ix.pageQuery(`
		SELECT path, title, namespace, is_redirect, redirect_target, hash, size, indexed_at
		FROM pages p
		WHERE p.namespace = '' AND p.is_redirect = 0
		AND NOT EXISTS (
			SELECT 1 FROM page_links l
			JOIN pages src ON src.path = l.source_path
			WHERE l.target_title = p.title
			AND src.namespace = '' AND src.is_redirect = 0
			AND src.path <> p.path
		)
		ORDER BY p.title
	`)
}

// EmptyCategories returns Category pages with zero membership edges.
func (ix *Index) EmptyCategories() ([]PageRow, error) {
	return ix.pageQuery(`
		SELECT path, title, namespace, is_redirect, redirect_target, hash, size, indexed_at
		FROM pages p
		WHERE p.namespace = 'Category'
		AND NOT EXISTS (
			SELECT 1 FROM page_links l
			WHERE l.is_category = 1 AND l.target_title = p.title
		)
		ORDER BY p.title
	`)
}

// Uncategorized returns Main-namespace, non-redirect pages with no outgoing
// category-membership edge.
func (ix *Index) Uncategorized() ([]PageRow, error) {
	return ix.pageQuery(`
		SELECT path, title, namespace, is_redirect, redirect_target, hash, size, indexed_at
		FROM pages p
		WHERE p.namespace = '' AND p.is_redirect = 0
		AND NOT EXISTS (
			SELECT 1 FROM page_links l
			WHERE l.source_path = p.path AND l.is_category = 1
		)
		ORDER BY p.title
	`)
}

// BrokenLinks returns links whose Main-namespace target is not indexed.
func (ix *Index) BrokenLinks() ([]BrokenLink, error) {
	rows, err := ix.db.Query(`
		SELECT l.source_title, l.target_title FROM page_links l
		WHERE l.target_namespace = ''
		AND NOT EXISTS (SELECT 1 FROM pages p WHERE p.title = l.target_title)
		GROUP BY l.source_title, l.target_title
		ORDER BY l.target_title, l.source_title
	`)
	if err != nil {
		return nil, fmt.Errorf("index: broken links: %w", err)
	}
	defer rows.Close()

	var out []BrokenLink
	for rows.Next() {
		var b BrokenLink
		if err := rows.Scan(&b.SourceTitle, &b.TargetTitle); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DoubleRedirects returns redirect pages whose target is also a redirect.
func (ix *Index) DoubleRedirects() ([]DoubleRedirect, error) {
	rows, err := ix.db.Query(`
		SELECT p.title, p.redirect_target, q.redirect_target
		FROM pages p
		JOIN pages q ON q.title = p.redirect_target
		WHERE p.is_redirect = 1 AND q.is_redirect = 1
		ORDER BY p.title
	`)
	if err != nil {
		return nil, fmt.Errorf("index: double redirects: %w", err)
	}
	defer rows.Close()

	var out []DoubleRedirect
	for rows.Next() {
		var d DoubleRedirect
		if err := rows.Scan(&d.Title, &d.Target, &d.FinalTarget); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (ix *Index) pageQuery(query string, args ...any) ([]PageRow, error) {
	rows, err := ix.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query pages: %w", err)
	}
	defer rows.Close()

	var out []PageRow
	for rows.Next() {
		var p PageRow
		if err := rows.Scan(&p.Path, &p.Title, &p.Namespace, &p.IsRedirect, &p.RedirectTarget, &p.Hash, &p.Size, &p.IndexedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
