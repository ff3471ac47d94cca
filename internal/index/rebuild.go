package index

import (
	"fmt"
	"time"

	"github.com/starford/wikisync/internal/scanner"
)

// RebuildReport summarizes one index rebuild.
type RebuildReport struct {
	Pages int `json:"pages"`
	Links int `json:"links"`
}

// Rebuild replaces the whole page and link table set from a fresh scan. The
// clear and reinsert happen in one transaction, so a failure leaves the
// previous index fully intact. read resolves a relative path to its content;
// typically (*project.Layout).Read.
func (ix *Index) Rebuild(files []scanner.ScannedFile, read func(rel string) ([]byte, error)) (*RebuildReport, error) {
	tx, err := ix.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("index: begin rebuild: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM page_links`); err != nil {
		return nil, fmt.Errorf("index: clear links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM pages`); err != nil {
		return nil, fmt.Errorf("index: clear pages: %w", err)
	}
	if err := ftsClear(tx); err != nil {
		return nil, err
	}

	pageStmt, err := tx.Prepare(`
		INSERT INTO pages (path, title, namespace, is_redirect, redirect_target, hash, size, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("index: prepare page insert: %w", err)
	}
	defer pageStmt.Close()

	linkStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO page_links (source_path, source_title, target_title, target_namespace, is_category)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("index: prepare link insert: %w", err)
	}
	defer linkStmt.Close()

	report := &RebuildReport{}
	now := time.Now().UTC()
	for _, f := range files {
		data, err := read(f.RelPath)
		if err != nil {
			return nil, fmt.Errorf("index: read %s: %w", f.RelPath, err)
		}
		if _, err := pageStmt.Exec(f.RelPath, f.Title, f.Namespace, f.IsRedirect, f.RedirectTarget, f.Hash, f.Size, now); err != nil {
			return nil, fmt.Errorf("index: insert page %s: %w", f.RelPath, err)
		}
		report.Pages++

		for _, link := range ExtractLinks(data) {
			res, err := linkStmt.Exec(f.RelPath, f.Title, link.TargetTitle, link.TargetNamespace, link.IsCategory)
			if err != nil {
				return nil, fmt.Errorf("index: insert link %s -> %s: %w", f.Title, link.TargetTitle, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				report.Links++
			}
		}

		if err := ftsInsert(tx, f.RelPath, f.Title, string(data)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("index: commit rebuild: %w", err)
	}
	return report, nil
}
