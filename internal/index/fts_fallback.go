//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not compiled in; Search falls back to a title substring match.
	return nil
}

func ftsClear(_ *sql.Tx) error { return nil }

func ftsInsert(_ *sql.Tx, _, _, _ string) error { return nil }

// Search performs a case-insensitive substring match on titles, ordered
// exact match first, then prefix matches, then everything else.
func (ix *Index) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := ix.db.Query(`
		SELECT path, title, ''
		FROM pages
		WHERE lower(title) LIKE '%' || lower(?) || '%'
		ORDER BY
			CASE
				WHEN lower(title) = lower(?) THEN 0
				WHEN lower(title) LIKE lower(?) || '%' THEN 1
				ELSE 2
			END,
			title
		LIMIT ?
	`, query, query, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
