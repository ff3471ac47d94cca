package syncer

import (
	"github.com/starford/wikisync/internal/scanner"
)

// Local-vs-ledger classifications shared by diff and push.
const (
	DiffNewLocal      = "new-local"
	DiffModifiedLocal = "modified-local"
	DiffDeletedLocal  = "deleted-local"
)

// DiffEntry is one title whose local state departs from the ledger.
type DiffEntry struct {
	Title   string `json:"title"`
	Status  string `json:"status"`
	RelPath string `json:"rel_path,omitempty"`
}

// Diff compares the current local scan against the ledger without touching
// the network. An empty ledger yields every local title as new.
func (e *Engine) Diff() ([]DiffEntry, error) {
	cands, err := e.classify(true)
	if err != nil {
		return nil, err
	}
	out := make([]DiffEntry, 0, len(cands))
	for _, c := range cands {
		d := DiffEntry{Title: c.title(), Status: c.status}
		if c.file != nil {
			d.RelPath = c.file.RelPath
		}
		out = append(out, d)
	}
	return out, nil
}

// pushCandidate is one title that diff or push must act on. file is nil for
// deletions, entry is nil for new titles.
type pushCandidate struct {
	file   *scanner.ScannedFile
	entry  *LedgerEntry
	status string
}

func (c pushCandidate) title() string {
	if c.file != nil {
		return c.file.Title
	}
	return c.entry.Title
}

// classify scans the tree and buckets every title as new, modified or (when
// deletions are in scope) deleted relative to the ledger. Titles whose hash
// matches the ledger are unchanged and omitted.
func (e *Engine) classify(includeDeleted bool) ([]pushCandidate, error) {
	files, err := scanner.Scan(e.layout, e.codec)
	if err != nil {
		return nil, err
	}
	entries, err := e.ledger.All()
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*LedgerEntry, len(entries))
	for i := range entries {
		byKey[entries[i].TitleKey] = &entries[i]
	}

	var out []pushCandidate
	seen := make(map[string]bool, len(files))
	for i := range files {
		f := &files[i]
		key := NormalizeKey(f.Title)
		seen[key] = true
		entry, ok := byKey[key]
		switch {
		case !ok:
			out = append(out, pushCandidate{file: f, status: DiffNewLocal})
		case f.Hash != entry.Hash:
			out = append(out, pushCandidate{file: f, entry: entry, status: DiffModifiedLocal})
		}
	}
	if includeDeleted {
		for i := range entries {
			if !seen[entries[i].TitleKey] {
				out = append(out, pushCandidate{entry: &entries[i], status: DiffDeletedLocal})
			}
		}
	}
	return out, nil
}
