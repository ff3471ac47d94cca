package syncer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/starford/wikisync/internal/apperr"
	"github.com/starford/wikisync/internal/checksum"
	"github.com/starford/wikisync/internal/mediawiki"
	"github.com/starford/wikisync/internal/pathcodec"
)

// PullOptions selects what to pull and how conflicts are handled.
type PullOptions struct {
	// Namespaces to pull. Empty means the main namespace. Ignored when
	// Category is set.
	Namespaces []pathcodec.Namespace
	// Category pulls the members of one category instead of whole
	// namespaces. Category pulls do not move the incremental watermark.
	Category string
	// Incremental restricts the candidate set to recent changes since the
	// last recorded watermark for the namespace set. Falls back to a full
	// pull when no watermark exists yet.
	Incremental bool
	// Force overwrites local files even when they carry unsynced edits.
	Force bool
}

// Pull fetches the selected remote pages and reconciles them onto disk.
// Per-title failures land in the report; only setup and batch-level failures
// return an error.
func (e *Engine) Pull(ctx context.Context, remote mediawiki.Reader, opts PullOptions) (*Report, error) {
	report := &Report{}

	titles, nsKey, err := e.pullCandidates(ctx, remote, opts)
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		e.logger.Info("pull: nothing to fetch")
		return report, nil
	}

	revs, err := remote.PageContents(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("syncer: fetch page contents: %w", err)
	}
	fetched := make(map[string]mediawiki.PageRevision, len(revs))
	for _, rev := range revs {
		fetched[NormalizeKey(rev.Title)] = rev
	}

	var upserts []LedgerEntry
	wrote := false
	maxTimestamp := ""

	for _, title := range titles {
		rev, ok := fetched[NormalizeKey(title)]
		if !ok || rev.Missing {
			report.add(title, ActionError, "title absent from batch fetch response")
			continue
		}
		// UTC RFC3339 timestamps order lexicographically.
		if rev.Timestamp > maxTimestamp {
			maxTimestamp = rev.Timestamp
		}

		entry, action, detail, err := e.pullOne(rev, opts.Force)
		if err != nil {
			report.add(rev.Title, ActionError, err.Error())
			continue
		}
		if entry != nil {
			upserts = append(upserts, *entry)
		}
		if action == ActionCreated || action == ActionUpdated {
			wrote = true
		}
		report.add(rev.Title, action, detail)
	}

	if err := e.ledger.Apply(upserts, nil); err != nil {
		return nil, err
	}
	if wrote {
		if err := e.rebuildIndex(); err != nil {
			return nil, err
		}
	}
	if nsKey != "" && maxTimestamp != "" {
		if err := e.ledger.SetConfig(nsKey, maxTimestamp); err != nil {
			return nil, err
		}
	}

	e.logger.Info("pull finished",
		slog.Int("titles", len(titles)),
		slog.Int("created", report.Count(ActionCreated)),
		slog.Int("updated", report.Count(ActionUpdated)),
		slog.Int("conflicts", report.Count(ActionSkippedConflict)),
		slog.Int("errors", report.Count(ActionError)))
	return report, nil
}

// pullOne reconciles a single fetched revision against the local file and
// ledger. A nil entry means the ledger row is left untouched.
func (e *Engine) pullOne(rev mediawiki.PageRevision, force bool) (*LedgerEntry, string, string, error) {
	content := []byte(rev.Content)
	remoteHash := checksum.Sum(content)
	relPath := e.codec.TitleToPath(rev.Title, rev.Redirect)

	prev, err := e.ledger.Get(rev.Title)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, "", "", err
	}

	// The codec may assign a different path than it did at last sync (a
	// categorization change, or the page became a redirect). Treat that as
	// a move, and never discard local edits at the old location silently.
	if prev != nil && prev.RelPath != relPath {
		old, readErr := e.layout.Read(prev.RelPath)
		switch {
		case readErr == nil && checksum.Sum(old) != prev.Hash && !force:
			return nil, "", "", fmt.Errorf("moved from %s, but the old file has unsynced local edits", prev.RelPath)
		case readErr == nil:
			if err := e.layout.Remove(prev.RelPath); err != nil {
				return nil, "", "", err
			}
		case !errors.Is(readErr, fs.ErrNotExist):
			return nil, "", "", readErr
		}
	}

	local, readErr := e.layout.Read(relPath)
	if readErr != nil && !errors.Is(readErr, fs.ErrNotExist) {
		return nil, "", "", readErr
	}
	exists := readErr == nil

	ns, _ := pathcodec.Split(rev.Title)
	entry := &LedgerEntry{
		Title:           rev.Title,
		NamespaceID:     ns.ID,
		RelPath:         relPath,
		Hash:            remoteHash,
		RemoteTimestamp: rev.Timestamp,
		RevisionID:      rev.RevID,
		PageID:          rev.PageID,
		IsRedirect:      rev.Redirect,
	}

	switch {
	case exists && checksum.Sum(local) == remoteHash:
		return entry, ActionSkippedUnchanged, "", nil
	case exists && !force && (prev == nil || checksum.Sum(local) != prev.Hash):
		return nil, ActionSkippedConflict, "local file has unsynced edits; pull with force to overwrite", nil
	default:
		if err := e.layout.Write(relPath, content); err != nil {
			return nil, "", "", err
		}
		if exists {
			return entry, ActionUpdated, "", nil
		}
		return entry, ActionCreated, "", nil
	}
}

// pullCandidates resolves the title set to fetch. The second return is the
// watermark key to advance afterwards, or "" when no watermark applies.
func (e *Engine) pullCandidates(ctx context.Context, remote mediawiki.Reader, opts PullOptions) ([]string, string, error) {
	if opts.Category != "" {
		titles, err := remote.CategoryMembers(ctx, opts.Category)
		if err != nil {
			return nil, "", fmt.Errorf("syncer: list category members: %w", err)
		}
		return titles, "", nil
	}

	namespaces := opts.Namespaces
	if len(namespaces) == 0 {
		namespaces = []pathcodec.Namespace{pathcodec.Main}
	}
	ids := make([]int, len(namespaces))
	for i, ns := range namespaces {
		ids[i] = ns.ID
	}
	key := watermarkKey(ids)

	if opts.Incremental {
		since, err := e.ledger.GetConfig(key)
		if err != nil {
			return nil, "", err
		}
		if since != "" {
			titles, err := remote.RecentChanges(ctx, since, ids)
			if err != nil {
				return nil, "", fmt.Errorf("syncer: list recent changes: %w", err)
			}
			return titles, key, nil
		}
		e.logger.Info("pull: no watermark yet, running a full pull")
	}

	var titles []string
	for _, id := range ids {
		batch, err := remote.AllPages(ctx, id)
		if err != nil {
			return nil, "", fmt.Errorf("syncer: list namespace %d: %w", id, err)
		}
		titles = append(titles, batch...)
	}
	return titles, key, nil
}
