package syncer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/starford/wikisync/internal/index"
	"github.com/starford/wikisync/internal/mediawiki"
	"github.com/starford/wikisync/internal/pathcodec"
	"github.com/starford/wikisync/internal/project"
	"github.com/starford/wikisync/internal/scanner"
	"github.com/starford/wikisync/internal/testutil"
)

type fixture struct {
	engine *Engine
	layout *project.Layout
	codec  *pathcodec.Codec
	ledger *Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	layout, db := testutil.TestProject(t)

	ix, err := index.New(db)
	if err != nil {
		t.Fatalf("index.New: %v", err)
	}
	codec := pathcodec.New(nil)
	ledger := NewLedger(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		engine: NewEngine(layout, codec, ledger, ix, logger),
		layout: layout,
		codec:  codec,
		ledger: ledger,
	}
}

func (f *fixture) writePage(t *testing.T, title, content string) string {
	t.Helper()
	isRedirect, _ := scanner.ParseRedirect([]byte(content))
	rel := f.codec.TitleToPath(title, isRedirect)
	if err := f.layout.Write(rel, []byte(content)); err != nil {
		t.Fatalf("write %s: %v", title, err)
	}
	return rel
}

func (f *fixture) seedLedger(t *testing.T, entries ...LedgerEntry) {
	t.Helper()
	if err := f.ledger.Apply(entries, nil); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
}

func actionFor(t *testing.T, report *Report, title string) ReportEntry {
	t.Helper()
	for _, e := range report.Entries {
		if e.Title == title {
			return e
		}
	}
	t.Fatalf("no report entry for %q in %+v", title, report.Entries)
	return ReportEntry{}
}

// fakeRemote is an in-memory Reader/Writer double that counts network use.
type fakeRemote struct {
	pages      map[string]mediawiki.PageRevision
	allPages   map[int][]string
	categories map[string][]string
	recent     []string
	timestamps map[string]string
	loginErr   error

	calls      int
	recentUsed bool
	edited     []string
	deleted    []string
}

var _ mediawiki.Writer = (*fakeRemote)(nil)

func (f *fakeRemote) AllPages(_ context.Context, namespaceID int) ([]string, error) {
	f.calls++
	return f.allPages[namespaceID], nil
}

func (f *fakeRemote) CategoryMembers(_ context.Context, category string) ([]string, error) {
	f.calls++
	return f.categories[category], nil
}

func (f *fakeRemote) RecentChanges(_ context.Context, _ string, _ []int) ([]string, error) {
	f.calls++
	f.recentUsed = true
	return f.recent, nil
}

func (f *fakeRemote) PageContents(_ context.Context, titles []string) ([]mediawiki.PageRevision, error) {
	f.calls++
	out := make([]mediawiki.PageRevision, 0, len(titles))
	for _, title := range titles {
		rev, ok := f.pages[title]
		if !ok {
			continue
		}
		out = append(out, rev)
	}
	return out, nil
}

func (f *fakeRemote) Search(_ context.Context, _ string, _ int) ([]mediawiki.SearchHit, error) {
	f.calls++
	return nil, nil
}

func (f *fakeRemote) Login(_ context.Context) error {
	f.calls++
	return f.loginErr
}

func (f *fakeRemote) Timestamps(_ context.Context, titles []string) (map[string]string, error) {
	f.calls++
	out := make(map[string]string)
	for _, title := range titles {
		if ts, ok := f.timestamps[title]; ok {
			out[title] = ts
		}
	}
	return out, nil
}

func (f *fakeRemote) Edit(_ context.Context, title, _, _ string) (*mediawiki.EditResult, error) {
	f.calls++
	f.edited = append(f.edited, title)
	return &mediawiki.EditResult{
		RevID:        int64(1000 + len(f.edited)),
		NewTimestamp: "2024-06-01T00:00:00Z",
	}, nil
}

func (f *fakeRemote) Delete(_ context.Context, title, _ string) error {
	f.calls++
	f.deleted = append(f.deleted, title)
	return nil
}
