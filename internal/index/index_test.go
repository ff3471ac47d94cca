package index

import (
	"testing"

	"github.com/starford/wikisync/internal/pathcodec"
	"github.com/starford/wikisync/internal/project"
	"github.com/starford/wikisync/internal/scanner"
	"github.com/starford/wikisync/internal/testutil"
)

type fixture struct {
	ix     *Index
	layout *project.Layout
	codec  *pathcodec.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	layout, db := testutil.TestProject(t)

	ix, err := New(db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{ix: ix, layout: layout, codec: pathcodec.New(nil)}
}

func (f *fixture) page(t *testing.T, title, content string) {
	t.Helper()
	isRedirect, _ := scanner.ParseRedirect([]byte(content))
	rel := f.codec.TitleToPath(title, isRedirect)
	if err := f.layout.Write(rel, []byte(content)); err != nil {
		t.Fatalf("write %s: %v", title, err)
	}
}

func (f *fixture) rebuild(t *testing.T) *RebuildReport {
	t.Helper()
	files, err := scanner.Scan(f.layout, f.codec)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	report, err := f.ix.Rebuild(files, f.layout.Read)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return report
}

func TestRebuild_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.page(t, "Alpha", "[[Beta]] [[Category:People]]")
	f.page(t, "Beta", "text [[Alpha]] [[Alpha]]")
	f.page(t, "Category:People", "the people category")

	first := f.rebuild(t)
	second := f.rebuild(t)

	if first.Pages != 3 || second.Pages != 3 {
		t.Errorf("pages = %d then %d, want 3 and 3", first.Pages, second.Pages)
	}
	// Repeated [[Alpha]] dedupes through the composite key.
	if first.Links != 3 || second.Links != 3 {
		t.Errorf("links = %d then %d, want 3 and 3", first.Links, second.Links)
	}
}

func TestOrphans(t *testing.T) {
	f := newFixture(t)
	f.page(t, "A", "[[B]]")
	f.page(t, "C", "[[B]]")
	f.page(t, "B", "no outgoing links")

	f.rebuild(t)

	orphans, err := f.ix.Orphans()
	if err != nil {
		t.Fatalf("Orphans: %v", err)
	}
	titles := pageTitles(orphans)
	if len(titles) != 2 || titles[0] != "A" || titles[1] != "C" {
		t.Errorf("orphans = %v, want [A C]", titles)
	}
}

func TestOrphans_SelfLinkStillOrphaned(t *testing.T) {
	f := newFixture(t)
	f.page(t, "Narcissus", "[[Narcissus]]")

	f.rebuild(t)

	orphans, err := f.ix.Orphans()
	if err != nil {
		t.Fatal(err)
	}
	if len(orphans) != 1 || orphans[0].Title != "Narcissus" {
		t.Errorf("orphans = %v, want [Narcissus]", pageTitles(orphans))
	}
}

func TestBacklinks(t *testing.T) {
	f := newFixture(t)
	f.page(t, "A", "[[B]]")
	f.page(t, "C", "[[B]] and again [[B]]")
	f.page(t, "B", "")

	f.rebuild(t)

	bl, err := f.ix.Backlinks("B")
	if err != nil {
		t.Fatal(err)
	}
	if len(bl) != 2 || bl[0] != "A" || bl[1] != "C" {
		t.Errorf("backlinks = %v, want [A C]", bl)
	}
}

func TestEmptyCategories(t *testing.T) {
	f := newFixture(t)
	f.page(t, "Category:People", "")
	f.page(t, "Category:Ghosts", "")
	f.page(t, "Alice", "[[Category:People]]")
	// An escaped reference is not membership.
	f.page(t, "Bob", "[[:Category:Ghosts]]")

	f.rebuild(t)

	empty, err := f.ix.EmptyCategories()
	if err != nil {
		t.Fatal(err)
	}
	titles := pageTitles(empty)
	if len(titles) != 1 || titles[0] != "Category:Ghosts" {
		t.Errorf("empty categories = %v, want [Category:Ghosts]", titles)
	}
}

func TestBrokenLinks(t *testing.T) {
	f := newFixture(t)
	f.page(t, "A", "[[B]] [[Missing page]] [[Category:Nope]]")
	f.page(t, "B", "")

	f.rebuild(t)

	broken, err := f.ix.BrokenLinks()
	if err != nil {
		t.Fatal(err)
	}
	// Category targets are not Main-namespace, so only the missing Main page counts.
	if len(broken) != 1 || broken[0].SourceTitle != "A" || broken[0].TargetTitle != "Missing page" {
		t.Errorf("broken = %+v", broken)
	}
}

func TestDoubleRedirects(t *testing.T) {
	f := newFixture(t)
	f.page(t, "Old", "#REDIRECT [[Middle]]")
	f.page(t, "Middle", "#REDIRECT [[Final]]")
	f.page(t, "Final", "the destination")

	f.rebuild(t)

	doubles, err := f.ix.DoubleRedirects()
	if err != nil {
		t.Fatal(err)
	}
	if len(doubles) != 1 || doubles[0].Title != "Old" || doubles[0].FinalTarget != "Final" {
		t.Errorf("double redirects = %+v", doubles)
	}
}

func TestUncategorized(t *testing.T) {
	f := newFixture(t)
	f.page(t, "Filed", "[[Category:People]]")
	f.page(t, "Loose", "no category here")
	f.page(t, "Escaped", "[[:Category:People]]")
	f.page(t, "Category:People", "")

	f.rebuild(t)

	pages, err := f.ix.Uncategorized()
	if err != nil {
		t.Fatal(err)
	}
	titles := pageTitles(pages)
	if len(titles) != 2 || titles[0] != "Escaped" || titles[1] != "Loose" {
		t.Errorf("uncategorized = %v, want [Escaped Loose]", titles)
	}
}

func TestSearch_FallbackOrdering(t *testing.T) {
	f := newFixture(t)
	f.page(t, "Apple", "")
	f.page(t, "Apple pie", "")
	f.page(t, "Crab apple", "")
	f.page(t, "Orange", "")

	f.rebuild(t)

	results, err := f.ix.Search("apple", 10)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(results))
	for i, r := range results {
		got[i] = r.Title
	}
	want := []string{"Apple", "Apple pie", "Crab apple"}
	if len(got) != len(want) {
		t.Fatalf("results = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("results = %v, want %v", got, want)
			break
		}
	}
}

func TestTemplateCategories(t *testing.T) {
	f := newFixture(t)
	if err := f.ix.SetTemplateCategory("Infobox", "boxes"); err != nil {
		t.Fatal(err)
	}
	if err := f.ix.SetTemplateCategory("Infobox", "infoboxes"); err != nil {
		t.Fatal(err)
	}
	cats, err := f.ix.TemplateCategories()
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 1 || cats[0].Category != "infoboxes" {
		t.Errorf("categories = %+v", cats)
	}
}

func pageTitles(pages []PageRow) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Title
	}
	return out
}
