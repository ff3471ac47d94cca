package scanner

import (
	"sort"
	"testing"

	"github.com/starford/wikisync/internal/pathcodec"
	"github.com/starford/wikisync/internal/project"
)

func testLayout(t *testing.T) *project.Layout {
	t.Helper()
	l, err := project.NewLayout(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := l.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	return l
}

func write(t *testing.T, l *project.Layout, rel, content string) {
	t.Helper()
	if err := l.Write(rel, []byte(content)); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestScan(t *testing.T) {
	l := testLayout(t)
	codec := pathcodec.New(nil)

	write(t, l, "wiki_content/Main/Alpha.wiki", "alpha body")
	write(t, l, "wiki_content/Main/_redirects/Old_name.wiki", "#REDIRECT [[Alpha]]")
	write(t, l, "wiki_content/Category/People.wiki", "people")
	write(t, l, "templates/infobox/Infobox_person.wiki", "{{{name}}}")
	write(t, l, "templates/misc/Foo.lua", "return {}")
	// Skipped: unknown extension, unknown folder.
	write(t, l, "wiki_content/Main/notes.txt", "ignore me")
	write(t, l, "wiki_content/lowercase/Page.wiki", "ignore me")

	files, err := Scan(l, codec)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(files) != 5 {
		t.Fatalf("len(files) = %d, want 5: %+v", len(files), files)
	}
	if !sort.SliceIsSorted(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath }) {
		t.Error("files not sorted by relative path")
	}

	byTitle := make(map[string]ScannedFile)
	for _, f := range files {
		byTitle[f.Title] = f
	}

	alpha, ok := byTitle["Alpha"]
	if !ok {
		t.Fatal("Alpha not scanned")
	}
	if alpha.IsRedirect || alpha.Namespace != "" || alpha.Size != int64(len("alpha body")) {
		t.Errorf("Alpha = %+v", alpha)
	}
	if len(alpha.Hash) != 16 {
		t.Errorf("hash length = %d, want 16", len(alpha.Hash))
	}

	old, ok := byTitle["Old name"]
	if !ok {
		t.Fatal("redirect not scanned")
	}
	if !old.IsRedirect || old.RedirectTarget != "Alpha" {
		t.Errorf("redirect = %+v", old)
	}

	if f := byTitle["Template:Infobox person"]; f.Namespace != "Template" {
		t.Errorf("template namespace = %q", f.Namespace)
	}
}

func TestParseRedirect(t *testing.T) {
	tests := []struct {
		content    string
		isRedirect bool
		target     string
	}{
		{"#REDIRECT [[Alpha]]", true, "Alpha"},
		{"  \n#redirect [[Beta|label]]", true, "Beta|label"},
		{"#ReDiReCt\n[[Gamma]]", true, "Gamma"},
		{"#REDIRECT", true, ""},
		{"text #REDIRECT [[X]]", false, ""},
		{"plain page", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		is, target := ParseRedirect([]byte(tt.content))
		if is != tt.isRedirect || target != tt.target {
			t.Errorf("ParseRedirect(%q) = (%v, %q), want (%v, %q)",
				tt.content, is, target, tt.isRedirect, tt.target)
		}
	}
}
