package pathcodec

import "testing"

func TestTitleToPath(t *testing.T) {
	c := New(nil)
	tests := []struct {
		title    string
		redirect bool
		want     string
	}{
		{"Alpha Beta", false, "wiki_content/Main/Alpha_Beta.wiki"},
		{"Alpha Beta", true, "wiki_content/Main/_redirects/Alpha_Beta.wiki"},
		{"foo:bar", false, "wiki_content/Main/foo--bar.wiki"},
		{"Category:People", false, "wiki_content/Category/People.wiki"},
		{"File:Logo.png", false, "wiki_content/File/Logo.png.wiki"},
		{"User:Admin/notes", false, "wiki_content/User/Admin___notes.wiki"},
		{"Help:Contents", false, "wiki_content/Help/Contents.wiki"},
		{"Template:Infobox person", false, "templates/infobox/Infobox_person.wiki"},
		{"Template:Something odd", false, "templates/misc/Something_odd.wiki"},
		{"Module:Citation/CS1", false, "templates/citation/Citation___CS1.lua"},
		{"Module:Foo/styles.css", false, "templates/misc/Foo_styles.css"},
		{"MediaWiki:Vector.css", false, "templates/misc/Vector.css"},
		{"MediaWiki:Gadget-toolbar.js", false, "templates/misc/Gadget-toolbar.js"},
		{"MediaWiki:Sidebar", false, "templates/navigation/MediaWiki--Sidebar.wiki"},
	}
	for _, tt := range tests {
		got := c.TitleToPath(tt.title, tt.redirect)
		if got != tt.want {
			t.Errorf("TitleToPath(%q, %v) = %q, want %q", tt.title, tt.redirect, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	c := New(nil)
	titles := []string{
		"Alpha",
		"Alpha Beta Gamma",
		"foo:bar",
		"Category:People",
		"File:Logo.png",
		"User:Admin",
		"User:Admin/notes",
		"Help:Contents",
		"Template:Infobox person",
		"Template:Navbox countries",
		"Module:Citation/CS1",
		"Module:String utils",
		"Module:Foo/styles.css",
		"MediaWiki:Sidebar",
		"MediaWiki:Edittools",
	}
	for _, title := range titles {
		for _, redirect := range []bool{false, true} {
			rel := c.TitleToPath(title, redirect)
			got, ok := c.PathToTitle(rel)
			if !ok {
				t.Errorf("PathToTitle(%q) not recognized", rel)
				continue
			}
			if got != title {
				t.Errorf("round trip %q -> %q -> %q", title, rel, got)
			}
			if IsRedirectPath(rel) != redirect {
				t.Errorf("IsRedirectPath(%q) = %v, want %v", rel, !redirect, redirect)
			}
		}
	}
}

// MediaWiki CSS/JS leaves drop the namespace marker; they still decode
// through their position under the templates root.
func TestRoundTrip_MediaWikiLeaves(t *testing.T) {
	c := New(nil)
	for _, title := range []string{"MediaWiki:Vector.css", "MediaWiki:Mobile site.css", "MediaWiki:Gadget-toolbar.js"} {
		rel := c.TitleToPath(title, false)
		got, ok := c.PathToTitle(rel)
		if !ok || got != title {
			t.Errorf("round trip %q -> %q -> %q (ok=%v)", title, rel, got, ok)
		}
	}
}

func TestPathToTitle_Unrecognized(t *testing.T) {
	c := New(nil)
	for _, rel := range []string{
		"wiki_content/Main/readme.txt",
		"wiki_content/lowercase/Page.wiki",
		"wiki_content/Template/Infobox.wiki",
		"templates/misc/thing.txt",
		"somewhere/else/Page.wiki",
		"wiki_content/Page.wiki",
	} {
		if title, ok := c.PathToTitle(rel); ok {
			t.Errorf("PathToTitle(%q) = %q, want not recognized", rel, title)
		}
	}
}

func TestCategoryOverrides(t *testing.T) {
	c := New([]PrefixCategory{
		{Prefix: "Infobox person", Category: "people"},
		{Prefix: "Cite", Category: "refs"},
	})
	tests := []struct {
		title string
		want  string
	}{
		// Longest prefix wins over the shorter built-in "Infobox".
		{"Template:Infobox person", "templates/people/Infobox_person.wiki"},
		{"Template:Infobox city", "templates/infobox/Infobox_city.wiki"},
		// Same-length override shadows the built-in.
		{"Template:Cite web", "templates/refs/Cite_web.wiki"},
	}
	for _, tt := range tests {
		if got := c.TitleToPath(tt.title, false); got != tt.want {
			t.Errorf("TitleToPath(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		title  string
		wantNS string
		wantID int
		bare   string
	}{
		{"Alpha", "", 0, "Alpha"},
		{"Category:People", "Category", 14, "People"},
		{"Module:Foo", "Module", 828, "Foo"},
		{"Help:Contents", "Help", 0, "Contents"},
		{"foo:bar", "", 0, "foo:bar"},
		{":leading", "", 0, ":leading"},
	}
	for _, tt := range tests {
		ns, bare := Split(tt.title)
		if ns.Name != tt.wantNS || ns.ID != tt.wantID || bare != tt.bare {
			t.Errorf("Split(%q) = (%q, %d, %q), want (%q, %d, %q)",
				tt.title, ns.Name, ns.ID, bare, tt.wantNS, tt.wantID, tt.bare)
		}
	}
}
