package index

import (
	"regexp"
	"strings"

	"github.com/starford/wikisync/internal/pathcodec"
)

// Section is one ==heading== parsed from wikitext (levels 2-6).
type Section struct {
	Level   int    `json:"level"`
	Heading string `json:"heading"`
}

// PageContext bundles everything an editor wants to see about one page.
type PageContext struct {
	Title      string    `json:"title"`
	Path       string    `json:"path"`
	WordCount  int       `json:"word_count"`
	Preview    string    `json:"preview"`
	Sections   []Section `json:"sections,omitempty"`
	Outgoing   []Link    `json:"outgoing_links,omitempty"`
	Backlinks  []string  `json:"backlinks,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Templates  []string  `json:"templates,omitempty"`
	Modules    []string  `json:"modules,omitempty"`
}

const previewLimit = 240

var headingRe = regexp.MustCompile(`(?m)^(={2,6})\s*(.+?)\s*={2,6}\s*$`)

// Context assembles the bundle for one title. content is the raw wikitext of
// the page (the index does not persist bodies); the link sets come from the
// persisted tables.
func (ix *Index) Context(title string, content []byte) (*PageContext, error) {
	page, err := ix.GetPage(title)
	if err != nil {
		return nil, err
	}
	outgoing, err := ix.OutgoingLinks(page.Path)
	if err != nil {
		return nil, err
	}
	backlinks, err := ix.Backlinks(title)
	if err != nil {
		return nil, err
	}

	text := string(content)
	ctx := &PageContext{
		Title:     title,
		Path:      page.Path,
		WordCount: len(strings.Fields(text)),
		Preview:   preview(text),
		Sections:  parseSections(text),
		Outgoing:  outgoing,
		Backlinks: backlinks,
	}
	for _, l := range outgoing {
		switch l.TargetNamespace {
		case pathcodec.Category.Name:
			ctx.Categories = append(ctx.Categories, l.TargetTitle)
		case pathcodec.Template.Name:
			ctx.Templates = append(ctx.Templates, l.TargetTitle)
		case pathcodec.Module.Name:
			ctx.Modules = append(ctx.Modules, l.TargetTitle)
		}
	}
	return ctx, nil
}

// preview collapses whitespace and truncates.
func preview(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= previewLimit {
		return flat
	}
	return string(runes[:previewLimit]) + "..."
}

func parseSections(text string) []Section {
	var out []Section
	for _, m := range headingRe.FindAllStringSubmatch(text, -1) {
		out = append(out, Section{Level: len(m[1]), Heading: m[2]})
	}
	return out
}
