package index

import (
	"bytes"
	"strings"

	"github.com/starford/wikisync/internal/pathcodec"
)

// ExtractLinks scans raw wikitext for [[...]] spans and returns the
// normalized link targets. This is deliberate byte-wise bracket matching,
// not a markup parser: nested or malformed markup degrades to skipped spans.
//
// A link is a category-membership edge iff its target resolves to the
// Category namespace and the wikitext did not use a leading colon escape
// ([[:Category:X]] is a plain reference).
func ExtractLinks(content []byte) []Link {
	var out []Link
	rest := content
	for {
		open := bytes.Index(rest, []byte("[["))
		if open < 0 {
			break
		}
		rest = rest[open+2:]
		end := bytes.Index(rest, []byte("]]"))
		if end < 0 {
			break
		}
		inner := string(rest[:end])
		rest = rest[end+2:]

		if link, ok := normalizeLink(inner); ok {
			out = append(out, link)
		}
	}
	return out
}

// normalizeLink turns the inside of a [[...]] span into a Link. It returns
// false for empty targets and scheme-qualified URLs.
func normalizeLink(inner string) (Link, bool) {
	// Display text after the first pipe never affects the target.
	if i := strings.Index(inner, "|"); i >= 0 {
		inner = inner[:i]
	}
	inner = strings.TrimSpace(inner)

	escaped := false
	if strings.HasPrefix(inner, ":") {
		escaped = true
		inner = inner[1:]
	}
	if i := strings.Index(inner, "#"); i >= 0 {
		inner = inner[:i]
	}

	lower := strings.ToLower(inner)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(inner, "//") {
		return Link{}, false
	}

	title := strings.Join(strings.Fields(strings.ReplaceAll(inner, "_", " ")), " ")
	if title == "" {
		return Link{}, false
	}

	ns, _ := pathcodec.Split(title)
	return Link{
		TargetTitle:     title,
		TargetNamespace: ns.Name,
		IsCategory:      ns == pathcodec.Category && !escaped,
	}, true
}
