// Package pathcodec implements the bijective mapping between wiki page
// titles and relative file paths under the project root.
//
// Content namespaces (Main, Category, File, User, and custom namespaces) map
// to wiki_content/<Namespace>/<name>.wiki. Template, Module, and MediaWiki
// pages map to templates/<category>/<name><ext>, where the category is
// resolved by longest-prefix match against the codec's prefix table.
// Redirect pages are stored under a _redirects/ sibling directory.
package pathcodec

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	wikiExt = ".wiki"
	luaExt  = ".lua"
	cssExt  = ".css"
	jsExt   = ".js"

	// Module subpages named styles.css are stored as <name>_styles.css
	// instead of a .lua file.
	stylesSuffix = "/styles.css"
	stylesMarker = "_styles"
)

// Codec converts between titles and relative paths. It is pure and safe to
// share; the category table is fixed at construction.
type Codec struct {
	categories []PrefixCategory
}

// New builds a Codec. Overrides (typically loaded from the store) are merged
// ahead of the built-in table; lookups are longest-prefix-first with "misc"
// as the fallback category.
func New(overrides []PrefixCategory) *Codec {
	entries := make([]PrefixCategory, 0, len(overrides)+10)
	entries = append(entries, overrides...)
	entries = append(entries, DefaultCategories()...)
	return &Codec{categories: sortByPrefixLength(entries)}
}

// TitleToPath returns the relative path (slash-separated, under the project
// root) for a title. It is total over well-formed titles; empty titles are
// the caller's responsibility.
func (c *Codec) TitleToPath(title string, isRedirect bool) string {
	ns, bare := Split(title)
	if ns.IsTemplateTree() {
		name := templateFileName(ns, bare)
		return join(TemplatesDirName, c.categoryFor(bare), isRedirect, name)
	}
	return join(ContentDirName, ns.FolderName(), isRedirect, encodeName(bare)+wikiExt)
}

// PathToTitle reverses TitleToPath. The second return value is false when
// the path does not belong to the recognized layout (unknown root, folder,
// or extension).
func (c *Codec) PathToTitle(rel string) (string, bool) {
	parts := strings.Split(path.Clean(strings.ReplaceAll(rel, "\\", "/")), "/")
	if len(parts) == 4 && parts[2] == RedirectsDirName {
		parts = []string{parts[0], parts[1], parts[3]}
	}
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return "", false
	}
	root, folder, file := parts[0], parts[1], parts[2]

	switch root {
	case ContentDirName:
		return contentTitle(folder, file)
	case TemplatesDirName:
		return templateTitle(file)
	}
	return "", false
}

// IsRedirectPath reports whether the relative path lies in a _redirects/
// subdirectory.
func IsRedirectPath(rel string) bool {
	parts := strings.Split(path.Clean(strings.ReplaceAll(rel, "\\", "/")), "/")
	return len(parts) >= 2 && parts[len(parts)-2] == RedirectsDirName
}

func join(root, folder string, isRedirect bool, name string) string {
	if isRedirect {
		return path.Join(root, folder, RedirectsDirName, name)
	}
	return path.Join(root, folder, name)
}

// templateFileName encodes the file name for a templates-root page.
//
// MediaWiki titles with .css/.js leaves encode without a namespace marker;
// they decode back only through their position under the templates root.
// All other MediaWiki pages keep the namespace prefix in the encoded name so
// the round trip stays exact.
func templateFileName(ns Namespace, bare string) string {
	switch ns.Name {
	case Module.Name:
		if strings.HasSuffix(bare, stylesSuffix) {
			return encodeName(strings.TrimSuffix(bare, stylesSuffix)) + stylesMarker + cssExt
		}
		return encodeName(bare) + luaExt
	case MediaWiki.Name:
		if strings.HasSuffix(bare, cssExt) || strings.HasSuffix(bare, jsExt) {
			return encodeName(bare)
		}
		return encodeName(JoinTitle(ns, bare)) + wikiExt
	default:
		return encodeName(bare) + wikiExt
	}
}

func contentTitle(folder, file string) (string, bool) {
	if !strings.HasSuffix(file, wikiExt) {
		return "", false
	}
	name := decodeName(strings.TrimSuffix(file, wikiExt))
	switch {
	case folder == Main.FolderName():
		return name, true
	case folder == Category.Name, folder == File.Name, folder == User.Name:
		return folder + ":" + name, true
	}
	if ns, ok := fixed[folder]; ok && ns.IsTemplateTree() {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(folder)
	if unicode.IsUpper(r) {
		return folder + ":" + name, true
	}
	return "", false
}

func templateTitle(file string) (string, bool) {
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)
	switch ext {
	case luaExt:
		return JoinTitle(Module, decodeName(base)), true
	case cssExt:
		if strings.HasSuffix(base, stylesMarker) {
			name := decodeName(strings.TrimSuffix(base, stylesMarker))
			return JoinTitle(Module, name+stylesSuffix), true
		}
		return JoinTitle(MediaWiki, decodeName(base)+cssExt), true
	case jsExt:
		return JoinTitle(MediaWiki, decodeName(base)+jsExt), true
	case wikiExt:
		name := decodeName(base)
		if strings.HasPrefix(name, MediaWiki.Name+":") {
			return name, true
		}
		return JoinTitle(Template, name), true
	}
	return "", false
}

// categoryFor resolves the templates-root category folder for a bare title.
func (c *Codec) categoryFor(bare string) string {
	for _, e := range c.categories {
		if strings.HasPrefix(bare, e.Prefix) {
			return e.Category
		}
	}
	return defaultCategory
}

// encodeName maps a bare title to a file name component: space to "_",
// "/" to "___", ":" to "--".
func encodeName(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "___")
	return strings.ReplaceAll(s, ":", "--")
}

// decodeName reverses encodeName. "--" is decoded before underscores so a
// double dash can never be misread, and "___" before "_" for the same reason.
func decodeName(s string) string {
	s = strings.ReplaceAll(s, "--", ":")
	s = strings.ReplaceAll(s, "___", "/")
	return strings.ReplaceAll(s, "_", " ")
}
