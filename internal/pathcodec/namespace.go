package pathcodec

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Directory names under the project root. The codec emits paths relative to
// the project root so that these names are part of the path contract.
const (
	ContentDirName   = "wiki_content"
	TemplatesDirName = "templates"
	RedirectsDirName = "_redirects"
)

// Namespace identifies a wiki namespace. Name is the literal title prefix
// (empty for Main); ID is the MediaWiki numeric namespace id (0 for custom
// namespaces, which are identified by name only).
type Namespace struct {
	Name string
	ID   int
}

var (
	Main      = Namespace{Name: "", ID: 0}
	User      = Namespace{Name: "User", ID: 2}
	File      = Namespace{Name: "File", ID: 6}
	MediaWiki = Namespace{Name: "MediaWiki", ID: 8}
	Template  = Namespace{Name: "Template", ID: 10}
	Category  = Namespace{Name: "Category", ID: 14}
	Module    = Namespace{Name: "Module", ID: 828}
)

// fixed is the case-sensitive prefix table for the supported namespaces.
var fixed = map[string]Namespace{
	"User":      User,
	"File":      File,
	"MediaWiki": MediaWiki,
	"Template":  Template,
	"Category":  Category,
	"Module":    Module,
}

// FolderName returns the directory name used for the namespace under the
// content root. Main pages live under "Main".
func (n Namespace) FolderName() string {
	if n.Name == "" {
		return "Main"
	}
	return n.Name
}

// IsTemplateTree reports whether pages in this namespace are stored under
// the templates root rather than the content root.
func (n Namespace) IsTemplateTree() bool {
	switch n.Name {
	case Template.Name, Module.Name, MediaWiki.Name:
		return true
	}
	return false
}

// ByName looks up a namespace by its title prefix. "Main" and "" both
// resolve to the main namespace.
func ByName(name string) (Namespace, bool) {
	if name == "" || name == "Main" {
		return Main, true
	}
	ns, ok := fixed[name]
	return ns, ok
}

// Split resolves the namespace of a full title and returns the bare title
// (the part after the namespace prefix). A colon-bearing prefix that is not
// in the fixed table is treated as a custom namespace when it starts with an
// uppercase letter; otherwise the whole title belongs to Main.
func Split(title string) (Namespace, string) {
	i := strings.Index(title, ":")
	if i <= 0 {
		return Main, title
	}
	prefix := title[:i]
	if ns, ok := fixed[prefix]; ok {
		return ns, title[i+1:]
	}
	r, _ := utf8.DecodeRuneInString(prefix)
	if unicode.IsUpper(r) {
		return Namespace{Name: prefix, ID: 0}, title[i+1:]
	}
	return Main, title
}

// JoinTitle reassembles a full title from a namespace and bare title.
func JoinTitle(ns Namespace, bare string) string {
	if ns.Name == "" {
		return bare
	}
	return ns.Name + ":" + bare
}
