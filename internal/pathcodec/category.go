package pathcodec

import "sort"

// PrefixCategory maps a template/module name prefix to the category folder
// it is filed under. Lookups are longest-prefix-first.
type PrefixCategory struct {
	Prefix   string
	Category string
}

// defaultCategory is used when no prefix matches.
const defaultCategory = "misc"

// DefaultCategories is the built-in prefix table. Overrides loaded from the
// store are merged ahead of these at codec construction.
func DefaultCategories() []PrefixCategory {
	return []PrefixCategory{
		{Prefix: "Infobox", Category: "infobox"},
		{Prefix: "Cite", Category: "citation"},
		{Prefix: "Citation", Category: "citation"},
		{Prefix: "Navbox", Category: "navigation"},
		{Prefix: "Sidebar", Category: "navigation"},
		{Prefix: "Documentation", Category: "documentation"},
		{Prefix: "Convert", Category: "utility"},
		{Prefix: "Str", Category: "utility"},
		{Prefix: "Userbox", Category: "userbox"},
		{Prefix: "Stub", Category: "stub"},
	}
}

// sortByPrefixLength orders entries longest prefix first so that a scan can
// stop at the first match. Ties keep their relative order (overrides win).
func sortByPrefixLength(entries []PrefixCategory) []PrefixCategory {
	out := make([]PrefixCategory, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Prefix) > len(out[j].Prefix)
	})
	return out
}
