package duckduckgo

import "strings"

// Variants returns the search-string variants tried for a name candidate, in
// order: the raw name, then the name suffixed with " company" and
// " corporation". Website candidates bypass variant generation and are
// queried as a single literal.
func Variants(name string) []string {
	name = strings.TrimSpace(name)
	return []string{
		name,
		name + " company",
		name + " corporation",
	}
}
