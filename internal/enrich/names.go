package enrich

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes lists common legal entity suffixes stripped before a name is
// used as a search term. The search variants add "company"/"corporation"
// back in a form the remote actually indexes.
var legalSuffixes = []string{
	" LLC", " L.L.C.", " L.L.C",
	" INC", " INC.", " INCORPORATED",
	" CORP", " CORP.", " CORPORATION",
	" LTD", " LTD.", " LIMITED",
	" LP", " L.P.", " LLP", " L.L.P.",
	" PLC", " P.L.C.",
	" CO", " CO.",
	" PLLC",
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// diacriticsFold decomposes and removes combining marks: "Société" -> "Societe".
var diacriticsFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName standardizes an organization name for searching by:
//  1. Trimming whitespace
//  2. Folding diacritics to their ASCII base characters
//  3. Removing one trailing legal suffix (LLC, Inc, Corp, etc.)
//  4. Stripping commas, periods and quote characters
//  5. Collapsing runs of whitespace
//
// The transform is deterministic and case-preserving.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if folded, _, err := transform.String(diacriticsFold, name); err == nil {
		name = folded
	}

	upper := strings.ToUpper(name)
	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(upper, suffix) {
			name = strings.TrimSpace(name[:len(name)-len(suffix)])
			break
		}
	}

	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
	).Replace(name)

	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// NameFilter decides whether a normalized name is specific enough to search
// for. Generic words produce infoboxes for the word itself, not the company.
type NameFilter interface {
	Acceptable(name string) bool
}

type genericNameFilter struct {
	stoplist map[string]struct{}
}

// DefaultNameFilter rejects empty, single-character, purely numeric and
// generic organization names.
func DefaultNameFilter() NameFilter {
	words := []string{
		"company", "corporation", "inc", "llc", "ltd", "limited",
		"organization", "organisation", "group", "holdings",
		"home", "unknown", "test", "none", "n/a", "na",
	}
	stoplist := make(map[string]struct{}, len(words))
	for _, w := range words {
		stoplist[w] = struct{}{}
	}
	return &genericNameFilter{stoplist: stoplist}
}

func (f *genericNameFilter) Acceptable(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return false
	}

	allDigits := true
	for _, r := range name {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return false
	}

	_, generic := f.stoplist[strings.ToLower(name)]
	return !generic
}
