// Package normalize canonicalizes person, company and free text for matching
// and cache keying.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes lists common legal entity suffixes stripped from company names.
var legalSuffixes = []string{
	"incorporated", "corporation", "limited",
	"inc", "llc", "ltd", "corp", "co", "plc",
	"gmbh", "ag", "sa", "bv", "nv", "srl", "spa", "kk",
}

// honorifics are dropped from person names before comparison.
var honorifics = map[string]bool{
	"dr": true, "prof": true, "professor": true, "mr": true, "mrs": true, "ms": true,
	"phd": true, "md": true, "msc": true, "bsc": true, "dvm": true, "pharmd": true,
	"jr": true, "sr": true,
}

var (
	multiSpaceRe = regexp.MustCompile(`\s+`)
	punctRe      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// Text lowercases s, strips diacritics, replaces punctuation with spaces and
// collapses whitespace.
func Text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = foldDiacritics(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", " and ")
	s = punctRe.ReplaceAllString(s, " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// PersonName normalizes an author name and drops honorifics and degrees.
func PersonName(name string) string {
	words := strings.Fields(Text(name))
	out := words[:0]
	for _, w := range words {
		if honorifics[w] {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// Company normalizes an organization name and strips a trailing legal suffix.
func Company(name string) string {
	words := strings.Fields(Text(name))
	for len(words) > 1 {
		last := words[len(words)-1]
		stripped := false
		for _, suffix := range legalSuffixes {
			if last == suffix {
				words = words[:len(words)-1]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return strings.Join(words, " ")
}

// Keyword normalizes a search keyword: trimmed, lowercased, single-spaced.
func Keyword(kw string) string {
	kw = strings.ToLower(strings.TrimSpace(kw))
	return multiSpaceRe.ReplaceAllString(kw, " ")
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
