package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Affiliation holds the fields recovered from a free-text affiliation string.
type Affiliation struct {
	Company  string
	Location string
	Email    string
}

var (
	emailRe       = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	electronicRe  = regexp.MustCompile(`(?i)electronic address:?`)
	postalTokenRe = regexp.MustCompile(`\b[A-Z]{0,2}-?\d[\dA-Z-]*\b`)
	multiSpaceRe  = regexp.MustCompile(`\s+`)
)

// legalSuffixes mark a part as a registered company.
var legalSuffixes = []string{
	"inc", "llc", "ltd", "limited", "gmbh", "ag", "plc", "corp", "corporation",
	"co", "sa", "sas", "bv", "nv", "srl", "spa", "kk", "pty",
}

// industryWords mark a part as a commercial organization when no legal
// suffix is present.
var industryWords = []string{
	"pharma", "pharmaceutical", "pharmaceuticals", "therapeutics", "biosciences",
	"bioscience", "biotech", "biotechnology", "biopharma", "biologics", "biotherapeutics",
	"diagnostics", "laboratories", "technologies",
}

// academicWords mark a part as a department or academic unit.
var academicWords = []string{
	"department", "dept", "universit", "college", "school",
	"institut", "center", "centre", "laboratory", "lab", "labs",
	"faculty", "division", "unit", "hospital", "program", "programme", "graduate",
}

// institutionWords mark the academic part worth keeping as the organization
// when no company is present.
var institutionWords = []string{
	"universit", "institut", "college", "hospital", "school",
}

// ParseAffiliation extracts company, location and email from an affiliation
// string. Fields it cannot recover are left empty.
func ParseAffiliation(text string) Affiliation {
	var aff Affiliation
	text = strings.TrimSpace(text)
	if text == "" {
		return aff
	}
	aff.Email = strings.TrimRight(emailRe.FindString(text), ".")

	// Multiple affiliations are joined with ";". The first one is primary.
	if i := strings.IndexByte(text, ';'); i > 0 {
		text = text[:i]
	}
	text = emailRe.ReplaceAllString(text, "")
	text = electronicRe.ReplaceAllString(text, "")

	var parts []string
	for _, p := range strings.Split(text, ",") {
		p = strings.TrimSpace(multiSpaceRe.ReplaceAllString(p, " "))
		p = strings.TrimRight(p, ". ")
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return aff
	}

	aff.Company = pickCompany(parts)
	aff.Location = pickLocation(parts, aff.Company)
	return aff
}

func pickCompany(parts []string) string {
	for _, words := range [][]string{legalSuffixes, industryWords} {
		for _, p := range parts {
			if hasWord(p, words) {
				return p
			}
		}
	}
	for i, p := range parts {
		// The tail is usually city and country.
		if len(parts) >= 3 && i >= len(parts)-2 {
			break
		}
		if hasWordPrefix(p, academicWords) || startsWithDigit(p) || len(p) < 3 {
			continue
		}
		return p
	}
	for _, p := range parts {
		if hasWordPrefix(p, institutionWords) {
			return p
		}
	}
	return ""
}

func pickLocation(parts []string, company string) string {
	if len(parts) < 2 {
		return ""
	}
	var loc []string
	for i := len(parts) - 1; i >= 1 && len(loc) < 3; i-- {
		p := parts[i]
		if p == company || hasWord(p, legalSuffixes) || hasWord(p, industryWords) || hasWordPrefix(p, academicWords) || startsWithDigit(p) {
			break
		}
		if cleaned := stripPostal(p); cleaned != "" {
			loc = append(loc, cleaned)
		}
	}
	if len(loc) == 0 {
		return ""
	}
	for i, j := 0, len(loc)-1; i < j; i, j = i+1, j-1 {
		loc[i], loc[j] = loc[j], loc[i]
	}
	return strings.Join(loc, ", ")
}

// stripPostal removes postal-code tokens such as "02139" or "CH-4056".
func stripPostal(p string) string {
	p = postalTokenRe.ReplaceAllString(p, "")
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(p, " "))
}

func startsWithDigit(s string) bool {
	for _, r := range s {
		return unicode.IsDigit(r)
	}
	return false
}

// hasWord reports whether any word of s equals one of words.
func hasWord(s string, words []string) bool {
	return matchWords(s, words, false)
}

// hasWordPrefix is hasWord but also accepts words starting with an entry
// longer than four letters, so "universit" covers "università".
func hasWordPrefix(s string, words []string) bool {
	return matchWords(s, words, true)
}

func matchWords(s string, words []string, prefix bool) bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		for _, w := range words {
			if f == w || (prefix && len(w) > 4 && strings.HasPrefix(f, w)) {
				return true
			}
		}
	}
	return false
}
