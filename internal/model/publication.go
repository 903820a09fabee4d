package model

import (
	"strings"
	"time"
)

// Author is one entry in a publication's author list.
type Author struct {
	Name            string `json:"name"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	AffiliationText string `json:"affiliation_text,omitempty"`
	IsCorresponding bool   `json:"is_corresponding"`
	Email           string `json:"email,omitempty"`
}

// Publication is a bibliographic record returned by a publication source.
type Publication struct {
	Title    string   `json:"title"`
	Abstract string   `json:"abstract,omitempty"`
	Date     string   `json:"date,omitempty"`
	Journal  string   `json:"journal,omitempty"`
	PMID     string   `json:"pmid,omitempty"`
	Source   Source   `json:"source"`
	Authors  []Author `json:"authors"`
}

// PublicationRef is a compact pointer to a publication kept as merge provenance.
type PublicationRef struct {
	Title   string `json:"title"`
	Date    string `json:"date,omitempty"`
	Journal string `json:"journal,omitempty"`
	PMID    string `json:"pmid,omitempty"`
	Source  Source `json:"source,omitempty"`
}

// SameAs reports whether two references denote the same publication.
func (r PublicationRef) SameAs(o PublicationRef) bool {
	if r.PMID != "" || o.PMID != "" {
		return r.PMID == o.PMID
	}
	return strings.EqualFold(strings.TrimSpace(r.Title), strings.TrimSpace(o.Title))
}

var dateLayouts = []struct {
	layout string
	months int // period length for partial dates; 0 for a full date
}{
	{"2006-01-02", 0},
	{"2006-01", 1},
	{"2006", 12},
	{time.RFC3339, 0},
	{"2006/01/02", 0},
	{"2006 Jan 2", 0},
	{"2006 Jan", 1},
}

// ParseDate parses a publication date. Partial dates resolve to the first day
// of the period.
func ParseDate(s string) (time.Time, bool) {
	t, _, ok := parseDate(s)
	return t, ok
}

// ParseDateEnd parses a publication date like ParseDate, but partial dates
// resolve to the last day of the period ("2024" is 2024-12-31).
func ParseDateEnd(s string) (time.Time, bool) {
	t, months, ok := parseDate(s)
	if !ok || months == 0 {
		return t, ok
	}
	return t.AddDate(0, months, -1), true
}

func parseDate(s string) (time.Time, int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, 0, false
	}
	for _, dl := range dateLayouts {
		if t, err := time.Parse(dl.layout, s); err == nil {
			return t, dl.months, true
		}
	}
	return time.Time{}, 0, false
}
