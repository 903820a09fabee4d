package model

import (
	"maps"
	"slices"

	"github.com/sells-group/prospect-cli/internal/normalize"
)

// AuthorPosition describes where a lead appeared in a publication's author list.
type AuthorPosition string

const (
	PositionCorresponding AuthorPosition = "corresponding_author"
	PositionFirst         AuthorPosition = "first_author"
	PositionCoAuthor      AuthorPosition = "co_author"
)

// Rank orders positions by outreach value. Higher is better.
func (p AuthorPosition) Rank() int {
	switch p {
	case PositionCorresponding:
		return 3
	case PositionFirst:
		return 2
	case PositionCoAuthor:
		return 1
	default:
		return 0
	}
}

// Source identifies where a lead was discovered.
type Source string

const (
	SourcePubMed Source = "pubmed"
)

// EnrichmentStatus summarizes how many requested field groups resolved.
// The zero value means enrichment was not attempted.
type EnrichmentStatus string

const (
	EnrichmentSuccess EnrichmentStatus = "success"
	EnrichmentPartial EnrichmentStatus = "partial"
	EnrichmentFailed  EnrichmentStatus = "failed"
)

// Priority is the coarse bucket derived from the propensity score.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Lead is a prospect derived from publication authorship.
type Lead struct {
	// Seq is the extraction order. It is the stable tie-break for ranking.
	Seq int `json:"seq"`

	Name            string         `json:"name"`
	Title           string         `json:"title,omitempty"`
	Company         string         `json:"company,omitempty"`
	Location        string         `json:"location,omitempty"`
	Email           string         `json:"email,omitempty"`
	AffiliationText string         `json:"affiliation_text,omitempty"`
	AuthorPosition  AuthorPosition `json:"author_position"`

	PublicationTitle      string           `json:"publication_title"`
	PublicationDate       string           `json:"publication_date,omitempty"`
	Journal               string           `json:"journal,omitempty"`
	PMID                  string           `json:"pmid,omitempty"`
	Source                Source           `json:"source"`
	SecondaryPublications []PublicationRef `json:"secondary_publications,omitempty"`

	LinkedInTitle       string                     `json:"linkedin_title,omitempty"`
	LinkedInURL         string                     `json:"linkedin_url,omitempty"`
	CompanyNameVerified string                     `json:"company_name_verified,omitempty"`
	CompanyHQ           string                     `json:"company_hq,omitempty"`
	CompanyIndustry     string                     `json:"company_industry,omitempty"`
	CompanyFundingStage string                     `json:"company_funding_stage,omitempty"`
	Phone               string                     `json:"phone,omitempty"`
	PersonLocation      string                     `json:"person_location,omitempty"`
	EnrichmentStatus    EnrichmentStatus           `json:"enrichment_status,omitempty"`
	Provenance          map[string]FieldProvenance `json:"provenance,omitempty"`
	EnrichmentAttempts  []ProviderAttempt          `json:"enrichment_attempts,omitempty"`

	PropensityScore int            `json:"propensity_score"`
	PriorityLevel   Priority       `json:"priority_level,omitempty"`
	ScoreBreakdown  map[string]int `json:"score_breakdown,omitempty"`
	Rank            int            `json:"rank,omitempty"`
}

// IdentityKey derives the key used for deduplication and enrichment caching.
func (l *Lead) IdentityKey() string {
	return normalize.PersonName(l.Name) + "|" + normalize.Company(l.Company)
}

// Publication returns the lead's primary publication as a reference.
func (l *Lead) Publication() PublicationRef {
	return PublicationRef{
		Title:   l.PublicationTitle,
		Date:    l.PublicationDate,
		Journal: l.Journal,
		PMID:    l.PMID,
		Source:  l.Source,
	}
}

// Clone returns a deep copy of the lead.
func (l Lead) Clone() Lead {
	l.SecondaryPublications = slices.Clone(l.SecondaryPublications)
	l.EnrichmentAttempts = slices.Clone(l.EnrichmentAttempts)
	l.Provenance = maps.Clone(l.Provenance)
	l.ScoreBreakdown = maps.Clone(l.ScoreBreakdown)
	return l
}
