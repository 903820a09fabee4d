package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorPositionRank(t *testing.T) {
	assert.Greater(t, PositionCorresponding.Rank(), PositionFirst.Rank())
	assert.Greater(t, PositionFirst.Rank(), PositionCoAuthor.Rank())
	assert.Equal(t, 0, AuthorPosition("").Rank())
}

func TestIdentityKey(t *testing.T) {
	a := Lead{Name: "Dr. José Álvarez", Company: "Emulate, Inc."}
	b := Lead{Name: "jose alvarez", Company: "EMULATE"}
	assert.Equal(t, a.IdentityKey(), b.IdentityKey())
	assert.Equal(t, "jose alvarez|emulate", a.IdentityKey())
}

func TestFieldAccess(t *testing.T) {
	var l Lead
	for _, f := range StringFields {
		require.True(t, l.SetField(f, "v-"+f), f)
		assert.Equal(t, "v-"+f, l.Field(f))
	}
	assert.False(t, l.SetField("nope", "x"))
	assert.Equal(t, "", l.Field("nope"))
}

func TestCloneIsDeep(t *testing.T) {
	orig := Lead{
		Name:                  "A",
		ScoreBreakdown:        map[string]int{"role_fit": 30},
		Provenance:            map[string]FieldProvenance{FieldEmail: {Provider: "hunter"}},
		SecondaryPublications: []PublicationRef{{PMID: "1"}},
	}
	c := orig.Clone()
	c.ScoreBreakdown["role_fit"] = 0
	c.Provenance[FieldPhone] = FieldProvenance{Provider: "apollo"}
	c.SecondaryPublications[0].PMID = "2"

	assert.Equal(t, 30, orig.ScoreBreakdown["role_fit"])
	assert.Len(t, orig.Provenance, 1)
	assert.Equal(t, "1", orig.SecondaryPublications[0].PMID)
}

func TestFlatten(t *testing.T) {
	l := Lead{
		Name:            "Jane Doe",
		Email:           "jane@example.com",
		AuthorPosition:  PositionFirst,
		Source:          SourcePubMed,
		PropensityScore: 85,
		PriorityLevel:   PriorityHigh,
		Rank:            1,
		ScoreBreakdown:  map[string]int{"role_fit": 30},
		Provenance:      map[string]FieldProvenance{FieldEmail: {Provider: "hunter"}},
	}
	flat := l.Flatten()
	assert.Equal(t, "Jane Doe", flat[FieldName])
	assert.Equal(t, "first_author", flat["author_position"])
	assert.Equal(t, 85, flat["propensity_score"])
	assert.Equal(t, "High", flat["priority_level"])
	assert.Equal(t, 1, flat["rank"])
	assert.Equal(t, map[string]int{"role_fit": 30}, flat["score_breakdown"])
	assert.Equal(t, map[string]string{FieldEmail: "hunter"}, flat["field_sources"])
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"2024-03", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2023 Nov", time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"spring 2021", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseDateEnd(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"2024-02", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), true},
		{"2024", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"2023 Nov", time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC), true},
		{"spring 2021", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDateEnd(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestPublicationRefSameAs(t *testing.T) {
	assert.True(t, PublicationRef{PMID: "1", Title: "a"}.SameAs(PublicationRef{PMID: "1", Title: "b"}))
	assert.False(t, PublicationRef{PMID: "1"}.SameAs(PublicationRef{PMID: "2"}))
	assert.True(t, PublicationRef{Title: "Liver Injury "}.SameAs(PublicationRef{Title: "liver injury"}))
}
