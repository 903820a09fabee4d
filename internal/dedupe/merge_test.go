package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

func TestFold_PrefersNonEmpty(t *testing.T) {
	a := lead(1, "Jane Doe", "Emulate")
	b := lead(2, "Jane Doe", "Emulate")
	b.Email = "jane@emulate.com"
	b.Location = "Boston, MA"

	out := fold([]model.Lead{a, b})
	assert.Equal(t, "jane@emulate.com", out.Email)
	assert.Equal(t, "Boston, MA", out.Location)
	assert.Equal(t, 1, out.Seq)
}

func TestFold_CorrespondingWinsConflict(t *testing.T) {
	a := lead(1, "Jane Doe", "Emulate")
	a.Email = "old@emulate.com"
	a.PublicationDate = "2025-01-01"
	b := lead(2, "Jane Doe", "Emulate Inc")
	b.Email = "jane@emulate.com"
	b.AuthorPosition = model.PositionCorresponding
	b.PublicationDate = "2022-01-01"

	out := fold([]model.Lead{a, b})
	assert.Equal(t, "jane@emulate.com", out.Email)
	assert.Equal(t, "Emulate Inc", out.Company)
	assert.Equal(t, model.PositionCorresponding, out.AuthorPosition)
	assert.Equal(t, "Paper Jane Doe", out.PublicationTitle)
	assert.Equal(t, "2022-01-01", out.PublicationDate)
	assert.Equal(t, 1, out.Seq)
}

func TestFold_MostRecentWinsWithoutCorresponding(t *testing.T) {
	a := lead(1, "Jane Doe", "Emulate")
	a.PublicationTitle = "Old"
	a.PublicationDate = "2021-05"
	a.Location = "Boston"
	b := lead(2, "Jane Doe", "Emulate")
	b.PublicationTitle = "New"
	b.PublicationDate = "2024-02-10"
	b.Location = "Cambridge, MA"
	b.AuthorPosition = model.PositionFirst

	out := fold([]model.Lead{a, b})
	assert.Equal(t, "New", out.PublicationTitle)
	assert.Equal(t, "Cambridge, MA", out.Location)
	assert.Equal(t, model.PositionFirst, out.AuthorPosition)
	require.Len(t, out.SecondaryPublications, 1)
	assert.Equal(t, "Old", out.SecondaryPublications[0].Title)
}

func TestFold_BothCorrespondingRecencyBreaksTie(t *testing.T) {
	a := lead(1, "Jane Doe", "Emulate")
	a.AuthorPosition = model.PositionCorresponding
	a.PublicationDate = "2022-01-01"
	a.Title = "Scientist"
	b := lead(2, "Jane Doe", "Emulate")
	b.AuthorPosition = model.PositionCorresponding
	b.PublicationDate = "2024-01-01"
	b.Title = "Director"

	out := fold([]model.Lead{a, b})
	assert.Equal(t, "Director", out.Title)
}

func TestFold_SecondaryPublicationsDeduplicated(t *testing.T) {
	a := lead(1, "Jane Doe", "Emulate")
	a.PMID = "1"
	b := lead(2, "Jane Doe", "Emulate")
	b.PMID = "2"
	b.SecondaryPublications = []model.PublicationRef{{PMID: "1", Title: "dup of primary"}, {PMID: "3", Title: "other"}}
	c := lead(3, "Jane Doe", "Emulate")
	c.PMID = "2"

	out := fold([]model.Lead{a, b, c})
	var pmids []string
	for _, p := range out.SecondaryPublications {
		pmids = append(pmids, p.PMID)
	}
	assert.Equal(t, []string{"2", "3"}, pmids)
}

func TestFold_ProvenanceUnion(t *testing.T) {
	a := lead(1, "Jane Doe", "Emulate")
	a.Provenance = map[string]model.FieldProvenance{model.FieldEmail: {Provider: "hunter"}}
	b := lead(2, "Jane Doe", "Emulate")
	b.Provenance = map[string]model.FieldProvenance{
		model.FieldEmail: {Provider: "apollo"},
		model.FieldPhone: {Provider: "apollo"},
	}

	out := fold([]model.Lead{a, b})
	assert.Equal(t, "hunter", out.Provenance[model.FieldEmail].Provider)
	assert.Equal(t, "apollo", out.Provenance[model.FieldPhone].Provider)
	assert.Len(t, a.Provenance, 1, "input not mutated")
}
