package dedupe

import (
	"cmp"
	"slices"

	"github.com/sells-group/prospect-cli/internal/model"
)

// publicationFields travel together with the primary publication and are
// never filled piecemeal from another member.
var publicationFields = map[string]bool{
	model.FieldPublicationTitle: true,
	model.FieldPublicationDate:  true,
	model.FieldJournal:          true,
	model.FieldPMID:             true,
}

// precedence orders group members: corresponding authors first, then the most
// recent publication, then extraction order.
func precedence(a, b model.Lead) int {
	ac := a.AuthorPosition == model.PositionCorresponding
	bc := b.AuthorPosition == model.PositionCorresponding
	if ac != bc {
		if ac {
			return -1
		}
		return 1
	}
	ad, aok := model.ParseDate(a.PublicationDate)
	bd, bok := model.ParseDate(b.PublicationDate)
	switch {
	case aok && !bok:
		return -1
	case !aok && bok:
		return 1
	case aok && bok && !ad.Equal(bd):
		return bd.Compare(ad)
	}
	return cmp.Compare(a.Seq, b.Seq)
}

// fold merges a group into one lead. A single-member group is returned as is.
func fold(members []model.Lead) model.Lead {
	if len(members) == 1 {
		return members[0]
	}
	ordered := slices.Clone(members)
	slices.SortStableFunc(ordered, precedence)

	out := ordered[0].Clone()
	for _, m := range ordered[1:] {
		for _, f := range model.StringFields {
			if publicationFields[f] {
				continue
			}
			if out.Field(f) == "" && m.Field(f) != "" {
				out.SetField(f, m.Field(f))
			}
		}
		if m.AuthorPosition.Rank() > out.AuthorPosition.Rank() {
			out.AuthorPosition = m.AuthorPosition
		}
		if m.Seq < out.Seq {
			out.Seq = m.Seq
		}
		if out.EnrichmentStatus == "" {
			out.EnrichmentStatus = m.EnrichmentStatus
		}
		for field, p := range m.Provenance {
			if _, ok := out.Provenance[field]; !ok {
				if out.Provenance == nil {
					out.Provenance = make(map[string]model.FieldProvenance)
				}
				out.Provenance[field] = p
			}
		}
		out.EnrichmentAttempts = append(out.EnrichmentAttempts, m.EnrichmentAttempts...)

		addSecondary(&out, m.Publication())
		for _, ref := range m.SecondaryPublications {
			addSecondary(&out, ref)
		}
	}
	return out
}

func addSecondary(l *model.Lead, ref model.PublicationRef) {
	if ref.Title == "" && ref.PMID == "" {
		return
	}
	if ref.SameAs(l.Publication()) {
		return
	}
	for _, existing := range l.SecondaryPublications {
		if existing.SameAs(ref) {
			return
		}
	}
	l.SecondaryPublications = append(l.SecondaryPublications, ref)
}
