// Package extract turns publication records into candidate leads.
package extract

import (
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Extractor emits one candidate lead per named author.
type Extractor struct {
	primaryOnly bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithPrimaryAuthorsOnly keeps only first and corresponding authors.
func WithPrimaryAuthorsOnly(v bool) Option {
	return func(e *Extractor) { e.primaryOnly = v }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Position tags an author by list position and corresponding flag.
func Position(index int, corresponding bool) model.AuthorPosition {
	switch {
	case corresponding:
		return model.PositionCorresponding
	case index == 0:
		return model.PositionFirst
	default:
		return model.PositionCoAuthor
	}
}

// Extract returns the candidate leads for one publication. The sequence is
// lazy and may be ranged over any number of times.
func (e *Extractor) Extract(pub model.Publication) iter.Seq[model.Lead] {
	return func(yield func(model.Lead) bool) {
		for i, author := range pub.Authors {
			name := strings.Join(strings.Fields(author.Name), " ")
			if name == "" {
				zap.L().Debug("extract: dropping author without name",
					zap.String("pmid", pub.PMID),
					zap.Int("index", i),
				)
				continue
			}

			pos := Position(i, author.IsCorresponding)
			if e.primaryOnly && pos == model.PositionCoAuthor {
				continue
			}

			aff := ParseAffiliation(author.AffiliationText)
			email := strings.TrimSpace(author.Email)
			if email == "" {
				email = aff.Email
			}

			lead := model.Lead{
				Name:             name,
				Company:          aff.Company,
				Location:         aff.Location,
				Email:            email,
				AffiliationText:  strings.TrimSpace(author.AffiliationText),
				AuthorPosition:   pos,
				PublicationTitle: pub.Title,
				PublicationDate:  pub.Date,
				Journal:          pub.Journal,
				PMID:             pub.PMID,
				Source:           pub.Source,
			}
			if !yield(lead) {
				return
			}
		}
	}
}

// All extracts leads from every publication and numbers them in extraction
// order starting at 1.
func (e *Extractor) All(pubs []model.Publication) []model.Lead {
	var out []model.Lead
	seq := 0
	for _, pub := range pubs {
		for lead := range e.Extract(pub) {
			seq++
			lead.Seq = seq
			out = append(out, lead)
		}
	}
	zap.L().Info("extract: candidates extracted",
		zap.Int("publications", len(pubs)),
		zap.Int("leads", len(out)),
	)
	return out
}
