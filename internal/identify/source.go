// Package identify finds publications matching research keywords.
package identify

import (
	"context"
	"time"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/pubmed"
)

// Window bounds publication dates, inclusive.
type Window struct {
	From time.Time
	To   time.Time
}

// Source returns publications for a keyword. Zero matches is not an error.
type Source interface {
	Name() string
	Search(ctx context.Context, keyword string, w Window) ([]model.Publication, error)
}

// PubMedSource adapts the PubMed client to Source.
type PubMedSource struct {
	client     pubmed.Client
	maxResults int
}

// NewPubMedSource creates a PubMed-backed source.
func NewPubMedSource(client pubmed.Client, maxResults int) *PubMedSource {
	return &PubMedSource{client: client, maxResults: maxResults}
}

// Name implements Source.
func (s *PubMedSource) Name() string { return string(model.SourcePubMed) }

// Search implements Source.
func (s *PubMedSource) Search(ctx context.Context, keyword string, w Window) ([]model.Publication, error) {
	ids, err := s.client.Search(ctx, pubmed.SearchParams{
		Keyword:    keyword,
		MinDate:    w.From,
		MaxDate:    w.To,
		MaxResults: s.maxResults,
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	articles, err := s.client.Fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	pubs := make([]model.Publication, 0, len(articles))
	for _, a := range articles {
		pubs = append(pubs, toPublication(a))
	}
	return pubs, nil
}

func toPublication(a pubmed.Article) model.Publication {
	pub := model.Publication{
		Title:    a.Title,
		Abstract: a.Abstract,
		Date:     a.PubDate,
		Journal:  a.Journal,
		PMID:     a.PMID,
		Source:   model.SourcePubMed,
		Authors:  make([]model.Author, 0, len(a.Authors)),
	}
	for _, au := range a.Authors {
		pub.Authors = append(pub.Authors, model.Author{
			Name:            au.FullName(),
			FirstName:       au.ForeName,
			LastName:        au.LastName,
			AffiliationText: au.Affiliation,
			IsCorresponding: au.Corresponding,
			Email:           au.Email,
		})
	}
	return pub
}
