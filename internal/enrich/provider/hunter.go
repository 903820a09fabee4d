package provider

import (
	"context"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/hunter"
)

// NameHunter is the chain name of the Hunter provider.
const NameHunter = "hunter"

// Hunter resolves the email group through the Hunter email finder.
type Hunter struct {
	client   hunter.Client
	minScore int
	quota    *Quota
}

// NewHunter wraps a Hunter client. Candidates scoring below minScore are
// treated as not found.
func NewHunter(client hunter.Client, minScore int) *Hunter {
	return &Hunter{client: client, minScore: minScore}
}

// UseQuota implements Metered.
func (h *Hunter) UseQuota(q *Quota) { h.quota = q }

// Name implements Provider.
func (h *Hunter) Name() string { return NameHunter }

// Supports implements Provider.
func (h *Hunter) Supports(g Group) bool { return g == GroupEmail }

// Resolve implements Provider.
func (h *Hunter) Resolve(ctx context.Context, g Group, id Identity) (*Result, error) {
	if g != GroupEmail || (id.Domain == "" && id.Company == "") || id.Name == "" {
		return nil, NotFound(NameHunter)
	}

	if err := h.quota.charge(NameHunter); err != nil {
		return nil, err
	}
	res, err := h.client.FindEmail(ctx, hunter.EmailQuery{
		FirstName: id.FirstName,
		LastName:  id.LastName,
		FullName:  id.Name,
		Domain:    id.Domain,
		Company:   id.Company,
	})
	if err != nil {
		return nil, Wrap(NameHunter, err)
	}
	if res == nil || res.Email == "" || res.Score < h.minScore {
		return nil, NotFound(NameHunter)
	}
	return &Result{Provider: NameHunter, Fields: map[string]string{model.FieldEmail: res.Email}}, nil
}
