package provider

import (
	"context"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/clearbit"
)

// NameClearbit is the chain name of the Clearbit provider.
const NameClearbit = "clearbit"

// Clearbit resolves the company group.
type Clearbit struct {
	client clearbit.Client
	quota  *Quota
}

// NewClearbit wraps a Clearbit client.
func NewClearbit(client clearbit.Client) *Clearbit {
	return &Clearbit{client: client}
}

// UseQuota implements Metered.
func (c *Clearbit) UseQuota(q *Quota) { c.quota = q }

// Name implements Provider.
func (c *Clearbit) Name() string { return NameClearbit }

// Supports implements Provider.
func (c *Clearbit) Supports(g Group) bool { return g == GroupCompany }

// Resolve implements Provider.
func (c *Clearbit) Resolve(ctx context.Context, g Group, id Identity) (*Result, error) {
	if g != GroupCompany || (id.Domain == "" && id.Company == "") {
		return nil, NotFound(NameClearbit)
	}

	if err := c.quota.charge(NameClearbit); err != nil {
		return nil, err
	}
	co, err := c.client.FindCompany(ctx, clearbit.CompanyQuery{Domain: id.Domain, Name: id.Company})
	if err != nil {
		return nil, Wrap(NameClearbit, err)
	}
	if co == nil {
		return nil, NotFound(NameClearbit)
	}

	res := &Result{Provider: NameClearbit, Fields: map[string]string{
		model.FieldCompanyNameVerified: co.Name,
		model.FieldCompanyHQ:           joinNonEmpty(", ", co.Geo.City, co.Geo.State, co.Geo.Country),
		model.FieldCompanyIndustry:     joinNonEmpty(", ", co.Category.Industry, co.Category.Sector),
	}}
	if !res.Usable(g) {
		return nil, NotFound(NameClearbit)
	}
	return res, nil
}
