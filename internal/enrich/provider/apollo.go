package provider

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/apollo"
)

// NameApollo is the chain name of the Apollo provider.
const NameApollo = "apollo"

// Apollo resolves every field group from one people search per identity.
// Within a lookup scope (see WithScope) the search is shared by the person
// groups of a Lead, so one Enrich call costs a single request.
type Apollo struct {
	client apollo.Client
	quota  *Quota
	sf     singleflight.Group
}

// NewApollo wraps an Apollo client.
func NewApollo(client apollo.Client) *Apollo {
	return &Apollo{client: client}
}

// UseQuota implements Metered. Each people or organization search takes one
// call; answers shared from the scope take none.
func (a *Apollo) UseQuota(q *Quota) { a.quota = q }

// Name implements Provider.
func (a *Apollo) Name() string { return NameApollo }

// Supports implements Provider.
func (a *Apollo) Supports(g Group) bool { return g.Valid() }

// Resolve implements Provider.
func (a *Apollo) Resolve(ctx context.Context, g Group, id Identity) (*Result, error) {
	person, err := a.person(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	switch g {
	case GroupLinkedIn:
		if person != nil {
			fields[model.FieldLinkedInURL] = person.LinkedInURL
			fields[model.FieldLinkedInTitle] = person.Title
			fields[model.FieldPersonLocation] = joinNonEmpty(", ", person.City, person.State, person.Country)
		}
	case GroupEmail:
		if person != nil && usableEmail(person.Email, person.EmailStatus) {
			fields[model.FieldEmail] = person.Email
		}
	case GroupPhone:
		if person != nil {
			for _, pn := range person.PhoneNumbers {
				if n := pn.Number(); n != "" {
					fields[model.FieldPhone] = n
					break
				}
			}
		}
	case GroupCompany:
		var org *apollo.Organization
		if person != nil && person.Organization != nil && person.Organization.Name != "" {
			org = person.Organization
		} else if id.Company != "" {
			if err := a.quota.charge(NameApollo); err != nil {
				return nil, err
			}
			org, err = a.client.SearchOrganizations(ctx, id.Company)
			if err != nil {
				return nil, Wrap(NameApollo, err)
			}
		}
		if org != nil {
			fields[model.FieldCompanyNameVerified] = org.Name
			fields[model.FieldCompanyHQ] = joinNonEmpty(", ", org.City, org.State, org.Country)
			fields[model.FieldCompanyIndustry] = org.Industry
			fields[model.FieldCompanyFundingStage] = org.LatestFundingStage
		}
	default:
		return nil, NotFound(NameApollo)
	}

	res := &Result{Provider: NameApollo, Fields: fields}
	if !res.Usable(g) {
		return nil, NotFound(NameApollo)
	}
	return res, nil
}

func (a *Apollo) person(ctx context.Context, id Identity) (*apollo.Person, error) {
	if id.LastName == "" {
		return nil, nil
	}
	sc := scopeFrom(ctx)
	memoKey := NameApollo + ":" + id.Key
	if v, ok := sc.load(memoKey); ok {
		return v.(*apollo.Person), nil
	}

	v, err, _ := a.sf.Do(id.Key, func() (any, error) {
		if v, ok := sc.load(memoKey); ok {
			return v, nil
		}
		if err := a.quota.charge(NameApollo); err != nil {
			return nil, err
		}
		p, err := a.client.SearchPeople(ctx, apollo.PeopleQuery{
			FirstName:        id.FirstName,
			LastName:         id.LastName,
			OrganizationName: id.Company,
		})
		if err != nil {
			return nil, Wrap(NameApollo, err)
		}
		sc.store(memoKey, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	p := v.(*apollo.Person)
	sc.store(memoKey, p)
	return p, nil
}

// Apollo masks addresses it has not revealed for the account.
func usableEmail(email, status string) bool {
	if email == "" || strings.HasPrefix(email, "email_not_unlocked") {
		return false
	}
	return status != "unavailable"
}
