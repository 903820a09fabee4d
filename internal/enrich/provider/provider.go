// Package provider defines the enrichment provider interface, the provider
// error taxonomy, and adapters for the Apollo, Hunter and Clearbit APIs.
package provider

import (
	"context"
	"net/mail"
	"sort"
	"strings"
	"sync"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Group is an enrichable field group. A provider chain is configured per group.
type Group string

// Field groups in canonical application order.
const (
	GroupLinkedIn Group = "linkedin"
	GroupEmail    Group = "email"
	GroupPhone    Group = "phone"
	GroupCompany  Group = "company"
)

// Groups lists every field group in canonical order.
var Groups = []Group{GroupLinkedIn, GroupEmail, GroupPhone, GroupCompany}

var groupFields = map[Group][]string{
	GroupLinkedIn: {model.FieldLinkedInURL, model.FieldLinkedInTitle, model.FieldPersonLocation},
	GroupEmail:    {model.FieldEmail},
	GroupPhone:    {model.FieldPhone},
	GroupCompany: {
		model.FieldCompanyNameVerified,
		model.FieldCompanyHQ,
		model.FieldCompanyIndustry,
		model.FieldCompanyFundingStage,
	},
}

// Fields returns the Lead fields a group populates. The first is the key field.
func (g Group) Fields() []string { return groupFields[g] }

// KeyField is the field whose presence marks the group as resolved.
func (g Group) KeyField() string {
	f := groupFields[g]
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// Valid reports whether g is a known group.
func (g Group) Valid() bool {
	_, ok := groupFields[g]
	return ok
}

// Identity is the lookup hint handed to providers.
type Identity struct {
	Key         string
	Name        string
	FirstName   string
	LastName    string
	Company     string
	Domain      string
	LinkedInURL string
	Email       string
}

// IdentityFromLead builds the lookup hint for a Lead.
func IdentityFromLead(l *model.Lead) Identity {
	id := Identity{
		Key:         l.IdentityKey(),
		Name:        strings.TrimSpace(l.Name),
		Company:     strings.TrimSpace(l.Company),
		LinkedInURL: l.LinkedInURL,
		Email:       l.Email,
	}
	if l.CompanyNameVerified != "" {
		id.Company = l.CompanyNameVerified
	}
	id.FirstName, id.LastName = SplitName(id.Name)
	id.Domain = emailDomain(l.Email)
	return id
}

// SplitName splits a display name into first and last name. Single-token
// names return an empty first name.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[0], parts[len(parts)-1]
	}
}

var freeMail = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"hotmail.com": true,
	"outlook.com": true,
	"163.com":     true,
	"qq.com":      true,
	"icloud.com":  true,
}

func emailDomain(email string) string {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return ""
	}
	at := strings.LastIndex(addr.Address, "@")
	domain := strings.ToLower(addr.Address[at+1:])
	if freeMail[domain] {
		return ""
	}
	return domain
}

// Result is the set of field values a provider resolved for one group.
type Result struct {
	Provider string            `json:"provider"`
	Fields   map[string]string `json:"fields"`
}

// Usable reports whether the result carries any non-empty field of g.
func (r *Result) Usable(g Group) bool {
	if r == nil {
		return false
	}
	for _, f := range g.Fields() {
		if r.Fields[f] != "" {
			return true
		}
	}
	return false
}

// Provider resolves field groups for an identity.
type Provider interface {
	// Name returns the provider identifier used in chain configuration.
	Name() string
	// Supports reports whether the provider can resolve g.
	Supports(g Group) bool
	// Resolve looks the identity up. A nil result with nil error is treated as
	// not found. Errors should be *Error so they classify correctly.
	Resolve(ctx context.Context, g Group, id Identity) (*Result, error)
}

// Registry manages available providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry, replacing any with the same name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
