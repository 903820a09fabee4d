package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/prospect-cli/internal/model"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string          { return s.name }
func (s *stubProvider) Supports(g Group) bool { return true }
func (s *stubProvider) Resolve(_ context.Context, _ Group, _ Identity) (*Result, error) {
	return nil, NotFound(s.name)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProvider{name: "hunter"})
	r.Register(&stubProvider{name: "apollo"})

	assert.Equal(t, []string{"apollo", "hunter"}, r.List())
	assert.NotNil(t, r.Get("apollo"))
	assert.Nil(t, r.Get("clearbit"))
}

func TestGroupFields(t *testing.T) {
	assert.Equal(t, model.FieldLinkedInURL, GroupLinkedIn.KeyField())
	assert.Equal(t, model.FieldEmail, GroupEmail.KeyField())
	assert.Equal(t, model.FieldPhone, GroupPhone.KeyField())
	assert.Equal(t, model.FieldCompanyNameVerified, GroupCompany.KeyField())
	assert.Contains(t, GroupCompany.Fields(), model.FieldCompanyFundingStage)

	assert.True(t, GroupEmail.Valid())
	assert.False(t, Group("fax").Valid())
	assert.Empty(t, Group("fax").KeyField())
}

func TestIdentityFromLead(t *testing.T) {
	l := &model.Lead{
		Name:    "Jane Q. Doe",
		Company: "Emulate Inc.",
		Email:   "Jane.Doe@EmulateBio.com",
	}
	id := IdentityFromLead(l)
	assert.Equal(t, l.IdentityKey(), id.Key)
	assert.Equal(t, "Jane", id.FirstName)
	assert.Equal(t, "Doe", id.LastName)
	assert.Equal(t, "emulatebio.com", id.Domain)
	assert.Equal(t, "Emulate Inc.", id.Company)

	l.CompanyNameVerified = "Emulate"
	l.Email = "jane@gmail.com"
	id = IdentityFromLead(l)
	assert.Equal(t, "Emulate", id.Company)
	assert.Empty(t, id.Domain)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"", "", ""},
		{"Doe", "", "Doe"},
		{"Jane Doe", "Jane", "Doe"},
		{"Jane Q. Doe", "Jane", "Doe"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, l := SplitName(tt.in)
			assert.Equal(t, tt.first, f)
			assert.Equal(t, tt.last, l)
		})
	}
}

func TestResultUsable(t *testing.T) {
	var nilRes *Result
	assert.False(t, nilRes.Usable(GroupEmail))

	r := &Result{Fields: map[string]string{model.FieldCompanyHQ: "Boston"}}
	assert.True(t, r.Usable(GroupCompany))
	assert.False(t, r.Usable(GroupEmail))
}
