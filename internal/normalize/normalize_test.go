package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{"lowercase", "Hepatic Safety", "hepatic safety"},
		{"diacritics", "José Müller-Lüdenscheidt", "jose muller ludenscheidt"},
		{"collapse", "  a \t b\n\nc ", "a b c"},
		{"ampersand", "Johnson & Johnson", "johnson and johnson"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestPersonName(t *testing.T) {
	assert.Equal(t, "jane doe", PersonName("Dr. Jane  Doe, PhD"))
	assert.Equal(t, "francois lefevre", PersonName("François Lefèvre"))
	assert.Equal(t, "", PersonName(""))
}

func TestCompany(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Emulate, Inc.", "emulate"},
		{"Roche Holding AG", "roche holding"},
		{"InSphero GmbH", "insphero"},
		{"Acme Co., Ltd.", "acme"},
		{"Inc", "inc"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Company(tt.in))
		})
	}
}

func TestKeyword(t *testing.T) {
	assert.Equal(t, "drug induced liver injury", Keyword("  Drug   Induced Liver Injury "))
}
