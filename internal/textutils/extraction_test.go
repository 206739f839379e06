package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCompany(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase and suffix", "Acme GmbH", "acme"},
		{"aktiengesellschaft", "Nordwind Aktiengesellschaft", "nordwind"},
		{"bank suffix", "Helvetia Bank", "helvetia"},
		{"parenthetical", "Acme (Schweiz)", "acme"},
		{"and co", "Meyer & Co. KG", "meyer"},
		{"punctuation collapses", "Acme-Systems, Inc.", "acme systems"},
		{"whitespace collapses", "  Acme   Systems ", "acme systems"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCompany(tt.input, nil))
		})
	}
}

func TestNormalizeCompanyCustomSuffixes(t *testing.T) {
	got := NormalizeCompany("Acme Oy", []string{"oy"})
	assert.Equal(t, "acme", got)

	// Default suffixes do not know "oy".
	got = NormalizeCompany("Acme Oy", nil)
	assert.Equal(t, "acme oy", got)
}

func TestSplitCustomerField(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expectedID   string
		expectedName string
	}{
		{"id and name", "12345; Acme GmbH", "12345", "Acme GmbH"},
		{"name only", "Acme GmbH", "", "Acme GmbH"},
		{"empty", "", "", ""},
		{"trailing whitespace", " 9; Beta AG ", "9", "Beta AG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, name := SplitCustomerField(tt.input)
			assert.Equal(t, tt.expectedID, id)
			assert.Equal(t, tt.expectedName, name)
		})
	}
}

func TestIsTruncatedName(t *testing.T) {
	assert.True(t, IsTruncatedName("Acme Renewal 2025 So…"))
	assert.False(t, IsTruncatedName("Acme Renewal 2025 Software"))
	assert.False(t, IsTruncatedName(""))
}
