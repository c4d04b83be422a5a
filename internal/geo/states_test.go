package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFIPSToPostal(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{code: "39", want: "OH"},
		{code: "06", want: "CA"},
		{code: "6", want: "CA"},
		{code: " 11 ", want: "DC"},
		{code: "56", want: "WY"},
		{code: "99", want: Unmatched},
		{code: "03", want: Unmatched},
		{code: "-1", want: Unmatched},
		{code: "abc", want: Unmatched},
		{code: "", want: Unmatched},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.want, FIPSToPostal(tt.code))
			})
		})
	}
}

func TestNameToPostal(t *testing.T) {
	assert.Equal(t, "OH", NameToPostal("OHIO"))
	assert.Equal(t, "NY", NameToPostal("new york"))
	assert.Equal(t, "DC", NameToPostal("District of Columbia"))
	assert.Equal(t, Unmatched, NameToPostal("Puerto Rico"))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "vt", want: "VT"},
		{in: "50", want: "VT"},
		{in: "Vermont", want: "VT"},
		{in: "99", want: Unmatched},
		{in: "", want: Unmatched},
		{in: "Atlantis", want: Unmatched},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}

	assert.True(t, IsMatched("TX"))
	assert.False(t, IsMatched("99"))
}

func TestPostalToName(t *testing.T) {
	assert.Equal(t, "Washington", PostalToName("wa"))
	assert.Equal(t, "XX", PostalToName("XX"))
	assert.Len(t, PostalCodes(), 51)
}
