package slambook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Jane Doe", "jane doe"},
		{"  Jane   Doe  ", "jane doe"},
		{"JANE DOE", "jane doe"},
		{"Jane A. Doe", "jane a doe"},
		{"José García", "jose garcia"},
		{"O'Brien, Pat", "obrien pat"},
		{"Jean-Luc Picard", "jeanluc picard"},
		{"", ""},
		{"   ", ""},
		{"...", ""},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, NormalizeName(tc.in), "input %q", tc.in)
	}
}

func TestFirstLast(t *testing.T) {
	assert.Equal(t, "jane doe", FirstLast("jane a doe"))
	assert.Equal(t, "jane doe", FirstLast("jane doe"))
	assert.Equal(t, "jane smith", FirstLast("jane van der smith"))
	assert.Equal(t, "jane", FirstLast("jane"))
	assert.Equal(t, "", FirstLast(""))
}
