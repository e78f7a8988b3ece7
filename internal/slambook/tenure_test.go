package slambook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradYear(t *testing.T) {
	cases := []struct {
		name   string
		tenure string
		want   string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"plain range", "1993-2000", "1993-2000"},
		{"range with spaces", "1993 - 2000", "1993-2000"},
		{"range with en dash", "1993–2000", "1993-2000"},
		{"range inside text", "studied 1993-2000 at Montfort", "1993-2000"},
		{"class of", "Class of 1998", "1998"},
		{"class of lowercase", "class of 2005", "2005"},
		{"batch colon", "batch: 2001", "2001"},
		{"batch space", "Batch 2001", "2001"},
		{"year batch", "2001 batch", "2001"},
		{"graduated", "graduated: 1997", "1997"},
		{"trailing year", "left school in 1999", "1999"},
		{"bare year", "2003", "2003"},
		{"year mid-string fallback", "around 1995 or so", "1995"},
		{"range beats single", "Class of 2000, 1993-2000", "1993-2000"},
		{"no year at all", "a long time ago", ""},
		{"three digits ignored", "batch 199", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GradYear(tc.tenure))
		})
	}
}
