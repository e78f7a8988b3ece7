package slambook

import (
	"regexp"
	"strings"
)

// Tenure strings are free-form human input ("1993-2000 at Montfort",
// "Class of 1998", "batch: 2001"). Rules are evaluated in order; the range
// rule must run first or a bare "contains 4 digits" match would truncate
// "1993-2000" to a single year.
var (
	yearRangeRe = regexp.MustCompile(`(\d{4})\s*[-\x{2013}]\s*(\d{4})`)

	singleYearRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)class\s+of\s+(\d{4})`),
		regexp.MustCompile(`(?i)batch[:\s]+(\d{4})`),
		regexp.MustCompile(`(?i)(\d{4})\s+batch`),
		regexp.MustCompile(`(?i)graduated[:\s]+(\d{4})`),
		regexp.MustCompile(`(\d{4})\s*$`),
	}

	anyYearRe = regexp.MustCompile(`\d{4}`)
)

// GradYear extracts a graduation-year token from a free-text tenure string:
// either "YYYY-YYYY" (both years preserved, en-dash normalized to hyphen)
// or a single "YYYY", or "" when nothing recognizable is present.
func GradYear(tenure string) string {
	s := strings.TrimSpace(tenure)
	if s == "" {
		return ""
	}

	if m := yearRangeRe.FindStringSubmatch(s); m != nil {
		return m[1] + "-" + m[2]
	}
	for _, re := range singleYearRes {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}

	// Last resort: any bare 4-digit sequence anywhere in the string.
	return anyYearRe.FindString(s)
}
