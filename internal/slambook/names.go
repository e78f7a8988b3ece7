package slambook

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// foldMarks decomposes accented characters and drops the combining
	// marks, so "José" and "Jose" compare equal.
	foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	nonWordRe  = regexp.MustCompile(`[^\w\s]`)
	spaceRunRe = regexp.MustCompile(`\s+`)
)

// NormalizeName canonicalizes a display name for comparison: trim,
// lowercase, fold diacritics, strip everything that is not a word character
// or space, and collapse whitespace runs. The original display name is
// never mutated; this form exists only for index keys.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	if folded, _, err := transform.String(foldMarks, name); err == nil {
		name = folded
	}
	name = nonWordRe.ReplaceAllString(name, "")
	name = spaceRunRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// FirstLast reduces a normalized name to its first and last tokens for
// partial matching ("jane a doe" -> "jane doe"). Names with fewer than two
// tokens are returned unchanged.
func FirstLast(normalized string) string {
	parts := strings.Fields(normalized)
	if len(parts) < 2 {
		return normalized
	}
	return parts[0] + " " + parts[len(parts)-1]
}
