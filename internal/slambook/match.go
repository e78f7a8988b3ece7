package slambook

import (
	"fmt"
	"strings"
)

// Profile is an existing alumni profile as stored.
type Profile struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	YearGraduated   string  `json:"year_graduated"`
	ProfileImageURL *string `json:"profile_image_url"`
}

// MatchType is the confidence tier of a reconciliation decision.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchNameOnly MatchType = "name-only"
	MatchPartial  MatchType = "partial"
	MatchNone     MatchType = "none"
)

const (
	confidenceExact    = 100
	confidenceNameOnly = 95
	confidencePartial  = 75
)

// MatchResult reconciles one incoming row to at most one existing profile.
// Profile is nil iff Type is MatchNone.
type MatchResult struct {
	Profile    *Profile
	Confidence int
	Type       MatchType
	Reason     string
}

// Index holds existing profiles bucketed by normalized name and by
// first+last token pair, so each incoming row matches in O(1) instead of a
// linear scan over the whole profile table. Duplicate normalized names are
// legal; buckets keep every colliding profile.
type Index struct {
	byName      map[string][]*Profile
	byFirstLast map[string][]*Profile
	size        int
}

// NewIndex builds the match index from a full read of the profile store.
func NewIndex(profiles []Profile) *Index {
	ix := &Index{
		byName:      make(map[string][]*Profile, len(profiles)),
		byFirstLast: make(map[string][]*Profile, len(profiles)),
	}
	for i := range profiles {
		p := &profiles[i]
		name := NormalizeName(p.Name)
		if name == "" {
			continue
		}
		ix.byName[name] = append(ix.byName[name], p)
		if fl := FirstLast(name); strings.Contains(fl, " ") {
			ix.byFirstLast[fl] = append(ix.byFirstLast[fl], p)
		}
		ix.size++
	}
	return ix
}

// Len reports how many profiles are indexed.
func (ix *Index) Len() int { return ix.size }

// Match resolves an incoming name/year pair to a tier. Name identity is
// trusted over tenure-string accuracy: a name hit with a different year is
// still a match (name-only), and the year on the existing record is
// overwritten by the merge planner. Ties within a bucket go to the lowest
// profile id, which keeps results stable regardless of store return order.
func (ix *Index) Match(csvName, csvYear string) MatchResult {
	name := NormalizeName(csvName)
	if name == "" {
		return noMatch()
	}

	if candidates := ix.byName[name]; len(candidates) > 0 {
		if p := lowestID(candidates, func(c *Profile) bool { return c.YearGraduated == csvYear }); p != nil {
			return MatchResult{
				Profile:    p,
				Confidence: confidenceExact,
				Type:       MatchExact,
				Reason:     fmt.Sprintf("name and year %q both match profile %d", csvYear, p.ID),
			}
		}
		p := lowestID(candidates, nil)
		return MatchResult{
			Profile:    p,
			Confidence: confidenceNameOnly,
			Type:       MatchNameOnly,
			Reason:     fmt.Sprintf("name matches profile %d; year will be updated from %q to %q", p.ID, p.YearGraduated, csvYear),
		}
	}

	if fl := FirstLast(name); strings.Contains(fl, " ") {
		if candidates := ix.byFirstLast[fl]; len(candidates) > 0 {
			p := lowestID(candidates, nil)
			return MatchResult{
				Profile:    p,
				Confidence: confidencePartial,
				Type:       MatchPartial,
				Reason:     fmt.Sprintf("first and last name match existing profile %q (%d)", p.Name, p.ID),
			}
		}
	}

	return noMatch()
}

func noMatch() MatchResult {
	return MatchResult{Type: MatchNone, Reason: "no existing profile matches"}
}

// lowestID returns the candidate with the smallest id among those passing
// the filter, or nil if none pass. A nil filter accepts everything.
func lowestID(candidates []*Profile, filter func(*Profile) bool) *Profile {
	var best *Profile
	for _, c := range candidates {
		if filter != nil && !filter(c) {
			continue
		}
		if best == nil || c.ID < best.ID {
			best = c
		}
	}
	return best
}
