package slambook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testProfiles() []Profile {
	return []Profile{
		{ID: 1, Name: "Jane Doe", YearGraduated: "1998"},
		{ID: 2, Name: "John Smith", YearGraduated: "1993-2000"},
		{ID: 3, Name: "Ravi Kumar Menon", YearGraduated: "2001"},
	}
}

func TestMatchExact(t *testing.T) {
	ix := NewIndex(testProfiles())
	res := ix.Match("Jane Doe", "1998")
	require.NotNil(t, res.Profile)
	assert.Equal(t, MatchExact, res.Type)
	assert.Equal(t, 100, res.Confidence)
	assert.Equal(t, int64(1), res.Profile.ID)
}

func TestMatchExactNormalizesName(t *testing.T) {
	ix := NewIndex(testProfiles())
	res := ix.Match("  JANE   DOE ", "1998")
	require.NotNil(t, res.Profile)
	assert.Equal(t, MatchExact, res.Type)
}

func TestMatchNameOnlyOnYearMismatch(t *testing.T) {
	ix := NewIndex(testProfiles())
	res := ix.Match("Jane Doe", "2002")
	require.NotNil(t, res.Profile)
	assert.Equal(t, MatchNameOnly, res.Type)
	assert.Equal(t, 95, res.Confidence)
	assert.Equal(t, int64(1), res.Profile.ID)
}

func TestMatchPartialFirstLast(t *testing.T) {
	ix := NewIndex(testProfiles())
	// Middle initial differs but first and last tokens line up.
	res := ix.Match("Ravi Menon", "2001")
	require.NotNil(t, res.Profile)
	assert.Equal(t, MatchPartial, res.Type)
	assert.Equal(t, 75, res.Confidence)
	assert.Equal(t, int64(3), res.Profile.ID)
}

func TestMatchPartialMiddleInitialInRow(t *testing.T) {
	ix := NewIndex(testProfiles())
	res := ix.Match("Jane A. Doe", "1998")
	require.NotNil(t, res.Profile)
	assert.Equal(t, MatchPartial, res.Type)
	assert.Equal(t, int64(1), res.Profile.ID)
}

func TestMatchNone(t *testing.T) {
	ix := NewIndex(testProfiles())
	res := ix.Match("Nobody Here", "1998")
	assert.Nil(t, res.Profile)
	assert.Equal(t, MatchNone, res.Type)
	assert.Equal(t, 0, res.Confidence)
}

func TestMatchEmptyName(t *testing.T) {
	ix := NewIndex(testProfiles())
	res := ix.Match("   ", "1998")
	assert.Nil(t, res.Profile)
	assert.Equal(t, MatchNone, res.Type)
}

func TestMatchSingleTokenNameNeverPartial(t *testing.T) {
	ix := NewIndex([]Profile{{ID: 1, Name: "Madonna", YearGraduated: "1990"}})
	res := ix.Match("Madonna Cicone", "1990")
	assert.Equal(t, MatchNone, res.Type)
}

func TestMatchTieBreakLowestID(t *testing.T) {
	ix := NewIndex([]Profile{
		{ID: 7, Name: "Jane Doe", YearGraduated: "1998"},
		{ID: 4, Name: "Jane Doe", YearGraduated: "1998"},
		{ID: 9, Name: "Jane Doe", YearGraduated: "2000"},
	})

	res := ix.Match("Jane Doe", "1998")
	require.NotNil(t, res.Profile)
	assert.Equal(t, MatchExact, res.Type)
	assert.Equal(t, int64(4), res.Profile.ID)

	res = ix.Match("Jane Doe", "2010")
	require.NotNil(t, res.Profile)
	assert.Equal(t, MatchNameOnly, res.Type)
	assert.Equal(t, int64(4), res.Profile.ID)
}

func TestIndexSkipsUnindexableNames(t *testing.T) {
	ix := NewIndex([]Profile{
		{ID: 1, Name: "..."},
		{ID: 2, Name: "Jane Doe"},
	})
	assert.Equal(t, 1, ix.Len())
}
