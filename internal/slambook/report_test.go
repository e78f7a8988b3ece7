package slambook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportFixturePlan() *Plan {
	return &Plan{
		Records: []UpsertRecord{
			{ID: 1, Name: "Jane Doe"},
			{ID: 2, Name: "John Smith"},
			{ID: 90, Name: "Total Stranger"},
		},
		Details: []MatchDetail{
			{CSVName: "Jane Doe", MatchType: MatchExact, ProfileID: 1, Confidence: 100},
			{CSVName: "John Smith", MatchType: MatchNameOnly, ProfileID: 2, Confidence: 95},
			{CSVName: "Total Stranger", MatchType: MatchNone, ProfileID: 90},
		},
		Counts: TierCounts{Exact: 1, NameOnly: 1, None: 1},
	}
}

func TestBuildReportCountsAndBuckets(t *testing.T) {
	plan := reportFixturePlan()
	persisted := []PersistedProfile{
		{ID: 2, Name: "John Smith"},
		{ID: 1, Name: "Jane Doe"},
		{ID: 90, Name: "Total Stranger"},
	}

	rep := BuildReport(plan, persisted, AnswerCounts{Total: 5, Deleted: 3, Created: 5}, nil)

	assert.True(t, rep.Success)
	assert.Equal(t, 3, rep.Profiles.Total)
	assert.Equal(t, 2, rep.Profiles.Matched)
	assert.Equal(t, 1, rep.Profiles.Unmatched)
	assert.Equal(t, 0, rep.Profiles.Failed)
	assert.Equal(t, "66.7%", rep.MatchingDetails.MatchRate)

	require.Len(t, rep.MatchingDetails.NameOnlyMatches, 1)
	require.Len(t, rep.MatchingDetails.UnmatchedProfiles, 1)
	assert.Empty(t, rep.MatchingDetails.PartialMatches)

	// Persisted details follow submitted row order even though the store
	// returned rows shuffled.
	assert.Equal(t, []int64{1, 2, 90}, rep.Details.ProfileIDs)
	assert.Equal(t, []string{"Jane Doe", "John Smith", "Total Stranger"}, rep.Details.ProfileNames)
}

func TestBuildReportCountsMissingPersistedAsFailed(t *testing.T) {
	plan := reportFixturePlan()
	persisted := []PersistedProfile{{ID: 1, Name: "Jane Doe"}}

	rep := BuildReport(plan, persisted, AnswerCounts{}, nil)
	assert.Equal(t, 2, rep.Profiles.Failed)
	assert.Equal(t, []int64{1}, rep.Details.ProfileIDs)
}

func TestBuildReportEmptyPlan(t *testing.T) {
	rep := BuildReport(&Plan{}, nil, AnswerCounts{}, nil)
	assert.Equal(t, "0.0%", rep.MatchingDetails.MatchRate)
	assert.NotNil(t, rep.MatchingDetails.UnmatchedProfiles)
	assert.NotNil(t, rep.Details.ProfileIDs)
}

func TestBuildReportCarriesWarnings(t *testing.T) {
	rep := BuildReport(reportFixturePlan(), nil, AnswerCounts{}, []string{"row 3: unterminated quoted field"})
	require.Len(t, rep.Warnings, 1)
	assert.Contains(t, rep.Warnings[0], "unterminated")
}
