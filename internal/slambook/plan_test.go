package slambook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlanMatchedRowKeepsIDAndImage(t *testing.T) {
	profiles := []Profile{
		{ID: 10, Name: "Jane Doe", YearGraduated: "1998", ProfileImageURL: strPtr("https://cdn/img.jpg")},
	}
	rows := []Row{
		{RowNumber: 2, Name: "Jane Doe", Nickname: "JD", TenureRaw: "Class of 1998"},
	}

	plan, err := BuildPlan(rows, NewIndex(profiles), NewIDBlock([]int64{100}))
	require.NoError(t, err)
	require.Len(t, plan.Records, 1)

	rec := plan.Records[0]
	assert.Equal(t, int64(10), rec.ID)
	assert.Equal(t, "1998", rec.YearGraduated)
	require.NotNil(t, rec.ProfileImageURL)
	assert.Equal(t, "https://cdn/img.jpg", *rec.ProfileImageURL)
	assert.Equal(t, 1, plan.Counts.Exact)
	assert.Equal(t, 0, plan.Counts.None)
}

func TestBuildPlanUnmatchedRowsConsumeReservedIDs(t *testing.T) {
	rows := []Row{
		{RowNumber: 2, Name: "New One", TenureRaw: "2001"},
		{RowNumber: 3, Name: "New Two", TenureRaw: "2002"},
	}

	plan, err := BuildPlan(rows, NewIndex(nil), NewIDBlock([]int64{50, 51, 52}))
	require.NoError(t, err)
	require.Len(t, plan.Records, 2)
	assert.Equal(t, int64(50), plan.Records[0].ID)
	assert.Equal(t, int64(51), plan.Records[1].ID)
	assert.Nil(t, plan.Records[0].ProfileImageURL)
	assert.Equal(t, 2, plan.Counts.None)
}

func TestBuildPlanMixedTiers(t *testing.T) {
	profiles := []Profile{
		{ID: 1, Name: "Jane Doe", YearGraduated: "1998"},
		{ID: 2, Name: "John Smith", YearGraduated: "1995"},
		{ID: 3, Name: "Ravi Kumar Menon", YearGraduated: "2001"},
	}
	rows := []Row{
		{RowNumber: 2, Name: "Jane Doe", TenureRaw: "1998"},
		{RowNumber: 3, Name: "John Smith", TenureRaw: "batch: 1999"},
		{RowNumber: 4, Name: "Ravi Menon", TenureRaw: "2001"},
		{RowNumber: 5, Name: "Total Stranger", TenureRaw: "2005"},
	}

	plan, err := BuildPlan(rows, NewIndex(profiles), NewIDBlock([]int64{90, 91, 92, 93}))
	require.NoError(t, err)
	assert.Equal(t, TierCounts{Exact: 1, NameOnly: 1, Partial: 1, None: 1}, plan.Counts)
	assert.Equal(t, 3, plan.Counts.Matched())
	assert.Equal(t, 4, plan.Counts.Total())

	// The name-only row overwrites the stale stored year.
	assert.Equal(t, "1999", plan.Records[1].YearGraduated)
	// Only the unmatched row draws from the reserved block.
	assert.Equal(t, int64(90), plan.Records[3].ID)

	require.Len(t, plan.Details, 4)
	assert.Equal(t, MatchExact, plan.Details[0].MatchType)
	assert.Equal(t, MatchNameOnly, plan.Details[1].MatchType)
	assert.Equal(t, MatchPartial, plan.Details[2].MatchType)
	assert.Equal(t, MatchNone, plan.Details[3].MatchType)
}

func TestBuildPlanIDBlockExhausted(t *testing.T) {
	rows := []Row{
		{RowNumber: 2, Name: "New One"},
		{RowNumber: 3, Name: "New Two"},
	}
	_, err := BuildPlan(rows, NewIndex(nil), NewIDBlock([]int64{50}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")
}

func TestDeriveAnswersSkipsEmpty(t *testing.T) {
	rows := []Row{
		{RowNumber: 2, Name: "Jane Doe", Answers: [NumQuestions]string{"a1", "", "  ", "a4"}},
		{RowNumber: 3, Name: "Blank Row"},
	}
	records := []UpsertRecord{{ID: 10}, {ID: 11}}

	answers := DeriveAnswers(rows, records)
	require.Len(t, answers, 2)
	assert.Equal(t, AnswerRecord{ProfileID: 10, QuestionID: 1, Answer: "a1"}, answers[0])
	assert.Equal(t, AnswerRecord{ProfileID: 10, QuestionID: 4, Answer: "a4"}, answers[1])
}
