package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/montfort-alumni/slambook-cli/internal/slambook"
)

func TestExportRows(t *testing.T) {
	img := "https://cdn/jane.jpg"
	profiles := []slambook.UpsertRecord{
		{ID: 1, Name: "Jane Doe", Nicknames: "JD", Location: "Chennai", YearGraduated: "1998", ProfileImageURL: &img},
		{ID: 2, Name: "John Smith", YearGraduated: "1993-2000"},
	}
	answers := []slambook.AnswerRecord{
		{ProfileID: 1, QuestionID: 1, Answer: "pizza"},
		{ProfileID: 1, QuestionID: 10, Answer: "flying"},
		{ProfileID: 2, QuestionID: 2, Answer: "chess"},
		{ProfileID: 2, QuestionID: 99, Answer: "out of range, dropped"},
	}

	rows := exportRows(profiles, answers)
	require.Len(t, rows, 3)
	require.Len(t, rows[0], 17)

	assert.Equal(t, "Name", rows[0][1])
	assert.Equal(t, "Q10", rows[0][16])

	assert.Equal(t, []string{"1", "Jane Doe", "JD", "Chennai", "", "1998", "",
		"pizza", "", "", "", "", "", "", "", "", "flying"}, rows[1])
	assert.Equal(t, "chess", rows[2][8])
	assert.Equal(t, "2", rows[2][0])
}

func TestExportRoundTripsThroughIngest(t *testing.T) {
	profiles := []slambook.UpsertRecord{
		{ID: 1, Name: "Jane, the \"JD\" Doe", Location: "Bengaluru, India", YearGraduated: "1998"},
	}
	answers := []slambook.AnswerRecord{
		{ProfileID: 1, QuestionID: 3, Answer: "multi\nline answer"},
	}

	csv := slambook.WriteCSV(exportRows(profiles, answers))
	tokens, warnings := slambook.TokenizeCSV(csv)
	require.Empty(t, warnings)

	rows := slambook.NormalizeRows(tokens)
	require.Len(t, rows, 1)
	assert.Equal(t, `Jane, the "JD" Doe`, rows[0].Name)
	assert.Equal(t, "Bengaluru, India", rows[0].Location)
	assert.Equal(t, "multi\nline answer", rows[0].Answers[2])
}

func TestExportRowsEmptyStore(t *testing.T) {
	rows := exportRows(nil, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "S.No", rows[0][0])
}
