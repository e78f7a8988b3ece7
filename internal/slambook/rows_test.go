package slambook

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sheetRow builds a full-width cell row from the profile fields and answers.
func sheetRow(serial, name, nickname, location, job, tenure, designation string, answers ...string) []string {
	row := []string{serial, name, nickname, location, job, tenure, designation}
	for q := 0; q < NumQuestions; q++ {
		if q < len(answers) {
			row = append(row, answers[q])
		} else {
			row = append(row, "")
		}
	}
	return row
}

func header() []string {
	return sheetRow("S.No", "Name", "Nickname", "Location", "Current Job", "Tenure", "Designation")
}

func TestNormalizeRowsSkipsHeader(t *testing.T) {
	rows := NormalizeRows([][]string{
		header(),
		sheetRow("1", "Jane Doe", "JD", "Chennai", "Engineer", "1993-2000", "Lead, Acme", "a1"),
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Doe", rows[0].Name)
	assert.Equal(t, "JD", rows[0].Nickname)
	assert.Equal(t, "1993-2000", rows[0].TenureRaw)
	assert.Equal(t, "a1", rows[0].Answers[0])
	assert.Equal(t, 2, rows[0].RowNumber)
}

func TestNormalizeRowsDropsShortRows(t *testing.T) {
	rows := NormalizeRows([][]string{
		header(),
		{"1", "Jane Doe", "only", "four", "cells"},
	})
	assert.Empty(t, rows)
}

func TestNormalizeRowsDropsEmptyName(t *testing.T) {
	rows := NormalizeRows([][]string{
		header(),
		sheetRow("1", "", "nick", "loc", "job", "1999", "org"),
		sheetRow("2", `""`, "nick", "loc", "job", "1999", "org"),
	})
	assert.Empty(t, rows)
}

func TestNormalizeRowsStripsStrayQuotes(t *testing.T) {
	rows := NormalizeRows([][]string{
		header(),
		sheetRow("1", `"Jane Doe`, "nick", "loc", "job", "1999", "org"),
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Doe", rows[0].Name)
}

func TestNormalizeRowsMapsAllAnswers(t *testing.T) {
	rows := NormalizeRows([][]string{
		header(),
		sheetRow("1", "Jane Doe", "", "", "", "1999", "",
			"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "a10"),
	})
	require.Len(t, rows, 1)
	for q := 0; q < NumQuestions; q++ {
		assert.Equalf(t, fmt.Sprintf("a%d", q+1), rows[0].Answers[q], "answer %d", q+1)
	}
}

func TestNormalizeRowsExtraCellsIgnored(t *testing.T) {
	row := sheetRow("1", "Jane Doe", "", "", "", "1999", "", "a1")
	row = append(row, "trailing", "junk")
	rows := NormalizeRows([][]string{header(), row})
	require.Len(t, rows, 1)
	assert.Equal(t, "a1", rows[0].Answers[0])
}
