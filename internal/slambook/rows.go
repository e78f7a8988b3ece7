package slambook

import "strings"

// Column layout of the slambook sheet. Positions are fixed: the sheet is
// produced from a template, not a negotiated header.
const (
	colName        = 1
	colNickname    = 2
	colLocation    = 3
	colCurrentJob  = 4
	colTenure      = 5
	colDesignation = 6
	colFirstAnswer = 7

	// NumQuestions is the number of free-text slambook questions.
	NumQuestions = 10

	// minCells is serial number + 6 profile fields + 10 answers.
	minCells = 17
)

// Row is one slambook entry: the profile fields of a single alumna/alumnus
// plus the ten free-text answers, positionally mapped to question ids 1-10.
type Row struct {
	RowNumber      int // 1-based source row, diagnostics only
	Name           string
	Nickname       string
	Location       string
	CurrentJob     string
	TenureRaw      string
	DesignationOrg string
	Answers        [NumQuestions]string
}

// NormalizeRows maps tokenized cells to typed rows. The header row at index
// 0 is skipped; rows with fewer than minCells cells or an empty name are
// discarded.
func NormalizeRows(cells [][]string) []Row {
	var rows []Row
	for i, rec := range cells {
		if i == 0 {
			continue
		}
		if len(rec) < minCells {
			continue
		}

		row := Row{
			RowNumber:      i + 1,
			Name:           cleanCell(rec[colName]),
			Nickname:       cleanCell(rec[colNickname]),
			Location:       cleanCell(rec[colLocation]),
			CurrentJob:     cleanCell(rec[colCurrentJob]),
			TenureRaw:      cleanCell(rec[colTenure]),
			DesignationOrg: cleanCell(rec[colDesignation]),
		}
		if row.Name == "" {
			continue
		}
		for q := 0; q < NumQuestions; q++ {
			row.Answers[q] = cleanCell(rec[colFirstAnswer+q])
		}
		rows = append(rows, row)
	}
	return rows
}

// cleanCell strips a single stray leading/trailing quote left behind by
// partially escaped historical files, then trims. Well-formed quoting is
// already removed by the tokenizer.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.TrimSpace(s)
}
