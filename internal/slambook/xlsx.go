package slambook

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Class representatives commonly send the slambook as an Excel workbook
// instead of CSV. These helpers flatten the first sheet into the same cell
// grid the CSV tokenizer produces, so the rest of the pipeline is format
// agnostic.

// ReadWorkbook loads the first sheet of an .xlsx file as rows of trimmed
// cells.
func ReadWorkbook(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	return sheetRows(f)
}

// ReadWorkbookBytes is ReadWorkbook for in-memory uploads.
func ReadWorkbookBytes(data []byte) ([][]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}
	return sheetRows(f)
}

func sheetRows(f *xlsx.File) ([][]string, error) {
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	sheet := f.Sheets[0]

	var rows [][]string
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		empty := true
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
			if cells[j] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
