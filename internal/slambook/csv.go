// Package slambook implements the slambook ingestion engine: a permissive
// CSV tokenizer, row normalization, tenure-year extraction, tiered fuzzy
// name matching against existing alumni profiles, and the merge planning
// that turns matched rows into profile upserts with answer replacement.
package slambook

import "strings"

// ParseWarning records a non-fatal issue found while tokenizing an upload.
type ParseWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// TokenizeCSV splits raw file content into rows of trimmed cells using a
// single left-to-right scan with quote state. Unlike encoding/csv it
// tolerates the artifacts of hand-edited slambook sheets: quoted fields may
// contain commas and literal newlines, a doubled quote inside a quoted
// field is an escaped quote, and an unterminated quote at EOF is reported
// as a warning instead of an error.
func TokenizeCSV(content string) ([][]string, []ParseWarning) {
	var (
		rows     [][]string
		row      []string
		cell     strings.Builder
		inQuotes bool
	)

	flushCell := func() {
		row = append(row, strings.TrimSpace(cell.String()))
		cell.Reset()
	}
	flushRow := func() {
		flushCell()
		// Rows whose cells are all empty after trimming carry no data.
		for _, c := range row {
			if c != "" {
				rows = append(rows, row)
				break
			}
		}
		row = nil
	}

	for i := 0; i < len(content); i++ {
		ch := content[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(content) && content[i+1] == '"' {
				cell.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			flushCell()
		case (ch == '\n' || ch == '\r') && !inQuotes:
			if ch == '\r' && i+1 < len(content) && content[i+1] == '\n' {
				i++
			}
			flushRow()
		default:
			cell.WriteByte(ch)
		}
	}

	var warnings []ParseWarning
	if inQuotes {
		warnings = append(warnings, ParseWarning{
			Row:     len(rows) + 1,
			Message: "unterminated quoted field at end of file",
		})
	}

	// Content that does not end with a line terminator still owes us the
	// trailing cell and row.
	if cell.Len() > 0 || len(row) > 0 {
		flushRow()
	}

	return rows, warnings
}

// WriteCSV renders rows back to CSV text, quoting any cell that contains a
// separator, quote, or newline. Tokenizing the output yields the same cell
// values, which is what lets an export re-ingest losslessly.
func WriteCSV(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteCell(cell))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func quoteCell(cell string) string {
	if !strings.ContainsAny(cell, ",\"\n\r") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}
