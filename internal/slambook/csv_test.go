package slambook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeCSVBasic(t *testing.T) {
	rows, warnings := TokenizeCSV("a,b,c\nd,e,f\n")
	require.Empty(t, warnings)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])
	assert.Equal(t, []string{"d", "e", "f"}, rows[1])
}

func TestTokenizeCSVQuotedComma(t *testing.T) {
	rows, warnings := TokenizeCSV(`name,"Bengaluru, India",job`)
	require.Empty(t, warnings)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"name", "Bengaluru, India", "job"}, rows[0])
}

func TestTokenizeCSVQuotedNewline(t *testing.T) {
	rows, warnings := TokenizeCSV("name,\"line one\nline two\",x\nnext,row,y\n")
	require.Empty(t, warnings)
	require.Len(t, rows, 2)
	assert.Equal(t, "line one\nline two", rows[0][1])
	assert.Equal(t, []string{"next", "row", "y"}, rows[1])
}

func TestTokenizeCSVEscapedQuote(t *testing.T) {
	rows, _ := TokenizeCSV(`a,"she said ""hi""",b`)
	require.Len(t, rows, 1)
	assert.Equal(t, `she said "hi"`, rows[0][1])
}

func TestTokenizeCSVCRLF(t *testing.T) {
	rows, _ := TokenizeCSV("a,b\r\nc,d\r\n")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"c", "d"}, rows[1])
}

func TestTokenizeCSVDropsBlankRows(t *testing.T) {
	rows, _ := TokenizeCSV("a,b\n,,\n\n  ,  \nc,d\n")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"c", "d"}, rows[1])
}

func TestTokenizeCSVNoTrailingNewline(t *testing.T) {
	rows, _ := TokenizeCSV("a,b\nc,d")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"c", "d"}, rows[1])
}

func TestTokenizeCSVUnterminatedQuote(t *testing.T) {
	rows, warnings := TokenizeCSV("a,b\nc,\"unclosed value")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "unterminated")
	// The dangling cell is still flushed as data.
	require.Len(t, rows, 2)
	assert.Equal(t, "unclosed value", rows[1][1])
}

func TestTokenizeCSVTrimsCells(t *testing.T) {
	rows, _ := TokenizeCSV("  a  , b ,c  \n")
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])
}

func TestWriteCSVRoundTrip(t *testing.T) {
	in := [][]string{
		{"S.No", "Name", "Notes"},
		{"1", "Jane, Doe", `said "hello"`},
		{"2", "multi\nline", "plain"},
	}
	out := WriteCSV(in)
	rows, warnings := TokenizeCSV(out)
	require.Empty(t, warnings)
	assert.Equal(t, in, rows)
}
