package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTabIndexer_ASCII(t *testing.T) {
	x := NewTabIndexer(4)
	line := "func main() {"

	for col := 0; col <= len(line); col++ {
		assert.Equal(t, col, x.ColumnToByteOffset(line, col))
		assert.Equal(t, col, x.ByteOffsetToColumn(line, col))
	}
}

func TestTabIndexer_Tabs(t *testing.T) {
	x := NewTabIndexer(4)
	line := "\tx\ty"

	tests := []struct {
		col    int
		offset int
	}{
		{0, 0},
		{1, 0}, // inside the first tab
		{3, 0},
		{4, 1}, // x
		{5, 2}, // second tab starts at col 5
		{7, 2},
		{8, 3}, // y
		{9, 4}, // end of line
		{42, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.offset, x.ColumnToByteOffset(line, tt.col), "col %d", tt.col)
	}

	assert.Equal(t, 0, x.ByteOffsetToColumn(line, 0))
	assert.Equal(t, 4, x.ByteOffsetToColumn(line, 1))
	assert.Equal(t, 5, x.ByteOffsetToColumn(line, 2))
	assert.Equal(t, 8, x.ByteOffsetToColumn(line, 3))
	assert.Equal(t, 9, x.ByteOffsetToColumn(line, 4))
	assert.Equal(t, 9, x.ByteOffsetToColumn(line, 100))
	assert.Equal(t, 9, x.Width(line))
}

func TestTabIndexer_MultiByteAndWide(t *testing.T) {
	x := NewTabIndexer(4)
	// é is 2 bytes / 1 cell, 日 is 3 bytes / 2 cells.
	line := "\u00e9\u65e5a"

	assert.Equal(t, 0, x.ColumnToByteOffset(line, 0))
	assert.Equal(t, 2, x.ColumnToByteOffset(line, 1))
	assert.Equal(t, 2, x.ColumnToByteOffset(line, 2), "second cell of a wide glyph")
	assert.Equal(t, 5, x.ColumnToByteOffset(line, 3))
	assert.Equal(t, 6, x.ColumnToByteOffset(line, 4))

	assert.Equal(t, 1, x.ByteOffsetToColumn(line, 2))
	assert.Equal(t, 1, x.ByteOffsetToColumn(line, 3), "offset inside a glyph snaps to its start")
	assert.Equal(t, 3, x.ByteOffsetToColumn(line, 5))
	assert.Equal(t, 4, x.ByteOffsetToColumn(line, 6))
}

func TestTabIndexer_CombiningMarks(t *testing.T) {
	x := NewTabIndexer(4)
	// "e" + combining acute accent forms one glyph of width 1.
	line := "e\u0301b"

	assert.Equal(t, 3, x.ColumnToByteOffset(line, 1))
	assert.Equal(t, 0, x.ByteOffsetToColumn(line, 1))
	assert.Equal(t, 1, x.ByteOffsetToColumn(line, 3))
}

func TestTabIndexer_RoundTrip(t *testing.T) {
	x := NewTabIndexer(8)
	lines := []string{
		"",
		"plain ascii text",
		"\t\tindented()",
		"mixed\t日本語\tandé",
		"emoji 👍🏽 here",
	}

	for _, line := range lines {
		// Every glyph start column must survive column -> offset -> column.
		x.each(line, func(g glyph) bool {
			off := x.ColumnToByteOffset(line, g.col)
			assert.Equal(t, g.offset, off, "line %q col %d", line, g.col)
			assert.Equal(t, g.col, x.ByteOffsetToColumn(line, off), "line %q col %d", line, g.col)
			return true
		})
		end := x.Width(line)
		assert.Equal(t, end, x.ByteOffsetToColumn(line, x.ColumnToByteOffset(line, end)))
	}
}

func TestTabIndexer_NegativeInputs(t *testing.T) {
	x := DefaultIndexer()
	assert.Equal(t, 0, x.ColumnToByteOffset("abc", -3))
	assert.Equal(t, 0, x.ByteOffsetToColumn("abc", -3))
	assert.Equal(t, DefaultTabWidth, x.TabWidth())
}

func TestByteIndexer(t *testing.T) {
	var x ByteIndexer
	assert.Equal(t, 3, x.ColumnToByteOffset("日", 3))
	assert.Equal(t, 3, x.ColumnToByteOffset("日", 10))
	assert.Equal(t, 0, x.ByteOffsetToColumn("日", -1))
	assert.Equal(t, 2, x.ByteOffsetToColumn("日", 2))
}

func TestTabExpander(t *testing.T) {
	tx := NewTabExpander(0)
	assert.Equal(t, 1, tx.TabWidth())

	tx = NewTabExpander(4)
	assert.Equal(t, 4, tx.TabStopOffset(0))
	assert.Equal(t, 1, tx.TabStopOffset(3))
	assert.Equal(t, 4, tx.TabStopOffset(8))
	assert.Equal(t, 2, tx.TabStopOffset(6))
}
