package layout

import "github.com/rivo/uniseg"

// LineIndexer converts between display columns and byte offsets within a
// single line. Columns and offsets are 0-based.
type LineIndexer interface {
	// ColumnToByteOffset returns the byte offset of the glyph covering col.
	// Columns inside a multi-cell glyph resolve to the glyph's start and
	// columns past the end clamp to len(line).
	ColumnToByteOffset(line string, col int) int

	// ByteOffsetToColumn returns the display column where the glyph
	// containing offset starts. Offsets past the end clamp to the line width.
	ByteOffsetToColumn(line string, offset int) int
}

// TabIndexer is a LineIndexer that expands tabs and measures glyph widths.
type TabIndexer struct {
	tabs *TabExpander
}

// NewTabIndexer creates an indexer with the given tab width.
func NewTabIndexer(tabWidth int) *TabIndexer {
	return &TabIndexer{tabs: NewTabExpander(tabWidth)}
}

// DefaultIndexer returns a TabIndexer with the default tab width.
func DefaultIndexer() *TabIndexer {
	return NewTabIndexer(DefaultTabWidth)
}

// TabWidth returns the configured tab width.
func (x *TabIndexer) TabWidth() int {
	return x.tabs.TabWidth()
}

// glyph is one grapheme cluster with its display span.
type glyph struct {
	offset int
	size   int
	col    int
	width  int
}

// each walks the glyphs of line, stopping when fn returns false.
func (x *TabIndexer) each(line string, fn func(g glyph) bool) (endOffset, endCol int) {
	state := -1
	rest := line
	for len(rest) > 0 {
		cluster, next, width, newState := uniseg.FirstGraphemeClusterInString(rest, state)
		if cluster == "\t" {
			width = x.tabs.TabStopOffset(endCol)
		}

		g := glyph{offset: endOffset, size: len(cluster), col: endCol, width: width}
		if !fn(g) {
			return g.offset, g.col
		}

		endOffset += g.size
		endCol += g.width
		rest = next
		state = newState
	}
	return endOffset, endCol
}

// ColumnToByteOffset implements LineIndexer.
func (x *TabIndexer) ColumnToByteOffset(line string, col int) int {
	if col <= 0 {
		return 0
	}
	offset, _ := x.each(line, func(g glyph) bool {
		return col >= g.col+g.width
	})
	return offset
}

// ByteOffsetToColumn implements LineIndexer.
func (x *TabIndexer) ByteOffsetToColumn(line string, offset int) int {
	if offset <= 0 {
		return 0
	}
	_, col := x.each(line, func(g glyph) bool {
		return offset >= g.offset+g.size
	})
	return col
}

// Width returns the display width of line.
func (x *TabIndexer) Width(line string) int {
	_, col := x.each(line, func(glyph) bool { return true })
	return col
}

// ByteIndexer treats every byte as one display column.
type ByteIndexer struct{}

// ColumnToByteOffset implements LineIndexer.
func (ByteIndexer) ColumnToByteOffset(line string, col int) int {
	return clamp(col, 0, len(line))
}

// ByteOffsetToColumn implements LineIndexer.
func (ByteIndexer) ByteOffsetToColumn(line string, offset int) int {
	return clamp(offset, 0, len(line))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
