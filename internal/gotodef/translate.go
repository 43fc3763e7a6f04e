package gotodef

import (
	"fmt"

	"github.com/dshills/gotodef/internal/host"
	"github.com/dshills/gotodef/internal/layout"
	"github.com/dshills/gotodef/internal/lsp"
)

// EditorPosition is a cursor position as the editor sees it: 1-based line,
// 0-based display column.
type EditorPosition struct {
	Line   int
	Column int
}

// IsValid reports whether the position can address a cursor.
func (p EditorPosition) IsValid() bool {
	return p.Line >= 1 && p.Column >= 0
}

// String formats the position as "line:column".
func (p EditorPosition) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Sentinel positions returned when there is nothing to translate.
var (
	InvalidPosition       = lsp.Position{Line: -1, Character: -1}
	InvalidEditorPosition = EditorPosition{Line: -1, Column: -1}
)

// Translator converts between editor and protocol coordinates.
type Translator struct {
	indexer layout.LineIndexer
}

// NewTranslator creates a translator. A nil indexer selects
// layout.DefaultIndexer.
func NewTranslator(indexer layout.LineIndexer) *Translator {
	if indexer == nil {
		indexer = layout.DefaultIndexer()
	}
	return &Translator{indexer: indexer}
}

// ToProtocol maps an editor position on lineContent to a protocol position.
func (t *Translator) ToProtocol(editorLine, editorColumn int, lineContent string) lsp.Position {
	if editorLine < 1 || editorColumn < 0 {
		return InvalidPosition
	}
	return lsp.Position{
		Line:      editorLine - 1,
		Character: t.indexer.ColumnToByteOffset(lineContent, editorColumn),
	}
}

// ToEditor maps a protocol position on lineContent to an editor position.
func (t *Translator) ToEditor(pos lsp.Position, lineContent string) EditorPosition {
	if !pos.IsValid() {
		return InvalidEditorPosition
	}
	return EditorPosition{
		Line:   pos.Line + 1,
		Column: t.indexer.ByteOffsetToColumn(lineContent, pos.Character),
	}
}

// PositionInSurface translates the surface's cursor. It returns
// InvalidPosition when the surface has no buffer or the cursor line does not
// exist.
func (t *Translator) PositionInSurface(s host.Surface) lsp.Position {
	if s == nil {
		return InvalidPosition
	}
	buf := s.Buffer()
	if buf == nil {
		return InvalidPosition
	}

	line, col := s.Cursor()
	content, ok := buf.Line(line)
	if !ok {
		return InvalidPosition
	}
	return t.ToProtocol(line, col, content)
}
