// Package layout maps between display columns and byte offsets within a line.
//
// Editors place the cursor by display column: a tab spans up to the next tab
// stop and an East Asian wide glyph spans two cells. Language servers address
// text by offset into the line's encoding. A LineIndexer converts between the
// two for a single line of content.
//
// Glyph boundaries follow Unicode grapheme clusters, so a base character and
// its combining marks move together.
package layout
