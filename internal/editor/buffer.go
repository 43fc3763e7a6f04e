package editor

import (
	"path/filepath"
	"strings"

	"github.com/dshills/gotodef/internal/host"
	"github.com/dshills/gotodef/internal/lsp"
)

// Buffer holds the lines of one document.
type Buffer struct {
	name     string
	path     string
	kind     host.BufferKind
	special  bool
	fileType string
	lines    []string
}

// NewFileBuffer creates a buffer for the file at path.
func NewFileBuffer(path string, content []byte) *Buffer {
	return &Buffer{
		name:     filepath.Base(path),
		path:     path,
		kind:     host.KindFile,
		fileType: lsp.DetectLanguageID(path),
		lines:    splitLines(string(content)),
	}
}

// NewUntitledBuffer creates an unsaved file buffer. fileType may be empty.
func NewUntitledBuffer(name, fileType, content string) *Buffer {
	return &Buffer{
		name:     name,
		kind:     host.KindFile,
		fileType: fileType,
		lines:    splitLines(content),
	}
}

// NewScratchBuffer creates a buffer with no file behind it. Special scratch
// buffers are editor-internal (logs, messages).
func NewScratchBuffer(name, content string, special bool) *Buffer {
	return &Buffer{
		name:    name,
		kind:    host.KindScratch,
		special: special,
		lines:   splitLines(content),
	}
}

// Name implements host.Buffer.
func (b *Buffer) Name() string { return b.name }

// Path implements host.Buffer.
func (b *Buffer) Path() string { return b.path }

// Kind implements host.Buffer.
func (b *Buffer) Kind() host.BufferKind { return b.kind }

// Special implements host.Buffer.
func (b *Buffer) Special() bool { return b.special }

// FileType implements host.Buffer.
func (b *Buffer) FileType() string { return b.fileType }

// LineCount implements host.Buffer.
func (b *Buffer) LineCount() int { return len(b.lines) }

// Line implements host.Buffer.
func (b *Buffer) Line(n int) (string, bool) {
	if n < 1 || n > len(b.lines) {
		return "", false
	}
	return b.lines[n-1], true
}

// Text returns the buffer content joined with newlines.
func (b *Buffer) Text() string {
	return strings.Join(b.lines, "\n")
}

// key identifies the buffer in the editor's table.
func (b *Buffer) key() string {
	if b.path != "" {
		return b.path
	}
	return "::" + b.name
}

// splitLines splits content into lines without terminators. A trailing
// newline does not start a new line, and empty content is one empty line.
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
