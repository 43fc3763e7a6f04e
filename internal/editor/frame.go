package editor

import "github.com/dshills/gotodef/internal/host"

// Frame is a snapshot of the active view: a buffer and a cursor.
type Frame struct {
	buffer *Buffer
	line   int
	col    int
}

// Buffer implements host.Surface.
func (f *Frame) Buffer() host.Buffer {
	if f.buffer == nil {
		return nil
	}
	return f.buffer
}

// Cursor implements host.Surface.
func (f *Frame) Cursor() (line, column int) {
	return f.line, f.col
}

// Buf returns the concrete buffer.
func (f *Frame) Buf() *Buffer {
	return f.buffer
}
