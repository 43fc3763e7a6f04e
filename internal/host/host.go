// Package host declares what the go-to-definition plugin needs from the
// editor that loads it. The editor owns buffers, frames and the command
// table; the plugin only reads the active surface, runs named commands and
// nudges the cursor.
package host

// BufferKind classifies what a buffer holds.
type BufferKind int

const (
	// KindFile is a buffer backed by a file, saved or not.
	KindFile BufferKind = iota

	// KindScratch is a buffer with no file behind it (logs, prompts, lists).
	KindScratch
)

// String returns the kind's name.
func (k BufferKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindScratch:
		return "scratch"
	default:
		return "unknown"
	}
}

// Buffer is a read-only view of an editor buffer.
type Buffer interface {
	// Name is the display name, also used for untitled documents.
	Name() string

	// Path is the absolute file path, or "" when the buffer has none.
	Path() string

	Kind() BufferKind

	// Special reports editor-internal buffers that never talk to a server.
	Special() bool

	// FileType is the language identifier, e.g. "go".
	FileType() string

	// Line returns the content of 1-based line n without its terminator.
	// ok is false when n is out of range.
	Line(n int) (content string, ok bool)

	LineCount() int
}

// Surface is the visible area the user is working in: a buffer plus a cursor.
type Surface interface {
	// Buffer may be nil when the surface shows nothing.
	Buffer() Buffer

	// Cursor returns the 1-based line and 0-based display column.
	Cursor() (line, column int)
}

// Host is the editor as seen by a plugin.
type Host interface {
	// ActiveSurface returns the focused surface, or nil.
	ActiveSurface() Surface

	// Execute runs a named editor command.
	Execute(name string, args ...string) error

	// MoveCursor moves the active cursor by a relative delta.
	MoveCursor(deltaLine, deltaColumn int)
}

// CommandFunc implements a named command.
type CommandFunc func(args ...string) error

// Commands is the editor's command table.
type Commands interface {
	SetCommand(name string, fn CommandFunc) error
	RemoveCommand(name string)
}
