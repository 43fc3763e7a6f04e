package editor

import "github.com/cockroachdb/errors"

var (
	// ErrUnknownCommand is returned by Execute for unregistered names.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrBadArguments is returned when a command gets the wrong arguments.
	ErrBadArguments = errors.New("bad command arguments")

	// ErrNoActiveFrame is returned when a command needs a focused buffer.
	ErrNoActiveFrame = errors.New("no active frame")

	// ErrBufferNotFound is returned when a buffer is not open.
	ErrBufferNotFound = errors.New("buffer not found")

	// ErrDuplicateBuffer is returned when adding a buffer whose key is taken.
	ErrDuplicateBuffer = errors.New("buffer already open")
)
