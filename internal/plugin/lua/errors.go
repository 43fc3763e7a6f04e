package lua

import "github.com/cockroachdb/errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when execution times out.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNoHost is returned when the editor module is installed without a host.
	ErrNoHost = errors.New("lua editor module needs a host")
)
