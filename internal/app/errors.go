package app

import "github.com/cockroachdb/errors"

// Application errors.
var (
	// ErrNoDefinition indicates a lookup that did not move the cursor.
	ErrNoDefinition = errors.New("no definition found")

	// ErrBadLocation indicates a FILE:LINE:COL argument that does not parse.
	ErrBadLocation = errors.New("invalid location")

	// ErrShutdown indicates use after Shutdown.
	ErrShutdown = errors.New("application shut down")
)

// InitError reports which component failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

var (
	// ErrTimeout indicates the language server did not answer in time.
	ErrTimeout = errors.New("definition request timed out")

	// ErrNoResponse indicates the request settled without a response.
	ErrNoResponse = errors.New("no response for definition request")
)
