package lspbridge

import "github.com/cockroachdb/errors"

var (
	// ErrNoServer indicates no language server is configured for a file type.
	ErrNoServer = errors.New("no language server for file type")

	// ErrClosed indicates the bridge has been closed.
	ErrClosed = errors.New("bridge closed")

	// ErrIncompleteConfig indicates a Config missing a required field.
	ErrIncompleteConfig = errors.New("incomplete bridge config")
)
