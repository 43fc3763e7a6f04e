package config

import "github.com/cockroachdb/errors"

// Errors returned by configuration operations.
var (
	// ErrValidationFailed indicates a setting holds an unusable value.
	ErrValidationFailed = errors.New("validation failed")

	// ErrDecodeFailed indicates the merged settings do not fit Config.
	ErrDecodeFailed = errors.New("config decode failed")
)
