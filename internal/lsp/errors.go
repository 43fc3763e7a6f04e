package lsp

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Standard errors returned by the protocol helpers.
var (
	// ErrInvalidResponse indicates a response body that cannot be interpreted.
	ErrInvalidResponse = errors.New("invalid response from server")

	// ErrEmptyURI indicates an empty document URI.
	ErrEmptyURI = errors.New("empty document uri")

	// ErrUnsupportedScheme indicates a URI scheme that has no local path.
	ErrUnsupportedScheme = errors.New("unsupported uri scheme")

	// ErrInvalidPosition indicates a negative line or character.
	ErrInvalidPosition = errors.New("invalid position")
)

// RPCError represents a JSON-RPC error returned in place of a result.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeServerNotInitialized = -32002
	CodeRequestCancelled     = -32800
	CodeRequestFailed        = -32803
)
