package lsp

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Method names used by the plugin and the bridge.
const (
	MethodInitialize             = "initialize"
	MethodInitialized            = "initialized"
	MethodShutdown               = "shutdown"
	MethodExit                   = "exit"
	MethodDidOpen                = "textDocument/didOpen"
	MethodTextDocumentDefinition = "textDocument/definition"
)

// Position in a text document: 0-based line and byte offset within the line.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Validate returns ErrInvalidPosition for negative components.
func (p Position) Validate() error {
	if p.Line < 0 || p.Character < 0 {
		return errors.Wrapf(ErrInvalidPosition, "line %d character %d", p.Line, p.Character)
	}
	return nil
}

// IsValid reports whether both components are non-negative.
func (p Position) IsValid() bool {
	return p.Line >= 0 && p.Character >= 0
}

// String formats the position as "line:character".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Range in a text document expressed as start and end positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location represents a location inside a resource.
type Location struct {
	URI   DocumentURI `json:"uri"`
	Range Range       `json:"range"`
}

// LocationLink is the richer location form some servers return for
// definition requests.
type LocationLink struct {
	OriginSelectionRange *Range      `json:"originSelectionRange,omitempty"`
	TargetURI            DocumentURI `json:"targetUri"`
	TargetRange          Range       `json:"targetRange"`
	TargetSelectionRange Range       `json:"targetSelectionRange"`
}

// Location returns the link's target as a Location, anchored at the
// selection range.
func (l LocationLink) Location() Location {
	return Location{URI: l.TargetURI, Range: l.TargetSelectionRange}
}

// TextDocumentIdentifier identifies a text document.
type TextDocumentIdentifier struct {
	URI DocumentURI `json:"uri"`
}

// TextDocumentItem transfers a text document to the server.
type TextDocumentItem struct {
	URI        DocumentURI `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int         `json:"version"`
	Text       string      `json:"text"`
}

// TextDocumentPositionParams pass a text document and a position inside it.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// DidOpenTextDocumentParams are sent with textDocument/didOpen.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// InitializeParams are the subset of initialize parameters the bridge sends.
type InitializeParams struct {
	ProcessID    int                `json:"processId"`
	RootURI      DocumentURI        `json:"rootUri,omitempty"`
	Capabilities ClientCapabilities `json:"capabilities"`
}

// ClientCapabilities advertises client features.
type ClientCapabilities struct {
	TextDocument TextDocumentClientCapabilities `json:"textDocument"`
	General      GeneralClientCapabilities      `json:"general"`
}

// TextDocumentClientCapabilities lists per-document features.
type TextDocumentClientCapabilities struct {
	Definition DefinitionClientCapabilities `json:"definition"`
}

// DefinitionClientCapabilities describes go-to-definition support.
type DefinitionClientCapabilities struct {
	LinkSupport bool `json:"linkSupport"`
}

// GeneralClientCapabilities carries protocol-wide settings.
type GeneralClientCapabilities struct {
	// PositionEncodings is offered in preference order.
	PositionEncodings []string `json:"positionEncodings,omitempty"`
}

// PositionEncodingUTF8 asks the server to count characters in bytes.
const PositionEncodingUTF8 = "utf-8"

// DefaultClientCapabilities returns the capabilities the bridge advertises.
func DefaultClientCapabilities() ClientCapabilities {
	return ClientCapabilities{
		TextDocument: TextDocumentClientCapabilities{
			Definition: DefinitionClientCapabilities{LinkSupport: true},
		},
		General: GeneralClientCapabilities{
			PositionEncodings: []string{PositionEncodingUTF8},
		},
	}
}
