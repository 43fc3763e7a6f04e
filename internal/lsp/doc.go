// Package lsp holds the slice of the Language Server Protocol that the
// go-to-definition plugin speaks: positions, locations, document URIs and the
// JSON bodies of textDocument/definition requests and responses.
//
// Positions here are protocol positions: 0-based lines and a character value
// that is a byte offset into the line. Conversion to and from editor
// coordinates is the caller's business.
//
// # Payloads
//
// Request bodies are built with sjson and responses are read with gjson, so
// the package never needs a full struct model of every response shape:
//
//	params, _ := lsp.EncodeDefinitionParams(uri, lsp.Position{Line: 4, Character: 10})
//
//	loc, ok, err := lsp.ParseDefinitionResult(body)
//	switch {
//	case err != nil: // malformed
//	case !ok:        // no definition
//	default:         // use loc
//	}
//
// A definition result may be a Location, a Location array, a LocationLink or
// a LocationLink array. The first entry wins.
package lsp
