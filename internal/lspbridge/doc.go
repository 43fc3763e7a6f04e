// Package lspbridge answers definition requests from the event bus by
// talking JSON-RPC to real language servers.
//
// The bridge subscribes to the request topic, starts one server per file
// type on first use, performs the initialize handshake, opens documents
// the server has not seen, and forwards textDocument/definition. Replies are
// republished on the response topic under the bridge's identity with the
// request's correlation id, through a Poster so that the host loop sees
// them on its own goroutine.
package lspbridge
