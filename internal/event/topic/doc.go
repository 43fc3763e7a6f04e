// Package topic provides the message topics used to route editor messages.
//
// # Topic Format
//
// A topic is a string key. Host-level topics use dot notation to form a
// hierarchy:
//
//	buffer.opened
//	cursor.moved
//	plugin.lsp_goto_definition.loaded
//
// Language-server traffic uses a "kind:method" form, where the kind names the
// direction of the message and the method is the LSP method:
//
//	lsp-request:textDocument/definition
//	textDocument/definition
//
// # Wildcards
//
// Subscriptions may use wildcard patterns over dot segments:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// For example "buffer.*" matches buffer.opened but not buffer.line.changed,
// while "**" matches everything.
package topic
