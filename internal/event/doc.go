// Package event provides the message bus that connects editor components.
//
// Components never call each other directly. A plugin publishes a Message on
// a topic and whoever subscribed to that topic receives it. The language
// server bridge, for example, listens on "lsp-request:textDocument/definition"
// and answers on "textDocument/definition" with Source "lsp".
//
// # Delivery
//
// Delivery is synchronous: Publish runs every matching handler in the
// caller's goroutine, lowest Priority first, and returns when they are done.
// A handler may Cancel the message, after which no further handlers see it.
//
// # Filtering
//
// Besides the topic pattern, a subscription can narrow what it receives:
//
//	bus.Subscribe("textDocument/definition", h,
//	    event.WithSource("lsp"),
//	    event.WithFileType("go"),
//	)
//
// # Panics
//
// A panicking handler is recovered, reported through the bus logger and
// counted in Stats. Delivery continues with the next handler.
package event
