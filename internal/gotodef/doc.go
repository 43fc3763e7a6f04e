// Package gotodef implements the "go to definition" plugin.
//
// The plugin turns the cursor of the active surface into a
// textDocument/definition request, publishes it on the message bus for
// whichever component speaks to the language server, and moves the cursor
// when the answer comes back.
//
// Every request carries an id in Metadata.CorrelationID and is remembered in
// a pending table until it is answered or times out. Answers that match no
// live request are dropped as stale.
//
// Nothing in the package reports failure to the user. The Resolver returns a
// Resolution whose Outcome says what happened, and the plugin logs it.
package gotodef
