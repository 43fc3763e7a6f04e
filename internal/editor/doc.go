// Package editor is a small in-memory editor that implements the host
// interfaces. It keeps a list of buffers, a single active frame with a
// cursor, a table of named commands, and a queue of work to run on the
// editor goroutine.
//
// The command-line tool drives it without a screen, and tests use it as a
// realistic host.
package editor
