// Package lua runs user scripts against the editor with gopher-lua.
//
// A State is a sandboxed interpreter: only the base, table, string and math
// libraries are opened, and the functions that load code from disk are
// removed. Scripts talk to the editor through a global "editor" table:
//
//	editor.open("/src/main.go")
//	editor.command("cursor", 12, 8)
//	editor.command("lsp-goto-definition")
//	editor.sync()
//	local line, col = editor.cursor()
//	local buf = editor.buffer()   -- {name=..., path=..., filetype=..., lines=...}
//	editor.move(1, 0)
//
// print writes to the State's output instead of stdout.
package lua
