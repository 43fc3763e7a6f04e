package gotodef

import (
	"github.com/dshills/gotodef/internal/host"
	"github.com/dshills/gotodef/internal/lsp"
)

// DocumentURIFor returns the document reference of a buffer: a file:// URI
// for buffers with a path, untitled:<name> for unsaved file buffers, and ""
// for anything a language server cannot address.
func DocumentURIFor(b host.Buffer) lsp.DocumentURI {
	if b == nil || b.Special() || b.Kind() != host.KindFile {
		return ""
	}
	if b.Path() == "" {
		return lsp.UntitledURI(b.Name())
	}
	return lsp.FilePathToURI(b.Path())
}
