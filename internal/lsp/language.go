package lsp

import (
	"path/filepath"
	"strings"
)

// languageByExt maps file extensions to LSP language identifiers.
var languageByExt = map[string]string{
	".go":    "go",
	".rs":    "rust",
	".ts":    "typescript",
	".tsx":   "typescriptreact",
	".js":    "javascript",
	".jsx":   "javascriptreact",
	".py":    "python",
	".rb":    "ruby",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".swift": "swift",
	".kt":    "kotlin",
	".php":   "php",
	".lua":   "lua",
	".sh":    "shellscript",
	".bash":  "shellscript",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".md":    "markdown",
	".zig":   "zig",
	".hs":    "haskell",
	".ml":    "ocaml",
	".ex":    "elixir",
	".exs":   "elixir",
}

// languageByName covers files recognised by name rather than extension.
var languageByName = map[string]string{
	"dockerfile":     "dockerfile",
	"makefile":       "makefile",
	"gnumakefile":    "makefile",
	"cmakelists.txt": "cmake",
	"go.mod":         "go.mod",
}

// DetectLanguageID guesses the language identifier for path.
// Unknown files are "plaintext".
func DetectLanguageID(path string) string {
	base := strings.ToLower(filepath.Base(path))
	if id, ok := languageByName[base]; ok {
		return id
	}
	if id, ok := languageByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return id
	}
	return "plaintext"
}
