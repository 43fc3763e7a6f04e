package lsp

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
)

// DocumentURI identifies a document: "file:///abs/path" or "untitled:name".
type DocumentURI string

// URI schemes the plugin understands.
const (
	SchemeFile     = "file"
	SchemeUntitled = "untitled"
)

// Scheme returns the URI scheme, or "" if the URI has none.
func (u DocumentURI) Scheme() string {
	scheme, _, ok := strings.Cut(string(u), ":")
	if !ok {
		return ""
	}
	return strings.ToLower(scheme)
}

// IsFile reports whether the URI uses the file scheme.
func (u DocumentURI) IsFile() bool {
	return u.Scheme() == SchemeFile
}

// IsUntitled reports whether the URI names an unsaved buffer.
func (u DocumentURI) IsUntitled() bool {
	return u.Scheme() == SchemeUntitled
}

// FilePathToURI converts a file path to a file:// DocumentURI.
// Relative paths are made absolute first.
func FilePathToURI(path string) DocumentURI {
	if path == "" {
		return ""
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	path = filepath.ToSlash(path)

	// Drive letters need a leading slash: file:///C:/x
	if runtime.GOOS == "windows" && len(path) >= 2 && path[1] == ':' {
		path = "/" + path
	}

	u := &url.URL{
		Scheme: SchemeFile,
		Path:   path,
	}
	return DocumentURI(u.String())
}

// UntitledURI returns the URI of an unsaved buffer called name.
func UntitledURI(name string) DocumentURI {
	if name == "" {
		return ""
	}
	return DocumentURI(SchemeUntitled + ":" + url.PathEscape(name))
}

// URIToFilePath converts a file:// URI to a local path, percent-decoding it.
// Untitled URIs return the decoded buffer name. Any other scheme fails with
// ErrUnsupportedScheme.
func URIToFilePath(uri DocumentURI) (string, error) {
	if uri == "" {
		return "", ErrEmptyURI
	}

	u, err := url.Parse(string(uri))
	if err != nil {
		return "", errors.Wrapf(ErrInvalidResponse, "%q: %v", uri, err)
	}

	switch strings.ToLower(u.Scheme) {
	case SchemeFile:
		if u.Host != "" && u.Host != "localhost" {
			return "", errors.Wrapf(ErrUnsupportedScheme, "remote host %q", u.Host)
		}
		path := u.Path
		if path == "" {
			return "", errors.Wrapf(ErrInvalidResponse, "%q has no path", uri)
		}
		if runtime.GOOS == "windows" && len(path) >= 3 && path[0] == '/' && path[2] == ':' {
			path = path[1:]
		}
		return filepath.FromSlash(path), nil

	case SchemeUntitled:
		name := u.Opaque
		if name == "" {
			name = u.Path
		}
		decoded, err := url.PathUnescape(name)
		if err != nil {
			return "", errors.Wrapf(ErrInvalidResponse, "%q: %v", uri, err)
		}
		if decoded == "" {
			return "", errors.Wrapf(ErrInvalidResponse, "%q has no name", uri)
		}
		return decoded, nil

	default:
		return "", errors.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme)
	}
}
