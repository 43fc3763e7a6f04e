package topic

import "strings"

// Topic identifies a kind of message.
type Topic string

// Wildcard and separator constants.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments.
	WildcardMulti = "**"

	// Separator splits hierarchical topics into segments.
	Separator = "."

	// KindSeparator splits a "kind:method" topic.
	KindSeparator = ":"
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the dot-separated segments of the topic.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// Kind returns the part before the first ':' or "" when the topic has no kind.
//
// Example: "lsp-request:textDocument/definition" -> "lsp-request"
func (t Topic) Kind() string {
	kind, _, ok := strings.Cut(string(t), KindSeparator)
	if !ok {
		return ""
	}
	return kind
}

// Method returns the part after the first ':' or the whole topic when it has
// no kind.
//
// Example: "lsp-request:textDocument/definition" -> "textDocument/definition"
func (t Topic) Method() string {
	_, method, ok := strings.Cut(string(t), KindSeparator)
	if !ok {
		return string(t)
	}
	return method
}

// WithKind returns a "kind:method" topic.
func WithKind(kind, method string) Topic {
	if kind == "" {
		return Topic(method)
	}
	return Topic(kind + KindSeparator + method)
}

// IsWildcard returns true if the topic contains wildcard segments.
func (t Topic) IsWildcard() bool {
	for _, seg := range t.Segments() {
		if seg == WildcardSingle || seg == WildcardMulti {
			return true
		}
	}
	return false
}

// IsValid reports whether the topic is non-empty, contains no whitespace and
// has no empty segments.
func (t Topic) IsValid() bool {
	s := string(t)
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	for _, seg := range t.Segments() {
		if seg == "" {
			return false
		}
	}
	return true
}

// Matches returns true if this topic matches the given pattern.
// Patterns without wildcards must match exactly.
func (t Topic) Matches(pattern Topic) bool {
	if !pattern.IsWildcard() {
		return t == pattern
	}
	return matchSegments(t.Segments(), pattern.Segments())
}

func matchSegments(topic, pattern []string) bool {
	ti, pi := 0, 0

	for pi < len(pattern) {
		if pattern[pi] == WildcardMulti {
			for ti <= len(topic) {
				if matchSegments(topic[ti:], pattern[pi+1:]) {
					return true
				}
				ti++
			}
			return false
		}

		if ti >= len(topic) {
			return false
		}

		if pattern[pi] != WildcardSingle && pattern[pi] != topic[ti] {
			return false
		}
		ti++
		pi++
	}

	return ti == len(topic)
}

// Join joins segments into a hierarchical topic.
func Join(segments ...string) Topic {
	return Topic(strings.Join(segments, Separator))
}
