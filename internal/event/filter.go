package event

import "github.com/dshills/gotodef/internal/event/topic"

// FilterBySources allows messages from one of sources. With no sources it
// allows everything.
func FilterBySources(sources ...string) FilterFunc {
	if len(sources) == 0 {
		return allowAll
	}
	set := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		set[s] = struct{}{}
	}
	return func(msg *Message) bool {
		_, ok := set[msg.Source]
		return ok
	}
}

// FilterByFileTypes allows messages tagged with one of fileTypes. With no
// file types it allows everything.
func FilterByFileTypes(fileTypes ...string) FilterFunc {
	if len(fileTypes) == 0 {
		return allowAll
	}
	set := make(map[string]struct{}, len(fileTypes))
	for _, ft := range fileTypes {
		set[ft] = struct{}{}
	}
	return func(msg *Message) bool {
		_, ok := set[msg.FileType]
		return ok
	}
}

// FilterExcludeSource rejects messages from source. Useful to avoid handling
// one's own messages on a shared topic.
func FilterExcludeSource(source string) FilterFunc {
	return func(msg *Message) bool {
		return msg.Source != source
	}
}

// FilterByTopic allows messages whose topic matches pattern.
func FilterByTopic(pattern topic.Topic) FilterFunc {
	return func(msg *Message) bool {
		return msg.Topic.Matches(pattern)
	}
}

// FilterByCorrelation allows messages carrying the given correlation ID.
func FilterByCorrelation(id string) FilterFunc {
	return func(msg *Message) bool {
		return msg.Metadata.CorrelationID == id
	}
}

// All combines filters with logical AND. Nil filters are skipped.
func All(filters ...FilterFunc) FilterFunc {
	return func(msg *Message) bool {
		for _, f := range filters {
			if f != nil && !f(msg) {
				return false
			}
		}
		return true
	}
}

// Any combines filters with logical OR. Nil filters are skipped; with no
// usable filters nothing is allowed.
func Any(filters ...FilterFunc) FilterFunc {
	return func(msg *Message) bool {
		for _, f := range filters {
			if f != nil && f(msg) {
				return true
			}
		}
		return false
	}
}

// Not negates a filter.
func Not(f FilterFunc) FilterFunc {
	return func(msg *Message) bool {
		return !f(msg)
	}
}

func allowAll(*Message) bool { return true }
