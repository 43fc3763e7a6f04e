package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/gotodef/internal/event/topic"
)

// Message is a unit of inter-component communication.
//
// A Message is created by its publisher and handed to every matching
// subscriber in turn. Subscribers must not modify it except through Cancel.
type Message struct {
	// Topic identifies the kind of message.
	Topic topic.Topic

	// Source identifies the component that published the message.
	Source string

	// FileType is the file type of the document the message concerns, if any.
	FileType string

	// Data is the message body, usually JSON text.
	Data string

	// Metadata contains standard message information.
	Metadata Metadata

	cancelled bool
}

// Metadata contains standard information attached to every message.
type Metadata struct {
	// ID is a unique identifier for this message instance.
	ID string

	// Timestamp is when the message was created.
	Timestamp time.Time

	// CorrelationID links a response to the request that caused it.
	CorrelationID string
}

// NewMessage creates a message with fresh metadata.
func NewMessage(t topic.Topic, source, data string) *Message {
	return &Message{
		Topic:  t,
		Source: source,
		Data:   data,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
		},
	}
}

// WithCorrelation sets the correlation ID and returns the message.
func (m *Message) WithCorrelation(id string) *Message {
	m.Metadata.CorrelationID = id
	return m
}

// WithFileType sets the file type and returns the message.
func (m *Message) WithFileType(ft string) *Message {
	m.FileType = ft
	return m
}

// Cancel marks the message as handled. Handlers later in the chain will not
// receive it.
func (m *Message) Cancel() {
	m.cancelled = true
}

// Cancelled reports whether a handler cancelled the message.
func (m *Message) Cancelled() bool {
	return m.cancelled
}
