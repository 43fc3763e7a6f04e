package event

import "context"

// Priority determines handler execution order.
// Lower values execute first.
type Priority int

const (
	// PriorityCritical is for host bookkeeping that must run first.
	PriorityCritical Priority = 0

	// PriorityHigh is for LSP traffic.
	PriorityHigh Priority = 100

	// PriorityNormal is the default priority.
	PriorityNormal Priority = 200

	// PriorityLow is for observers such as loggers.
	PriorityLow Priority = 300
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch {
	case p <= PriorityCritical:
		return "critical"
	case p <= PriorityHigh:
		return "high"
	case p <= PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// Handler processes messages.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// FilterFunc is a predicate for filtering messages.
// Return true to deliver the message.
type FilterFunc func(msg *Message) bool

// Stats contains bus statistics.
type Stats struct {
	// Published is the number of messages published.
	Published uint64

	// Delivered is the number of successful handler invocations.
	Delivered uint64

	// Cancelled is the number of messages stopped by a handler.
	Cancelled uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// Subscribers is the current number of subscriptions.
	Subscribers int
}

// PublishResult reports what happened to a single published message.
type PublishResult struct {
	// Delivered counts handlers that ran.
	Delivered int

	// Cancelled is true if a handler stopped the chain.
	Cancelled bool

	// Errors collects handler errors, wrapped in *HandlerError.
	Errors []error
}
