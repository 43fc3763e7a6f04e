package event

import (
	"sync/atomic"

	"github.com/dshills/gotodef/internal/event/topic"
)

// Subscription represents an active subscription.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Topic returns the subscribed topic pattern.
	Topic() topic.Topic

	// IsActive returns true until the subscription is cancelled.
	IsActive() bool

	// Cancel stops delivery to this subscription.
	Cancel()
}

// SubscriptionConfig contains configuration for a subscription.
type SubscriptionConfig struct {
	// Priority determines execution order (lower values execute first).
	Priority Priority

	// Sources restricts delivery to messages from these sources. Empty means any.
	Sources []string

	// FileTypes restricts delivery to messages tagged with these file types.
	// Empty means any, including untagged messages.
	FileTypes []string

	// Filter is an optional extra predicate.
	Filter FilterFunc

	// Once cancels the subscription after its first delivery.
	Once bool
}

// DefaultSubscriptionConfig returns a default subscription configuration.
func DefaultSubscriptionConfig() SubscriptionConfig {
	return SubscriptionConfig{
		Priority: PriorityNormal,
	}
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*SubscriptionConfig)

// WithPriority sets the subscription priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Priority = p
	}
}

// WithSource restricts delivery to messages published by one of sources.
func WithSource(sources ...string) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Sources = append(c.Sources, sources...)
	}
}

// WithFileType restricts delivery to messages tagged with one of fileTypes.
func WithFileType(fileTypes ...string) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.FileTypes = append(c.FileTypes, fileTypes...)
	}
}

// WithFilter sets a filter predicate.
func WithFilter(f FilterFunc) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Filter = f
	}
}

// WithOnce cancels the subscription after the first delivery.
func WithOnce() SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Once = true
	}
}

type subscription struct {
	id      string
	topic   topic.Topic
	handler Handler
	config  SubscriptionConfig
	filter  FilterFunc
	active  atomic.Bool
}

func newSubscription(id string, t topic.Topic, h Handler, opts ...SubscriptionOption) *subscription {
	config := DefaultSubscriptionConfig()
	for _, opt := range opts {
		opt(&config)
	}

	s := &subscription{
		id:      id,
		topic:   t,
		handler: h,
		config:  config,
		filter: All(
			FilterBySources(config.Sources...),
			FilterByFileTypes(config.FileTypes...),
			config.Filter,
		),
	}
	s.active.Store(true)
	return s
}

func (s *subscription) ID() string         { return s.id }
func (s *subscription) Topic() topic.Topic { return s.topic }
func (s *subscription) IsActive() bool     { return s.active.Load() }
func (s *subscription) Cancel()            { s.active.Store(false) }

// shouldDeliver returns true if msg passes the subscription's state and filters.
func (s *subscription) shouldDeliver(msg *Message) bool {
	if !s.IsActive() {
		return false
	}
	if !msg.Topic.Matches(s.topic) {
		return false
	}
	return s.filter(msg)
}
