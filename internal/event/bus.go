package event

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/gotodef/internal/event/topic"
	"github.com/dshills/gotodef/internal/logging"
)

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used to report handler failures.
func WithLogger(l *logging.Logger) BusOption {
	return func(b *Bus) {
		b.logger = l.WithComponent("bus")
	}
}

// Bus routes messages from publishers to subscribers.
// It is safe for concurrent use, but handlers run in the publisher's goroutine.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	closed bool

	logger *logging.Logger

	published     atomic.Uint64
	delivered     atomic.Uint64
	cancelled     atomic.Uint64
	handlerErrors atomic.Uint64
	handlerPanics atomic.Uint64
}

// NewBus creates a message bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for messages matching topicPattern.
func (b *Bus) Subscribe(topicPattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !topicPattern.IsValid() {
		return nil, ErrInvalidTopic
	}

	sub := newSubscription(uuid.NewString(), topicPattern, handler, opts...)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	b.subs = append(b.subs, sub)

	// Stable on registration order within a priority.
	sort.SliceStable(b.subs, func(i, j int) bool {
		return b.subs[i].config.Priority < b.subs[j].config.Priority
	})

	return sub, nil
}

// SubscribeFunc is a convenience wrapper around Subscribe.
func (b *Bus) SubscribeFunc(topicPattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(topicPattern, fn, opts...)
}

// Unsubscribe cancels and removes a subscription.
func (b *Bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrInvalidSubscription
	}
	sub.Cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.removeLocked(sub.ID()) {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (b *Bus) removeLocked(id string) bool {
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers msg to every matching subscription in priority order.
// Delivery stops early if a handler cancels the message. Handler errors and
// panics are collected in the result and never abort delivery.
func (b *Bus) Publish(ctx context.Context, msg *Message) (PublishResult, error) {
	var result PublishResult

	if msg == nil || !msg.Topic.IsValid() || msg.Topic.IsWildcard() {
		return result, ErrInvalidMessage
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return result, ErrBusClosed
	}
	subs := make([]*subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	b.published.Add(1)

	for _, sub := range subs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if !sub.shouldDeliver(msg) {
			continue
		}

		if sub.config.Once {
			sub.Cancel()
			b.mu.Lock()
			b.removeLocked(sub.id)
			b.mu.Unlock()
		}

		result.Delivered++
		if err := b.dispatch(ctx, sub, msg); err != nil {
			result.Errors = append(result.Errors, err)
		} else {
			b.delivered.Add(1)
		}

		if msg.Cancelled() {
			result.Cancelled = true
			b.cancelled.Add(1)
			break
		}
	}

	return result, nil
}

// dispatch runs a single handler, converting panics into *PanicError.
func (b *Bus) dispatch(ctx context.Context, sub *subscription, msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			err = &PanicError{SubscriptionID: sub.id, Topic: msg.Topic.String(), Value: r}
			b.logger.Error("handler panicked", "topic", msg.Topic, "subscription", sub.id, "panic", r)
		}
	}()

	if herr := sub.handler.Handle(ctx, msg); herr != nil {
		b.handlerErrors.Add(1)
		b.logger.Warn("handler failed", "topic", msg.Topic, "subscription", sub.id, "error", herr)
		return &HandlerError{SubscriptionID: sub.id, Topic: msg.Topic.String(), Err: herr}
	}
	return nil
}

// Close cancels all subscriptions and rejects further use.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.subs {
		s.Cancel()
	}
	b.subs = nil
	b.closed = true
}

// Stats returns current bus statistics.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		Cancelled:     b.cancelled.Load(),
		HandlerErrors: b.handlerErrors.Load(),
		HandlerPanics: b.handlerPanics.Load(),
		Subscribers:   n,
	}
}
