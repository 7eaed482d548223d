package events

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/sitetokens/content"
	"github.com/jonwraymond/sitetokens/observe"
)

// Handler receives one event. Handlers run on the publisher's goroutine.
type Handler func(ctx context.Context, e Event)

// Source is the subscription side of a Bus.
//
// Contract:
//   - Concurrency: Subscribe and Unsubscribe are safe for concurrent use,
//     including from inside a Handler.
//   - Filtering: a subscription with no types receives every event.
type Source interface {
	Subscribe(h Handler, types ...Type) string
	Unsubscribe(id string) bool
}

type subscription struct {
	id      string
	handler Handler
	types   []Type
}

func (s *subscription) accepts(t Type) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// Bus fans mutation events out to subscribers in registration order.
// It implements content.MutationPublisher and Source.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	logger observe.Logger
	now    func() time.Time
}

var (
	_ Source                    = (*Bus)(nil)
	_ content.MutationPublisher = (*Bus)(nil)
)

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used to report recovered handler panics.
func WithLogger(l observe.Logger) BusOption {
	return func(b *Bus) { b.logger = observe.OrNop(l) }
}

// NewBus creates an empty Bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{logger: observe.NopLogger(), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for the given event types and returns the
// subscription ID.
func (b *Bus) Subscribe(h Handler, types ...Type) string {
	sub := &subscription{
		id:      uuid.NewString(),
		handler: h,
		types:   slices.Clone(types),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
	return sub.id
}

// Unsubscribe removes the subscription with id. It reports whether the
// subscription existed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.IndexFunc(b.subs, func(s *subscription) bool { return s.id == id })
	if i < 0 {
		return false
	}
	b.subs = slices.Delete(slices.Clone(b.subs), i, i+1)
	return true
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers an event of type t for n to every matching subscriber
// and returns the delivered event.
func (b *Bus) Publish(ctx context.Context, t Type, n *content.Node) Event {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	e := Event{
		ID:        uuid.NewString(),
		Type:      t,
		Node:      n,
		Timestamp: b.now(),
	}
	for _, sub := range subs {
		if sub.accepts(t) {
			b.invoke(ctx, sub, e)
		}
	}
	return e
}

// PublishCreated publishes TypeNodeCreated for n.
func (b *Bus) PublishCreated(ctx context.Context, n *content.Node) {
	b.Publish(ctx, TypeNodeCreated, n)
}

// PublishDeleting publishes TypeNodeDeleting for n.
func (b *Bus) PublishDeleting(ctx context.Context, n *content.Node) {
	b.Publish(ctx, TypeNodeDeleting, n)
}

// PublishDeleted publishes TypeNodeDeleted for n.
func (b *Bus) PublishDeleted(ctx context.Context, n *content.Node) {
	b.Publish(ctx, TypeNodeDeleted, n)
}

func (b *Bus) invoke(ctx context.Context, sub *subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error(ctx, "event handler panicked",
				observe.F("event.type", string(e.Type)),
				observe.F("event.id", e.ID),
				observe.F("subscription.id", sub.id),
				observe.F("panic", fmt.Sprint(r)),
			)
		}
	}()
	sub.handler(ctx, e)
}
