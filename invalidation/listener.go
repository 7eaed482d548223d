package invalidation

import (
	"context"
	"errors"
	"sync"

	"github.com/jonwraymond/sitetokens/cache"
	"github.com/jonwraymond/sitetokens/content"
	"github.com/jonwraymond/sitetokens/events"
	"github.com/jonwraymond/sitetokens/observe"
)

// ErrNilLoader indicates NewListener was called without a loader.
var ErrNilLoader = errors.New("invalidation: loader is nil")

// Evicter removes cached keys. cache.Loader implements it.
type Evicter interface {
	Evict(ctx context.Context, match cache.MatchFunc) []string
}

// Listener evicts fragment cache entries affected by tree mutations.
//
// Contract:
// - Concurrency: handlers are safe for concurrent use.
// - Errors: handlers never fail or panic; malformed input is a no-op.
// - Visibility: eviction is complete when the handler returns.
type Listener struct {
	evicter Evicter
	logger  observe.Logger
	metrics observe.Metrics
}

// Option configures a Listener.
type Option func(*Listener)

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(li *Listener) { li.logger = observe.OrNop(l) }
}

// WithMetrics sets the metrics sink for evictions.
func WithMetrics(m observe.Metrics) Option {
	return func(li *Listener) {
		if m != nil {
			li.metrics = m
		}
	}
}

// NewListener creates a Listener evicting through e.
func NewListener(e Evicter, opts ...Option) (*Listener, error) {
	if e == nil {
		return nil, ErrNilLoader
	}
	l := &Listener{
		evicter: e,
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// OnNodeCreated evicts entries for n's path and its ancestors.
func (l *Listener) OnNodeCreated(ctx context.Context, n *content.Node) []string {
	return l.invalidate(ctx, "created", n)
}

// OnNodeDeleted evicts entries for n's path and its ancestors.
func (l *Listener) OnNodeDeleted(ctx context.Context, n *content.Node) []string {
	return l.invalidate(ctx, "deleted", n)
}

func (l *Listener) invalidate(ctx context.Context, reason string, n *content.Node) []string {
	if n == nil || len(n.Path) == 0 {
		l.logger.Debug(ctx, "ignoring mutation without a usable path", observe.F("mutation", reason))
		return nil
	}
	mutated := n.Path
	removed := l.evicter.Evict(ctx, func(key string) bool {
		return Affects(key, mutated)
	})
	l.metrics.RecordEvictions(ctx, len(removed))
	if len(removed) > 0 {
		l.logger.Debug(ctx, "evicted templates fragments",
			observe.F("mutation", reason),
			observe.F("node.path", mutated.String()),
			observe.F("evicted", removed))
	}
	return removed
}

// Affects reports whether a cache key (a full path) is invalidated by a
// mutation at mutated: the key names mutated or one of its ancestors.
func Affects(key string, mutated content.Path) bool {
	return mutated.HasPrefix(content.ParsePath(key))
}

// Registration is an active subscription of a Listener to an event source.
type Registration struct {
	source events.Source
	ids    []string
	once   sync.Once
}

// Register subscribes l to node-created, node-deleting and node-deleted
// events on src. A delete evicts twice: before removal, and again once the
// subtree is gone so that a fragment computed in between is not kept.
// Close the returned Registration to unsubscribe.
func (l *Listener) Register(src events.Source) *Registration {
	r := &Registration{source: src}
	r.ids = append(r.ids,
		src.Subscribe(func(ctx context.Context, e events.Event) {
			l.OnNodeCreated(ctx, e.Node)
		}, events.TypeNodeCreated),
		src.Subscribe(func(ctx context.Context, e events.Event) {
			l.OnNodeDeleted(ctx, e.Node)
		}, events.TypeNodeDeleting, events.TypeNodeDeleted),
	)
	return r
}

// Close unsubscribes. It is safe to call more than once.
func (r *Registration) Close() error {
	r.once.Do(func() {
		for _, id := range r.ids {
			r.source.Unsubscribe(id)
		}
	})
	return nil
}
