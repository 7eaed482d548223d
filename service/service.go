package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jonwraymond/sitetokens/cache"
	"github.com/jonwraymond/sitetokens/config"
	"github.com/jonwraymond/sitetokens/content"
	"github.com/jonwraymond/sitetokens/events"
	"github.com/jonwraymond/sitetokens/fragment"
	"github.com/jonwraymond/sitetokens/health"
	"github.com/jonwraymond/sitetokens/invalidation"
	"github.com/jonwraymond/sitetokens/observe"
	"github.com/jonwraymond/sitetokens/tokens"
)

// DefaultDatabase names the store created when no fixture is configured.
const DefaultDatabase = "master"

// StageMultisite is the name of the token resolution pipeline stage.
const StageMultisite = "multisite"

// Service owns one instance of every token resolution component.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Lifecycle: Close unsubscribes the listener and shuts down telemetry.
//     Calls after Close fail with ErrClosed.
type Service struct {
	cfg      config.Config
	obs      observe.Observer
	ownsObs  bool
	logger   observe.Logger
	bus      *events.Bus
	store    *content.MemoryStore
	resolver *content.AncestorResolver
	loader   *cache.Loader
	builder  *fragment.Builder
	listener *invalidation.Listener
	reg      *invalidation.Registration
	pipeline *tokens.Pipeline
	health   *health.Aggregator

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

type options struct {
	obs   observe.Observer
	store *content.MemoryStore
}

// Option configures New.
type Option func(*options)

// WithObserver supplies the observer instead of building one from
// cfg.Observe. The caller keeps ownership and Close does not shut it down.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) { o.obs = obs }
}

// WithStore supplies the content store instead of loading cfg.Fixture. The
// service attaches its bus to the store as publisher.
func WithStore(s *content.MemoryStore) Option {
	return func(o *options) { o.store = s }
}

// New builds a Service from cfg.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Service{cfg: cfg}
	if o.obs != nil {
		s.obs = o.obs
	} else {
		obs, err := observe.NewObserver(ctx, cfg.Observe)
		if err != nil {
			return nil, fmt.Errorf("service: observer: %w", err)
		}
		s.obs = obs
		s.ownsObs = true
	}
	s.logger = s.obs.Logger()

	if err := s.wire(ctx, o); err != nil {
		if s.ownsObs {
			_ = s.obs.Shutdown(ctx)
		}
		return nil, err
	}

	s.logger.Info(ctx, "service ready",
		observe.F("database", s.store.Database()),
		observe.F("nodes", s.store.Len()),
		observe.F("cache.shards", cfg.Cache.Shards))
	return s, nil
}

func (s *Service) wire(ctx context.Context, o options) error {
	mw, err := observe.MiddlewareFromObserver(s.obs)
	if err != nil {
		return fmt.Errorf("service: middleware: %w", err)
	}

	s.bus = events.NewBus(events.WithLogger(s.logger))

	switch {
	case o.store != nil:
		s.store = o.store
		s.store.SetPublisher(s.bus)
	case s.cfg.Fixture != "":
		s.store, err = content.LoadFixtureFile(ctx, s.cfg.Fixture,
			content.WithPublisher(s.bus),
			content.WithPageTemplate(s.cfg.PageTemplate()))
		if err != nil {
			return fmt.Errorf("service: %w", err)
		}
	default:
		s.store = content.NewMemoryStore(DefaultDatabase,
			content.WithPublisher(s.bus),
			content.WithPageTemplate(s.cfg.PageTemplate()))
	}

	s.resolver = content.NewAncestorResolver(s.store, s.cfg.Resolver())

	s.loader, err = cache.NewLoader(cache.NewShardedCache(s.cfg.Cache.Shards))
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}

	s.builder, err = fragment.NewBuilder(fragment.Deps{
		Store:    s.store,
		Resolver: s.resolver,
		Ancestry: s.store,
		Loader:   s.loader,
	},
		fragment.WithConfig(s.cfg.Fragment()),
		fragment.WithLogger(s.logger),
		fragment.WithTracer(mw.Tracer()),
		fragment.WithMetrics(mw.Metrics()),
	)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}

	s.listener, err = invalidation.NewListener(s.loader,
		invalidation.WithLogger(s.logger),
		invalidation.WithMetrics(mw.Metrics()))
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}
	s.reg = s.listener.Register(s.bus)

	resolver, err := tokens.NewResolver(tokens.Deps{
		Context:   s.resolver,
		StartPath: s.resolver,
		Templates: s.builder,
	}, tokens.WithLogger(s.logger))
	if err != nil {
		_ = s.reg.Close()
		return fmt.Errorf("service: %w", err)
	}
	s.pipeline = tokens.NewPipeline(mw, tokens.Stage{Name: StageMultisite, Processor: resolver})

	s.health = health.NewAggregator(0)
	s.health.Register(health.NewCacheChecker(s.loader, health.CacheCheckerConfig{}))
	s.health.Register(health.NewStoreChecker(s.store, s.store.Database(),
		content.ParsePath(s.cfg.Templates.GlobalRoot)))
	return nil
}

// ResolveTokens runs the token pipeline over query for node.
func (s *Service) ResolveTokens(ctx context.Context, query string, node *content.Node, escapeSpaces bool) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	return s.pipeline.ResolveTokens(ctx, query, node, escapeSpaces)
}

// ResolvePath resolves query for the node at path.
func (s *Service) ResolvePath(ctx context.Context, query, path string, escapeSpaces bool) (string, error) {
	n, err := s.Node(ctx, path)
	if err != nil {
		return "", err
	}
	return s.ResolveTokens(ctx, query, n, escapeSpaces)
}

// TemplatesQuery returns the templates fragment for the node at path.
func (s *Service) TemplatesQuery(ctx context.Context, path string) (string, error) {
	n, err := s.Node(ctx, path)
	if err != nil {
		return "", err
	}
	return s.builder.TemplatesQuery(ctx, n), nil
}

// Node loads the node at path from the service's database.
func (s *Service) Node(ctx context.Context, path string) (*content.Node, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	n, err := s.store.ItemByPath(ctx, s.store.Database(), content.ParsePath(path))
	if errors.Is(err, content.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("service: load %s: %w", path, err)
	}
	return n, nil
}

// Store returns the content store. Mutations made through it invalidate
// the fragment cache.
func (s *Service) Store() *content.MemoryStore { return s.store }

// Bus returns the event bus the store publishes to.
func (s *Service) Bus() *events.Bus { return s.bus }

// Stats returns fragment cache statistics.
func (s *Service) Stats() cache.Stats { return s.loader.Stats() }

// Health returns the health aggregator.
func (s *Service) Health() *health.Aggregator { return s.health }

// Stages returns the pipeline stage names.
func (s *Service) Stages() []string { return s.pipeline.Stages() }

// Logger returns the service logger.
func (s *Service) Logger() observe.Logger { return s.logger }

// Config returns the configuration the service was built from.
func (s *Service) Config() config.Config { return s.cfg }

// Close unsubscribes the invalidation listener and shuts down telemetry
// the service created. It is safe to call more than once.
func (s *Service) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		var errs []error
		if err := s.reg.Close(); err != nil {
			errs = append(errs, fmt.Errorf("listener: %w", err))
		}
		if s.ownsObs {
			if err := s.obs.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("observer: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
		s.logger.Info(ctx, "service closed", observe.Err(s.closeErr))
	})
	return s.closeErr
}
