package fragment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/sitetokens/cache"
	"github.com/jonwraymond/sitetokens/content"
	"github.com/jonwraymond/sitetokens/observe"
)

// Default configuration values.
const (
	DefaultGlobalTemplatesRoot = "/sitecore/templates"
	DefaultTemplateName        = "Template"
	DefaultSettingsField       = "Templates"
)

// Config controls where a Builder looks for templates.
type Config struct {
	// GlobalTemplatesRoot is the root used by the fallback fragment.
	GlobalTemplatesRoot string

	// TemplateName is the template name that marks a node as a template
	// definition.
	TemplateName string

	// SettingsField is the settings node field holding the tenant templates
	// root identifier.
	SettingsField string
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		GlobalTemplatesRoot: DefaultGlobalTemplatesRoot,
		TemplateName:        DefaultTemplateName,
		SettingsField:       DefaultSettingsField,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GlobalTemplatesRoot == "" {
		c.GlobalTemplatesRoot = d.GlobalTemplatesRoot
	}
	if c.TemplateName == "" {
		c.TemplateName = d.TemplateName
	}
	if c.SettingsField == "" {
		c.SettingsField = d.SettingsField
	}
	return c
}

// Deps are the collaborators a Builder reads the content tree through.
type Deps struct {
	Store    content.Store
	Resolver content.ContextResolver
	Ancestry content.AncestryChecker
	Loader   *cache.Loader
}

// Builder produces tenant templates fragments.
//
// Contract:
//   - Concurrency: safe for concurrent use. Misses on one root are computed
//     once; the shared Loader serializes stores against evictions.
//   - Errors: TemplatesQuery never fails. Resolution problems yield the
//     global fallback and scan failures yield the generic fragment for the
//     root; neither is cached.
type Builder struct {
	deps    Deps
	config  Config
	logger  observe.Logger
	tracer  observe.Tracer
	metrics observe.Metrics
}

// Option configures a Builder.
type Option func(*Builder)

// WithConfig overrides the default configuration. Empty fields keep their
// defaults.
func WithConfig(c Config) Option {
	return func(b *Builder) { b.config = c.withDefaults() }
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(b *Builder) { b.logger = observe.OrNop(l) }
}

// WithTracer sets the tracer used for scan spans.
func WithTracer(t observe.Tracer) Option {
	return func(b *Builder) {
		if t != nil {
			b.tracer = t
		}
	}
}

// WithMetrics sets the metrics sink for lookups and scans.
func WithMetrics(m observe.Metrics) Option {
	return func(b *Builder) {
		if m != nil {
			b.metrics = m
		}
	}
}

// NewBuilder creates a Builder. Every field of deps is required.
func NewBuilder(deps Deps, opts ...Option) (*Builder, error) {
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrNilDependency)
	case deps.Resolver == nil:
		return nil, fmt.Errorf("%w: context resolver", ErrNilDependency)
	case deps.Ancestry == nil:
		return nil, fmt.Errorf("%w: ancestry checker", ErrNilDependency)
	case deps.Loader == nil:
		return nil, fmt.Errorf("%w: loader", ErrNilDependency)
	}
	b := &Builder{
		deps:    deps,
		config:  DefaultConfig(),
		logger:  observe.NopLogger(),
		tracer:  observe.NewTracer(nil),
		metrics: observe.NopMetrics(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Config returns the effective configuration.
func (b *Builder) Config() Config { return b.config }

// DefaultQuery returns the global fallback fragment.
func (b *Builder) DefaultQuery() string {
	return Query(b.config.GlobalTemplatesRoot, TemplateNamePredicate(b.config.TemplateName))
}

// TemplatesQuery returns the templates fragment for the tenant owning n.
func (b *Builder) TemplatesQuery(ctx context.Context, n *content.Node) string {
	root, err := b.TemplatesRoot(ctx, n)
	if errors.Is(err, ErrNilNode) {
		b.logger.Debug(ctx, "no context node, using global fallback")
		return b.DefaultQuery()
	}
	if err != nil {
		b.logger.Info(ctx, "tenant templates root unresolved, using global fallback",
			observe.F("context.path", n.FullPath()), observe.Err(err))
		return b.DefaultQuery()
	}

	key := root.FullPath()
	q, hit, err := b.deps.Loader.Load(ctx, key, func(ctx context.Context) (string, error) {
		return b.Build(ctx, root)
	})
	b.metrics.RecordLookup(ctx, hit)
	if err != nil {
		b.logger.Warn(ctx, "templates scan failed, using generic fragment",
			observe.F("templates.root", key), observe.Err(err))
		return Query(key, TemplateNamePredicate(b.config.TemplateName))
	}
	return q
}

// TemplatesRoot resolves the tenant templates root for n. Errors wrap one of
// ErrNilNode, ErrNoSettings, ErrNoTemplatesRoot, ErrInvalidTemplatesRoot or
// ErrTemplatesRootNotFound, or carry a store failure.
func (b *Builder) TemplatesRoot(ctx context.Context, n *content.Node) (*content.Node, error) {
	if n == nil {
		return nil, ErrNilNode
	}
	settings, err := b.deps.Resolver.SettingsNode(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("fragment: resolve settings for %s: %w", n.FullPath(), err)
	}
	ts, err := ParseTenantSettings(settings, b.config.SettingsField)
	if err != nil {
		return nil, err
	}
	root, err := b.deps.Store.Item(ctx, n.Database, ts.TemplatesRoot)
	if errors.Is(err, content.ErrNotFound) || (err == nil && root == nil) {
		return nil, fmt.Errorf("%w: %s", ErrTemplatesRootNotFound, ts.TemplatesRoot)
	}
	if err != nil {
		return nil, fmt.Errorf("fragment: load templates root %s: %w", ts.TemplatesRoot, err)
	}
	return root, nil
}

// Build scans root without consulting the cache and returns its fragment.
func (b *Builder) Build(ctx context.Context, root *content.Node) (string, error) {
	if root == nil {
		return "", ErrNilNode
	}
	op := observe.Operation{
		Component: "fragment",
		Name:      "scan",
		Attrs:     []attribute.KeyValue{attribute.String("templates.root", root.FullPath())},
	}
	ctx, span := b.tracer.StartSpan(ctx, op)
	start := time.Now()

	ids, err := b.PageTemplates(ctx, root)

	b.tracer.EndSpan(span, err)
	b.metrics.RecordScan(ctx, time.Since(start), len(ids), err)
	if err != nil {
		return "", err
	}

	predicate := IDPredicate(ids)
	if predicate == "" {
		predicate = TemplateNamePredicate(b.config.TemplateName)
	}
	b.logger.Debug(ctx, "templates scanned",
		observe.F("templates.root", root.FullPath()), observe.F("templates.count", len(ids)))
	return Query(root.FullPath(), predicate), nil
}

// PageTemplates returns the IDs of root's descendant template definitions
// that inherit from Page, in store order.
func (b *Builder) PageTemplates(ctx context.Context, root *content.Node) ([]string, error) {
	nodes, err := b.deps.Store.Descendants(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("fragment: descendants of %s: %w", root.FullPath(), err)
	}
	var ids []string
	for _, n := range nodes {
		if n == nil || n.TemplateName != b.config.TemplateName {
			continue
		}
		ok, err := b.deps.Ancestry.DescendsFromPage(ctx, n.ID, n.Database)
		if err != nil {
			return nil, fmt.Errorf("fragment: ancestry of %s: %w", n.ID, err)
		}
		if ok {
			ids = append(ids, n.ID.String())
		}
	}
	return ids, nil
}
