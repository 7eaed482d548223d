package tokens

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/sitetokens/content"
	"github.com/jonwraymond/sitetokens/observe"
)

// Token names.
const (
	Tenant    = "$tenant"
	SiteMedia = "$siteMedia"
	Site      = "$site"
	Home      = "$home"
	Templates = "$templates"
)

// Order lists the tokens in the order they are resolved.
var Order = []string{Tenant, SiteMedia, Site, Home, Templates}

// Sentinel errors for token resolution.
var (
	ErrNilArgs       = errors.New("tokens: args are nil")
	ErrNilDependency = errors.New("tokens: nil dependency")
)

// Args carries a query through token processors. Processors rewrite Query
// in place.
type Args struct {
	Query        string
	ContextNode  *content.Node
	EscapeSpaces bool
}

// Processor rewrites Args.Query.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use on
//   distinct Args.
// - Errors: an error aborts the pipeline; unresolved tokens are not errors.
type Processor interface {
	Process(ctx context.Context, args *Args) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, args *Args) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, args *Args) error {
	return f(ctx, args)
}

// TemplatesQuerier returns the templates fragment for a context node.
// fragment.Builder implements it.
type TemplatesQuerier interface {
	TemplatesQuery(ctx context.Context, n *content.Node) string
}

// Deps are the collaborators a Resolver resolves tokens through.
type Deps struct {
	Context   content.ContextResolver
	StartPath content.StartPathResolver
	Templates TemplatesQuerier
}

// Resolver substitutes the multisite tokens.
type Resolver struct {
	deps   Deps
	logger observe.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used to report unresolved tokens.
func WithLogger(l observe.Logger) Option {
	return func(r *Resolver) { r.logger = observe.OrNop(l) }
}

// NewResolver creates a Resolver. Every field of deps is required.
func NewResolver(deps Deps, opts ...Option) (*Resolver, error) {
	switch {
	case deps.Context == nil:
		return nil, fmt.Errorf("%w: context resolver", ErrNilDependency)
	case deps.StartPath == nil:
		return nil, fmt.Errorf("%w: start path resolver", ErrNilDependency)
	case deps.Templates == nil:
		return nil, fmt.Errorf("%w: templates querier", ErrNilDependency)
	}
	r := &Resolver{deps: deps, logger: observe.NopLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

var _ Processor = (*Resolver)(nil)

// Process substitutes every supported token present in args.Query.
func (r *Resolver) Process(ctx context.Context, args *Args) error {
	if args == nil {
		return ErrNilArgs
	}
	q := args.Query
	n := args.ContextNode

	q = r.replacePath(ctx, q, Tenant, n, args.EscapeSpaces, r.deps.Context.TenantNode)
	q = r.replacePath(ctx, q, SiteMedia, n, args.EscapeSpaces, r.deps.Context.SiteMediaNode)
	q = r.replacePath(ctx, q, Site, n, args.EscapeSpaces, r.deps.Context.SiteNode)
	q = r.replaceValue(ctx, q, Home, n, func() (string, error) {
		if n == nil {
			return "", nil
		}
		p, err := r.deps.StartPath.StartPath(ctx, n)
		if err != nil || p == "" {
			return "", err
		}
		if args.EscapeSpaces {
			p = EscapePath(p)
		}
		return p, nil
	})
	q = r.replaceValue(ctx, q, Templates, n, func() (string, error) {
		return r.deps.Templates.TemplatesQuery(ctx, n), nil
	})

	args.Query = q
	return nil
}

// ResolveTokens substitutes every supported token in query for node.
func (r *Resolver) ResolveTokens(ctx context.Context, query string, node *content.Node, escapeSpaces bool) string {
	args := &Args{Query: query, ContextNode: node, EscapeSpaces: escapeSpaces}
	_ = r.Process(ctx, args)
	return args.Query
}

type nodeLookup func(ctx context.Context, n *content.Node) (*content.Node, error)

func (r *Resolver) replacePath(ctx context.Context, q, tok string, n *content.Node, escape bool, lookup nodeLookup) string {
	return r.replaceValue(ctx, q, tok, n, func() (string, error) {
		if n == nil {
			return "", nil
		}
		target, err := lookup(ctx, n)
		if err != nil || target == nil {
			return "", err
		}
		p := target.FullPath()
		if escape {
			p = EscapePath(p)
		}
		return p, nil
	})
}

// replaceValue resolves tok with resolve only when q contains it. An empty
// value or an error leaves the token in place.
func (r *Resolver) replaceValue(ctx context.Context, q, tok string, n *content.Node, resolve func() (string, error)) string {
	if !Contains(q, tok) {
		return q
	}
	v, err := resolve()
	if err != nil || v == "" {
		r.logger.Info(ctx, "token left unresolved",
			observe.F("token.name", tok),
			observe.F("context.path", n.FullPath()),
			observe.Err(err))
		return q
	}
	return Replace(q, tok, v)
}
