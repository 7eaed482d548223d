package content

import (
	"context"
	"errors"
	"strings"
)

// AncestorResolverConfig names the templates and child nodes that make up a
// multisite hierarchy.
type AncestorResolverConfig struct {
	// TenantTemplate is the template name of tenant roots. Default: "Tenant".
	TenantTemplate string

	// SiteTemplate is the template name of site roots. Default: "Site".
	SiteTemplate string

	// SettingsName is the name of the settings child of a site.
	// Default: "Settings".
	SettingsName string

	// MediaName is the name of the media child of a site. Default: "Media".
	MediaName string

	// HomeName is the name of the start item child of a site. Default: "Home".
	HomeName string
}

// AncestorResolver resolves multisite nodes by walking up from the context
// node: the tenant and site are the nearest ancestors (or self) with the
// configured templates, and settings, media and home are named children of
// the site.
//
// It implements ContextResolver and StartPathResolver.
type AncestorResolver struct {
	store  Store
	config AncestorResolverConfig
}

// NewAncestorResolver creates a resolver over store, applying defaults to
// empty config fields.
func NewAncestorResolver(store Store, config AncestorResolverConfig) *AncestorResolver {
	if config.TenantTemplate == "" {
		config.TenantTemplate = "Tenant"
	}
	if config.SiteTemplate == "" {
		config.SiteTemplate = "Site"
	}
	if config.SettingsName == "" {
		config.SettingsName = "Settings"
	}
	if config.MediaName == "" {
		config.MediaName = "Media"
	}
	if config.HomeName == "" {
		config.HomeName = "Home"
	}
	return &AncestorResolver{store: store, config: config}
}

// TenantNode returns the nearest tenant ancestor of n.
func (r *AncestorResolver) TenantNode(ctx context.Context, n *Node) (*Node, error) {
	return r.nearest(ctx, n, r.config.TenantTemplate)
}

// SiteNode returns the nearest site ancestor of n.
func (r *AncestorResolver) SiteNode(ctx context.Context, n *Node) (*Node, error) {
	return r.nearest(ctx, n, r.config.SiteTemplate)
}

// SiteMediaNode returns the media child of n's site.
func (r *AncestorResolver) SiteMediaNode(ctx context.Context, n *Node) (*Node, error) {
	return r.siteChild(ctx, n, r.config.MediaName)
}

// SettingsNode returns the settings child of n's site.
func (r *AncestorResolver) SettingsNode(ctx context.Context, n *Node) (*Node, error) {
	return r.siteChild(ctx, n, r.config.SettingsName)
}

// StartPath returns the full path of the home child of n's site, or "" when
// the site or its home node does not exist.
func (r *AncestorResolver) StartPath(ctx context.Context, n *Node) (string, error) {
	home, err := r.siteChild(ctx, n, r.config.HomeName)
	if err != nil || home == nil {
		return "", err
	}
	return home.FullPath(), nil
}

func (r *AncestorResolver) nearest(ctx context.Context, n *Node, template string) (*Node, error) {
	if n == nil {
		return nil, nil
	}
	for p := n.Path; !p.IsRoot(); p = p.Parent() {
		candidate, err := r.store.ItemByPath(ctx, n.Database, p)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(candidate.TemplateName, template) {
			return candidate, nil
		}
	}
	return nil, nil
}

func (r *AncestorResolver) siteChild(ctx context.Context, n *Node, name string) (*Node, error) {
	site, err := r.SiteNode(ctx, n)
	if err != nil || site == nil {
		return nil, err
	}
	child, err := r.store.ItemByPath(ctx, site.Database, site.Path.Child(name))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return child, nil
}

var (
	_ ContextResolver   = (*AncestorResolver)(nil)
	_ StartPathResolver = (*AncestorResolver)(nil)
)
