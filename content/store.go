package content

import "context"

// Store provides read access to the content tree.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: a missing node is reported as ErrNotFound (possibly wrapped).
// - Ownership: returned nodes must not be mutated by callers.
type Store interface {
	// Item returns the node with the given ID in database.
	Item(ctx context.Context, database string, id ID) (*Node, error)

	// ItemByPath returns the node at path in database.
	ItemByPath(ctx context.Context, database string, path Path) (*Node, error)

	// Descendants returns every node below n, excluding n itself.
	// Order is implementation-defined.
	Descendants(ctx context.Context, n *Node) ([]*Node, error)
}

// ContextResolver locates the multisite nodes that own a context node.
//
// Contract:
// - A (nil, nil) return means the node has no such owner. Errors are
//   reserved for store failures.
type ContextResolver interface {
	TenantNode(ctx context.Context, n *Node) (*Node, error)
	SiteNode(ctx context.Context, n *Node) (*Node, error)
	SiteMediaNode(ctx context.Context, n *Node) (*Node, error)
	SettingsNode(ctx context.Context, n *Node) (*Node, error)
}

// StartPathResolver returns the start (home) path of the site owning n.
// An empty string means no start path is configured.
type StartPathResolver interface {
	StartPath(ctx context.Context, n *Node) (string, error)
}

// AncestryChecker answers template inheritance questions.
//
// DescendsFromPage must be a pure function of (templateID, database): it
// reports whether the template transitively inherits from the well-known
// Page template. A template does not descend from itself.
type AncestryChecker interface {
	DescendsFromPage(ctx context.Context, templateID ID, database string) (bool, error)
}

// MutationPublisher receives tree mutation notifications from a store.
// events.Bus implements it.
type MutationPublisher interface {
	PublishCreated(ctx context.Context, n *Node)
	PublishDeleting(ctx context.Context, n *Node)

	// PublishDeleted is called after n and its subtree are gone.
	PublishDeleted(ctx context.Context, n *Node)
}
