package fragment

import "errors"

// Sentinel errors for fragment operations.
var (
	// ErrNilNode indicates a nil context node.
	ErrNilNode = errors.New("fragment: context node is nil")

	// ErrNoSettings indicates the context node has no site settings node.
	ErrNoSettings = errors.New("fragment: no settings node")

	// ErrNoTemplatesRoot indicates the settings node does not configure a
	// templates root.
	ErrNoTemplatesRoot = errors.New("fragment: templates root not configured")

	// ErrInvalidTemplatesRoot indicates the configured templates root is not
	// a valid node identifier.
	ErrInvalidTemplatesRoot = errors.New("fragment: templates root is not a valid identifier")

	// ErrTemplatesRootNotFound indicates the configured templates root does
	// not exist in the context node's database.
	ErrTemplatesRootNotFound = errors.New("fragment: templates root not found")

	// ErrNilDependency indicates a required collaborator was not supplied.
	ErrNilDependency = errors.New("fragment: nil dependency")
)
