package content

import "errors"

// Sentinel errors for content operations.
var (
	ErrNotFound      = errors.New("content: node not found")
	ErrInvalidID     = errors.New("content: invalid node identifier")
	ErrInvalidPath   = errors.New("content: invalid path")
	ErrDuplicateNode = errors.New("content: node already exists")
	ErrNoParent      = errors.New("content: parent node does not exist")
	ErrNilNode       = errors.New("content: node is nil")
)
