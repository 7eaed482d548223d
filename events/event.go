package events

import (
	"time"

	"github.com/jonwraymond/sitetokens/content"
)

// Type identifies the kind of mutation.
type Type string

const (
	// TypeNodeCreated is published after a node becomes visible in the store.
	TypeNodeCreated Type = "node.created"

	// TypeNodeDeleting is published before a node and its subtree are removed.
	TypeNodeDeleting Type = "node.deleting"

	// TypeNodeDeleted is published after a node and its subtree are removed.
	TypeNodeDeleted Type = "node.deleted"
)

// Event is a single mutation notification.
//
// Node may be nil when the publisher could not supply one; handlers must
// treat that as a no-op.
type Event struct {
	ID        string
	Type      Type
	Node      *content.Node
	Timestamp time.Time
}
