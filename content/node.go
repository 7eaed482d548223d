package content

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID is an opaque node identifier.
//
// Identifiers produced by a store are used verbatim. Identifiers read from
// configuration should go through ParseID so malformed values surface as
// ErrInvalidID instead of a failed lookup.
type ID string

// String returns the identifier as stored.
func (id ID) String() string { return string(id) }

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// ParseID validates s as a GUID node identifier and returns it in canonical
// braced upper-case form, e.g. {7F1D5C2A-0E4B-4C8E-9B51-3A0F7E1D2C44}.
// Braced, bare and urn:uuid: forms are accepted.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidID)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID("{" + strings.ToUpper(u.String()) + "}"), nil
}

// Path is the ordered list of segment names from the store root to a node.
// The empty path is the store root.
type Path []string

// ParsePath splits a full path such as /sitecore/templates/Tenant1 into
// segments. Empty segments produced by repeated or trailing slashes are
// dropped.
func ParsePath(s string) Path {
	parts := strings.Split(s, "/")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		p = append(p, part)
	}
	return p
}

// String renders the canonical full path. The root renders as "/".
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	return "/" + strings.Join(p, "/")
}

// IsRoot reports whether p is the store root.
func (p Path) IsRoot() bool { return len(p) == 0 }

// HasPrefix reports whether prefix is p itself or one of its ancestors.
// Segments are compared case-insensitively, matching how the content tree
// resolves paths. The comparison is by whole segment, so /a/b is not a
// prefix of /a/b1.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, seg := range prefix {
		if !strings.EqualFold(seg, p[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether p and other name the same node.
func (p Path) Equal(other Path) bool {
	return len(p) == len(other) && p.HasPrefix(other)
}

// Parent returns the parent path. The root is its own parent.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}

// Child returns a new path with name appended.
func (p Path) Child(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Name returns the last segment, or "" for the root.
func (p Path) Name() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Node is an entity in the content tree.
//
// Nodes are owned by their store. Callers treat them as read-only snapshots.
type Node struct {
	ID            ID
	Path          Path
	TemplateName  string
	TemplateID    ID
	Database      string
	Fields        map[string]string
	BaseTemplates []ID
}

// Name returns the node's own segment name.
func (n *Node) Name() string {
	if n == nil {
		return ""
	}
	return n.Path.Name()
}

// FullPath returns the canonical full path, or "" for a nil node.
func (n *Node) FullPath() string {
	if n == nil {
		return ""
	}
	return n.Path.String()
}

// Field returns a field value, or "" when the field is not set.
func (n *Node) Field(name string) string {
	if n == nil || n.Fields == nil {
		return ""
	}
	return n.Fields[name]
}

// clone returns a deep copy so store internals never leak to callers.
func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Path = append(Path(nil), n.Path...)
	out.BaseTemplates = append([]ID(nil), n.BaseTemplates...)
	if n.Fields != nil {
		out.Fields = make(map[string]string, len(n.Fields))
		for k, v := range n.Fields {
			out.Fields[k] = v
		}
	}
	return &out
}
