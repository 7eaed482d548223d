package content

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory content tree for a single database.
//
// It implements Store and AncestryChecker. When a MutationPublisher is
// configured, Create publishes after the node is visible and Delete
// publishes both before the node is removed and after it is gone.
type MemoryStore struct {
	database  string
	page      ID
	publisher MutationPublisher

	mu     sync.RWMutex
	byID   map[string]*Node
	byPath map[string]*Node
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithPublisher routes mutation notifications to p.
func WithPublisher(p MutationPublisher) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.publisher = p
	}
}

// WithPageTemplate sets the ID of the well-known Page template used by
// DescendsFromPage.
func WithPageTemplate(id ID) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.page = id
	}
}

// NewMemoryStore creates an empty store for database.
func NewMemoryStore(database string, opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		database: database,
		byID:     make(map[string]*Node),
		byPath:   make(map[string]*Node),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Database returns the database name the store serves.
func (s *MemoryStore) Database() string { return s.database }

// SetPublisher replaces the mutation publisher. Passing nil disables
// notifications.
func (s *MemoryStore) SetPublisher(p MutationPublisher) {
	s.mu.Lock()
	s.publisher = p
	s.mu.Unlock()
}

// idKey maps every spelling of a GUID (braced, bare, urn:uuid:) to its
// ParseID form. Other identifiers are only upper-cased.
func idKey(id ID) string {
	if canonical, err := ParseID(string(id)); err == nil {
		return string(canonical)
	}
	return strings.ToUpper(strings.TrimSpace(string(id)))
}

func pathKey(p Path) string {
	return strings.ToLower(p.String())
}

func newID() ID {
	return ID("{" + strings.ToUpper(uuid.NewString()) + "}")
}

// ok reports whether database addresses this store. Empty means "any".
func (s *MemoryStore) ok(database string) bool {
	return database == "" || strings.EqualFold(database, s.database)
}

// Item returns the node with the given ID.
func (s *MemoryStore) Item(_ context.Context, database string, id ID) (*Node, error) {
	if !s.ok(database) {
		return nil, fmt.Errorf("%w: %s in database %q", ErrNotFound, id, database)
	}
	s.mu.RLock()
	n, found := s.byID[idKey(id)]
	s.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return n.clone(), nil
}

// ItemByPath returns the node at path.
func (s *MemoryStore) ItemByPath(_ context.Context, database string, path Path) (*Node, error) {
	if !s.ok(database) {
		return nil, fmt.Errorf("%w: %s in database %q", ErrNotFound, path, database)
	}
	s.mu.RLock()
	n, found := s.byPath[pathKey(path)]
	s.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return n.clone(), nil
}

// Descendants returns every node below n ordered by path.
func (s *MemoryStore) Descendants(_ context.Context, n *Node) ([]*Node, error) {
	if n == nil {
		return nil, ErrNilNode
	}
	s.mu.RLock()
	out := make([]*Node, 0)
	for _, candidate := range s.byPath {
		if len(candidate.Path) > len(n.Path) && candidate.Path.HasPrefix(n.Path) {
			out = append(out, candidate.clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return pathKey(out[i].Path) < pathKey(out[j].Path)
	})
	return out, nil
}

// DescendsFromPage walks the base templates of templateID breadth-first and
// reports whether the configured Page template is among them. Unknown
// templates do not descend from anything.
func (s *MemoryStore) DescendsFromPage(_ context.Context, templateID ID, database string) (bool, error) {
	if s.page.IsZero() || !s.ok(database) {
		return false, nil
	}
	target := idKey(s.page)

	s.mu.RLock()
	defer s.mu.RUnlock()

	start, found := s.byID[idKey(templateID)]
	if !found {
		return false, nil
	}
	visited := map[string]bool{idKey(templateID): true}
	queue := append([]ID(nil), start.BaseTemplates...)
	for len(queue) > 0 {
		id := idKey(queue[0])
		queue = queue[1:]
		if id == target {
			return true, nil
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		if base, ok := s.byID[id]; ok {
			queue = append(queue, base.BaseTemplates...)
		}
	}
	return false, nil
}

// Create inserts a copy of n. The parent must exist unless n sits directly
// under the root. An empty ID is replaced with a generated GUID. The stored
// node is returned.
func (s *MemoryStore) Create(ctx context.Context, n Node) (*Node, error) {
	if len(n.Path) == 0 {
		return nil, fmt.Errorf("%w: cannot create the root", ErrInvalidPath)
	}
	stored := n.clone()
	stored.Database = s.database
	if stored.ID.IsZero() {
		stored.ID = newID()
	}

	s.mu.Lock()
	if _, exists := s.byPath[pathKey(stored.Path)]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, stored.Path)
	}
	if _, exists := s.byID[idKey(stored.ID)]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: id %s", ErrDuplicateNode, stored.ID)
	}
	if parent := stored.Path.Parent(); !parent.IsRoot() {
		if _, exists := s.byPath[pathKey(parent)]; !exists {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrNoParent, parent)
		}
	}
	s.byPath[pathKey(stored.Path)] = stored
	s.byID[idKey(stored.ID)] = stored
	publisher := s.publisher
	s.mu.Unlock()

	if publisher != nil {
		publisher.PublishCreated(ctx, stored.clone())
	}
	return stored.clone(), nil
}

// Delete removes the node at path together with its subtree.
func (s *MemoryStore) Delete(ctx context.Context, path Path) error {
	s.mu.RLock()
	n, found := s.byPath[pathKey(path)]
	publisher := s.publisher
	s.mu.RUnlock()
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if publisher != nil {
		publisher.PublishDeleting(ctx, n.clone())
	}

	s.mu.Lock()
	for key, candidate := range s.byPath {
		if candidate.Path.HasPrefix(n.Path) {
			delete(s.byPath, key)
			delete(s.byID, idKey(candidate.ID))
		}
	}
	s.mu.Unlock()

	// Readers that ran between the two notifications saw the subtree.
	if publisher != nil {
		publisher.PublishDeleted(ctx, n.clone())
	}
	return nil
}

// Len returns the number of stored nodes.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPath)
}

var (
	_ Store           = (*MemoryStore)(nil)
	_ AncestryChecker = (*MemoryStore)(nil)
)
