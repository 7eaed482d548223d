// Package content models the hierarchical content tree that token
// resolution reads from.
//
// It defines the Node, ID and Path types, the collaborator contracts the rest
// of the module consumes (Store, ContextResolver, StartPathResolver,
// AncestryChecker), and in-memory reference implementations of each that are
// used by tests and the sitetokens CLI:
//
//   - MemoryStore: a thread-safe tree that publishes mutation events.
//   - AncestorResolver: walks a node's ancestors to find tenant and site.
//   - LoadFixture: builds a MemoryStore from a YAML description.
package content
