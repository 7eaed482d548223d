// Package invalidation evicts cached template fragments when the content
// tree changes.
//
// A Listener receives node-created, node-deleting and node-deleted
// notifications. For a mutated path P it evicts every cached key K that
// names P itself or one of its ancestors; segment comparison is case-insensitive, so /a/b1 never
// evicts /a/b. Descendants of P are left alone.
package invalidation
