// Package events delivers content tree mutation notifications to explicitly
// registered handlers.
//
// A Bus is created by the host, handed to the store as its
// content.MutationPublisher, and subscribed to by consumers such as the
// fragment cache invalidation listener. Subscriptions are identified by an
// ID and live until Unsubscribe is called.
//
// Delivery is synchronous: Publish returns after every matching handler has
// run, so a handler's side effects are visible to the publisher's next
// operation. A panicking handler is recovered and logged; it does not stop
// delivery to other handlers.
package events
