// Package service implements the relationship graph that sits between the
// presentation layer (HTTP handlers, CLI) and the repository.
//
// # RelationshipGraph
//
// RelationshipGraph caches a Snapshot of every business, department and
// employee, sorted by name. Each mutation runs the same cycle:
//
//  1. the snapshot is cleared and marked pending
//  2. the change is written and committed in one transaction
//  3. all three collections are re-fetched in one read transaction
//
// Step 3 runs even when step 2 fails, so the snapshot never stays pending.
// A pending snapshot has no records but reports State == pending, which lets
// consumers tell a loading view from an empty store.
//
// # Event System
//
// The graph publishes events via EventBus for real-time updates to connected
// clients via Server-Sent Events (SSE): snapshot_pending and
// snapshot_refreshed around every refresh, then one domain event such as
// business_created once a mutation has committed.
package service
