// Package domain defines the core record types for relgraph.
//
// This package contains the three entity kinds the application manages and
// the value types that describe their relationships.
//
// # Core Types
//
// Business owns a many-to-many set of departments and a one-to-many set of
// employees.
//
// Department mirrors Business: a many-to-many set of businesses and a
// one-to-many set of employees.
//
// Employee carries scalar fields (name, age, date joined) and at most one
// business and one department reference.
//
// Link is the undirected Business<->Department edge. It is stored once and
// read from either endpoint.
//
// # Snapshots
//
// Snapshot is the read-only copy of all three collections that the
// relationship graph publishes to the presentation layer. It carries a State
// so a consumer can tell a pending refresh apart from an empty store.
//
// # Errors
//
// StorageInitError, FetchError, CommitError and NotFoundError form the error
// taxonomy shared by the store, repository and service layers.
//
// # Design Principles
//
// - No database or external dependencies
// - Identities are opaque strings assigned at creation
// - Names are display and sort keys only, never unique
package domain
