// Package repository defines the data access interfaces for relgraph.
//
// This package provides the repository abstraction layer for persisting
// and retrieving businesses, departments and employees. The actual
// implementation is in the sqlite subpackage.
//
// # Repository Interface
//
// Repository offers typed fetch, create, link and delete operations per
// entity kind. Fetches accept a Query with a sort key and equality filters
// on name or on a relationship.
//
// # Units of Work
//
// UnitOfWork runs a function against a transaction-scoped Repository. Update
// commits when the function returns nil; View never writes. The relationship
// graph performs every mutation and every refresh through a unit of work.
//
// # Relationship Semantics
//
// - Business<->Department edges are stored once and read from either side
// - Linking is idempotent
// - Deleting a business or department detaches its edges and nulls the
//   matching reference on employees; employees are never cascade-deleted
package repository
