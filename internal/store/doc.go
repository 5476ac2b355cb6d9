// Package store owns the single SQLite session behind relgraph.
//
// A Store is constructed explicitly with Open and passed to the repository
// layer; there is no process-wide instance. It exposes:
//   - Open: create or load the database, apply pragmas and schema
//   - Update: run a write transaction and commit it
//   - View: run a read-only transaction for consistent multi-table reads
//   - Close: release the connection
//
// # Database Configuration
//
//   - WAL journal mode
//   - foreign_keys=ON so relationship edges follow deletes
//   - busy_timeout=5000
//   - a single pooled connection, since the store has one owner and an
//     in-memory database exists per connection
//
// # Schema
//
// Three record tables (businesses, departments, employees) and one join
// table (business_departments) holding each undirected edge once. Employee
// references use ON DELETE SET NULL; join rows use ON DELETE CASCADE.
package store
