// Package handler implements HTTP request handlers for the relgraph API.
//
// # API Design
//
// All handlers follow REST conventions:
// - GET for retrieval
// - POST for creation
// - PUT for updates and idempotent links
// - DELETE for removal
//
// Every mutation responds after the relationship graph has refreshed, so a
// following GET /api/snapshot already reflects it.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201, 204).
// Error responses return JSON with {error, details} structure. Missing
// records map to 404 and rejected input to 400.
//
// # Server-Sent Events
//
// The /events endpoint is served by the hub package; the serve command relays
// graph events to it.
package handler
