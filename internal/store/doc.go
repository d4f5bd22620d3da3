// Package store provides SQLite-backed durable storage for instruments
// and versioned clauses.
//
// The clause table is an append-only version history:
//   - created: first sighting of a clause key inserts version 1
//   - superseded: a content change closes the old row and inserts
//     version+1 in the same transaction
//   - retired: a key absent from the latest parse is closed with no
//     successor
//
// Non-current rows are history and are never deleted. Exactly one
// current row exists per (instrument, clause key), enforced by a
// partial unique index.
//
// All writes for one instrument's sync go through ApplyClauseBatch,
// which commits the whole diff or none of it.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
