// Package engine implements the clause synchronization engine: it
// diffs freshly parsed clauses against the persisted current set for
// one instrument and applies the resulting creates, version bumps and
// retirements as a single atomic batch.
//
// Failure semantics: a retrieval or parse failure aborts the sync for
// that instrument with zero state mutation. Concurrent syncs of the
// same instrument are serialized by a per-instrument lock; distinct
// instruments sync independently.
package engine
