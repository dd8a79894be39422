// Package store provides the SQLite session journal.
//
// The journal is an append-only trace of one editing session:
//   - Sessions: the initial document text and initial load
//   - Actions: every applied action in seq order, with the hash of the
//     state it produced
//
// It exists for diagnosis and replay. It is not how state is persisted
// across sessions; a new session always starts from the authority's
// initial load.
//
// # Ordering
//
//   - All ordering uses seq INTEGER (the session's logical clock), never
//     timestamps
//   - UNIQUE(session_id, seq) with ON CONFLICT DO NOTHING makes writes
//     idempotent
//   - Every query orders by seq ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Payloads are RFC 8785 canonical JSON produced by internal/ir, so a
// journal written twice from the same session is byte-identical.
package store
