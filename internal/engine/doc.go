// Package engine implements the annotation state machine.
//
// A State holds the authority version it last saw, a tracker of live
// comment spans, and the FIFO queue of local actions the authority has not
// acknowledged yet. Transition folds one Action into a State and returns a
// new State. It is pure and total:
//
//   - no I/O, no logging, no clocks, no randomness
//   - it never fails; stale references and malformed inputs are no-ops
//   - the input State is never modified, so callers may keep old values
//
// Action flow:
//
//	UI intent      -> NewComment / DeleteComment -> optimistic apply + queue
//	document edit  -> Transform                  -> remap every span
//	authority      -> Receive                    -> merge log, trim queue
//
// Ordering contract: every Transform for an edit must be applied before any
// later position-dependent action. Events inside one Receive are applied in
// order. The unsent queue is trimmed by the number of this client's actions
// the authority incorporated, never by the batch's event count.
//
// # Idempotent merge
//
// Merge is keyed by comment identifier, not by position:
//
//	create(id) when id is live   -> skip (our optimistic create already made it)
//	delete(id) when id is absent -> skip (our optimistic delete already ran)
//
// The same batch can therefore be merged after the local optimistic actions
// without duplicating or losing comments.
package engine
