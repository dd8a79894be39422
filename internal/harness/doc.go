// Package harness runs annotation scenarios against a real session.
//
// A scenario starts a session from an initial load, drives it through
// local comments, document edits and authority batches, and checks the
// final state. Every run is journaled to an in-memory store and replayed,
// so a scenario also proves that its journal reproduces the same state.
//
// # Scenario Format
//
// Scenarios are YAML (unknown fields rejected) or CUE:
//
//	name: acknowledged_create
//	description: "Local create echoed back by the authority"
//	doc: "some text"
//	version: 0
//	comments:
//	  - { id: w, from: 5, to: 9, text: "noun" }
//	steps:
//	  - new_comment: { id: "7", from: 0, to: 4, text: "hi" }
//	  - edit:
//	      - insert: { pos: 0, text: "> " }
//	  - receive:
//	      version: 1
//	      sent_count: 1
//	      events:
//	        - { kind: create, id: "7", from: 0, to: 4, text: "hi" }
//	  - delete_comment: { id: w }
//	expect:
//	  version: 1
//	  doc: "> some text"
//	  comments:
//	    - { id: "7", from: 2, to: 6, text: "hi" }
//	  unsent:
//	    - { kind: delete, id: w }
//	  comments_at:
//	    - { pos: 3, ids: ["7"] }
//
// Every expect field is optional. comments and unsent are exact matches
// when present; comments_at checks the identifiers found at a position.
//
// # Deterministic Testing
//
// Runs use a fresh in-memory SQLite journal and the session's logical
// clock, so the same scenario always produces a byte-identical trace for
// golden file comparison.
package harness
