// Package session owns the annotation state of one open document.
//
// A Session holds the current engine.State and document snapshot and is the
// only place they change. Actions from the editor, the command layer and
// the transport are queued with Enqueue and applied in FIFO order by a
// single writer, either the Run loop or an explicit Step.
//
// Thread-safety model:
//   - Enqueue, Edit, Sync, State, Doc: safe from any goroutine
//   - Run and Step: one writer at a time
//
// The session never talks to the network itself. Sync hands the current
// request to a Transport supplied by the host and queues whatever batch
// comes back.
package session
