package harness

import (
	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/textdoc"
)

// TraceEntry is one applied action as recorded in the journal.
type TraceEntry struct {
	Seq       int64             `json:"seq"`
	Kind      engine.ActionKind `json:"kind"`
	Payload   ir.IRObject       `json:"payload"`
	StateHash string            `json:"state_hash"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation held and replay reproduced every
	// recorded state hash.
	Pass bool `json:"pass"`

	// Trace holds every applied action in seq order.
	Trace []TraceEntry `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State and Doc are the final session state and document.
	State engine.State `json:"-"`
	Doc   textdoc.Doc  `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEntry{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a journal entry to the trace.
func (r *Result) AddTrace(seq int64, kind engine.ActionKind, payload ir.IRObject, stateHash string) {
	r.Trace = append(r.Trace, TraceEntry{
		Seq:       seq,
		Kind:      kind,
		Payload:   payload,
		StateHash: stateHash,
	})
}
