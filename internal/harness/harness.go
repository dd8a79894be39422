package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/session"
	"github.com/roach88/marginalia/internal/store"
	"github.com/roach88/marginalia/internal/textdoc"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory journal for isolation, under a
// session named after the scenario.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	return RunIn(context.Background(), st, scenario.Name, scenario, nil)
}

// RunIn executes a scenario as session sessionID journaled to st. A nil
// logger discards session logs.
//
// Execution flow:
//  1. Create the journal session and the live session from the initial load
//  2. Apply each step, draining the session queue after every step
//  3. Replay the journal and compare every state hash
//  4. Evaluate the expect block against the final state
//
// A returned error means the scenario itself could not run (bad edit, store
// failure). Expectation and replay failures are reported in Result.Errors.
func RunIn(ctx context.Context, st *store.Store, sessionID string, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	load := scenario.load()
	if err := st.CreateSession(ctx, store.SessionRecord{ID: sessionID, Doc: scenario.Doc, Load: load}); err != nil {
		return nil, err
	}

	result := NewResult()
	journal := &tracingJournal{next: st.Journal(sessionID), result: result}
	sess := session.New(sessionID, load, textdoc.New(scenario.Doc),
		session.WithJournal(journal),
		session.WithLogger(logger),
	)

	for i, step := range scenario.Steps {
		if err := applyStep(sess, step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		sess.Step(ctx)
		if journal.err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, journal.err)
		}
	}

	result.State = sess.State()
	result.Doc = sess.Doc()

	if err := checkReplay(ctx, st, sessionID, result); err != nil {
		return nil, err
	}
	for _, msg := range EvaluateExpect(scenario.Expect, result.State, result.Doc) {
		result.AddError(msg)
	}
	return result, nil
}

func (s *Scenario) load() ir.InitialLoad {
	comments := make([]ir.CommentSpan, len(s.Comments))
	for i, c := range s.Comments {
		comments[i] = c.Span()
	}
	return ir.InitialLoad{Version: s.Version, Comments: comments}
}

func applyStep(sess *session.Session, step Step) error {
	switch {
	case step.NewComment != nil:
		c := step.NewComment
		sess.Enqueue(engine.NewComment{From: c.From, To: c.To, Comment: ir.Comment{ID: ir.CommentID(c.ID), Text: c.Text}})
	case step.DeleteComment != nil:
		sess.Enqueue(engine.DeleteComment{ID: ir.CommentID(step.DeleteComment.ID)})
	case step.Edit != nil:
		steps, err := textdoc.StepsFromSpecs(step.Edit)
		if err != nil {
			return err
		}
		if _, err := sess.Edit(textdoc.NewEdit(steps...)); err != nil {
			return err
		}
	case step.Receive != nil:
		sess.Enqueue(engine.Receive{Batch: step.Receive.Batch()})
	default:
		return fmt.Errorf("empty step")
	}
	return nil
}

// checkReplay folds the journal again and records any divergence.
func checkReplay(ctx context.Context, st *store.Store, id string, result *Result) error {
	rep, err := st.ReplaySession(ctx, id)
	if err != nil {
		return err
	}
	for _, m := range rep.Mismatches {
		result.AddError(fmt.Sprintf("replay diverged at seq %d (%s): recorded %s, replayed %s",
			m.Seq, m.Kind, m.Recorded, m.Replayed))
	}
	if got, want := engine.StateHash(rep.State), engine.StateHash(result.State); got != want {
		result.AddError(fmt.Sprintf("replayed final state %s differs from live state %s", got, want))
	}
	if rep.Doc.String() != result.Doc.String() {
		result.AddError(fmt.Sprintf("replayed document %q differs from live document %q", rep.Doc.String(), result.Doc.String()))
	}
	return nil
}

// tracingJournal appends every recorded action to the result trace before
// writing it to the store.
type tracingJournal struct {
	next   *store.Journal
	result *Result
	err    error
}

func (j *tracingJournal) Record(ctx context.Context, seq int64, a engine.Action, stateHash string) error {
	kind, payload, err := store.EncodeAction(a)
	if err != nil {
		j.err = err
		return err
	}
	j.result.AddTrace(seq, kind, payload, stateHash)
	if err := j.next.Record(ctx, seq, a, stateHash); err != nil {
		j.err = err
		return err
	}
	return nil
}
