package store

import (
	"context"
	"fmt"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/textdoc"
)

// Mismatch is a journal entry whose recorded state hash differs from the
// hash replay produced.
type Mismatch struct {
	Seq      int64
	Kind     engine.ActionKind
	Recorded string
	Replayed string
}

// ReplayResult is the outcome of folding a journal.
type ReplayResult struct {
	SessionID  string
	State      engine.State
	Doc        textdoc.Doc
	Actions    int
	LastSeq    int64
	Mismatches []Mismatch
}

// Deterministic reports whether every recorded hash was reproduced.
func (r ReplayResult) Deterministic() bool {
	return len(r.Mismatches) == 0
}

// ReplaySession rebuilds a session's state by folding its journal from the
// initial load, checking the state hash after every action.
//
// Transforms are replayed by applying their edit to the replayed document.
// An edit that no longer applies is a corrupt journal and fails the replay.
func (s *Store) ReplaySession(ctx context.Context, id string) (ReplayResult, error) {
	rec, err := s.ReadSession(ctx, id)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	records, err := s.ReadActions(ctx, id)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}

	doc := textdoc.New(rec.Doc)
	state := engine.Init(rec.Load, doc)
	result := ReplayResult{SessionID: id}

	for _, r := range records {
		a, err := DecodeAction(r.Kind, []byte(r.Payload))
		if err != nil {
			return result, fmt.Errorf("replay seq %d: %w", r.Seq, err)
		}

		if tr, ok := a.(engine.Transform); ok {
			e := tr.Mapping.(textdoc.Edit)
			next, err := e.Apply(doc)
			if err != nil {
				return result, fmt.Errorf("replay seq %d: %w", r.Seq, err)
			}
			doc = next
			a = engine.Transform{Mapping: e, Doc: doc}
		}

		state = engine.Transition(state, a, doc)
		if h := engine.StateHash(state); h != r.StateHash {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Seq:      r.Seq,
				Kind:     r.Kind,
				Recorded: r.StateHash,
				Replayed: h,
			})
		}
		result.Actions++
		result.LastSeq = r.Seq
	}

	result.State = state
	result.Doc = doc
	return result, nil
}
