package store

import (
	"context"
	"fmt"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
)

// Journal records one session's actions. It satisfies session.Journal.
type Journal struct {
	store     *Store
	sessionID string
}

// Journal returns the journal for sessionID. The session must have been
// created with CreateSession.
func (s *Store) Journal(sessionID string) *Journal {
	return &Journal{store: s, sessionID: sessionID}
}

// Record encodes a and appends it at seq.
func (j *Journal) Record(ctx context.Context, seq int64, a engine.Action, stateHash string) error {
	kind, payload, err := EncodeAction(a)
	if err != nil {
		return fmt.Errorf("record seq %d: %w", seq, err)
	}
	data, err := ir.MarshalCanonical(payload)
	if err != nil {
		return fmt.Errorf("record seq %d: %w", seq, err)
	}

	_, err = j.store.AppendAction(ctx, ActionRecord{
		SessionID: j.sessionID,
		Seq:       seq,
		Kind:      kind,
		Payload:   string(data),
		StateHash: stateHash,
	})
	return err
}
