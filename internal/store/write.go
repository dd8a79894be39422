package store

import (
	"context"
	"fmt"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
)

// SessionRecord is the starting point of a journaled session.
type SessionRecord struct {
	ID   string
	Doc  string
	Load ir.InitialLoad

	// Seq is the highest action seq recorded. Filled in by reads.
	Seq           int64
	EngineVersion string
	IRVersion     string
}

// ActionRecord is one journal entry.
type ActionRecord struct {
	SessionID string
	Seq       int64
	Kind      engine.ActionKind
	Payload   string // canonical JSON
	StateHash string
}

// CreateSession records the start of a session.
// Uses ON CONFLICT(id) DO NOTHING: recreating a session is a no-op.
func (s *Store) CreateSession(ctx context.Context, rec SessionRecord) error {
	comments, err := marshalComments(rec.Load.Comments)
	if err != nil {
		return fmt.Errorf("create session %s: %w", rec.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, doc, version, comments, seq, engine_version, ir_version)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Doc,
		rec.Load.Version,
		comments,
		ir.EngineVersion,
		ir.RecordVersion,
	)
	if err != nil {
		return fmt.Errorf("create session %s: %w", rec.ID, err)
	}
	return nil
}

// AppendAction writes one journal entry and advances the session's seq.
// Returns inserted=false when an entry with the same (session, seq) already
// exists; the existing entry is left untouched.
//
// Note: The session must exist (foreign key constraint).
func (s *Store) AppendAction(ctx context.Context, rec ActionRecord) (inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("append action: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO actions (session_id, seq, kind, payload, state_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		rec.SessionID,
		rec.Seq,
		string(rec.Kind),
		rec.Payload,
		rec.StateHash,
	)
	if err != nil {
		return false, fmt.Errorf("append action %s/%d: %w", rec.SessionID, rec.Seq, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append action: rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE sessions SET seq = MAX(seq, ?) WHERE id = ?
	`, rec.Seq, rec.SessionID); err != nil {
		return false, fmt.Errorf("append action: advance seq: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("append action: commit: %w", err)
	}
	return true, nil
}
