package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/marginalia/internal/engine"
)

// SessionSummary is one row of ListSessions.
type SessionSummary struct {
	ID      string
	Seq     int64
	Actions int
	Kinds   map[engine.ActionKind]int
}

// ReadSession returns the session's starting point.
// Returns ErrNotFound if the session does not exist.
func (s *Store) ReadSession(ctx context.Context, id string) (SessionRecord, error) {
	var (
		rec      SessionRecord
		comments string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, doc, version, comments, seq, engine_version, ir_version
		FROM sessions
		WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Doc, &rec.Load.Version, &comments, &rec.Seq, &rec.EngineVersion, &rec.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("read session %s: %w", id, err)
	}

	rec.Load.Comments, err = unmarshalComments(comments)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return rec, nil
}

// ReadActions returns the session's journal ordered by seq.
// Returns an empty slice (not nil) if nothing was recorded.
func (s *Store) ReadActions(ctx context.Context, sessionID string) ([]ActionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, kind, payload, state_hash
		FROM actions
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	records := []ActionRecord{}
	for rows.Next() {
		var (
			rec  ActionRecord
			kind string
		)
		if err := rows.Scan(&rec.SessionID, &rec.Seq, &kind, &rec.Payload, &rec.StateHash); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		rec.Kind = engine.ActionKind(kind)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return records, nil
}

// ListSessions summarizes every journaled session ordered by id.
func (s *Store) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.seq, a.kind, COUNT(a.id)
		FROM sessions s
		LEFT JOIN actions a ON a.session_id = s.id
		GROUP BY s.id, a.kind
		ORDER BY s.id COLLATE BINARY ASC, a.kind COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	summaries := []SessionSummary{}
	for rows.Next() {
		var (
			id    string
			seq   int64
			kind  sql.NullString
			count int
		)
		if err := rows.Scan(&id, &seq, &kind, &count); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if len(summaries) == 0 || summaries[len(summaries)-1].ID != id {
			summaries = append(summaries, SessionSummary{ID: id, Seq: seq, Kinds: map[engine.ActionKind]int{}})
		}
		if kind.Valid {
			cur := &summaries[len(summaries)-1]
			cur.Kinds[engine.ActionKind(kind.String)] = count
			cur.Actions += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return summaries, nil
}
