package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/textdoc"
)

// EncodeAction converts an action to its journal payload.
//
// Transforms are recorded as the textdoc steps of their edit; a Transform
// whose mapping is not a textdoc.Edit cannot be replayed and is rejected.
// Ignored actions keep their name as the kind and carry an empty payload.
func EncodeAction(a engine.Action) (engine.ActionKind, ir.IRObject, error) {
	switch act := a.(type) {
	case engine.Transform:
		if act.Mapping == nil {
			return engine.KindTransform, ir.IRObject{"steps": ir.IRArray{}}, nil
		}
		e, ok := act.Mapping.(textdoc.Edit)
		if !ok {
			return "", nil, fmt.Errorf("encode transform: mapping %T is not a textdoc.Edit", act.Mapping)
		}
		return engine.KindTransform, ir.IRObject{"steps": e.Canonical()}, nil

	case engine.NewComment:
		return engine.KindNewComment, ir.IRObject{
			"from": ir.IRInt(act.From),
			"to":   ir.IRInt(act.To),
			"id":   ir.IRString(act.Comment.ID),
			"text": ir.IRString(act.Comment.Text),
		}, nil

	case engine.DeleteComment:
		return engine.KindDeleteComment, ir.IRObject{"id": ir.IRString(act.ID)}, nil

	case engine.Receive:
		events := make(ir.IRArray, len(act.Batch.Events))
		for i, ev := range act.Batch.Events {
			events[i] = ev.Canonical()
		}
		return engine.KindReceive, ir.IRObject{
			"version":   ir.IRInt(act.Batch.Version),
			"events":    events,
			"sentCount": ir.IRInt(act.Batch.SentCount),
		}, nil

	case engine.Ignored:
		return engine.ActionKind(act.Name), ir.IRObject{}, nil

	default:
		return "", nil, fmt.Errorf("encode action: unsupported type %T", a)
	}
}

// DecodeAction parses a journal payload back into an action.
//
// A decoded Transform carries its textdoc.Edit but no snapshot: the caller
// applies the edit to its own document and sets Doc. Unknown kinds decode
// to engine.Ignored.
func DecodeAction(kind engine.ActionKind, payload []byte) (engine.Action, error) {
	switch kind {
	case engine.KindTransform:
		var p struct {
			Steps json.RawMessage `json:"steps"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		steps, err := textdoc.ParseSteps(p.Steps)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return engine.Transform{Mapping: textdoc.NewEdit(steps...)}, nil

	case engine.KindNewComment:
		var p struct {
			From int          `json:"from"`
			To   int          `json:"to"`
			ID   ir.CommentID `json:"id"`
			Text string       `json:"text"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return engine.NewComment{From: p.From, To: p.To, Comment: ir.Comment{ID: p.ID, Text: p.Text}}, nil

	case engine.KindDeleteComment:
		var p struct {
			ID ir.CommentID `json:"id"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return engine.DeleteComment{ID: p.ID}, nil

	case engine.KindReceive:
		var b ir.Batch
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return engine.Receive{Batch: b}, nil

	default:
		return engine.Ignored{Name: string(kind)}, nil
	}
}

// marshalComments converts initial-load comments to canonical JSON TEXT.
func marshalComments(comments []ir.CommentSpan) (string, error) {
	arr := make(ir.IRArray, len(comments))
	for i, c := range comments {
		arr[i] = ir.IRObject{
			"id":   ir.IRString(c.ID),
			"from": ir.IRInt(c.From),
			"to":   ir.IRInt(c.To),
			"text": ir.IRString(c.Text),
		}
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal comments: %w", err)
	}
	return string(data), nil
}

func unmarshalComments(data string) ([]ir.CommentSpan, error) {
	var comments []ir.CommentSpan
	if data == "" || data == "[]" {
		return comments, nil
	}
	if err := json.Unmarshal([]byte(data), &comments); err != nil {
		return nil, fmt.Errorf("unmarshal comments: %w", err)
	}
	return comments, nil
}
