package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/textdoc"
	"github.com/roach88/marginalia/internal/tracker"
)

func encodeJSON(t *testing.T, a engine.Action) (engine.ActionKind, string) {
	t.Helper()
	kind, payload, err := EncodeAction(a)
	require.NoError(t, err)
	data, err := ir.MarshalCanonical(payload)
	require.NoError(t, err)
	return kind, string(data)
}

func TestEncodeAction_Payloads(t *testing.T) {
	tests := []struct {
		name     string
		action   engine.Action
		wantKind engine.ActionKind
		wantJSON string
	}{
		{
			name:     "new comment",
			action:   engine.NewComment{From: 1, To: 4, Comment: ir.Comment{ID: "c-1", Text: "look"}},
			wantKind: engine.KindNewComment,
			wantJSON: `{"from":1,"id":"c-1","text":"look","to":4}`,
		},
		{
			name:     "delete comment",
			action:   engine.DeleteComment{ID: "c-1"},
			wantKind: engine.KindDeleteComment,
			wantJSON: `{"id":"c-1"}`,
		},
		{
			name: "receive",
			action: engine.Receive{Batch: ir.Batch{
				Version:   7,
				Events:    []ir.Event{ir.CreateEvent("a", 0, 2, "x"), ir.DeleteEvent("b")},
				SentCount: 1,
			}},
			wantKind: engine.KindReceive,
			wantJSON: `{"events":[{"from":0,"id":"a","kind":"create","text":"x","to":2},{"id":"b","kind":"delete"}],"sentCount":1,"version":7}`,
		},
		{
			name: "transform",
			action: engine.Transform{Mapping: textdoc.NewEdit(
				textdoc.Insert{Pos: 2, Text: "ab"},
				textdoc.Delete{From: 0, To: 1},
			)},
			wantKind: engine.KindTransform,
			wantJSON: `{"steps":[{"insert":{"pos":2,"text":"ab"}},{"delete":{"from":0,"to":1}}]}`,
		},
		{
			name:     "ignored",
			action:   engine.Ignored{Name: "cursorMoved"},
			wantKind: "cursorMoved",
			wantJSON: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, data := encodeJSON(t, tt.action)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantJSON, data)
		})
	}
}

func TestDecodeAction_InvertsEncode(t *testing.T) {
	actions := []engine.Action{
		engine.NewComment{From: 1, To: 4, Comment: ir.Comment{ID: "c-1", Text: "look"}},
		engine.DeleteComment{ID: "c-1"},
		engine.Receive{Batch: ir.Batch{Version: 7, Events: []ir.Event{ir.CreateEvent("a", 0, 2, "x"), ir.DeleteEvent("b")}, SentCount: 1}},
		engine.Transform{Mapping: textdoc.NewEdit(textdoc.Insert{Pos: 2, Text: "ab"}, textdoc.Delete{From: 0, To: 1})},
		engine.Ignored{Name: "cursorMoved"},
	}

	for _, a := range actions {
		kind, data := encodeJSON(t, a)
		got, err := DecodeAction(kind, []byte(data))
		require.NoError(t, err, "kind %s", kind)
		assert.Equal(t, a, got, "kind %s", kind)
	}
}

func TestDecodeAction_IntegerIDs(t *testing.T) {
	got, err := DecodeAction(engine.KindDeleteComment, []byte(`{"id":3735928559}`))
	require.NoError(t, err)
	assert.Equal(t, engine.DeleteComment{ID: "3735928559"}, got)
}

func TestDecodeAction_Malformed(t *testing.T) {
	for _, kind := range []engine.ActionKind{engine.KindNewComment, engine.KindDeleteComment, engine.KindReceive, engine.KindTransform} {
		_, err := DecodeAction(kind, []byte(`{"broken"`))
		assert.Error(t, err, "kind %s", kind)
	}

	_, err := DecodeAction(engine.KindTransform, []byte(`{"steps":[{}]}`))
	assert.Error(t, err, "step with neither insert nor delete")
}

type shift int

func (s shift) Map(pos int, _ tracker.Assoc) int { return pos + int(s) }

func TestEncodeAction_ForeignMapping(t *testing.T) {
	_, _, err := EncodeAction(engine.Transform{Mapping: shift(2)})
	assert.Error(t, err)

	kind, payload, err := EncodeAction(engine.Transform{})
	require.NoError(t, err)
	assert.Equal(t, engine.KindTransform, kind)
	assert.Equal(t, ir.IRObject{"steps": ir.IRArray{}}, payload)
}
