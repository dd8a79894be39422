package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{
			name:     "create carries span and text",
			event:    CreateEvent("7", 0, 4, "hi"),
			expected: `{"kind":"create","id":"7","from":0,"to":4,"text":"hi"}`,
		},
		{
			name:     "delete carries only id",
			event:    Event{Kind: EventDelete, ID: "7", From: 3, To: 9, Text: "ignored"},
			expected: `{"kind":"delete","id":"7"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestEventMarshalUnknownKind(t *testing.T) {
	_, err := json.Marshal(Event{Kind: "rename", ID: "1"})
	assert.Error(t, err)
}

func TestEventUnmarshalJSON(t *testing.T) {
	var e Event
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"create","id":"a","from":2,"to":5,"text":"x"}`), &e))
	assert.Equal(t, CreateEvent("a", 2, 5, "x"), e)

	require.NoError(t, json.Unmarshal([]byte(`{"kind":"delete","id":"a","from":2}`), &e))
	assert.Equal(t, DeleteEvent("a"), e, "delete drops span fields")
}

func TestEventUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown kind", `{"kind":"move","id":"a"}`},
		{"missing kind", `{"id":"a"}`},
		{"create without span", `{"kind":"create","id":"a","text":"x"}`},
		{"create without to", `{"kind":"create","id":"a","from":1,"text":"x"}`},
		{"not an object", `[1,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Event
			assert.Error(t, json.Unmarshal([]byte(tt.input), &e))
		})
	}
}

func TestCommentIDAcceptsIntegers(t *testing.T) {
	var c CommentSpan
	require.NoError(t, json.Unmarshal([]byte(`{"id":3735928559,"from":1,"to":2,"text":"t"}`), &c))
	assert.Equal(t, CommentID("3735928559"), c.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"abc","from":1,"to":2,"text":"t"}`), &c))
	assert.Equal(t, CommentID("abc"), c.ID)

	var id CommentID
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &id))
}

func TestBatchWireFormat(t *testing.T) {
	input := `{"version":4,"events":[{"kind":"delete","id":"x"}],"sentCount":2}`

	var b Batch
	require.NoError(t, json.Unmarshal([]byte(input), &b))
	assert.Equal(t, int64(4), b.Version)
	assert.Equal(t, 2, b.SentCount)
	assert.Equal(t, []Event{DeleteEvent("x")}, b.Events)
}

func TestInitialLoadWireFormat(t *testing.T) {
	input := `{"version":9,"comments":[{"id":"c1","from":1,"to":3,"text":"note"}]}`

	var load InitialLoad
	require.NoError(t, json.Unmarshal([]byte(input), &load))
	assert.Equal(t, int64(9), load.Version)
	require.Len(t, load.Comments, 1)
	assert.Equal(t, Comment{ID: "c1", Text: "note"}, load.Comments[0].Comment())
}

func TestEventCanonical(t *testing.T) {
	data, err := MarshalCanonical(CreateEvent("7", 0, 4, "hi").Canonical())
	require.NoError(t, err)
	assert.Equal(t, `{"from":0,"id":"7","kind":"create","text":"hi","to":4}`, string(data))

	data, err = MarshalCanonical(DeleteEvent("7").Canonical())
	require.NoError(t, err)
	assert.Equal(t, `{"id":"7","kind":"delete"}`, string(data))
}
