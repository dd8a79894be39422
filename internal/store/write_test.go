package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
)

func TestCreateSession_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	want := createTestSession(t, s, "s1")

	got, err := s.ReadSession(testContext(t), "s1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Doc, got.Doc)
	assert.Equal(t, want.Load, got.Load)
	assert.Equal(t, int64(0), got.Seq)
	assert.Equal(t, ir.EngineVersion, got.EngineVersion)
	assert.Equal(t, ir.RecordVersion, got.IRVersion)
}

func TestCreateSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	createTestSession(t, s, "s1")

	err := s.CreateSession(testContext(t), SessionRecord{ID: "s1", Doc: "different"})
	require.NoError(t, err)

	got, err := s.ReadSession(testContext(t), "s1")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Doc, "first write wins")
}

func TestReadSession_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSession(testContext(t), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAppendAction(t *testing.T) {
	s := createTestStore(t)
	createTestSession(t, s, "s1")

	rec := ActionRecord{SessionID: "s1", Seq: 1, Kind: engine.KindDeleteComment, Payload: `{"id":"w"}`, StateHash: "h1"}
	inserted, err := s.AppendAction(testContext(t), rec)
	require.NoError(t, err)
	assert.True(t, inserted)

	dup := rec
	dup.StateHash = "other"
	inserted, err = s.AppendAction(testContext(t), dup)
	require.NoError(t, err)
	assert.False(t, inserted, "same (session, seq) is not written twice")

	got, err := s.ReadActions(testContext(t), "s1")
	require.NoError(t, err)
	assert.Equal(t, []ActionRecord{rec}, got)

	sess, err := s.ReadSession(testContext(t), "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), sess.Seq)
}

func TestAppendAction_UnknownSession(t *testing.T) {
	s := createTestStore(t)

	_, err := s.AppendAction(testContext(t), ActionRecord{SessionID: "nope", Seq: 1, Kind: engine.KindDeleteComment, Payload: "{}", StateHash: "h"})
	assert.Error(t, err, "foreign key violation")
}

func TestReadActions_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	createTestSession(t, s, "s1")

	for _, seq := range []int64{3, 1, 2} {
		_, err := s.AppendAction(testContext(t), ActionRecord{SessionID: "s1", Seq: seq, Kind: engine.KindDeleteComment, Payload: "{}", StateHash: "h"})
		require.NoError(t, err)
	}

	got, err := s.ReadActions(testContext(t), "s1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, rec := range got {
		assert.Equal(t, int64(i+1), rec.Seq)
	}

	sess, err := s.ReadSession(testContext(t), "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), sess.Seq, "seq only moves forward")
}

func TestReadActions_Empty(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ReadActions(testContext(t), "none")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListSessions(t *testing.T) {
	s := createTestStore(t)
	createTestSession(t, s, "b")
	createTestSession(t, s, "a")

	appendKind := func(seq int64, kind engine.ActionKind) {
		_, err := s.AppendAction(testContext(t), ActionRecord{SessionID: "b", Seq: seq, Kind: kind, Payload: "{}", StateHash: "h"})
		require.NoError(t, err)
	}
	appendKind(1, engine.KindNewComment)
	appendKind(2, engine.KindNewComment)
	appendKind(3, engine.KindReceive)

	got, err := s.ListSessions(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, []SessionSummary{
		{ID: "a", Seq: 0, Actions: 0, Kinds: map[engine.ActionKind]int{}},
		{ID: "b", Seq: 3, Actions: 3, Kinds: map[engine.ActionKind]int{
			engine.KindNewComment: 2,
			engine.KindReceive:    1,
		}},
	}, got)
}
