package harness

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/store"
	"github.com/roach88/marginalia/internal/textdoc"
)

func ptr[T any](v T) *T { return &v }

func TestRun_Passes(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/edit_and_sync.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 6)
	kinds := make([]engine.ActionKind, len(result.Trace))
	for i, e := range result.Trace {
		kinds[i] = e.Kind
		assert.Equal(t, int64(i+1), e.Seq)
		assert.Len(t, e.StateHash, 64)
	}
	assert.Equal(t, []engine.ActionKind{
		engine.KindNewComment,
		engine.KindTransform,
		engine.KindTransform,
		engine.KindDeleteComment,
		engine.KindReceive,
		engine.KindNewComment,
	}, kinds)
	assert.Equal(t, "> The brown fox", result.Doc.String())
	assert.Equal(t, engine.StateHash(result.State), result.Trace[5].StateHash)
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_expectations",
		Description: "every expectation is off",
		Doc:         "hello world",
		Steps:       []Step{{NewComment: &CommentSpec{ID: "h", From: 0, To: 5, Text: "hi"}}},
		Expect: Expect{
			Version:    ptr(int64(9)),
			Doc:        ptr("goodbye"),
			Comments:   &[]CommentSpec{},
			Unsent:     &[]EventSpec{{Kind: "delete", ID: "h"}},
			CommentsAt: []CommentsAtSpec{{Pos: 1, IDs: []string{"zzz"}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	for i, field := range []string{"version", "doc", "comments", "unsent", "comments_at[0]"} {
		assert.True(t, strings.HasPrefix(result.Errors[i], "expect."+field+" failed"), "error %d: %s", i, result.Errors[i])
	}
}

func TestRun_BadEditIsAnError(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_edit",
		Description: "delete past the end",
		Doc:         "abc",
		Steps:       []Step{{Edit: []textdoc.StepSpec{{Delete: &textdoc.Delete{From: 0, To: 10}}}}},
	}

	_, err := Run(scenario)
	require.ErrorIs(t, err, textdoc.ErrOutOfBounds)
	assert.Contains(t, err.Error(), "steps[0]")
}

func TestRun_InvertedNewCommentIsIgnored(t *testing.T) {
	scenario := &Scenario{
		Name:        "inverted",
		Description: "inverted local create",
		Doc:         "abcdef",
		Steps:       []Step{{NewComment: &CommentSpec{ID: "x", From: 4, To: 1, Text: "bad"}}},
		Expect: Expect{
			Comments: &[]CommentSpec{},
			Unsent:   &[]EventSpec{},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 1, "the action is still journaled")
}

func TestRunIn_KeepsJournal(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer st.Close()

	scenario, err := LoadScenario("testdata/scenarios/acknowledged_create.yaml")
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	result, err := RunIn(ctx, st, "custom-id", scenario, logger)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, logs.String(), "session=custom-id")

	actions, err := st.ReadActions(ctx, "custom-id")
	require.NoError(t, err)
	require.Len(t, actions, len(result.Trace))
	for i, a := range actions {
		assert.Equal(t, result.Trace[i].StateHash, a.StateHash)
	}

	_, err = st.ReadSession(ctx, scenario.Name)
	assert.ErrorIs(t, err, store.ErrNotFound, "only the given session id is written")
}
