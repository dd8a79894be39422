package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceCommandRequiresSession(t *testing.T) {
	_, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", filepath.Join(t.TempDir(), "x.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "session" not set`)
}

func TestTraceCommandUnknownSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	recordSession(t, db, "s1")

	_, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", db, "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "session not found")
}

func TestTraceCommandText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	recordSession(t, db, "s1")

	out, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", db, "--session", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "Session: s1")
	assert.Contains(t, out, `[1] newComment`)
	assert.Contains(t, out, `{"from":0,"id":"h","text":"greeting","to":5}`)
	assert.Contains(t, out, `[2] receive`)
	assert.Contains(t, out, "Final: version 2, 1 comment(s)")
	assert.Contains(t, out, `doc: "hello world"`)
	assert.Contains(t, out, `h [0, 5] "greeting"`)
	assert.Contains(t, out, "Stats: 2 action(s), newComment=1, receive=1")
}

func TestTraceCommandKindFilterJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	recordSession(t, db, "s1")

	out, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", db, "--session", "s1", "--kind", "receive")
	require.NoError(t, err)

	var resp struct {
		Status    string      `json:"status"`
		SessionID string      `json:"session_id"`
		Data      TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "s1", resp.SessionID)

	require.Len(t, resp.Data.Timeline, 1)
	entry := resp.Data.Timeline[0]
	assert.Equal(t, int64(2), entry.Seq)
	assert.Equal(t, "receive", entry.Kind)
	assert.JSONEq(t, `{"events":[{"from":0,"id":"h","kind":"create","text":"greeting","to":5}],"sentCount":1,"version":2}`, string(entry.Payload))

	assert.Equal(t, 2, resp.Data.Stats.TotalActions, "stats count the whole journal")
	assert.Equal(t, map[string]int{"newComment": 1, "receive": 1}, resp.Data.Stats.Kinds)
	assert.Equal(t, int64(2), resp.Data.Final.Version)
	assert.Empty(t, resp.Data.Final.Unsent)
}
