package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsCommandEmpty(t *testing.T) {
	out, err := execute(NewSessionsCommand(&RootOptions{Format: "text"}), "--db", filepath.Join(t.TempDir(), "j.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found in database.")
}

func TestSessionsCommandText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "j.db")
	recordSession(t, db, "b")
	recordSession(t, db, "a")

	out, err := execute(NewSessionsCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Equal(t,
		"a  seq=2 actions=2  newComment=1 receive=1\n"+
			"b  seq=2 actions=2  newComment=1 receive=1\n",
		out)
}

func TestSessionsCommandJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "j.db")
	recordSession(t, db, "a")

	out, err := execute(NewSessionsCommand(&RootOptions{Format: "json"}), "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   []SessionInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []SessionInfo{{
		ID:      "a",
		Seq:     2,
		Actions: 2,
		Kinds:   map[string]int{"newComment": 1, "receive": 1},
	}}, resp.Data)
}

func TestFormatKinds(t *testing.T) {
	assert.Equal(t, "", formatKinds(nil))
	assert.Equal(t, "deleteComment=3 transform=1", formatKinds(map[string]int{"transform": 1, "deleteComment": 3}))
}
