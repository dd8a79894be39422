package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: add_and_ack
description: "a local comment is acknowledged by the authority"
doc: "hello world"
version: 1
steps:
  - new_comment: { id: h, from: 0, to: 5, text: "greeting" }
  - receive:
      version: 2
      sent_count: 1
      events:
        - { kind: create, id: h, from: 0, to: 5, text: "greeting" }
expect:
  version: 2
  comments:
    - { id: h, from: 0, to: 5, text: "greeting" }
  unsent: []
`

const failingScenario = `
name: wrong_version
description: "expects a version the batch never sets"
doc: "hello"
steps:
  - delete_comment: { id: a }
expect:
  version: 7
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// recordSession records the passing scenario into db as session id.
func recordSession(t *testing.T, db, id string) {
	t.Helper()
	path := writeFile(t, t.TempDir(), "add_and_ack.yaml", passingScenario)
	_, err := execute(NewRecordCommand(&RootOptions{Format: "text"}), path, "--db", db, "--session", id)
	require.NoError(t, err)
}
