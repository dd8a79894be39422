package harness

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScenarios(t *testing.T) {
	paths, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "acknowledged_create.yaml"),
		filepath.Join("testdata", "scenarios", "delete_missing.yaml"),
		filepath.Join("testdata", "scenarios", "edit_and_sync.yaml"),
		filepath.Join("testdata", "scenarios", "in_batch_ordering.cue"),
		filepath.Join("testdata", "scenarios", "point_anchor.yaml"),
	}, paths)
}

func TestFindScenarios_FilesAndDedup(t *testing.T) {
	file := filepath.Join("testdata", "scenarios", "point_anchor.yaml")
	paths, err := FindScenarios(file, file)
	require.NoError(t, err)
	assert.Equal(t, []string{file}, paths)
}

func TestFindScenarios_Missing(t *testing.T) {
	_, err := FindScenarios("testdata/none")
	var notFound *ScenarioNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "testdata/none", notFound.Path)
}

func TestRunSuite(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	broken := filepath.Join(dir, "broken.yaml")

	require.NoError(t, os.WriteFile(good, []byte(`
name: good
description: "passes"
doc: "abc"
steps:
  - delete_comment: { id: a }
expect:
  unsent:
    - { kind: delete, id: a }
`), 0644))
	require.NoError(t, os.WriteFile(bad, []byte(`
name: bad
description: "wrong version"
doc: "abc"
steps:
  - delete_comment: { id: a }
expect:
  version: 3
`), 0644))
	require.NoError(t, os.WriteFile(broken, []byte("name: [\n"), 0644))

	paths, err := FindScenarios(dir)
	require.NoError(t, err)

	res := RunSuite(paths)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Passed)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Scenarios, 3)
	assert.True(t, res.Scenarios[2].Pass)
	assert.Equal(t, "good", res.Scenarios[2].Name)

	failures := res.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "bad", failures[0].Name)
	assert.Contains(t, failures[0].Errors[0], "expect.version failed")
	assert.Equal(t, broken, failures[1].Path)
	assert.Empty(t, failures[1].Name)
}

func TestRunSuite_Checks(t *testing.T) {
	paths, err := FindScenarios("testdata/scenarios/point_anchor.yaml", "testdata/scenarios/delete_missing.yaml")
	require.NoError(t, err)

	var seen []string
	check := func(path string, scenario *Scenario, result *Result) error {
		seen = append(seen, scenario.Name)
		if scenario.Name == "point_anchor" {
			return errors.New("trace does not match golden file")
		}
		return nil
	}

	res := RunSuite(paths, check)
	assert.Equal(t, []string{"delete_missing", "point_anchor"}, seen)
	assert.Equal(t, 1, res.Passed)
	require.Len(t, res.Failures(), 1)
	assert.Equal(t, []string{"trace does not match golden file"}, res.Failures()[0].Errors)
}
