package harness

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ScenarioNotFoundError is returned when a scenario path doesn't exist.
type ScenarioNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario path %q does not exist", e.Path)
}

// scenarioExts are the file extensions FindScenarios picks up.
var scenarioExts = []string{".yaml", ".yml", ".cue"}

// FindScenarios expands paths into scenario files. Directories are walked
// recursively; files are taken as given. The result is sorted so suites
// run in the same order everywhere.
func FindScenarios(paths ...string) ([]string, error) {
	var found []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			return nil, &ScenarioNotFoundError{Path: p}
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			found = append(found, p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && slices.Contains(scenarioExts, strings.ToLower(filepath.Ext(path))) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}
	slices.Sort(found)
	return slices.Compact(found), nil
}

// Check is an extra verification run after a scenario passes its own
// expectations, e.g. a golden trace comparison.
type Check func(path string, scenario *Scenario, result *Result) error

// SuiteResult summarizes a batch of scenario runs.
type SuiteResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Total     int              `json:"total"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
}

// ScenarioResult is the outcome of one scenario file. Name is empty when
// the file could not be loaded.
type ScenarioResult struct {
	Name   string   `json:"name,omitempty"`
	Path   string   `json:"path"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// Failures returns the failed scenarios in run order.
func (r SuiteResult) Failures() []ScenarioResult {
	var failed []ScenarioResult
	for _, s := range r.Scenarios {
		if !s.Pass {
			failed = append(failed, s)
		}
	}
	return failed
}

// RunSuite loads and runs every scenario file, then applies checks to the
// ones that passed. A file that fails to load or run counts as a failure;
// the suite keeps going.
func RunSuite(paths []string, checks ...Check) SuiteResult {
	res := SuiteResult{Scenarios: make([]ScenarioResult, 0, len(paths))}
	for _, path := range paths {
		res.add(runOne(path, checks))
	}
	return res
}

func runOne(path string, checks []Check) ScenarioResult {
	scenario, err := LoadScenario(path)
	if err != nil {
		return ScenarioResult{Path: path, Errors: []string{err.Error()}}
	}
	out := ScenarioResult{Name: scenario.Name, Path: path}

	result, err := Run(scenario)
	if err != nil {
		out.Errors = []string{err.Error()}
		return out
	}
	if !result.Pass {
		out.Errors = result.Errors
		return out
	}
	for _, check := range checks {
		if err := check(path, scenario, result); err != nil {
			out.Errors = append(out.Errors, err.Error())
		}
	}
	out.Pass = len(out.Errors) == 0
	return out
}

func (r *SuiteResult) add(s ScenarioResult) {
	r.Total++
	if s.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
	r.Scenarios = append(r.Scenarios, s)
}
