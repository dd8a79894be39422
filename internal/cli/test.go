package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/marginalia/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Golden string // directory holding <name>.golden trace files
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test [paths...]",
		Short: "Run annotation scenarios",
		Long: `Run scenario files against the annotation engine.

Each scenario runs in a fresh in-memory journal. A scenario passes when its
expect block holds, journal replay reproduces every recorded state hash,
and (with --golden) its trace matches the golden file.

Paths may be files or directories. Without paths, harness.scenarios from
the config is used.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  marginalia test ./scenarios
  marginalia test ./scenarios --filter "edit_*"
  marginalia test ./scenarios --golden ./golden --update
  marginalia test ./scenarios --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Golden, "golden", "", "directory of golden trace files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files (requires --golden)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the file name")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	if len(paths) == 0 && opts.Config != nil {
		paths = []string{opts.Config.Harness.Scenarios}
	}
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, "no scenario paths given")
	}
	if opts.Update && opts.Golden == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	files, err := harness.FindScenarios(paths...)
	if err != nil {
		var notFound *harness.ScenarioNotFoundError
		if errors.As(err, &notFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("scenarios not found: %s", notFound.Path))
		}
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	files, err = filterScenarios(files, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid filter pattern", err)
	}

	var checks []harness.Check
	if opts.Golden != "" {
		checks = append(checks, goldenCheck(opts.Golden, opts.Update))
	}
	opts.logger().Debug("running scenarios", "count", len(files), "golden", opts.Golden)
	result := harness.RunSuite(files, checks...)

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// filterScenarios keeps files whose base name without extension matches
// the glob pattern.
func filterScenarios(files []string, pattern string) ([]string, error) {
	if pattern == "" {
		return files, nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}
	var kept []string
	for _, f := range files {
		base := filepath.Base(f)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if ok, _ := filepath.Match(pattern, name); ok {
			kept = append(kept, f)
		}
	}
	return kept, nil
}

// goldenFilePath returns the golden file for a scenario name.
func goldenFilePath(dir, name string) string {
	return filepath.Join(dir, name+".golden")
}

// goldenCheck compares a passing run's trace with dir/<name>.golden, or
// rewrites the file when update is set. A missing golden file fails the
// scenario unless updating.
func goldenCheck(dir string, update bool) harness.Check {
	return func(_ string, scenario *harness.Scenario, result *harness.Result) error {
		current, err := harness.TraceJSON(scenario.Name, result)
		if err != nil {
			return fmt.Errorf("failed to marshal trace: %w", err)
		}

		path := goldenFilePath(dir, scenario.Name)
		if update {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create golden directory: %w", err)
			}
			if err := os.WriteFile(path, current, 0644); err != nil {
				return fmt.Errorf("failed to write golden file: %w", err)
			}
			return nil
		}

		golden, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read golden file: %w", err)
		}
		if !bytes.Equal(golden, current) {
			return fmt.Errorf("trace does not match golden file %s (run with --update to regenerate)", path)
		}
		return nil
	}
}

// outputTestJSON outputs the suite result as JSON.
func outputTestJSON(cmd *cobra.Command, result harness.SuiteResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTest,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs one line per scenario and a summary.
func outputTestText(cmd *cobra.Command, result harness.SuiteResult) error {
	w := cmd.OutOrStdout()

	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	for _, s := range result.Scenarios {
		name := s.Name
		if name == "" {
			name = filepath.Base(s.Path)
		}
		if s.Pass {
			fmt.Fprintf(w, "✓ %s\n", name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", strings.TrimRight(e, "\n"))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
