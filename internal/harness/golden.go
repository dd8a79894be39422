package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
)

// TraceJSON renders a run as canonical JSON: the scenario name, every
// journal entry, and the final state with its document text.
func TraceJSON(name string, result *Result) ([]byte, error) {
	trace := make(ir.IRArray, len(result.Trace))
	for i, entry := range result.Trace {
		trace[i] = ir.IRObject{
			"seq":        ir.IRInt(entry.Seq),
			"kind":       ir.IRString(entry.Kind),
			"payload":    entry.Payload,
			"state_hash": ir.IRString(entry.StateHash),
		}
	}

	final := engine.Canonical(result.State)
	final["doc"] = ir.IRString(result.Doc.String())
	final["state_hash"] = ir.IRString(engine.StateHash(result.State))

	return ir.MarshalCanonical(ir.IRObject{
		"scenario": ir.IRString(name),
		"trace":    trace,
		"final":    final,
	})
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot run. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	traceJSON, err := TraceJSON(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}
