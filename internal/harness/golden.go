package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sqlir/internal/ir"
)

// Render formats every output of a result as commented SQL, one block
// per step and dialect in execution order:
//
//	-- <step> [<dialect>]
//	<text>
//	-- params: <canonical JSON array>
//
// Failed compilations render "-- error: <message>" instead of the text.
// Fingerprints are omitted; they follow from the text and parameters.
func Render(result *Result) ([]byte, error) {
	var buf bytes.Buffer
	for i, out := range result.Outputs {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "-- %s [%s]\n", out.Step, out.Dialect)
		if out.Error != "" {
			fmt.Fprintf(&buf, "-- error: %s\n", out.Error)
			continue
		}
		buf.WriteString(out.Text)
		buf.WriteByte('\n')
		if len(out.Parameters) > 0 {
			params, err := ir.MarshalCanonical(ir.Array(out.Parameters))
			if err != nil {
				return nil, fmt.Errorf("step %q [%s]: %w", out.Step, out.Dialect, err)
			}
			fmt.Fprintf(&buf, "-- params: %s\n", params)
		}
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its rendered output
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass.
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

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	rendered, err := Render(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, rendered)
	return nil
}
