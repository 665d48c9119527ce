package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sqlir/internal/dialect"
)

// Scenario defines a compilation scenario: a sequence of queries compiled
// for several dialects, with expectations on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dialects lists the registered dialects every step is compiled for.
	Dialects []string `yaml:"dialects"`

	// Parameters compiles with placeholders instead of inline literals.
	Parameters bool `yaml:"parameters,omitempty"`

	// Execute runs the SQLite output against an in-memory database.
	// Requires sqlite in Dialects.
	Execute bool `yaml:"execute,omitempty"`

	// Steps are the queries, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the outputs and the final database state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one query of a scenario.
type Step struct {
	// Name identifies the step in outputs and assertions. Defaults to
	// "step N", 1-based.
	Name string `yaml:"name,omitempty"`

	// Query is the candidate query tree.
	Query map[string]any `yaml:"query"`

	// Expect maps a dialect name to its expected outcome. Dialects not
	// listed must compile.
	Expect map[string]Expectation `yaml:"expect,omitempty"`
}

// Expectation is the expected outcome of a step for one dialect.
type Expectation struct {
	// Error is the expected error code, such as E252. Empty expects
	// success.
	Error string `yaml:"error,omitempty"`

	// Contains lists substrings the compiled text must contain.
	Contains []string `yaml:"contains,omitempty"`
}

// Assertion validates outputs or final database state.
type Assertion struct {
	// Type is output_contains, row_count or final_state.
	Type string `yaml:"type"`

	// Step and Dialect select the output (used by output_contains).
	Step    string `yaml:"step,omitempty"`
	Dialect string `yaml:"dialect,omitempty"`

	// Text is the expected substring (used by output_contains).
	Text string `yaml:"text,omitempty"`

	// Table is the queried table (used by row_count and final_state).
	Table string `yaml:"table,omitempty"`

	// Where selects rows by column equality.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values (used by final_state).
	// Subset match: only listed columns are compared.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of rows (used by row_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains = "output_contains"
	AssertRowCount       = "row_count"
	AssertFinalState     = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range scenario.Steps {
		if scenario.Steps[i].Name == "" {
			scenario.Steps[i].Name = fmt.Sprintf("step %d", i+1)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file of dir, sorted by file
// name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Dialects) == 0 {
		return fmt.Errorf("dialects list is required and must be non-empty")
	}
	for _, name := range s.Dialects {
		if _, err := dialect.Lookup(name); err != nil {
			return err
		}
	}
	if s.Execute && !slices.Contains(s.Dialects, dialect.SQLite.Name) {
		return fmt.Errorf("execute requires the %s dialect", dialect.SQLite.Name)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Steps))
	for i, step := range s.Steps {
		if names[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate step name %q", i, step.Name)
		}
		names[step.Name] = true
		if step.Query == nil {
			return fmt.Errorf("steps[%d]: query is required", i)
		}
		for d := range step.Expect {
			if !slices.Contains(s.Dialects, d) {
				return fmt.Errorf("steps[%d].expect: dialect %q is not in the dialects list", i, d)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, s, names); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, s *Scenario, steps map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOutputContains:
		if !steps[a.Step] {
			return fmt.Errorf("assertions[%d]: unknown step %q", index, a.Step)
		}
		if !slices.Contains(s.Dialects, a.Dialect) {
			return fmt.Errorf("assertions[%d]: dialect %q is not in the dialects list", index, a.Dialect)
		}
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for output_contains", index)
		}
	case AssertRowCount, AssertFinalState:
		if !s.Execute {
			return fmt.Errorf("assertions[%d]: %s requires execute", index, a.Type)
		}
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for %s", index, a.Type)
		}
		if a.Type == AssertRowCount && a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
		if a.Type == AssertFinalState && len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
