package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/sqlir/internal/dialect"
	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/query"
	"github.com/roach88/sqlir/internal/querysql"
	"github.com/roach88/sqlir/internal/testutil"
)

// Harness is the scenario execution engine. Each run gets a fresh
// database when the scenario executes its SQLite output.
type Harness struct {
	validators []*query.Validator
	compilers  []*querysql.Compiler
	dialects   []*dialect.Dialect
	db         *testutil.SQLite
	logger     *slog.Logger
}

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger sets the logger for validation, compilation and execution.
// Without it, nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Run executes a scenario and returns the result.
//
// Expectation and assertion failures are reported in the result. An
// error is returned only when the scenario cannot run at all.
//
// Execution flow:
//  1. Resolve dialects and build one validator and compiler per dialect
//  2. Validate each step and compile it for every dialect; entity names
//     are checked against each dialect's reserved words
//  3. With execute set, run the SQLite output in step order
//  4. Check step expectations, then evaluate assertions
func Run(scenario *Scenario, options ...Option) (*Result, error) {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range options {
		opt(h)
	}

	opts := []querysql.Option{querysql.WithLogger(h.logger)}
	if scenario.Parameters {
		opts = append(opts, querysql.WithParameters())
	}
	for _, name := range scenario.Dialects {
		d, err := dialect.Lookup(name)
		if err != nil {
			return nil, err
		}
		h.dialects = append(h.dialects, d)
		h.validators = append(h.validators, query.NewValidator(
			query.WithChecker(d.Checker()),
			query.WithLogger(h.logger),
		))
		h.compilers = append(h.compilers, querysql.New(d, opts...))
	}

	if scenario.Execute {
		db, err := testutil.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory database: %w", err)
		}
		defer db.Close()
		h.db = db
	}

	result := NewResult()
	for _, step := range scenario.Steps {
		h.runStep(step, result)
	}

	actx := &AssertionContext{DB: h.db}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}
	return result, nil
}

// runStep validates and compiles a step for every dialect and checks its
// expectations.
func (h *Harness) runStep(step Step, result *Result) {
	for i, d := range h.dialects {
		out := Output{Step: step.Name, Dialect: d.Name}

		stmt, err := h.validators[i].Validate(step.Query)
		if err == nil {
			var compiled querysql.CompiledStatement
			compiled, err = h.compilers[i].Compile(stmt)
			if err == nil {
				out.Text = compiled.Text
				out.Parameters = compiled.Parameters
				out.Fingerprint = compiled.Fingerprint
			}
		}
		if err != nil {
			out.Error = err.Error()
			out.Code = ir.CodeOf(err)
		}

		if h.db != nil && d.Name == dialect.SQLite.Name && out.Error == "" {
			if err := h.execute(out); err != nil {
				result.AddError(fmt.Sprintf("step %q: execution failed: %v", step.Name, err))
			}
		}

		result.AddOutput(out)
		if msg := checkExpectation(out, step.Expect[d.Name]); msg != "" {
			result.AddError(msg)
		}
	}
}

// execute runs compiled SQLite output against the scenario database.
func (h *Harness) execute(out Output) error {
	args, err := querysql.Args(out.Parameters)
	if err != nil {
		return err
	}
	h.logger.Debug("executing step", "step", out.Step, "text", out.Text)
	return h.db.Exec(out.Text, args...)
}

// checkExpectation returns a failure message, or "" when out meets exp.
func checkExpectation(out Output, exp Expectation) string {
	where := fmt.Sprintf("step %q [%s]", out.Step, out.Dialect)
	switch {
	case exp.Error != "" && out.Error == "":
		return fmt.Sprintf("%s: expected error %s, compiled to %q", where, exp.Error, out.Text)
	case exp.Error != "" && out.Code != exp.Error:
		return fmt.Sprintf("%s: expected error %s, got %s", where, exp.Error, out.Error)
	case exp.Error == "" && out.Error != "":
		return fmt.Sprintf("%s: unexpected error: %s", where, out.Error)
	}
	for _, s := range exp.Contains {
		if !strings.Contains(out.Text, s) {
			return fmt.Sprintf("%s: output %q does not contain %q", where, out.Text, s)
		}
	}
	return ""
}
