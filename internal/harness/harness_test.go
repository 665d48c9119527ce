package harness

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlir/internal/ir"
)

func truncateStep(name string) Step {
	return Step{Name: name, Query: map[string]any{"type": "TRUNCATE", "table": "users"}}
}

func TestRunWithGolden_CatalogBasic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/catalog_basic.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Outputs, 15)

	out, ok := result.Output("schema", "sqlite")
	require.True(t, ok)
	assert.Equal(t, ir.ErrUnsupported, out.Code)
	assert.Empty(t, out.Fingerprint)

	out, ok = result.Output("insert", "postgres")
	require.True(t, ok)
	assert.Len(t, out.Fingerprint, 64)
	assert.Len(t, out.Parameters, 6)
}

func TestRun_OutputOrder(t *testing.T) {
	result, err := Run(&Scenario{
		Name:     "order",
		Dialects: []string{"sqlite", "postgres"},
		Steps:    []Step{truncateStep("a"), truncateStep("b")},
	})
	require.NoError(t, err)
	require.True(t, result.Pass)

	var got []string
	for _, o := range result.Outputs {
		got = append(got, o.Step+"/"+o.Dialect+"/"+o.Text)
	}
	assert.Equal(t, []string{
		`a/sqlite/DELETE FROM "users"`,
		`a/postgres/TRUNCATE TABLE "users"`,
		`b/sqlite/DELETE FROM "users"`,
		`b/postgres/TRUNCATE TABLE "users"`,
	}, got)
}

func TestRun_Expectations(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		step    Step
		wantErr string
	}{
		{
			name:    "expected error but compiled",
			dialect: "postgres",
			step: Step{
				Name:   "s",
				Query:  map[string]any{"type": "TRUNCATE", "table": "users"},
				Expect: map[string]Expectation{"postgres": {Error: ir.ErrUnsupported}},
			},
			wantErr: `step "s" [postgres]: expected error E252, compiled to`,
		},
		{
			name:    "wrong error code",
			dialect: "postgres",
			step: Step{
				Name:   "s",
				Query:  map[string]any{"type": "NOPE"},
				Expect: map[string]Expectation{"postgres": {Error: ir.ErrUnsupported}},
			},
			wantErr: `step "s" [postgres]: expected error E252, got [E220]`,
		},
		{
			name:    "unexpected error",
			dialect: "sqlite",
			step: Step{
				Name:  "s",
				Query: map[string]any{"type": "CREATE_SCHEMA", "schema": "app"},
			},
			wantErr: `step "s" [sqlite]: unexpected error: [E252] sqlite does not support schemas`,
		},
		{
			name:    "missing substring",
			dialect: "postgres",
			step: Step{
				Name:   "s",
				Query:  map[string]any{"type": "TRUNCATE", "table": "users"},
				Expect: map[string]Expectation{"postgres": {Contains: []string{"DELETE"}}},
			},
			wantErr: `step "s" [postgres]: output "TRUNCATE TABLE \"users\"" does not contain "DELETE"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Run(&Scenario{
				Name:     "expectations",
				Dialects: []string{tt.dialect},
				Steps:    []Step{tt.step},
			})
			require.NoError(t, err)
			assert.False(t, result.Pass)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], tt.wantErr)
		})
	}
}

func TestRun_ValidationErrorsReachEveryDialect(t *testing.T) {
	result, err := Run(&Scenario{
		Name:     "invalid",
		Dialects: []string{"postgres", "mariadb"},
		Steps: []Step{{
			Name:  "bad",
			Query: map[string]any{"type": "NOPE"},
			Expect: map[string]Expectation{
				"postgres": {Error: ir.ErrUnknownTag},
				"mariadb":  {Error: ir.ErrUnknownTag},
			},
		}},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	for _, o := range result.Outputs {
		assert.Equal(t, ir.ErrUnknownTag, o.Code)
		assert.Contains(t, o.Error, `unknown query type "NOPE"`)
		assert.Empty(t, o.Text)
	}
}

func TestRun_DialectReservedWords(t *testing.T) {
	result, err := Run(&Scenario{
		Name:     "reserved",
		Dialects: []string{"postgres", "mariadb", "sqlite"},
		Steps: []Step{{
			Name:  "drop",
			Query: map[string]any{"type": "DROP_TABLE", "name": "range"},
			Expect: map[string]Expectation{
				"mariadb": {Error: ir.ErrReservedWord},
			},
		}},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	out, ok := result.Output("drop", "mariadb")
	require.True(t, ok)
	assert.Equal(t, ir.ErrReservedWord, out.Code)

	out, ok = result.Output("drop", "postgres")
	require.True(t, ok)
	assert.Equal(t, `DROP TABLE "range"`, out.Text)
}

func TestRun_WithLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	result, err := Run(&Scenario{
		Name:     "logged",
		Dialects: []string{"sqlite"},
		Steps:    []Step{truncateStep("a")},
	}, WithLogger(logger))
	require.NoError(t, err)
	require.True(t, result.Pass)

	assert.Contains(t, buf.String(), "query validated")
	assert.Contains(t, buf.String(), "statement compiled")
}

func TestRun_ExecutionFailure(t *testing.T) {
	result, err := Run(&Scenario{
		Name:     "exec",
		Dialects: []string{"sqlite"},
		Execute:  true,
		Steps:    []Step{truncateStep("missing table")},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `step "missing table": execution failed`)
	assert.Contains(t, result.Errors[0], "no such table")
}

func TestRun_UnknownDialect(t *testing.T) {
	_, err := Run(&Scenario{
		Name:     "unknown",
		Dialects: []string{"oracle"},
		Steps:    []Step{truncateStep("a")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dialect "oracle"`)
}

func TestRender(t *testing.T) {
	result := NewResult()
	result.AddOutput(Output{Step: "a", Dialect: "postgres", Text: `SELECT 1`})
	result.AddOutput(Output{
		Step:        "b",
		Dialect:     "sqlite",
		Text:        `DELETE FROM "t" WHERE "x" = ?`,
		Parameters:  []ir.Value{ir.String("<&>"), ir.Null{}},
		Fingerprint: "ignored",
	})
	result.AddOutput(Output{Step: "c", Dialect: "sqlite", Error: "[E252] sqlite does not support schemas", Code: "E252"})

	rendered, err := Render(result)
	require.NoError(t, err)
	assert.Equal(t, "-- a [postgres]\nSELECT 1\n"+
		"\n-- b [sqlite]\nDELETE FROM \"t\" WHERE \"x\" = ?\n-- params: [\"<&>\",null]\n"+
		"\n-- c [sqlite]\n-- error: [E252] sqlite does not support schemas\n", string(rendered))
}
