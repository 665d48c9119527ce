package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlir/internal/testutil"
)

func stateDB(t *testing.T) *AssertionContext {
	t.Helper()
	db := testutil.OpenSQLite(t)
	db.MustExec("CREATE TABLE people (id INTEGER PRIMARY KEY, email TEXT, age INTEGER, active BOOLEAN, score REAL);\n" +
		"INSERT INTO people VALUES (1, 'a@x', 30, 1, 1.5), (2, 'b@x', 17, 0, NULL), (3, 'c@x', 17, 1, 2)")
	return &AssertionContext{DB: db}
}

func TestEvaluateAssertions_OutputContains(t *testing.T) {
	result := NewResult()
	result.AddOutput(Output{Step: "s", Dialect: "postgres", Text: `TRUNCATE TABLE "users"`})
	result.AddOutput(Output{Step: "s", Dialect: "sqlite", Error: "[E252] nope", Code: "E252"})

	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{"match", Assertion{Type: AssertOutputContains, Step: "s", Dialect: "postgres", Text: "TRUNCATE"}, ""},
		{"no match", Assertion{Type: AssertOutputContains, Step: "s", Dialect: "postgres", Text: "DELETE"}, `to contain "DELETE"`},
		{"failed step", Assertion{Type: AssertOutputContains, Step: "s", Dialect: "sqlite", Text: "x"}, "[E252] nope"},
		{"missing output", Assertion{Type: AssertOutputContains, Step: "t", Dialect: "postgres", Text: "x"}, "no output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.a}, nil)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], "Assertion failed: output_contains")
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestEvaluateAssertions_RowCount(t *testing.T) {
	actx := stateDB(t)

	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{"all rows", Assertion{Type: AssertRowCount, Table: "people", Count: 3}, ""},
		{"filtered", Assertion{Type: AssertRowCount, Table: "people", Where: map[string]any{"age": 17}, Count: 2}, ""},
		{"null match", Assertion{Type: AssertRowCount, Table: "people", Where: map[string]any{"score": nil}, Count: 1}, ""},
		{"two keys", Assertion{Type: AssertRowCount, Table: "people", Where: map[string]any{"age": 17, "active": true}, Count: 1}, ""},
		{"wrong count", Assertion{Type: AssertRowCount, Table: "people", Where: map[string]any{"age": 17}, Count: 1}, "Actual: 2 rows"},
		{"missing table", Assertion{Type: AssertRowCount, Table: "nope", Count: 0}, "query error"},
		{"bad table name", Assertion{Type: AssertRowCount, Table: "people; DROP", Count: 0}, "invalid table name"},
		{"bad column name", Assertion{Type: AssertRowCount, Table: "people", Where: map[string]any{"a b": 1}}, "invalid column name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(NewResult(), []Assertion{tt.a}, actx)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestEvaluateAssertions_FinalState(t *testing.T) {
	actx := stateDB(t)

	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{"subset match", Assertion{Type: AssertFinalState, Table: "people",
			Where: map[string]any{"email": "a@x"}, Expect: map[string]any{"age": 30, "active": true, "score": 1.5}}, ""},
		{"null value", Assertion{Type: AssertFinalState, Table: "people",
			Where: map[string]any{"id": 2}, Expect: map[string]any{"score": nil, "active": false}}, ""},
		{"int against real", Assertion{Type: AssertFinalState, Table: "people",
			Where: map[string]any{"id": 3}, Expect: map[string]any{"score": 2}}, ""},
		{"value mismatch", Assertion{Type: AssertFinalState, Table: "people",
			Where: map[string]any{"id": 1}, Expect: map[string]any{"age": 31}}, `field "age" = 31`},
		{"missing column", Assertion{Type: AssertFinalState, Table: "people",
			Where: map[string]any{"id": 1}, Expect: map[string]any{"name": "a"}}, `field "name" not present`},
		{"no row", Assertion{Type: AssertFinalState, Table: "people",
			Where: map[string]any{"id": 9}, Expect: map[string]any{"age": 1}}, "row not found"},
		{"ambiguous", Assertion{Type: AssertFinalState, Table: "people",
			Where: map[string]any{"age": 17}, Expect: map[string]any{"age": 17}}, "2 rows matched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(NewResult(), []Assertion{tt.a}, actx)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestEvaluateAssertions_RequiresDatabase(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertRowCount, Table: "people"},
		{Type: "trace_order"},
	}, &AssertionContext{})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertion[0]: row_count requires database context")
	assert.Contains(t, errs[1], `assertion[1]: unknown assertion type "trace_order"`)
}

func TestStateValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		actual   any
		want     bool
	}{
		{"both nil", nil, nil, true},
		{"nil vs value", nil, int64(0), false},
		{"string", "a", "a", true},
		{"string vs int", "1", int64(1), false},
		{"int", 3, int64(3), true},
		{"int vs float", 3, float64(3), true},
		{"float", 1.5, float64(1.5), true},
		{"float vs int", 2.0, int64(2), true},
		{"bool", true, true, true},
		{"bool vs int", false, int64(0), true},
		{"bool vs wrong int", true, int64(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stateValuesEqual(tt.expected, tt.actual))
		})
	}
}
