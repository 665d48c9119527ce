package harness

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/sqlir/internal/testutil"
)

// validIdentifier matches table and column names that may be
// interpolated into assertion queries.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// AssertionContext provides database access for state assertions.
type AssertionContext struct {
	DB *testutil.SQLite
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOutputContains:
			err = assertOutputContains(result, assertion)
		case AssertRowCount, AssertFinalState:
			if actx == nil || actx.DB == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
			} else if assertion.Type == AssertRowCount {
				err = assertRowCount(actx.DB, assertion)
			} else {
				err = assertFinalState(actx.DB, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// assertOutputContains checks that a step compiled for a dialect and that
// its text contains the expected substring.
func assertOutputContains(result *Result, a Assertion) error {
	out, ok := result.Output(a.Step, a.Dialect)
	switch {
	case !ok:
		return &AssertionError{
			Type:     AssertOutputContains,
			Expected: fmt.Sprintf("output for step %q [%s]", a.Step, a.Dialect),
			Actual:   "no output",
		}
	case out.Error != "":
		return &AssertionError{
			Type:     AssertOutputContains,
			Expected: fmt.Sprintf("step %q [%s] to contain %q", a.Step, a.Dialect, a.Text),
			Actual:   out.Error,
		}
	case !strings.Contains(out.Text, a.Text):
		return &AssertionError{
			Type:     AssertOutputContains,
			Expected: fmt.Sprintf("step %q [%s] to contain %q", a.Step, a.Dialect, a.Text),
			Actual:   out.Text,
		}
	}
	return nil
}

// assertRowCount checks the number of rows matching where.
func assertRowCount(db *testutil.SQLite, a Assertion) error {
	text, args, err := selectFrom(a, "COUNT(*)")
	if err != nil {
		return err
	}
	_, rows, err := db.Query(text, args...)
	if err != nil {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("query table %s", a.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	count, _ := rows[0][0].(int64)
	if int(count) != a.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s where %s", a.Count, a.Table, formatWhereClause(a.Where)),
			Actual:   fmt.Sprintf("%d rows", count),
		}
	}
	return nil
}

// assertFinalState checks that exactly one row matches where and that it
// holds the expected values. Only the columns in Expect are compared.
func assertFinalState(db *testutil.SQLite, a Assertion) error {
	text, args, err := selectFrom(a, "*")
	if err != nil {
		return err
	}
	columns, rows, err := db.Query(text, args...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", a.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	whereDesc := formatWhereClause(a.Where)
	switch len(rows) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", a.Table, whereDesc),
			Actual:   "row not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", a.Table, whereDesc),
			Actual:   fmt.Sprintf("%d rows matched (assertion is ambiguous)", len(rows)),
		}
	}

	actualRow := make(map[string]any, len(columns))
	for i, col := range columns {
		actualRow[col] = rows[0][i]
	}

	keys := sortedKeys(a.Expect)
	for _, key := range keys {
		expectedValue := a.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}
		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}
	return nil
}

// selectFrom builds a parameterized query over the assertion table.
func selectFrom(a Assertion, projection string) (string, []any, error) {
	if !validIdentifier.MatchString(a.Table) {
		return "", nil, fmt.Errorf("invalid table name %q: must match pattern %s", a.Table, validIdentifier.String())
	}
	whereSQL, whereArgs, err := buildWhereClause(a.Where)
	if err != nil {
		return "", nil, err
	}
	text := fmt.Sprintf("SELECT %s FROM %s", projection, a.Table)
	if whereSQL != "" {
		text += " WHERE " + whereSQL
	}
	return text, whereArgs, nil
}

// buildWhereClause constructs a parameterized WHERE clause. Keys are
// sorted for determinism; a nil value matches NULL.
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		if where[key] == nil {
			clauses = append(clauses, key+" IS NULL")
			continue
		}
		clauses = append(clauses, key+" = ?")
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a decoded YAML value to a SQL argument.
func toSQLValue(v any) any {
	switch val := v.(type) {
	case string, int, int64, float64, bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stateValuesEqual compares an expected YAML value with a scanned SQLite
// value. SQLite returns int64 for integers and may store booleans as 0/1.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	switch exp := expected.(type) {
	case string:
		actualStr, ok := actual.(string)
		return ok && exp == actualStr
	case int:
		switch act := actual.(type) {
		case int64:
			return int64(exp) == act
		case float64:
			return float64(exp) == act
		}
		return false
	case int64:
		actualInt, ok := actual.(int64)
		return ok && exp == actualInt
	case float64:
		switch act := actual.(type) {
		case float64:
			return exp == act
		case int64:
			return exp == float64(act)
		}
		return false
	case bool:
		switch act := actual.(type) {
		case bool:
			return exp == act
		case int64:
			return exp == (act != 0)
		}
		return false
	}

	return reflect.DeepEqual(expected, actual)
}
