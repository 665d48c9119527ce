package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/lexical"
)

func TestValidate_Shorthands(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected Condition
	}{
		{"null", nil, Condition{Op: OpNull, Value: ir.Bool(true)}},
		{"string", "active", Condition{Op: OpEq, Value: ir.String("active")}},
		{"sigil string stays literal", "$x", Condition{Op: OpEq, Value: ir.String("$x")}},
		{"number", 5, Condition{Op: OpEq, Value: ir.Int(5)}},
		{"bool", false, Condition{Op: OpEq, Value: ir.Bool(false)}},
		{"single element array", []any{"a"}, Condition{Op: OpIn, Value: ir.Array{ir.String("a")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.value, TypeAny)
			require.NoError(t, err)
			require.Len(t, got.Conditions, 1)
			assert.Equal(t, tt.expected, got.Conditions[0])
		})
	}
}

func TestValidate_ExpressionShorthand(t *testing.T) {
	got, err := Validate(map[string]any{"$expr": "NOW"}, TypeDate)
	require.NoError(t, err)
	require.Len(t, got.Conditions, 1)
	assert.Equal(t, OpEq, got.Conditions[0].Op)
	require.NotNil(t, got.Conditions[0].Expr)
	assert.Equal(t, expr.TagNow, got.Conditions[0].Expr.Tag)
}

func TestValidate_Operators(t *testing.T) {
	got, err := Validate(map[string]any{"$gte": 18, "$lt": 65, "$ne": 30}, TypeNumber)
	require.NoError(t, err)
	require.Len(t, got.Conditions, 3)

	// Operators come out in sorted key order.
	assert.Equal(t, OpGte, got.Conditions[0].Op)
	assert.Equal(t, OpLt, got.Conditions[1].Op)
	assert.Equal(t, OpNe, got.Conditions[2].Op)
}

func TestValidate_OperatorValues(t *testing.T) {
	tests := []struct {
		name     string
		value    map[string]any
		hint     ValueType
		expected Condition
	}{
		{"null true", map[string]any{"$null": true}, TypeAny, Condition{Op: OpNull, Value: ir.Bool(true)}},
		{"null false", map[string]any{"$null": false}, TypeBoolean, Condition{Op: OpNull, Value: ir.Bool(false)}},
		{"in", map[string]any{"$in": []any{1, 2}}, TypeNumber, Condition{Op: OpIn, Value: ir.Array{ir.Int(1), ir.Int(2)}}},
		{"nin empty", map[string]any{"$nin": []any{}}, TypeString, Condition{Op: OpNin, Value: ir.Array{}}},
		{"between numbers", map[string]any{"$between": []any{1, 10}}, TypeNumber, Condition{Op: OpBetween, Value: ir.Array{ir.Int(1), ir.Int(10)}}},
		{"like", map[string]any{"$like": "a%"}, TypeString, Condition{Op: OpLike, Value: ir.String("a%")}},
		{"startsWith", map[string]any{"$startsWith": "ab"}, TypeString, Condition{Op: OpStartsWith, Value: ir.String("ab")}},
		{"eq object literal", map[string]any{"$eq": map[string]any{"a": 1}}, TypeAny, Condition{Op: OpEq, Value: ir.Object{"a": ir.Int(1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.value, tt.hint)
			require.NoError(t, err)
			require.Len(t, got.Conditions, 1)
			assert.Equal(t, tt.expected, got.Conditions[0])
		})
	}
}

func TestValidate_BetweenDates(t *testing.T) {
	got, err := Validate(map[string]any{"$between": []any{"2024-01-01", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)}}, TypeDate)
	require.NoError(t, err)

	bounds, ok := got.Conditions[0].Value.(ir.Array)
	require.True(t, ok)
	assert.IsType(t, ir.Date{}, bounds[0])
	assert.IsType(t, ir.Date{}, bounds[1])
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		hint    ValueType
		code    string
		message string
	}{
		{"multi element array", []any{1, 2}, TypeAny, ir.ErrInvalidValue, "exactly one element"},
		{"empty array", []any{}, TypeAny, ir.ErrInvalidValue, "exactly one element"},
		{"nested array element", []any{[]any{1}}, TypeAny, ir.ErrWrongType, "expected a scalar"},
		{"unknown operator", map[string]any{"$regex": "x"}, TypeAny, ir.ErrUnknownTag, `unknown filter operator "$regex"`},
		{"plain key", map[string]any{"eq": 1}, TypeAny, ir.ErrUnknownTag, `unknown filter operator "eq"`},
		{"like on number", map[string]any{"$like": "1%"}, TypeNumber, ir.ErrUnknownTag, "not available for number filters"},
		{"gt on boolean", map[string]any{"$gt": true}, TypeBoolean, ir.ErrUnknownTag, "not available for boolean filters"},
		{"between on string", map[string]any{"$between": []any{"a", "b"}}, TypeString, ir.ErrUnknownTag, "not available for string filters"},
		{"null not bool", map[string]any{"$null": "yes"}, TypeAny, ir.ErrWrongType, "$null expects a boolean"},
		{"in not array", map[string]any{"$in": 1}, TypeAny, ir.ErrWrongType, "$in expects an array"},
		{"between arity", map[string]any{"$between": []any{1}}, TypeAny, ir.ErrArity, "expects 2 bounds"},
		{"between not array", map[string]any{"$between": 1}, TypeAny, ir.ErrWrongType, "2-element array"},
		{"between strings", map[string]any{"$between": []any{"a", "z"}}, TypeAny, ir.ErrWrongType, "number, bigint or date"},
		{"between bool", map[string]any{"$between": []any{1, true}}, TypeAny, ir.ErrWrongType, "number, bigint or date"},
		{"pattern not string", map[string]any{"$contains": 5}, TypeAny, ir.ErrWrongType, "$contains expects a string"},
		{"empty operators", map[string]any{}, TypeAny, ir.ErrInvalidValue, "must not be empty"},
		{"bad expression", map[string]any{"$expr": "NOPE"}, TypeAny, ir.ErrUnknownTag, "unknown expression"},
		{"bad nested", map[string]any{"$or": []any{map[string]any{"a": []any{1, 2}}}}, TypeAny, ir.ErrInvalidValue, "exactly one element"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.value, tt.hint)
			require.Error(t, err)
			assert.Equal(t, tt.code, ir.CodeOf(err), err.Error())
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidate_FieldCombinators(t *testing.T) {
	got, err := Validate(map[string]any{
		"$gt": 1,
		"$or": []any{map[string]any{"b": 2}, map[string]any{"c": 3}},
	}, TypeAny)
	require.NoError(t, err)
	assert.Len(t, got.Conditions, 1)
	assert.Len(t, got.Or, 2)
	assert.Empty(t, got.And)
}

func TestValidateSet(t *testing.T) {
	got, err := ValidateSet(map[string]any{
		"status":    "active",
		"users.age": map[string]any{"$gte": 18},
		"$or": []any{
			map[string]any{"role": "admin"},
			map[string]any{"role": "owner", "$and": []any{map[string]any{"verified": true}}},
		},
	})
	require.NoError(t, err)

	require.Len(t, got.Fields, 2)
	assert.Equal(t, "status", got.Fields[0].Path)
	assert.Equal(t, "users.age", got.Fields[1].Path)
	assert.Equal(t, lexical.ColumnRef{Table: "users", Column: "age"}, got.Fields[1].Ref)

	require.Len(t, got.Or, 2)
	require.Len(t, got.Or[1].And, 1)
	assert.Equal(t, "verified", got.Or[1].And[0].Fields[0].Path)
	assert.False(t, got.Empty())
}

func TestValidateSet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		code    string
		message string
		path    string
	}{
		{"not an object", []any{}, ir.ErrWrongType, "filters must be an object", ""},
		{"unknown combinator", map[string]any{"$not": []any{}}, ir.ErrUnknownTag, `unknown filter combinator "$not"`, "$not"},
		{"or not array", map[string]any{"$or": map[string]any{}}, ir.ErrWrongType, "array of filter sets", "$or"},
		{"or empty", map[string]any{"$or": []any{}}, ir.ErrArity, "at least 1 filter set", "$or"},
		{"or element not object", map[string]any{"$or": []any{1}}, ir.ErrWrongType, "filters must be an object", "$or[0]"},
		{"bad field", map[string]any{"1abc": 1}, ir.ErrNameStart, "must start with a letter", "1abc"},
		{"reserved field", map[string]any{"select": 1}, ir.ErrReservedWord, "reserved word", "select"},
		{"deep field", map[string]any{"a.b.c": 1}, ir.ErrTooManySegments, "at most two segments", "a.b.c"},
		{"nested field error", map[string]any{"$and": []any{map[string]any{"age": map[string]any{"$foo": 1}}}}, ir.ErrUnknownTag, "unknown filter operator", "$and[0].age.$foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateSet(tt.value)
			require.Error(t, err)
			assert.Equal(t, tt.code, ir.CodeOf(err), err.Error())
			assert.Contains(t, err.Error(), tt.message)

			var ie *ir.Error
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.path, ie.Path)
		})
	}
}

func TestValidateSet_Empty(t *testing.T) {
	got, err := ValidateSet(map[string]any{})
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestValidateSet_Depth(t *testing.T) {
	var node any = map[string]any{"a": 1}
	for i := 0; i < 100; i++ {
		node = map[string]any{"$or": []any{node}}
	}
	_, err := ValidateSet(node)
	require.Error(t, err)
	assert.Equal(t, ir.ErrDepthExceeded, ir.CodeOf(err))
}

func TestCatalog(t *testing.T) {
	assert.Len(t, Catalog(TypeAny), 17)
	assert.Len(t, Catalog(TypeBoolean), 5)
	assert.Len(t, Catalog(TypeString), 12)
	assert.Len(t, Catalog(TypeDate), 10)
	assert.NotContains(t, Catalog(TypeNumber), OpLike)
	assert.Contains(t, Catalog(TypeBigInt), OpBetween)

	assert.True(t, OpIlike.IsPattern())
	assert.False(t, OpEq.IsPattern())
	assert.True(t, OpNcontains.Negated())
	assert.False(t, OpContains.Negated())
}
