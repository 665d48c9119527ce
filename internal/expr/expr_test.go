package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/lexical"
)

func e(tag string, args ...any) map[string]any {
	if args == nil {
		return map[string]any{KeyExpr: tag}
	}
	return map[string]any{KeyExpr: tag, KeyArgs: args}
}

func TestValidate_Families(t *testing.T) {
	tests := []struct {
		name   string
		node   map[string]any
		family Family
	}{
		{"uuid", e("UUID"), FamilyString},
		{"concat", e("CONCAT", "$first", " ", "$last"), FamilyString},
		{"concat single", e("CONCAT", "a"), FamilyString},
		{"encrypt", e("ENCRYPT", "$ssn", "secret"), FamilyString},
		{"decrypt", e("DECRYPT", "$ssn", "$key"), FamilyString},
		{"lower", e("LOWER", "$email"), FamilyString},
		{"upper nested", e("UPPER", e("TRIM", "$name")), FamilyString},
		{"replace", e("REPLACE", "$s", "a", "b"), FamilyString},
		{"substr", e("SUBSTR", "$s", 1), FamilyString},
		{"substr with length", e("SUBSTR", "$s", 1, 3), FamilyString},
		{"to_string number", e("TO_STRING", e("ADD", 1, 2)), FamilyString},
		{"to_string bool", e("TO_STRING", true), FamilyString},
		{"now", e("NOW"), FamilyDate},
		{"current_date", e("CURRENT_DATE"), FamilyDate},
		{"current_time", e("CURRENT_TIME"), FamilyDate},
		{"current_timestamp", e("CURRENT_TIMESTAMP"), FamilyDate},
		{"date_add", e("DATE_ADD", "$created_at", 1, "DAY"), FamilyDate},
		{"date_sub nested", e("DATE_SUB", e("NOW"), 2, "WEEK"), FamilyDate},
		{"date_add iso literal", e("DATE_ADD", "2024-01-01", 3, "MONTH"), FamilyDate},
		{"add", e("ADD", 1, 2, "$n"), FamilyNumber},
		{"subtract", e("SUBTRACT", "$a", "$b"), FamilyNumber},
		{"multiply", e("MULTIPLY", 2.5, "$b"), FamilyNumber},
		{"divide", e("DIVIDE", "$a", 2), FamilyNumber},
		{"modulo", e("MODULO", "$a", 2), FamilyNumber},
		{"length", e("LENGTH", "$name"), FamilyNumber},
		{"abs", e("ABS", e("SUBTRACT", "$a", "$b")), FamilyNumber},
		{"round", e("ROUND", "$price"), FamilyNumber},
		{"round digits", e("ROUND", "$price", 2), FamilyNumber},
		{"date_diff", e("DATE_DIFF", "DAY", "$start", e("NOW")), FamilyNumber},
		{"json_value", e("JSON_VALUE", "$payload", "$.user.name"), FamilyJSON},
		{"json_extract", e("JSON_EXTRACT", "$payload", "$.items[0]"), FamilyJSON},
		{"json_extract root", e("JSON_EXTRACT", map[string]any{"a": 1}, "$"), FamilyJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.family, got.Family())
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		node    any
		code    string
		message string
	}{
		{"not an object", "NOW", ir.ErrWrongType, "must be an object"},
		{"missing tag", map[string]any{KeyArgs: []any{}}, ir.ErrMissingKey, `requires "$expr"`},
		{"tag not a string", map[string]any{KeyExpr: 1}, ir.ErrWrongType, "tag must be a string"},
		{"unknown tag", e("SQRT", 4), ir.ErrUnknownTag, "expected one of: ABS, ADD"},
		{"zero arg with args", map[string]any{KeyExpr: "NOW", KeyArgs: []any{}}, ir.ErrUnexpectedKey, "takes no arguments"},
		{"extra key", map[string]any{KeyExpr: "NOW", "x": 1}, ir.ErrUnexpectedKey, `unexpected key "x"`},
		{"missing args", map[string]any{KeyExpr: "LOWER"}, ir.ErrMissingKey, `LOWER requires "$args"`},
		{"args not array", map[string]any{KeyExpr: "LOWER", KeyArgs: "$a"}, ir.ErrWrongType, "must be an array"},
		{"encrypt arity", e("ENCRYPT", "$a"), ir.ErrArity, "ENCRYPT expects 2 arguments, got 1"},
		{"replace arity", e("REPLACE", "$a", "b"), ir.ErrArity, "expects 3 arguments"},
		{"add arity", e("ADD", 1), ir.ErrArity, "ADD expects at least 2 arguments, got 1"},
		{"concat empty", map[string]any{KeyExpr: "CONCAT", KeyArgs: []any{}}, ir.ErrArity, "at least 1"},
		{"substr arity", e("SUBSTR", "$a", 1, 2, 3), ir.ErrArity, "expects 2 to 3 arguments, got 4"},
		{"wrong family", e("CONCAT", "$a", e("ADD", 1, 2)), ir.ErrWrongFamily, "ADD is a number expression"},
		{"date in number slot", e("ABS", e("NOW")), ir.ErrWrongFamily, "NOW is a date expression"},
		{"bad unit", e("DATE_ADD", "$d", 1, "FORTNIGHT"), ir.ErrWrongType, "date unit"},
		{"lowercase unit", e("DATE_ADD", "$d", 1, "day"), ir.ErrWrongType, "date unit"},
		{"bad json path", e("JSON_VALUE", "$p", "user.name"), ir.ErrWrongType, "JSON path"},
		{"expression as unit", e("DATE_DIFF", e("NOW"), "$a", "$b"), ir.ErrWrongType, "got expression"},
		{"number slot string", e("ABS", "ten"), ir.ErrWrongType, "expected number or column identifier or number expression, got string"},
		{"date slot garbage", e("DATE_ADD", "yesterday", 1, "DAY"), ir.ErrWrongType, "got string"},
		{"null argument", e("LOWER", nil), ir.ErrWrongType, "got null"},
		{"bad column", e("LOWER", "$a.$b.$c"), ir.ErrTooManySegments, "at most two segments"},
		{"reserved column", e("LOWER", "$select"), ir.ErrReservedWord, "reserved word"},
		{"nested error", e("UPPER", e("LOWER", e("FOO"))), ir.ErrUnknownTag, "unknown expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.node)
			require.Error(t, err)
			assert.Equal(t, tt.code, ir.CodeOf(err), err.Error())
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidate_ErrorPath(t *testing.T) {
	_, err := Validate(e("UPPER", e("CONCAT", "$a", e("ADD", 1, 2))))
	require.Error(t, err)

	var ie *ir.Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "$args[0].$args[1]", ie.Path)
}

func TestValidate_TypedTree(t *testing.T) {
	got, err := Validate(e("DATE_ADD", "$users.$created_at", 7, "DAY"))
	require.NoError(t, err)

	require.Len(t, got.Args, 3)
	assert.Equal(t, Column{Ref: lexical.ColumnRef{Table: "users", Column: "created_at"}}, got.Args[0])
	assert.Equal(t, Literal{Value: ir.Int(7)}, got.Args[1])
	assert.Equal(t, Unit("DAY"), got.Args[2])

	_, isGen := got.Generator()
	assert.False(t, isGen)
}

func TestValidate_LiteralConversion(t *testing.T) {
	got, err := Validate(e("DATE_ADD", "2024-03-01", 1, "DAY"))
	require.NoError(t, err)
	lit, ok := got.Args[0].(Literal)
	require.True(t, ok)
	assert.IsType(t, ir.Date{}, lit.Value)

	got, err = Validate(e("TO_STRING", "2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, Literal{Value: ir.String("2024-03-01")}, got.Args[0])

	got, err = Validate(e("MULTIPLY", 0.5, 2))
	require.NoError(t, err)
	lit, ok = got.Args[0].(Literal)
	require.True(t, ok)
	assert.IsType(t, ir.Decimal{}, lit.Value)
}

func TestExpression_Generator(t *testing.T) {
	for _, tag := range []string{"NOW", "CURRENT_DATE", "CURRENT_TIME", "CURRENT_TIMESTAMP", "UUID"} {
		got, err := Validate(e(tag))
		require.NoError(t, err)
		gen, ok := got.Generator()
		assert.True(t, ok, tag)
		assert.Equal(t, ir.Generator(tag), gen)
	}
}

func TestExpression_Columns(t *testing.T) {
	got, err := Validate(e("CONCAT", "$a", e("LOWER", "$t.$b"), "x"))
	require.NoError(t, err)
	assert.Equal(t, []lexical.ColumnRef{{Column: "a"}, {Table: "t", Column: "b"}}, got.Columns())
}

func TestClassifiers(t *testing.T) {
	assert.True(t, IsStringExpression(e("UUID")))
	assert.False(t, IsStringExpression(e("NOW")))
	assert.True(t, IsDateExpression(e("NOW")))
	assert.True(t, IsNumberExpression(e("LENGTH", "$a")))
	assert.True(t, IsJSONExpression(e("JSON_VALUE", "$a", "$.b")))
	assert.False(t, IsNumberExpression(e("ADD", 1)))
	assert.False(t, IsJSONExpression("not an expression"))
}

func TestIsExpression(t *testing.T) {
	assert.True(t, IsExpression(map[string]any{KeyExpr: "X"}))
	assert.False(t, IsExpression(map[string]any{"$aggr": "SUM"}))
	assert.False(t, IsExpression("NOW"))
}

func TestParser_CustomChecker(t *testing.T) {
	p := NewParser(lexical.NewChecker("secret"))
	_, err := p.Parse(e("LOWER", "$secret"), ir.Root("expr", 0))
	require.Error(t, err)
	assert.Equal(t, ir.ErrReservedWord, ir.CodeOf(err))

	_, err = p.Parse(e("LOWER", "$select"), ir.Root("expr", 0))
	assert.NoError(t, err)
}

func TestParser_Depth(t *testing.T) {
	var node any = "$a"
	for i := 0; i < 10; i++ {
		node = e("LOWER", node)
	}

	p := NewParser(nil)
	_, err := p.Parse(node, ir.Root("", 10))
	assert.NoError(t, err)

	_, err = p.Parse(node, ir.Root("", 9))
	require.Error(t, err)
	assert.True(t, ir.IsKind(err, ir.KindDepth))
}

func TestParser_DeepAdversarial(t *testing.T) {
	var node any = 1
	for i := 0; i < 10_000; i++ {
		node = e("ABS", node)
	}
	_, err := Validate(node)
	require.Error(t, err)
	assert.Equal(t, ir.ErrDepthExceeded, ir.CodeOf(err))
}

func TestTags(t *testing.T) {
	tags := Tags()
	assert.Len(t, tags, 27)
	assert.Equal(t, TagAbs, tags[0])
	for _, tag := range tags {
		f, ok := Lookup(string(tag))
		assert.True(t, ok)
		assert.NotZero(t, f)
	}
	_, ok := Lookup("SQRT")
	assert.False(t, ok)
}

func TestDateUnits(t *testing.T) {
	units := DateUnits()
	assert.Equal(t, []string{"SECOND", "MINUTE", "HOUR", "DAY", "WEEK", "MONTH", "YEAR"}, units)

	units[0] = "FORTNIGHT"
	assert.Equal(t, "SECOND", DateUnits()[0])
	_, err := Validate(e("DATE_ADD", "$created_at", 1, "FORTNIGHT"))
	require.Error(t, err)
}
