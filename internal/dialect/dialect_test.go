package dialect

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/lexical"
)

func TestRegistry(t *testing.T) {
	assert.Subset(t, List(), []string{"mariadb", "postgres", "sqlite"})

	d, ok := Get("Postgres")
	require.True(t, ok)
	assert.Same(t, Postgres, d)

	_, err := Lookup("oracle")
	require.ErrorIs(t, err, ErrUnknownDialect)
	assert.Contains(t, err.Error(), "mariadb, postgres, sqlite")
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		d    *Dialect
		name string
		want string
	}{
		{Postgres, "users", `"users"`},
		{Postgres, `we"ird`, `"we""ird"`},
		{MariaDB, "users", "`users`"},
		{MariaDB, "we`ird", "`we``ird`"},
		{SQLite, "order", `"order"`},
	}

	for _, tt := range tests {
		t.Run(tt.d.Name+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.QuoteIdentifier(tt.name))
		})
	}

	assert.Equal(t, `"app"."users"`, Postgres.QuoteQualified("app", "users"))
	assert.Equal(t, `"users"`, Postgres.QuoteQualified("", "users"))
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, `'it''s'`, Postgres.QuoteString("it's"))
	assert.Equal(t, `'a\b'`, Postgres.QuoteString(`a\b`))
	assert.Equal(t, `'it''s'`, MariaDB.QuoteString("it's"))
	assert.Equal(t, `'a\\b'`, MariaDB.QuoteString(`a\b`))
	assert.Equal(t, `'it''s'`, SQLite.QuoteString("it's"))
}

func TestFormatPlaceholder(t *testing.T) {
	assert.Equal(t, "$3", Postgres.FormatPlaceholder(3))
	assert.Equal(t, "?", MariaDB.FormatPlaceholder(3))
	assert.Equal(t, "?", SQLite.FormatPlaceholder(1))
}

func TestBuiltinsMapEveryType(t *testing.T) {
	for _, d := range []*Dialect{Postgres, MariaDB, SQLite} {
		t.Run(d.Name, func(t *testing.T) {
			assert.Equal(t, ir.DataTypes(), d.Types())
			for _, g := range ir.Generators() {
				spec, ok := d.Generator(g)
				require.True(t, ok, g)
				assert.NotEmpty(t, spec.Render(), g)
			}
		})
	}

	spec, ok := MariaDB.Type(ir.TypeVarchar)
	require.True(t, ok)
	assert.Equal(t, TypeSpec{Name: "VARCHAR", Sized: true, DefaultLength: 255}, spec)

	spec, ok = Postgres.Type(ir.TypeDouble)
	require.True(t, ok)
	assert.Equal(t, "DOUBLE PRECISION", spec.Name)
}

func TestFunctions(t *testing.T) {
	tests := []struct {
		d    *Dialect
		tag  expr.Tag
		args []string
		want string
	}{
		{Postgres, expr.TagConcat, []string{"a", "b"}, "CONCAT(a, b)"},
		{SQLite, expr.TagConcat, []string{"a", "b", "c"}, "(a || b || c)"},
		{Postgres, expr.TagAdd, []string{"1", "2"}, "(1 + 2)"},
		{Postgres, expr.TagDateAdd, []string{"d", "3", "DAY"}, "(d + 3 * INTERVAL '1 DAY')"},
		{MariaDB, expr.TagDateSub, []string{"d", "3", "DAY"}, "DATE_SUB(d, INTERVAL 3 DAY)"},
		{SQLite, expr.TagDateAdd, []string{"d", "3", "HOUR"}, "datetime(d, (3) || ' hours')"},
		{SQLite, expr.TagDateSub, []string{"d", "2", "WEEK"}, "datetime(d, (-(2 * 7)) || ' days')"},
		{MariaDB, expr.TagDateDiff, []string{"DAY", "a", "b"}, "TIMESTAMPDIFF(DAY, a, b)"},
		{Postgres, expr.TagDateDiff, []string{"HOUR", "a", "b"}, "FLOOR(EXTRACT(EPOCH FROM (b - a)) / 3600)"},
		{Postgres, expr.TagDateDiff, []string{"YEAR", "a", "b"}, "EXTRACT(YEAR FROM AGE(b, a))"},
		{SQLite, expr.TagDateDiff, []string{"DAY", "a", "b"}, "CAST((julianday(b) - julianday(a)) * 86400 / 86400 AS INTEGER)"},
		{MariaDB, expr.TagLength, []string{"s"}, "CHAR_LENGTH(s)"},
		{SQLite, expr.TagJSONValue, []string{"j", "'$.a'"}, "json_extract(j, '$.a')"},
	}

	for _, tt := range tests {
		t.Run(tt.d.Name+"/"+string(tt.tag), func(t *testing.T) {
			fn, ok := tt.d.Function(tt.tag)
			require.True(t, ok)
			got, err := fn(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFunctions_Unsupported(t *testing.T) {
	_, ok := SQLite.Function(expr.TagEncrypt)
	assert.False(t, ok)
	assert.NotContains(t, SQLite.Functions(), expr.TagEncrypt)
	assert.Contains(t, Postgres.Functions(), expr.TagEncrypt)
	assert.Contains(t, Postgres.Functions(), expr.TagNow)

	fn, ok := SQLite.Function(expr.TagDateDiff)
	require.True(t, ok)
	_, err := fn([]string{"MONTH", "a", "b"})
	require.Error(t, err)
	assert.Equal(t, ir.ErrUnsupported, ir.CodeOf(err))

	_, err = Unsupported("x", "THING")(nil)
	assert.EqualError(t, err, "[E252] x does not support THING")
}

func TestSQLiteUUIDGenerator(t *testing.T) {
	spec, ok := SQLite.Generator(ir.GenUUID)
	require.True(t, ok)
	text := spec.Render()
	assert.True(t, strings.HasPrefix(text, "lower("))
	assert.Contains(t, text, "randomblob(4)")
}

func TestBuilder_BuildIsolated(t *testing.T) {
	b := New("custom").Type(ir.TypeText, TypeSpec{Name: "TEXT"})
	first := b.Build()
	b.Type(ir.TypeText, TypeSpec{Name: "CLOB"})
	second := b.Build()

	spec, _ := first.Type(ir.TypeText)
	assert.Equal(t, "TEXT", spec.Name)
	spec, _ = second.Type(ir.TypeText)
	assert.Equal(t, "CLOB", spec.Name)

	ext := Extend(Postgres, "pg2").Without(expr.TagEncrypt).Build()
	_, ok := ext.Function(expr.TagEncrypt)
	assert.False(t, ok)
	_, ok = Postgres.Function(expr.TagEncrypt)
	assert.True(t, ok)
}

func TestLoadOverlay(t *testing.T) {
	src := `
base: postgres
name: warehouse
identifiers: {quote: "[", quoteEnd: "]"}
placeholder: question
types: {SERIAL: INT8, jsonb: SUPER}
generators: {uuid: uuid_generate_v4()}
functions: {LENGTH: char_length}
without: [ENCRYPT]
`
	d, err := LoadOverlay(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, "warehouse", d.Name)
	assert.Equal(t, "[a]]b]", d.QuoteIdentifier("a]b"))
	assert.Equal(t, "?", d.FormatPlaceholder(1))
	assert.True(t, d.Features.Ilike)

	spec, _ := d.Type(ir.TypeSerial)
	assert.Equal(t, "INT8", spec.Name)
	spec, _ = d.Type(ir.TypeVarchar)
	assert.Equal(t, TypeSpec{Name: "VARCHAR", Sized: true}, spec)

	gen, _ := d.Generator(ir.GenUUID)
	assert.Equal(t, "uuid_generate_v4()", gen.Render())

	fn, ok := d.Function(expr.TagLength)
	require.True(t, ok)
	got, err := fn([]string{"x"})
	require.NoError(t, err)
	assert.Equal(t, "char_length(x)", got)

	_, ok = d.Function(expr.TagEncrypt)
	assert.False(t, ok)

	_, ok = Get("warehouse")
	assert.False(t, ok, "overlays are not registered")
}

func TestReservedWords(t *testing.T) {
	tests := []struct {
		dialect  *Dialect
		reserved []string
		allowed  []string
	}{
		{Postgres, []string{"user", "Returning", "window"}, []string{"key", "interval", "pragma"}},
		{MariaDB, []string{"key", "INTERVAL", "range"}, []string{"user", "returning", "pragma"}},
		{SQLite, []string{"pragma", "glob", "vacuum"}, []string{"key", "user", "range"}},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name, func(t *testing.T) {
			words := tt.dialect.ReservedWords()
			assert.True(t, slices.IsSorted(words))
			assert.Equal(t, words, slices.Compact(slices.Clone(words)))

			c := tt.dialect.Checker()
			for _, w := range tt.reserved {
				err := c.ValidateEntityName(w)
				require.Error(t, err, w)
				assert.Equal(t, ir.ErrReservedWord, ir.CodeOf(err))
			}
			for _, w := range tt.allowed {
				assert.NoError(t, c.ValidateEntityName(w), w)
			}
			// The lexical default set still applies.
			assert.Error(t, c.ValidateEntityName("select"))
		})
	}
}

func TestReservedWords_Isolated(t *testing.T) {
	words := MariaDB.ReservedWords()
	words[0] = "id"
	assert.NotEqual(t, "id", MariaDB.ReservedWords()[0])

	ext := Extend(SQLite, "strict").ReservedWords("status").Build()
	assert.Error(t, ext.Checker().ValidateEntityName("status"))
	assert.Error(t, ext.Checker().ValidateEntityName("pragma"))
	assert.NoError(t, SQLite.Checker().ValidateEntityName("status"))

	assert.Same(t, lexical.Default, (&Dialect{}).Checker())
}

func TestLoadOverlay_ReservedWords(t *testing.T) {
	d, err := LoadOverlay(strings.NewReader("base: postgres\nname: cockroach\nreserved: [family, interleave]\n"))
	require.NoError(t, err)

	assert.Contains(t, d.ReservedWords(), "FAMILY")
	assert.Contains(t, d.ReservedWords(), "USER")
	assert.Error(t, d.Checker().ValidateEntityName("interleave"))
	assert.NoError(t, Postgres.Checker().ValidateEntityName("interleave"))
}

func TestLoadOverlay_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "", "dialect overlay is empty"},
		{"no base", "name: x", "base is required"},
		{"no name", "base: sqlite", "name is required"},
		{"unknown base", "base: oracle\nname: x", "unknown dialect"},
		{"unknown field", "base: sqlite\nname: x\nquotes: y", "field quotes not found"},
		{"odd escapes", "base: sqlite\nname: x\nliterals: {quote: \"'\", escapes: [a]}", "old/new pairs"},
		{"bad placeholder", "base: sqlite\nname: x\nplaceholder: colon", `placeholder "colon"`},
		{"bad type", "base: sqlite\nname: x\ntypes: {BLOB: BLOB}", `unknown data type "BLOB"`},
		{"bad generator", "base: sqlite\nname: x\ngenerators: {LOWER: lower}", `unknown generator "LOWER"`},
		{"bad function", "base: sqlite\nname: x\nfunctions: {MEDIAN: median}", `unknown function "MEDIAN"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadOverlay(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
