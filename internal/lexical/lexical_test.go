package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlir/internal/ir"
)

func TestValidateEntityName_Valid(t *testing.T) {
	names := []string{"users", "_private", "user_profiles", "a1", "kebab-case", "X", "Selection", "user", "name"}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, ValidateEntityName(name))
		})
	}
}

func TestValidateEntityName_Invalid(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"", ir.ErrEmptyName},
		{"1abc", ir.ErrNameStart},
		{"-abc", ir.ErrNameStart},
		{"$abc", ir.ErrNameStart},
		{"ab c", ir.ErrNameChar},
		{"ab;drop", ir.ErrNameChar},
		{`a"b`, ir.ErrNameChar},
		{"caf\u00e9", ir.ErrNameChar},
		{"select", ir.ErrReservedWord},
		{"SELECT", ir.ErrReservedWord},
		{"Where", ir.ErrReservedWord},
		{"order", ir.ErrReservedWord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntityName(tt.name)
			require.Error(t, err)
			assert.True(t, ir.IsKind(err, ir.KindLexical))
			assert.Equal(t, tt.code, ir.CodeOf(err))
		})
	}
}

func TestValidateColumnIdentifier(t *testing.T) {
	ref, err := ValidateColumnIdentifier("$user.$name")
	require.NoError(t, err)
	assert.Equal(t, ColumnRef{Table: "user", Column: "name"}, ref)
	assert.True(t, ref.Qualified())
	assert.Equal(t, "$user.$name", ref.String())

	ref, err = ValidateColumnIdentifier("$id")
	require.NoError(t, err)
	assert.Equal(t, ColumnRef{Column: "id"}, ref)
	assert.False(t, ref.Qualified())
	assert.Equal(t, "$id", ref.String())
}

func TestValidateColumnIdentifier_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		code    string
		message string
	}{
		{"three segments", "$a.$b.$c", ir.ErrTooManySegments, "at most two segments"},
		{"no sigil", "id", ir.ErrMissingSigil, "must start with $"},
		{"second segment without sigil", "$a.b", ir.ErrMissingSigil, "must start with $"},
		{"empty segment", "$", ir.ErrEmptyName, "must not be empty"},
		{"empty table", "$.$b", ir.ErrEmptyName, "must not be empty"},
		{"reserved column", "$users.$select", ir.ErrReservedWord, "reserved word"},
		{"bad char", "$us er", ir.ErrNameChar, "invalid character"},
		{"not a string", 42, ir.ErrInvalidIdentifier, "must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateColumnIdentifier(tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.code, ir.CodeOf(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestChecker_Custom(t *testing.T) {
	c := NewChecker("user")
	assert.Error(t, c.ValidateEntityName("USER"))
	assert.NoError(t, c.ValidateEntityName("select"))

	extended := c.With("session")
	assert.Error(t, extended.ValidateEntityName("Session"))
	assert.Error(t, extended.ValidateEntityName("user"))
	assert.NoError(t, c.ValidateEntityName("session"), "With must not modify the receiver")

	assert.Equal(t, []string{"session", "user"}, extended.Words())
}

func TestChecker_CaseFolding(t *testing.T) {
	// The Kelvin sign folds to "k".
	c := NewChecker("KEY")
	assert.True(t, c.IsReserved("\u212Aey"))
	assert.True(t, c.IsReserved("key"))
}

func TestValidateFieldPath(t *testing.T) {
	ref, err := Default.ValidateFieldPath("users.age")
	require.NoError(t, err)
	assert.Equal(t, ColumnRef{Table: "users", Column: "age"}, ref)

	ref, err = Default.ValidateFieldPath("age")
	require.NoError(t, err)
	assert.Equal(t, ColumnRef{Column: "age"}, ref)

	_, err = Default.ValidateFieldPath("a.b.c")
	assert.Equal(t, ir.ErrTooManySegments, ir.CodeOf(err))

	_, err = Default.ValidateFieldPath("users.")
	assert.Equal(t, ir.ErrEmptyName, ir.CodeOf(err))
}

func TestIsColumnIdentifier(t *testing.T) {
	assert.True(t, IsColumnIdentifier("$a"))
	assert.True(t, IsColumnIdentifier("$"))
	assert.False(t, IsColumnIdentifier("a"))
	assert.False(t, IsColumnIdentifier(1))
	assert.False(t, IsColumnIdentifier(nil))
}

func TestReservedWords(t *testing.T) {
	words := ReservedWords()
	assert.Contains(t, words, "SELECT")
	assert.Equal(t, "ADD", words[0])

	words[0] = "ACCOUNT"
	assert.Equal(t, "ADD", ReservedWords()[0])
	assert.Error(t, ValidateEntityName("add"))
	assert.NoError(t, ValidateEntityName("account"))
}
