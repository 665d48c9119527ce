package ir

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny_Scalars(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected Value
	}{
		{"nil", nil, Null{}},
		{"string", "abc", String("abc")},
		{"bool", true, Bool(true)},
		{"int", 7, Int(7)},
		{"int64", int64(-3), Int(-3)},
		{"uint8", uint8(200), Int(200)},
		{"integral float", float64(12), Int(12)},
		{"json integer", json.Number("42"), Int(42)},
		{"value passthrough", String("v"), String("v")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromAny_Float(t *testing.T) {
	got, err := FromAny(2.5)
	require.NoError(t, err)
	d, ok := got.(Decimal)
	require.True(t, ok, "expected Decimal, got %T", got)
	assert.Equal(t, "2.5", d.String())
}

func TestFromAny_NonFinite(t *testing.T) {
	_, err := FromAny(math.NaN())
	assert.Error(t, err)
	_, err = FromAny(math.Inf(1))
	assert.Error(t, err)
}

func TestFromAny_BigNumbers(t *testing.T) {
	got, err := FromAny(json.Number("99999999999999999999"))
	require.NoError(t, err)
	b, ok := got.(BigInt)
	require.True(t, ok, "expected BigInt, got %T", got)
	assert.Equal(t, "99999999999999999999", b.String())

	got, err = FromAny(uint64(math.MaxUint64))
	require.NoError(t, err)
	assert.IsType(t, BigInt{}, got)

	got, err = FromAny(json.Number("0.1"))
	require.NoError(t, err)
	d, ok := got.(Decimal)
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("0.1")))

	_, err = FromAny(json.Number("1x"))
	assert.Error(t, err)
}

func TestFromAny_Composite(t *testing.T) {
	got, err := FromAny(map[string]any{
		"list": []any{1, "a", nil},
		"when": time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	obj, ok := got.(Object)
	require.True(t, ok)
	assert.Equal(t, Array{Int(1), String("a"), Null{}}, obj["list"])
	assert.IsType(t, Date{}, obj["when"])
	assert.Equal(t, []string{"list", "when"}, obj.SortedKeys())
}

func TestFromAny_Unsupported(t *testing.T) {
	_, err := FromAny(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported literal type")

	_, err = FromAny([]any{complex(1, 2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array[0]")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "null", Describe(nil))
	assert.Equal(t, "string", Describe("x"))
	assert.Equal(t, "boolean", Describe(false))
	assert.Equal(t, "array", Describe([]any{}))
	assert.Equal(t, "object", Describe(map[string]any{}))
	assert.Equal(t, "date", Describe(time.Now()))
	assert.Equal(t, "number", Describe(3.5))
	assert.Equal(t, "number", Describe(json.Number("3")))
	assert.Equal(t, "bigint", Describe(json.Number("99999999999999999999")))
	n, _ := new(big.Int).SetString("99999999999999999999", 10)
	assert.Equal(t, "bigint", Describe(n))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2024-01-02", true},
		{"2024-01-02T03:04:05Z", true},
		{"2024-01-02T03:04:05.123Z", true},
		{"2024-01-02T03:04:05+02:00", true},
		{"2024-01-02 03:04:05", true},
		{"yesterday", false},
		{"2024-13-01", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, ok := ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
		})
	}

	_, ok := ParseDate(42)
	assert.False(t, ok)
}

func TestIsInteger(t *testing.T) {
	assert.True(t, IsInteger(3))
	assert.True(t, IsInteger(3.0))
	assert.True(t, IsInteger(json.Number("10")))
	assert.False(t, IsInteger(3.5))
	assert.False(t, IsInteger(json.Number("1.5")))
	assert.False(t, IsInteger("3"))
}

func TestDateISO(t *testing.T) {
	loc := time.FixedZone("plus2", 2*60*60)
	d := NewDate(time.Date(2024, 1, 1, 2, 0, 0, 0, loc))
	assert.Equal(t, "2024-01-01T00:00:00.000Z", d.ISO())
}
