package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/shopspring/decimal"
)

// Value is a sealed interface representing a literal in the IR.
// Only Null, String, Int, BigInt, Decimal, Bool, Date, Array and Object
// implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents SQL NULL.
type Null struct{}

func (Null) irValue() {}

// String represents a string literal.
type String string

func (String) irValue() {}

// Int represents an integer literal that fits in int64.
type Int int64

func (Int) irValue() {}

// BigInt represents an integer literal outside the int64 range.
type BigInt struct {
	v *big.Int
}

func (BigInt) irValue() {}

// NewBigInt wraps a copy of n.
func NewBigInt(n *big.Int) BigInt {
	return BigInt{v: new(big.Int).Set(n)}
}

// String returns the decimal digits of the integer.
func (b BigInt) String() string {
	if b.v == nil {
		return "0"
	}
	return b.v.String()
}

// Decimal represents a non-integral numeric literal.
// Binary floats never reach rendered SQL; they are converted here.
type Decimal struct {
	decimal.Decimal
}

func (Decimal) irValue() {}

// NewDecimal wraps d.
func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{Decimal: d}
}

// Bool represents a boolean literal.
type Bool bool

func (Bool) irValue() {}

// Date represents a point in time.
type Date struct {
	time.Time
}

func (Date) irValue() {}

// NewDate wraps t.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// ISO returns the ISO-8601 rendering used for SQL literals: UTC with
// millisecond precision.
func (d Date) ISO() string {
	return d.UTC().Format(ISOLayout)
}

// ISOLayout is the layout used to render Date literals.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Array represents a list of values.
type Array []Value

func (Array) irValue() {}

// Object represents a map of string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 byte order, which differs for astral runes.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// SortedKeys returns the keys of a candidate map in the same order used by
// Object.SortedKeys.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// FromAny converts a decoded candidate value into a Value.
//
// Accepted inputs are the shapes produced by encoding/json (with or without
// UseNumber), yaml.v3 and CUE decoding, plus Value itself and time.Time.
// Integers that overflow int64 become BigInt; non-integral numbers become
// Decimal.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return fromUint(uint64(val)), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		return fromUint(val), nil
	case float32:
		return fromFloat(float64(val))
	case float64:
		return fromFloat(val)
	case json.Number:
		return fromNumberString(string(val))
	case *big.Int:
		if val.IsInt64() {
			return Int(val.Int64()), nil
		}
		return NewBigInt(val), nil
	case decimal.Decimal:
		return NewDecimal(val), nil
	case time.Time:
		return NewDate(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			item, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = item
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			item, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = item
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", v)
	}
}

func fromUint(u uint64) Value {
	if u <= math.MaxInt64 {
		return Int(int64(u))
	}
	return NewBigInt(new(big.Int).SetUint64(u))
}

func fromFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite number %v is not a valid literal", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return Int(int64(f)), nil
	}
	return NewDecimal(decimal.NewFromFloat(f)), nil
}

func fromNumberString(s string) (Value, error) {
	if !strings.ContainsAny(s, ".eE") {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		if n.IsInt64() {
			return Int(n.Int64()), nil
		}
		return NewBigInt(n), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return NewDecimal(d), nil
}

// IsNumber reports whether v is a candidate numeric value (any Go numeric
// type, json.Number, *big.Int, decimal.Decimal or a numeric Value).
func IsNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number, *big.Int, decimal.Decimal, Int, BigInt, Decimal:
		return true
	}
	return false
}

// IsBigInt reports whether v is an integer that does not fit in int64.
func IsBigInt(v any) bool {
	switch val := v.(type) {
	case *big.Int:
		return !val.IsInt64()
	case BigInt:
		return true
	case uint64:
		return val > math.MaxInt64
	case uint:
		return uint64(val) > math.MaxInt64
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return false
		}
		n, ok := new(big.Int).SetString(s, 10)
		return ok && !n.IsInt64()
	}
	return false
}

// IsInteger reports whether v is a candidate integral number.
func IsInteger(v any) bool {
	switch val := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, *big.Int, Int, BigInt:
		return true
	case float32:
		return float64(val) == math.Trunc(float64(val))
	case float64:
		return val == math.Trunc(val) && !math.IsInf(val, 0)
	case json.Number:
		return !strings.ContainsAny(string(val), ".eE")
	case decimal.Decimal:
		return val.IsInteger()
	case Decimal:
		return val.IsInteger()
	}
	return false
}

// IsScalar reports whether v is a candidate scalar: string, bool, number or
// date. Null is not a scalar.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool, String, Bool:
		return true
	}
	return IsNumber(v) || IsDate(v)
}

// IsDate reports whether v is a time value, either time.Time or Date.
// Strings are not dates here; see ParseDate.
func IsDate(v any) bool {
	switch v.(type) {
	case time.Time, Date:
		return true
	}
	return false
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate interprets v as a date: a time value or an ISO-8601 string.
func ParseDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case Date:
		return val.Time, true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Describe names the shape of a candidate value for error messages.
func Describe(v any) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case string, String:
		return "string"
	case bool, Bool:
		return "boolean"
	case []any, Array:
		return "array"
	case map[string]any, Object:
		return "object"
	case time.Time, Date:
		return "date"
	default:
		if IsBigInt(val) {
			return "bigint"
		}
		if IsNumber(val) {
			return "number"
		}
		return fmt.Sprintf("%T", v)
	}
}
