package filter

import "slices"

// Op is a filter operator.
type Op string

const (
	OpEq         Op = "$eq"
	OpNe         Op = "$ne"
	OpNull       Op = "$null"
	OpIn         Op = "$in"
	OpNin        Op = "$nin"
	OpBetween    Op = "$between"
	OpGt         Op = "$gt"
	OpGte        Op = "$gte"
	OpLt         Op = "$lt"
	OpLte        Op = "$lte"
	OpLike       Op = "$like"
	OpNlike      Op = "$nlike"
	OpIlike      Op = "$ilike"
	OpContains   Op = "$contains"
	OpNcontains  Op = "$ncontains"
	OpStartsWith Op = "$startsWith"
	OpEndsWith   Op = "$endsWith"
)

// Combinators of a filter set.
const (
	KeyAnd = "$and"
	KeyOr  = "$or"
)

// ValueType is the value type of the field a filter targets. The zero
// value TypeAny accepts every operator.
type ValueType int

const (
	TypeAny ValueType = iota
	TypeString
	TypeNumber
	TypeBigInt
	TypeBoolean
	TypeDate
)

func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBigInt:
		return "bigint"
	case TypeBoolean:
		return "boolean"
	case TypeDate:
		return "date"
	default:
		return "any"
	}
}

var (
	commonOps  = []Op{OpEq, OpNe, OpNull, OpIn, OpNin}
	orderedOps = []Op{OpBetween, OpGt, OpGte, OpLt, OpLte}
	patternOps = []Op{OpLike, OpNlike, OpIlike, OpContains, OpNcontains, OpStartsWith, OpEndsWith}
)

// Catalog returns the operators permitted for a value type.
func Catalog(t ValueType) []Op {
	switch t {
	case TypeString:
		return slices.Concat(commonOps, patternOps)
	case TypeNumber, TypeBigInt, TypeDate:
		return slices.Concat(commonOps, orderedOps)
	case TypeBoolean:
		return slices.Clone(commonOps)
	default:
		return slices.Concat(commonOps, orderedOps, patternOps)
	}
}

// IsPattern reports whether op matches strings by pattern.
func (op Op) IsPattern() bool {
	return slices.Contains(patternOps, op)
}

// Negated reports whether op is the negated form of another operator.
func (op Op) Negated() bool {
	switch op {
	case OpNe, OpNin, OpNlike, OpNcontains:
		return true
	}
	return false
}
