package expr

import (
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/sqlir/internal/ir"
)

// Tag names an expression operator.
type Tag string

// String family
const (
	TagUUID     Tag = "UUID"
	TagConcat   Tag = "CONCAT"
	TagEncrypt  Tag = "ENCRYPT"
	TagDecrypt  Tag = "DECRYPT"
	TagLower    Tag = "LOWER"
	TagUpper    Tag = "UPPER"
	TagTrim     Tag = "TRIM"
	TagReplace  Tag = "REPLACE"
	TagSubstr   Tag = "SUBSTR"
	TagToString Tag = "TO_STRING"
)

// Date family
const (
	TagNow              Tag = "NOW"
	TagCurrentDate      Tag = "CURRENT_DATE"
	TagCurrentTime      Tag = "CURRENT_TIME"
	TagCurrentTimestamp Tag = "CURRENT_TIMESTAMP"
	TagDateAdd          Tag = "DATE_ADD"
	TagDateSub          Tag = "DATE_SUB"
)

// Number family
const (
	TagAdd      Tag = "ADD"
	TagSubtract Tag = "SUBTRACT"
	TagMultiply Tag = "MULTIPLY"
	TagDivide   Tag = "DIVIDE"
	TagModulo   Tag = "MODULO"
	TagLength   Tag = "LENGTH"
	TagAbs      Tag = "ABS"
	TagRound    Tag = "ROUND"
	TagDateDiff Tag = "DATE_DIFF"
)

// JSON family
const (
	TagJSONValue   Tag = "JSON_VALUE"
	TagJSONExtract Tag = "JSON_EXTRACT"
)

// Family is the result type of an expression.
type Family int

const (
	FamilyString Family = iota + 1
	FamilyDate
	FamilyNumber
	FamilyJSON
)

func (f Family) String() string {
	switch f {
	case FamilyString:
		return "string"
	case FamilyDate:
		return "date"
	case FamilyNumber:
		return "number"
	case FamilyJSON:
		return "JSON"
	default:
		return "unknown"
	}
}

// dateUnits is the closed set of units accepted by DATE_ADD, DATE_SUB and
// DATE_DIFF.
var dateUnits = []string{"SECOND", "MINUTE", "HOUR", "DAY", "WEEK", "MONTH", "YEAR"}

// DateUnits returns the units accepted by DATE_ADD, DATE_SUB and DATE_DIFF.
func DateUnits() []string {
	return slices.Clone(dateUnits)
}

var jsonPathPattern = regexp.MustCompile(`^\$(\.[A-Za-z_][A-Za-z0-9_]*|\[[0-9]+\])*$`)

// literal kinds a slot may accept
type kind uint8

const (
	kindString kind = 1 << iota
	kindNumber
	kindBool
	kindDate
	kindJSON
	kindJSONPath
	kindUnit
)

func (k kind) describe() []string {
	var out []string
	names := []struct {
		k    kind
		name string
	}{
		{kindString, "string"},
		{kindNumber, "number"},
		{kindBool, "boolean"},
		{kindDate, "date"},
		{kindJSON, "JSON object or array"},
		{kindJSONPath, "JSON path"},
		{kindUnit, "date unit (" + strings.Join(dateUnits, ", ") + ")"},
	}
	for _, n := range names {
		if k&n.k != 0 {
			out = append(out, n.name)
		}
	}
	return out
}

// slot describes one argument position.
type slot struct {
	literals kind
	column   bool
	families []Family
}

func (s slot) acceptsFamily(f Family) bool {
	return slices.Contains(s.families, f)
}

func (s slot) describe() string {
	parts := s.literals.describe()
	if s.column {
		parts = append(parts, "column identifier")
	}
	for _, f := range s.families {
		parts = append(parts, f.String()+" expression")
	}
	return strings.Join(parts, " or ")
}

var (
	stringSlot = slot{literals: kindString | kindNumber, column: true, families: []Family{FamilyString}}
	numberSlot = slot{literals: kindNumber, column: true, families: []Family{FamilyNumber}}
	dateSlot   = slot{literals: kindDate, column: true, families: []Family{FamilyDate}}
	jsonSlot   = slot{literals: kindJSON | kindString, column: true, families: []Family{FamilyJSON}}
	anySlot    = slot{
		literals: kindString | kindNumber | kindBool | kindDate,
		column:   true,
		families: []Family{FamilyString, FamilyDate, FamilyNumber, FamilyJSON},
	}
	unitSlot = slot{literals: kindUnit}
	pathSlot = slot{literals: kindJSONPath}
)

// signature is the argument shape of a tag. Fixed slots come first, then
// optional trailing slots. A variadic tag repeats rest with at least min
// arguments.
type signature struct {
	family   Family
	fixed    []slot
	optional []slot
	rest     *slot
	min      int
}

func (s signature) zeroArg() bool {
	return s.rest == nil && len(s.fixed) == 0 && len(s.optional) == 0
}

// slotAt returns the slot for argument i.
func (s signature) slotAt(i int) slot {
	if s.rest != nil {
		return *s.rest
	}
	if i < len(s.fixed) {
		return s.fixed[i]
	}
	return s.optional[i-len(s.fixed)]
}

func fixed(f Family, slots ...slot) signature {
	return signature{family: f, fixed: slots}
}

func variadic(f Family, min int, s slot) signature {
	return signature{family: f, rest: &s, min: min}
}

var catalog = map[Tag]signature{
	TagUUID:     fixed(FamilyString),
	TagConcat:   variadic(FamilyString, 1, stringSlot),
	TagEncrypt:  fixed(FamilyString, stringSlot, stringSlot),
	TagDecrypt:  fixed(FamilyString, stringSlot, stringSlot),
	TagLower:    fixed(FamilyString, stringSlot),
	TagUpper:    fixed(FamilyString, stringSlot),
	TagTrim:     fixed(FamilyString, stringSlot),
	TagReplace:  fixed(FamilyString, stringSlot, stringSlot, stringSlot),
	TagSubstr:   {family: FamilyString, fixed: []slot{stringSlot, numberSlot}, optional: []slot{numberSlot}},
	TagToString: fixed(FamilyString, anySlot),

	TagNow:              fixed(FamilyDate),
	TagCurrentDate:      fixed(FamilyDate),
	TagCurrentTime:      fixed(FamilyDate),
	TagCurrentTimestamp: fixed(FamilyDate),
	TagDateAdd:          fixed(FamilyDate, dateSlot, numberSlot, unitSlot),
	TagDateSub:          fixed(FamilyDate, dateSlot, numberSlot, unitSlot),

	TagAdd:      variadic(FamilyNumber, 2, numberSlot),
	TagSubtract: variadic(FamilyNumber, 2, numberSlot),
	TagMultiply: variadic(FamilyNumber, 2, numberSlot),
	TagDivide:   variadic(FamilyNumber, 2, numberSlot),
	TagModulo:   variadic(FamilyNumber, 2, numberSlot),
	TagLength:   fixed(FamilyNumber, stringSlot),
	TagAbs:      fixed(FamilyNumber, numberSlot),
	TagRound:    {family: FamilyNumber, fixed: []slot{numberSlot}, optional: []slot{numberSlot}},
	TagDateDiff: fixed(FamilyNumber, unitSlot, dateSlot, dateSlot),

	TagJSONValue:   fixed(FamilyJSON, jsonSlot, pathSlot),
	TagJSONExtract: fixed(FamilyJSON, jsonSlot, pathSlot),
}

// Tags returns the catalog in sorted order.
func Tags() []Tag {
	tags := make([]Tag, 0, len(catalog))
	for t := range catalog {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}

// Lookup reports whether tag is in the catalog and its result family.
func Lookup(tag string) (Family, bool) {
	sig, ok := catalog[Tag(tag)]
	return sig.family, ok
}

// IsGenerator reports whether tag is a zero-argument generator.
func (t Tag) IsGenerator() bool {
	return ir.IsGenerator(string(t))
}
