// Package expr implements the scalar expression sub-language.
//
// An expression candidate has the shape
//
//	{"$expr": "CONCAT", "$args": ["$first_name", " ", "$last_name"]}
//
// and zero-argument tags such as NOW carry only "$expr". Parsing returns a
// typed, immutable *Expression whose Family reports the result type.
//
// Each argument is interpreted in a fixed order and the first success
// wins:
//  1. ColumnIdentifier, when the argument is a "$"-prefixed string and the
//     slot accepts columns
//  2. Expression, when the argument is an object carrying "$expr" and the
//     slot accepts a sub-expression family
//  3. Literal of a kind the slot accepts
//
// A "$"-prefixed string in a column slot and an object carrying "$expr"
// commit to their interpretation: a malformed identifier or a sub-expression
// of the wrong family is reported as such instead of falling through to the
// literal attempt.
package expr

import (
	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/lexical"
)

// Keys of an expression candidate.
const (
	KeyExpr = "$expr"
	KeyArgs = "$args"
)

// Operand is an expression argument.
//
// This is a sealed interface: only Column, Literal, Unit and *Expression
// implement it.
type Operand interface {
	operand()
}

// Column references a column by identifier.
type Column struct {
	Ref lexical.ColumnRef
}

func (Column) operand() {}

// Literal is a constant argument.
type Literal struct {
	Value ir.Value
}

func (Literal) operand() {}

// Unit is a date unit keyword such as DAY. Units render unquoted.
type Unit string

func (Unit) operand() {}

// Expression is a validated expression tree.
type Expression struct {
	Tag  Tag
	Args []Operand
}

func (*Expression) operand() {}

// Family returns the result family of the expression.
func (e *Expression) Family() Family {
	return catalog[e.Tag].family
}

// Generator returns the generator e denotes when it is a zero-argument
// generator expression such as {"$expr": "NOW"}.
func (e *Expression) Generator() (ir.Generator, bool) {
	if len(e.Args) == 0 && e.Tag.IsGenerator() {
		return ir.Generator(e.Tag), true
	}
	return "", false
}

// Columns returns every column referenced by e and its sub-expressions in
// argument order.
func (e *Expression) Columns() []lexical.ColumnRef {
	var refs []lexical.ColumnRef
	for _, arg := range e.Args {
		switch a := arg.(type) {
		case Column:
			refs = append(refs, a.Ref)
		case *Expression:
			refs = append(refs, a.Columns()...)
		}
	}
	return refs
}

// IsExpression reports whether v has the shape of an expression candidate:
// an object carrying "$expr". It does not validate it.
func IsExpression(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m[KeyExpr]
	return ok
}
