// Package aggregate implements the aggregate sub-language used in SELECT
// projections and HAVING clauses.
//
// A candidate has the shape {"$aggr": TAG, "$args": ...}. The shape of
// "$args" depends on the tag:
//
//	SUM, AVG, MIN, MAX       a single column identifier
//	COUNT                    the string "1" or "*"
//	COUNT_DISTINCT, DISTINCT a non-empty array of column identifiers
//	JSON_ROW                 an object of entity-name keys to column
//	                         identifiers, expressions or aggregates
//
// JSON_ROW values are tried as column identifier, then expression, then
// aggregate; the first success wins.
package aggregate

import (
	"slices"
	"strings"

	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/lexical"
)

// Keys of an aggregate candidate.
const (
	KeyAggr = "$aggr"
	KeyArgs = "$args"
)

// Tag names an aggregate.
type Tag string

const (
	TagSum           Tag = "SUM"
	TagAvg           Tag = "AVG"
	TagCount         Tag = "COUNT"
	TagCountDistinct Tag = "COUNT_DISTINCT"
	TagDistinct      Tag = "DISTINCT"
	TagMax           Tag = "MAX"
	TagMin           Tag = "MIN"
	TagJSONRow       Tag = "JSON_ROW"
)

var tags = []Tag{TagAvg, TagCount, TagCountDistinct, TagDistinct, TagJSONRow, TagMax, TagMin, TagSum}

// Tags returns the catalog in sorted order.
func Tags() []Tag {
	return slices.Clone(tags)
}

// Aggregate is a validated aggregate. Which fields are set depends on Tag.
type Aggregate struct {
	Tag Tag

	// Column is the argument of SUM, AVG, MIN and MAX.
	Column lexical.ColumnRef

	// Star is true for COUNT(*) and false for COUNT(1).
	Star bool

	// Columns are the arguments of COUNT_DISTINCT and DISTINCT.
	Columns []lexical.ColumnRef

	// Fields are the entries of JSON_ROW, sorted by key.
	Fields []Field
}

// Field is one JSON_ROW entry.
type Field struct {
	Key   string
	Value RowValue
}

// RowValue is a JSON_ROW entry value.
//
// This is a sealed interface: only ColumnValue, ExpressionValue and
// AggregateValue implement it.
type RowValue interface {
	rowValue()
}

// ColumnValue is a column identifier entry.
type ColumnValue struct {
	Ref lexical.ColumnRef
}

func (ColumnValue) rowValue() {}

// ExpressionValue is an expression entry.
type ExpressionValue struct {
	Expr *expr.Expression
}

func (ExpressionValue) rowValue() {}

// AggregateValue is a nested aggregate entry.
type AggregateValue struct {
	Aggr *Aggregate
}

func (AggregateValue) rowValue() {}

// IsAggregate reports whether v has the shape of an aggregate candidate:
// an object carrying "$aggr". It does not validate it.
func IsAggregate(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m[KeyAggr]
	return ok
}

// Parser validates aggregate candidates. It is safe for concurrent use.
type Parser struct {
	checker *lexical.Checker
	exprs   *expr.Parser
}

// NewParser returns a parser using checker for names and identifiers. A
// nil checker selects lexical.Default.
func NewParser(checker *lexical.Checker) *Parser {
	if checker == nil {
		checker = lexical.Default
	}
	return &Parser{checker: checker, exprs: expr.NewParser(checker)}
}

var defaultParser = NewParser(nil)

// Validate parses node with the default checker and depth limit.
func Validate(node any) (*Aggregate, error) {
	return defaultParser.Parse(node, ir.Root("", 0))
}

// Parse validates node at cur and returns the typed aggregate.
func (p *Parser) Parse(node any, cur ir.Cursor) (*Aggregate, error) {
	cur, err := cur.Descend()
	if err != nil {
		return nil, err
	}

	m, ok := node.(map[string]any)
	if !ok {
		return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "aggregate must be an object, got %s", ir.Describe(node))
	}
	rawTag, ok := m[KeyAggr]
	if !ok {
		return nil, ir.Shape(ir.ErrMissingKey, cur.Path(), "aggregate requires %q", KeyAggr)
	}
	name, ok := rawTag.(string)
	if !ok {
		return nil, ir.Shape(ir.ErrWrongType, cur.Key(KeyAggr).Path(),
			"aggregate tag must be a string, got %s", ir.Describe(rawTag))
	}
	tag := Tag(name)
	if !slices.Contains(tags, tag) {
		return nil, ir.UnknownTag(cur.Key(KeyAggr).Path(),
			"unknown aggregate %q, expected one of: %s", name, tagList())
	}
	for _, k := range ir.SortedKeys(m) {
		if k != KeyAggr && k != KeyArgs {
			return nil, ir.Shape(ir.ErrUnexpectedKey, cur.Key(k).Path(), "unexpected key %q in %s aggregate", k, tag)
		}
	}
	args, ok := m[KeyArgs]
	if !ok {
		return nil, ir.Shape(ir.ErrMissingKey, cur.Path(), "%s requires %q", tag, KeyArgs)
	}
	argsCur := cur.Key(KeyArgs)

	switch tag {
	case TagSum, TagAvg, TagMin, TagMax:
		ref, err := p.column(args, argsCur)
		if err != nil {
			return nil, err
		}
		return &Aggregate{Tag: tag, Column: ref}, nil

	case TagCount:
		if s, ok := args.(string); ok && (s == "*" || s == "1") {
			return &Aggregate{Tag: tag, Star: s == "*"}, nil
		}
		return nil, ir.Shape(ir.ErrInvalidValue, argsCur.Path(), `COUNT expected "1" or "*", got %s`, describeArg(args))

	case TagCountDistinct, TagDistinct:
		list, ok := args.([]any)
		if !ok {
			return nil, ir.Shape(ir.ErrWrongType, argsCur.Path(),
				"%s expects an array of column identifiers, got %s", tag, ir.Describe(args))
		}
		if len(list) == 0 {
			return nil, ir.Shape(ir.ErrArity, argsCur.Path(), "%s expects at least 1 column", tag)
		}
		out := &Aggregate{Tag: tag, Columns: make([]lexical.ColumnRef, len(list))}
		for i, item := range list {
			ref, err := p.column(item, argsCur.Index(i))
			if err != nil {
				return nil, err
			}
			out.Columns[i] = ref
		}
		return out, nil

	default: // TagJSONRow
		return p.jsonRow(args, argsCur)
	}
}

func (p *Parser) column(v any, cur ir.Cursor) (lexical.ColumnRef, error) {
	ref, err := p.checker.ValidateColumnIdentifier(v)
	if err != nil {
		return lexical.ColumnRef{}, ir.AtPath(err, cur.Path())
	}
	return ref, nil
}

func (p *Parser) jsonRow(args any, cur ir.Cursor) (*Aggregate, error) {
	obj, ok := args.(map[string]any)
	if !ok {
		return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "JSON_ROW expects an object, got %s", ir.Describe(args))
	}
	if len(obj) == 0 {
		return nil, ir.Shape(ir.ErrArity, cur.Path(), "JSON_ROW expects at least 1 entry")
	}

	out := &Aggregate{Tag: TagJSONRow}
	for _, key := range ir.SortedKeys(obj) {
		fieldCur := cur.Key(key)
		if err := p.checker.ValidateEntityName(key); err != nil {
			return nil, ir.AtPath(err, fieldCur.Path())
		}
		val, err := p.rowValue(obj[key], fieldCur)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, Field{Key: key, Value: val})
	}
	return out, nil
}

// rowValue tries column identifier, expression, then aggregate.
func (p *Parser) rowValue(v any, cur ir.Cursor) (RowValue, error) {
	switch {
	case lexical.IsColumnIdentifier(v):
		ref, err := p.column(v, cur)
		if err != nil {
			return nil, err
		}
		return ColumnValue{Ref: ref}, nil
	case expr.IsExpression(v):
		e, err := p.exprs.Parse(v, cur)
		if err != nil {
			return nil, err
		}
		return ExpressionValue{Expr: e}, nil
	case IsAggregate(v):
		a, err := p.Parse(v, cur)
		if err != nil {
			return nil, err
		}
		return AggregateValue{Aggr: a}, nil
	}
	return nil, ir.Shape(ir.ErrWrongType, cur.Path(),
		"expected column identifier, expression or aggregate, got %s", describeArg(v))
}

func describeArg(v any) string {
	if s, ok := v.(string); ok {
		return `"` + s + `"`
	}
	return ir.Describe(v)
}

func tagList() string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
