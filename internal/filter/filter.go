// Package filter implements the predicate sub-language.
//
// A field filter is interpreted in a fixed order and the first matching
// form wins:
//  1. null: the field IS NULL
//  2. an expression object ({"$expr": ...}): the field equals it
//  3. a bare scalar: the field equals it
//  4. a single-element array: shorthand for $in
//  5. an operator object such as {"$gte": 18, "$lt": 65}
//
// A filter set (QueryFilters) is an object keyed by field path, "column"
// or "table.column", plus optional "$and" and "$or" arrays of nested sets.
package filter

import (
	"slices"

	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/lexical"
)

// Condition is one operator applied to a field. Exactly one of Value and
// Expr is set.
type Condition struct {
	Op    Op
	Value ir.Value
	Expr  *expr.Expression
}

// Filter is a validated field filter. Its conditions, And groups and Or
// groups are all AND-ed together.
type Filter struct {
	Conditions []Condition
	And        []*Set
	Or         []*Set
}

// Set is a validated filter set.
type Set struct {
	Fields []Field
	And    []*Set
	Or     []*Set
}

// Field binds a filter to a field path.
type Field struct {
	Path   string
	Ref    lexical.ColumnRef
	Filter *Filter
}

// Empty reports whether the set contains no predicates.
func (s *Set) Empty() bool {
	return s == nil || (len(s.Fields) == 0 && len(s.And) == 0 && len(s.Or) == 0)
}

// Parser validates filters. It is safe for concurrent use.
type Parser struct {
	checker *lexical.Checker
	exprs   *expr.Parser
}

// NewParser returns a parser using checker for field paths. A nil checker
// selects lexical.Default.
func NewParser(checker *lexical.Checker) *Parser {
	if checker == nil {
		checker = lexical.Default
	}
	return &Parser{checker: checker, exprs: expr.NewParser(checker)}
}

var defaultParser = NewParser(nil)

// Validate parses a field filter with the default parser.
func Validate(value any, hint ValueType) (*Filter, error) {
	return defaultParser.Filter(value, hint, ir.Root("", 0))
}

// ValidateSet parses a filter set with the default parser.
func ValidateSet(obj any) (*Set, error) {
	return defaultParser.Set(obj, ir.Root("", 0))
}

// Filter validates a field filter at cur.
func (p *Parser) Filter(value any, hint ValueType, cur ir.Cursor) (*Filter, error) {
	cur, err := cur.Descend()
	if err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case nil, ir.Null:
		return single(OpNull, ir.Bool(true)), nil
	case []any:
		if len(v) != 1 {
			return nil, ir.Shape(ir.ErrInvalidValue, cur.Path(),
				"array shorthand must have exactly one element, got %d; use $in", len(v))
		}
		lit, err := p.scalar(v[0], cur.Index(0))
		if err != nil {
			return nil, err
		}
		return single(OpIn, ir.Array{lit}), nil
	case map[string]any:
		if expr.IsExpression(v) {
			e, err := p.exprs.Parse(v, cur)
			if err != nil {
				return nil, err
			}
			return &Filter{Conditions: []Condition{{Op: OpEq, Expr: e}}}, nil
		}
		return p.operators(v, hint, cur)
	}

	if ir.IsScalar(value) {
		lit, err := ir.FromAny(value)
		if err != nil {
			return nil, ir.Shape(ir.ErrInvalidValue, cur.Path(), "%v", err)
		}
		return single(OpEq, lit), nil
	}
	return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "filter must be null, a scalar, an array or an object, got %s", ir.Describe(value))
}

func single(op Op, v ir.Value) *Filter {
	return &Filter{Conditions: []Condition{{Op: op, Value: v}}}
}

func (p *Parser) operators(obj map[string]any, hint ValueType, cur ir.Cursor) (*Filter, error) {
	if len(obj) == 0 {
		return nil, ir.Shape(ir.ErrInvalidValue, cur.Path(), "operator object must not be empty")
	}
	allowed := Catalog(hint)
	out := &Filter{}
	for _, key := range ir.SortedKeys(obj) {
		keyCur := cur.Key(key)
		val := obj[key]

		switch key {
		case KeyAnd, KeyOr:
			groups, err := p.groups(val, keyCur)
			if err != nil {
				return nil, err
			}
			if key == KeyAnd {
				out.And = groups
			} else {
				out.Or = groups
			}
			continue
		}

		op := Op(key)
		if !slices.Contains(allowed, op) {
			if slices.Contains(Catalog(TypeAny), op) {
				return nil, ir.UnknownTag(keyCur.Path(), "operator %q is not available for %s filters", key, hint)
			}
			return nil, ir.UnknownTag(keyCur.Path(), "unknown filter operator %q", key)
		}
		cond, err := p.condition(op, val, keyCur)
		if err != nil {
			return nil, err
		}
		out.Conditions = append(out.Conditions, cond)
	}
	return out, nil
}

func (p *Parser) condition(op Op, val any, cur ir.Cursor) (Condition, error) {
	switch op {
	case OpNull:
		b, ok := val.(bool)
		if !ok {
			return Condition{}, ir.Shape(ir.ErrWrongType, cur.Path(), "$null expects a boolean, got %s", ir.Describe(val))
		}
		return Condition{Op: op, Value: ir.Bool(b)}, nil

	case OpIn, OpNin:
		list, ok := val.([]any)
		if !ok {
			return Condition{}, ir.Shape(ir.ErrWrongType, cur.Path(), "%s expects an array, got %s", op, ir.Describe(val))
		}
		arr := make(ir.Array, len(list))
		for i, item := range list {
			lit, err := p.scalar(item, cur.Index(i))
			if err != nil {
				return Condition{}, err
			}
			arr[i] = lit
		}
		return Condition{Op: op, Value: arr}, nil

	case OpBetween:
		list, ok := val.([]any)
		if !ok {
			return Condition{}, ir.Shape(ir.ErrWrongType, cur.Path(), "$between expects a 2-element array, got %s", ir.Describe(val))
		}
		if len(list) != 2 {
			return Condition{}, ir.Shape(ir.ErrArity, cur.Path(), "$between expects 2 bounds, got %d", len(list))
		}
		bounds := make(ir.Array, 2)
		for i, item := range list {
			b, err := bound(item, cur.Index(i))
			if err != nil {
				return Condition{}, err
			}
			bounds[i] = b
		}
		return Condition{Op: op, Value: bounds}, nil
	}

	if op.IsPattern() {
		s, ok := val.(string)
		if !ok {
			return Condition{}, ir.Shape(ir.ErrWrongType, cur.Path(), "%s expects a string, got %s", op, ir.Describe(val))
		}
		return Condition{Op: op, Value: ir.String(s)}, nil
	}

	// $eq, $ne and the comparison operators accept any value.
	if expr.IsExpression(val) {
		e, err := p.exprs.Parse(val, cur)
		if err != nil {
			return Condition{}, err
		}
		return Condition{Op: op, Expr: e}, nil
	}
	lit, err := ir.FromAny(val)
	if err != nil {
		return Condition{}, ir.Shape(ir.ErrWrongType, cur.Path(), "%s: %v", op, err)
	}
	return Condition{Op: op, Value: lit}, nil
}

// scalar converts a list element, which must be a scalar or null.
func (p *Parser) scalar(v any, cur ir.Cursor) (ir.Value, error) {
	if v != nil && !ir.IsScalar(v) {
		return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "expected a scalar, got %s", ir.Describe(v))
	}
	lit, err := ir.FromAny(v)
	if err != nil {
		return nil, ir.Shape(ir.ErrInvalidValue, cur.Path(), "%v", err)
	}
	return lit, nil
}

// bound converts a $between bound: a number, a big integer or a date,
// where ISO-8601 strings parse as dates.
func bound(v any, cur ir.Cursor) (ir.Value, error) {
	if ir.IsNumber(v) {
		lit, err := ir.FromAny(v)
		if err != nil {
			return nil, ir.Shape(ir.ErrInvalidValue, cur.Path(), "%v", err)
		}
		return lit, nil
	}
	if t, ok := ir.ParseDate(v); ok {
		return ir.NewDate(t), nil
	}
	return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "$between bounds must be number, bigint or date, got %s", ir.Describe(v))
}

func (p *Parser) groups(v any, cur ir.Cursor) ([]*Set, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "expected an array of filter sets, got %s", ir.Describe(v))
	}
	if len(list) == 0 {
		return nil, ir.Shape(ir.ErrArity, cur.Path(), "expected at least 1 filter set")
	}
	out := make([]*Set, len(list))
	for i, item := range list {
		s, err := p.Set(item, cur.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// Set validates a filter set at cur.
func (p *Parser) Set(obj any, cur ir.Cursor) (*Set, error) {
	cur, err := cur.Descend()
	if err != nil {
		return nil, err
	}

	m, ok := obj.(map[string]any)
	if !ok {
		return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "filters must be an object, got %s", ir.Describe(obj))
	}
	out := &Set{}
	for _, key := range ir.SortedKeys(m) {
		keyCur := cur.Key(key)
		switch {
		case key == KeyAnd || key == KeyOr:
			groups, err := p.groups(m[key], keyCur)
			if err != nil {
				return nil, err
			}
			if key == KeyAnd {
				out.And = groups
			} else {
				out.Or = groups
			}
		case len(key) > 0 && key[0] == '$':
			return nil, ir.UnknownTag(keyCur.Path(), "unknown filter combinator %q, expected %q or %q", key, KeyAnd, KeyOr)
		default:
			ref, err := p.checker.ValidateFieldPath(key)
			if err != nil {
				return nil, ir.AtPath(err, keyCur.Path())
			}
			f, err := p.Filter(m[key], TypeAny, keyCur)
			if err != nil {
				return nil, err
			}
			out.Fields = append(out.Fields, Field{Path: key, Ref: ref, Filter: f})
		}
	}
	return out, nil
}
