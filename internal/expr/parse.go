package expr

import (
	"slices"
	"strings"

	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/lexical"
)

// Parser validates expression candidates against a reserved-word checker.
// A Parser holds no mutable state and is safe for concurrent use.
type Parser struct {
	checker *lexical.Checker
}

// NewParser returns a parser using checker for column identifiers. A nil
// checker selects lexical.Default.
func NewParser(checker *lexical.Checker) *Parser {
	if checker == nil {
		checker = lexical.Default
	}
	return &Parser{checker: checker}
}

var defaultParser = NewParser(nil)

// Validate parses node with the default checker and depth limit.
func Validate(node any) (*Expression, error) {
	return defaultParser.Parse(node, ir.Root("", 0))
}

// IsStringExpression reports whether node is a valid string expression.
func IsStringExpression(node any) bool { return isFamily(node, FamilyString) }

// IsDateExpression reports whether node is a valid date expression.
func IsDateExpression(node any) bool { return isFamily(node, FamilyDate) }

// IsNumberExpression reports whether node is a valid number expression.
func IsNumberExpression(node any) bool { return isFamily(node, FamilyNumber) }

// IsJSONExpression reports whether node is a valid JSON expression.
func IsJSONExpression(node any) bool { return isFamily(node, FamilyJSON) }

func isFamily(node any, f Family) bool {
	e, err := Validate(node)
	return err == nil && e.Family() == f
}

// Parse validates node at cur and returns the typed tree.
func (p *Parser) Parse(node any, cur ir.Cursor) (*Expression, error) {
	cur, err := cur.Descend()
	if err != nil {
		return nil, err
	}

	m, ok := node.(map[string]any)
	if !ok {
		return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "expression must be an object, got %s", ir.Describe(node))
	}

	// Step 1: the tag.
	rawTag, ok := m[KeyExpr]
	if !ok {
		return nil, ir.Shape(ir.ErrMissingKey, cur.Path(), "expression requires %q", KeyExpr)
	}
	name, ok := rawTag.(string)
	if !ok {
		return nil, ir.Shape(ir.ErrWrongType, cur.Key(KeyExpr).Path(),
			"expression tag must be a string, got %s", ir.Describe(rawTag))
	}
	tag := Tag(name)
	sig, ok := catalog[tag]
	if !ok {
		return nil, ir.UnknownTag(cur.Key(KeyExpr).Path(),
			"unknown expression %q, expected one of: %s", name, catalogList())
	}
	for _, k := range ir.SortedKeys(m) {
		if k != KeyExpr && k != KeyArgs {
			return nil, ir.Shape(ir.ErrUnexpectedKey, cur.Key(k).Path(), "unexpected key %q in %s expression", k, tag)
		}
	}

	// Step 2: the per-tag shape.
	rawArgs, hasArgs := m[KeyArgs]
	if sig.zeroArg() {
		if hasArgs {
			return nil, ir.Shape(ir.ErrUnexpectedKey, cur.Key(KeyArgs).Path(), "%s takes no arguments", tag)
		}
		return &Expression{Tag: tag}, nil
	}
	if !hasArgs {
		return nil, ir.Shape(ir.ErrMissingKey, cur.Path(), "%s requires %q", tag, KeyArgs)
	}
	args, ok := rawArgs.([]any)
	if !ok {
		return nil, ir.Shape(ir.ErrWrongType, cur.Key(KeyArgs).Path(),
			"%s arguments must be an array, got %s", tag, ir.Describe(rawArgs))
	}
	if err := checkArity(tag, sig, len(args), cur.Key(KeyArgs).Path()); err != nil {
		return nil, err
	}

	out := &Expression{Tag: tag, Args: make([]Operand, len(args))}
	argsCur := cur.Key(KeyArgs)
	for i, a := range args {
		op, err := p.operand(sig.slotAt(i), a, argsCur.Index(i))
		if err != nil {
			return nil, err
		}
		out.Args[i] = op
	}
	return out, nil
}

func checkArity(tag Tag, sig signature, n int, path string) error {
	if sig.rest != nil {
		if n < sig.min {
			return ir.Shape(ir.ErrArity, path, "%s expects at least %d arguments, got %d", tag, sig.min, n)
		}
		return nil
	}
	lo, hi := len(sig.fixed), len(sig.fixed)+len(sig.optional)
	if n >= lo && n <= hi {
		return nil
	}
	if lo == hi {
		return ir.Shape(ir.ErrArity, path, "%s expects %d arguments, got %d", tag, lo, n)
	}
	return ir.Shape(ir.ErrArity, path, "%s expects %d to %d arguments, got %d", tag, lo, hi, n)
}

// operand interprets one argument against its slot.
func (p *Parser) operand(s slot, v any, cur ir.Cursor) (Operand, error) {
	if s.column && lexical.IsColumnIdentifier(v) {
		ref, err := p.checker.ValidateColumnIdentifier(v)
		if err != nil {
			return nil, ir.AtPath(err, cur.Path())
		}
		return Column{Ref: ref}, nil
	}

	if IsExpression(v) {
		if len(s.families) == 0 {
			return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "expected %s, got expression", s.describe())
		}
		sub, err := p.Parse(v, cur)
		if err != nil {
			return nil, err
		}
		if !s.acceptsFamily(sub.Family()) {
			return nil, ir.Shape(ir.ErrWrongFamily, cur.Path(),
				"%s is a %s expression, expected %s", sub.Tag, sub.Family(), s.describe())
		}
		return sub, nil
	}

	if op, ok := literal(s.literals, v); ok {
		return op, nil
	}
	return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "expected %s, got %s", s.describe(), ir.Describe(v))
}

// literal converts v when its kind is accepted.
func literal(k kind, v any) (Operand, bool) {
	if k&kindUnit != 0 {
		if s, ok := v.(string); ok && slices.Contains(dateUnits, s) {
			return Unit(s), true
		}
	}
	if k&kindJSONPath != 0 {
		if s, ok := v.(string); ok && jsonPathPattern.MatchString(s) {
			return Literal{Value: ir.String(s)}, true
		}
	}
	if k&kindNumber != 0 && ir.IsNumber(v) {
		if val, err := ir.FromAny(v); err == nil {
			return Literal{Value: val}, true
		}
	}
	if k&kindBool != 0 {
		if b, ok := v.(bool); ok {
			return Literal{Value: ir.Bool(b)}, true
		}
	}
	if k&kindString != 0 {
		if s, ok := v.(string); ok {
			return Literal{Value: ir.String(s)}, true
		}
	}
	if k&kindDate != 0 {
		if t, ok := ir.ParseDate(v); ok {
			return Literal{Value: ir.NewDate(t)}, true
		}
	}
	if k&kindJSON != 0 {
		switch v.(type) {
		case map[string]any, []any:
			if val, err := ir.FromAny(v); err == nil {
				return Literal{Value: val}, true
			}
		}
	}
	return nil, false
}

func catalogList() string {
	tags := Tags()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
