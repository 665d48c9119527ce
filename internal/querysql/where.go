package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/sqlir/internal/filter"
	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/lexical"
)

var comparisons = map[filter.Op]string{
	filter.OpEq:  "=",
	filter.OpNe:  "<>",
	filter.OpGt:  ">",
	filter.OpGte: ">=",
	filter.OpLt:  "<",
	filter.OpLte: "<=",
}

// patternEscaper escapes LIKE wildcards for the substring operators,
// which are rendered with ESCAPE '\'.
var patternEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// set renders a filter set. Fields, $and groups and $or groups are AND-ed.
func (b *builder) set(s *filter.Set) (string, error) {
	parts, err := b.setParts(s)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, " AND "), nil
}

// nested renders a filter set that is one operand of AND or OR.
func (b *builder) nested(s *filter.Set) (string, error) {
	parts, err := b.setParts(s)
	if err != nil {
		return "", err
	}
	return group(parts, " AND "), nil
}

func (b *builder) setParts(s *filter.Set) ([]string, error) {
	if s.Empty() {
		return []string{"1 = 1"}, nil
	}
	var parts []string
	for _, f := range s.Fields {
		lhs, err := b.field(f.Ref)
		if err != nil {
			return nil, err
		}
		p, err := b.fieldFilter(lhs, f.Filter)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	groups, err := b.groups(s.And, s.Or)
	if err != nil {
		return nil, err
	}
	return append(parts, groups...), nil
}

// groups renders $and groups as one AND-ed part and $or groups as one
// OR-ed part.
func (b *builder) groups(and, or []*filter.Set) ([]string, error) {
	var parts []string
	for _, g := range []struct {
		sets []*filter.Set
		sep  string
	}{{and, " AND "}, {or, " OR "}} {
		if len(g.sets) == 0 {
			continue
		}
		items := make([]string, len(g.sets))
		for i, s := range g.sets {
			p, err := b.nested(s)
			if err != nil {
				return nil, err
			}
			items[i] = p
		}
		parts = append(parts, group(items, g.sep))
	}
	return parts, nil
}

// field renders the left-hand side of a predicate. Inside a SELECT, a bare
// name of a named expression stands for the expression itself.
func (b *builder) field(ref lexical.ColumnRef) (string, error) {
	if ref.Table == "" && b.scope != nil {
		if ne, ok := b.scope.sel.Expression(ref.Column); ok {
			if ne.Aggr != nil {
				return b.aggregate(ne.Aggr)
			}
			return b.expression(ne.Expr)
		}
	}
	return b.column(ref), nil
}

// fieldFilter renders every condition and group of f against lhs.
func (b *builder) fieldFilter(lhs string, f *filter.Filter) (string, error) {
	var parts []string
	for _, c := range f.Conditions {
		p, err := b.condition(lhs, c)
		if err != nil {
			return "", err
		}
		parts = append(parts, p)
	}
	groups, err := b.groups(f.And, f.Or)
	if err != nil {
		return "", err
	}
	parts = append(parts, groups...)
	if len(parts) == 0 {
		return "1 = 1", nil
	}
	return group(parts, " AND "), nil
}

func (b *builder) condition(lhs string, c filter.Condition) (string, error) {
	if c.Expr != nil {
		op, ok := comparisons[c.Op]
		if !ok {
			return "", fmt.Errorf("operator %s does not take an expression", c.Op)
		}
		rhs, err := b.expression(c.Expr)
		if err != nil {
			return "", err
		}
		return lhs + " " + op + " " + rhs, nil
	}

	switch c.Op {
	case filter.OpNull:
		if c.Value == ir.Bool(false) {
			return lhs + " IS NOT NULL", nil
		}
		return lhs + " IS NULL", nil

	case filter.OpEq, filter.OpNe:
		if isNull(c.Value) {
			if c.Op == filter.OpEq {
				return lhs + " IS NULL", nil
			}
			return lhs + " IS NOT NULL", nil
		}

	case filter.OpIn, filter.OpNin:
		arr, _ := c.Value.(ir.Array)
		if len(arr) == 0 {
			if c.Op == filter.OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		list, err := b.operand(arr)
		if err != nil {
			return "", err
		}
		if c.Op == filter.OpIn {
			return lhs + " IN " + list, nil
		}
		return lhs + " NOT IN " + list, nil

	case filter.OpBetween:
		arr, _ := c.Value.(ir.Array)
		if len(arr) != 2 {
			return "", fmt.Errorf("$between needs 2 bounds, got %d", len(arr))
		}
		lo, err := b.bind(arr[0])
		if err != nil {
			return "", err
		}
		hi, err := b.bind(arr[1])
		if err != nil {
			return "", err
		}
		return lhs + " BETWEEN " + lo + " AND " + hi, nil

	case filter.OpLike, filter.OpNlike:
		rhs, err := b.bind(c.Value)
		if err != nil {
			return "", err
		}
		if c.Op == filter.OpLike {
			return lhs + " LIKE " + rhs, nil
		}
		return lhs + " NOT LIKE " + rhs, nil

	case filter.OpIlike:
		rhs, err := b.bind(c.Value)
		if err != nil {
			return "", err
		}
		if b.d.Features.Ilike {
			return lhs + " ILIKE " + rhs, nil
		}
		return "LOWER(" + lhs + ") LIKE LOWER(" + rhs + ")", nil

	case filter.OpContains, filter.OpNcontains, filter.OpStartsWith, filter.OpEndsWith:
		s, _ := c.Value.(ir.String)
		pattern := patternEscaper.Replace(string(s))
		switch c.Op {
		case filter.OpStartsWith:
			pattern += "%"
		case filter.OpEndsWith:
			pattern = "%" + pattern
		default:
			pattern = "%" + pattern + "%"
		}
		rhs, err := b.bind(ir.String(pattern))
		if err != nil {
			return "", err
		}
		like := " LIKE "
		if c.Op == filter.OpNcontains {
			like = " NOT LIKE "
		}
		return lhs + like + rhs + " ESCAPE " + b.d.QuoteString(`\`), nil
	}

	op, ok := comparisons[c.Op]
	if !ok {
		return "", fmt.Errorf("unsupported filter operator: %s", c.Op)
	}
	rhs, err := b.operand(c.Value)
	if err != nil {
		return "", err
	}
	return lhs + " " + op + " " + rhs, nil
}

func isNull(v ir.Value) bool {
	switch v.(type) {
	case nil, ir.Null:
		return true
	}
	return false
}

// group joins parts with sep, parenthesized when there is more than one.
func group(parts []string, sep string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, sep) + ")"
}
