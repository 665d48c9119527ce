package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/sqlir/internal/aggregate"
	"github.com/roach88/sqlir/internal/dialect"
	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/ir"
)

// expression renders an expression tree. Literals inside expressions are
// always inlined.
func (b *builder) expression(e *expr.Expression) (string, error) {
	if g, ok := e.Generator(); ok {
		if _, mapped := b.d.Function(e.Tag); !mapped {
			return b.generator(g)
		}
	}

	args := make([]string, len(e.Args))
	for i, arg := range e.Args {
		var (
			s   string
			err error
		)
		switch a := arg.(type) {
		case expr.Column:
			s = b.column(a.Ref)
		case expr.Literal:
			s, err = b.literal(a.Value)
		case expr.Unit:
			s = string(a)
		case *expr.Expression:
			s, err = b.expression(a)
		default:
			err = fmt.Errorf("unsupported operand type: %T", arg)
		}
		if err != nil {
			return "", err
		}
		args[i] = s
	}

	fn, ok := b.d.Function(e.Tag)
	if !ok {
		return "", b.unsupported("%s", e.Tag)
	}
	return fn(args)
}

func (b *builder) generator(g ir.Generator) (string, error) {
	spec, ok := b.d.Generator(g)
	if !ok {
		return "", ir.Compile(ir.ErrMissingGenerator, "", "%s has no mapping for generator %s", b.d.Name, g)
	}
	return spec.Render(), nil
}

// aggregate renders an aggregate. DISTINCT is a SELECT modifier and is
// handled by the caller.
func (b *builder) aggregate(a *aggregate.Aggregate) (string, error) {
	switch a.Tag {
	case aggregate.TagSum, aggregate.TagAvg, aggregate.TagMax, aggregate.TagMin:
		return string(a.Tag) + "(" + b.column(a.Column) + ")", nil

	case aggregate.TagCount:
		if a.Star {
			return "COUNT(*)", nil
		}
		return "COUNT(1)", nil

	case aggregate.TagCountDistinct:
		cols := b.columns(a)
		if len(cols) == 1 {
			return "COUNT(DISTINCT " + cols[0] + ")", nil
		}
		switch b.d.Features.CountDistinct {
		case dialect.CountDistinctList:
			return "COUNT(DISTINCT " + strings.Join(cols, ", ") + ")", nil
		case dialect.CountDistinctRow:
			return "COUNT(DISTINCT (" + strings.Join(cols, ", ") + "))", nil
		default:
			return "", b.unsupported("COUNT_DISTINCT over %d columns", len(cols))
		}

	case aggregate.TagJSONRow:
		parts := make([]string, 0, 2*len(a.Fields))
		for _, f := range a.Fields {
			v, err := b.rowValue(f.Value)
			if err != nil {
				return "", err
			}
			parts = append(parts, b.d.QuoteString(f.Key), v)
		}
		return b.d.JSONObject + "(" + strings.Join(parts, ", ") + ")", nil

	case aggregate.TagDistinct:
		return "", b.unsupported("DISTINCT outside the first projection")
	}
	return "", fmt.Errorf("unsupported aggregate: %s", a.Tag)
}

func (b *builder) columns(a *aggregate.Aggregate) []string {
	out := make([]string, len(a.Columns))
	for i, ref := range a.Columns {
		out[i] = b.column(ref)
	}
	return out
}

func (b *builder) rowValue(v aggregate.RowValue) (string, error) {
	switch x := v.(type) {
	case aggregate.ColumnValue:
		return b.column(x.Ref), nil
	case aggregate.ExpressionValue:
		return b.expression(x.Expr)
	case aggregate.AggregateValue:
		return b.aggregate(x.Aggr)
	}
	return "", fmt.Errorf("unsupported JSON_ROW value: %T", v)
}

// grouping reports whether a contributes a grouped value, which makes the
// other projections group keys.
func grouping(a *aggregate.Aggregate) bool {
	switch a.Tag {
	case aggregate.TagDistinct:
		return false
	case aggregate.TagJSONRow:
		for _, f := range a.Fields {
			if nested, ok := f.Value.(aggregate.AggregateValue); ok && grouping(nested.Aggr) {
				return true
			}
		}
		return false
	}
	return true
}
