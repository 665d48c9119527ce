package querysql

import (
	"strconv"
	"strings"

	"github.com/roach88/sqlir/internal/aggregate"
	"github.com/roach88/sqlir/internal/lexical"
	"github.com/roach88/sqlir/internal/query"
)

// scope is the name resolution context of a SELECT.
type scope struct {
	sel     *query.Select
	base    string
	qualify bool
}

func (b *builder) selectQuery(s *query.Select) (string, error) {
	outer := b.scope
	b.scope = &scope{sel: s, base: s.Table.Name, qualify: len(s.Joins) > 0}
	defer func() { b.scope = outer }()

	var sb strings.Builder
	sb.WriteString("SELECT ")

	cols, distinct, err := b.projections(s)
	if err != nil {
		return "", err
	}
	if distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.table(s.Table))

	for _, j := range s.Joins {
		sb.WriteString(" " + string(j.Type) + " JOIN ")
		sb.WriteString(b.table(j.Table))
		sb.WriteString(" AS " + b.ident(j.Key) + " ON ")
		conds := make([]string, len(j.On))
		for i, on := range j.On {
			target := on.BaseTable
			if target == "" {
				target = s.Table.Name
			}
			conds[i] = b.ident(j.Key) + "." + b.ident(on.Column) + " = " + b.ident(target) + "." + b.ident(on.BaseColumn)
		}
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if !s.Filters.Empty() {
		where, err := b.set(s.Filters)
		if err != nil {
			return "", err
		}
		sb.WriteString(" WHERE " + where)
	}

	keys, err := b.groupBy(s)
	if err != nil {
		return "", err
	}
	if len(keys) > 0 {
		sb.WriteString(" GROUP BY " + strings.Join(keys, ", "))
	}

	if !s.Having.Empty() {
		having, err := b.set(s.Having)
		if err != nil {
			return "", err
		}
		sb.WriteString(" HAVING " + having)
	}

	if len(s.OrderBy) > 0 {
		terms := make([]string, len(s.OrderBy))
		for i, o := range s.OrderBy {
			terms[i] = b.orderField(s, o.Field) + " " + string(o.Direction)
		}
		sb.WriteString(" ORDER BY " + strings.Join(terms, ", "))
	}

	switch {
	case s.Limit != nil:
		sb.WriteString(" LIMIT " + strconv.FormatInt(*s.Limit, 10))
	case s.Offset != nil && b.d.Features.OffsetLimit != "":
		sb.WriteString(" LIMIT " + b.d.Features.OffsetLimit)
	}
	if s.Offset != nil {
		sb.WriteString(" OFFSET " + strconv.FormatInt(*s.Offset, 10))
	}
	return sb.String(), nil
}

// projections renders the select list. A DISTINCT aggregate in first
// position turns into SELECT DISTINCT over its columns.
func (b *builder) projections(s *query.Select) ([]string, bool, error) {
	var (
		out      []string
		distinct bool
	)
	for i, p := range s.Project {
		switch p.Kind {
		case query.ProjectColumn:
			out = append(out, b.column(lexical.ColumnRef{Column: p.Name}))

		case query.ProjectJoin:
			j, _ := s.Join(p.Name)
			for _, c := range j.Columns {
				out = append(out, b.ident(j.Key)+"."+b.ident(c)+" AS "+b.ident(j.Key+"."+c))
			}

		case query.ProjectExpression:
			ne, _ := s.Expression(p.Name)
			if ne.Aggr != nil && ne.Aggr.Tag == aggregate.TagDistinct {
				if i != 0 {
					return nil, false, b.unsupported("DISTINCT outside the first projection")
				}
				distinct = true
				out = append(out, b.columns(ne.Aggr)...)
				continue
			}
			text, err := b.named(ne)
			if err != nil {
				return nil, false, err
			}
			out = append(out, text+" AS "+b.ident(ne.Name))
		}
	}
	return out, distinct, nil
}

func (b *builder) named(ne query.NamedExpression) (string, error) {
	if ne.Aggr != nil {
		return b.aggregate(ne.Aggr)
	}
	return b.expression(ne.Expr)
}

// groupBy returns the GROUP BY keys. Without an explicit groupBy, a
// projection list holding a grouped aggregate groups by every other
// projection.
func (b *builder) groupBy(s *query.Select) ([]string, error) {
	if len(s.GroupBy) > 0 {
		keys := make([]string, len(s.GroupBy))
		for i, name := range s.GroupBy {
			k, err := b.groupKey(s, name)
			if err != nil {
				return nil, err
			}
			keys[i] = k
		}
		return keys, nil
	}

	grouped := false
	for _, p := range s.Project {
		if ne, ok := s.Expression(p.Name); ok && p.Kind == query.ProjectExpression && ne.Aggr != nil && grouping(ne.Aggr) {
			grouped = true
		}
	}
	if !grouped {
		return nil, nil
	}

	var keys []string
	for _, p := range s.Project {
		switch p.Kind {
		case query.ProjectColumn:
			keys = append(keys, b.column(lexical.ColumnRef{Column: p.Name}))
		case query.ProjectJoin:
			j, _ := s.Join(p.Name)
			for _, c := range j.Columns {
				keys = append(keys, b.ident(j.Key)+"."+b.ident(c))
			}
		case query.ProjectExpression:
			ne, _ := s.Expression(p.Name)
			switch {
			case ne.Expr != nil:
				text, err := b.expression(ne.Expr)
				if err != nil {
					return nil, err
				}
				keys = append(keys, text)
			case ne.Aggr.Tag == aggregate.TagDistinct:
				keys = append(keys, b.columns(ne.Aggr)...)
			}
		}
	}
	return keys, nil
}

// groupKey resolves a groupBy name: a named expression renders in full,
// anything else is a column reference.
func (b *builder) groupKey(s *query.Select, name string) (string, error) {
	if ne, ok := s.Expression(name); ok {
		return b.named(ne)
	}
	return b.column(splitField(name)), nil
}

// orderField resolves an ORDER BY field: named expressions by their alias,
// anything else as a column reference.
func (b *builder) orderField(s *query.Select, name string) string {
	if _, ok := s.Expression(name); ok {
		return b.ident(name)
	}
	return b.column(splitField(name))
}

func splitField(name string) lexical.ColumnRef {
	if table, col, ok := strings.Cut(name, "."); ok {
		return lexical.ColumnRef{Table: table, Column: col}
	}
	return lexical.ColumnRef{Column: name}
}
