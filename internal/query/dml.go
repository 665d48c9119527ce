package query

import (
	"slices"
	"strings"

	"github.com/roach88/sqlir/internal/aggregate"
	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/filter"
	"github.com/roach88/sqlir/internal/ir"
)

func (v *Validator) dml(t Type, o object) (Statement, error) {
	switch t {
	case TypeSelect:
		return v.selectQuery(o)

	case TypeInsert, TypeUpsert:
		keys := []string{"type", "schema", "table", "columns", "data"}
		if t == TypeUpsert {
			keys = append(keys, "conflictColumns", "updateColumns")
		}
		if err := o.allow(keys...); err != nil {
			return nil, err
		}
		table, cols, err := v.target(o, true)
		if err != nil {
			return nil, err
		}
		raw, _, err := o.list("data", true, true)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, len(raw))
		for i, item := range raw {
			ro, err := v.element(item, o.at("data").Index(i))
			if err != nil {
				return nil, err
			}
			if rows[i], err = v.row(ro, cols); err != nil {
				return nil, err
			}
		}
		if t == TypeInsert {
			return &Insert{Table: table, Columns: cols, Rows: rows}, nil
		}

		conflict, err := o.names("conflictColumns", true, true)
		if err != nil {
			return nil, err
		}
		if err := subset(conflict, cols, o.at("conflictColumns"), "conflict column"); err != nil {
			return nil, err
		}
		update, err := o.names("updateColumns", false, false)
		if err != nil {
			return nil, err
		}
		if update == nil {
			for _, c := range cols {
				if !slices.Contains(conflict, c) {
					update = append(update, c)
				}
			}
		} else if err := subset(update, cols, o.at("updateColumns"), "update column"); err != nil {
			return nil, err
		}
		return &Upsert{Table: table, Columns: cols, Rows: rows, ConflictColumns: conflict, UpdateColumns: update}, nil

	case TypeUpdate:
		if err := o.allow("type", "schema", "table", "columns", "data", "filters"); err != nil {
			return nil, err
		}
		table, cols, err := v.target(o, true)
		if err != nil {
			return nil, err
		}
		data, _, err := o.child("data", true)
		if err != nil {
			return nil, err
		}
		if len(data.m) == 0 {
			return nil, ir.Shape(ir.ErrArity, data.cur.Path(), "data must set at least 1 column")
		}
		row, err := v.row(data, cols)
		if err != nil {
			return nil, err
		}
		filters, err := v.filterSet(o, "filters")
		if err != nil {
			return nil, err
		}
		return &Update{Table: table, Columns: cols, Data: row, Filters: filters}, nil

	case TypeDelete:
		if err := o.allow("type", "schema", "table", "columns", "filters"); err != nil {
			return nil, err
		}
		table, cols, err := v.target(o, false)
		if err != nil {
			return nil, err
		}
		filters, err := v.filterSet(o, "filters")
		if err != nil {
			return nil, err
		}
		return &Delete{Table: table, Columns: cols, Filters: filters}, nil

	default: // TypeTruncate
		if err := o.allow("type", "schema", "table"); err != nil {
			return nil, err
		}
		table, err := o.tableName("table")
		if err != nil {
			return nil, err
		}
		return &Truncate{Table: table}, nil
	}
}

// target reads the table and its declared columns.
func (v *Validator) target(o object, nonEmpty bool) (TableName, []string, error) {
	table, err := o.tableName("table")
	if err != nil {
		return TableName{}, nil, err
	}
	cols, err := o.names("columns", true, nonEmpty)
	if err != nil {
		return TableName{}, nil, err
	}
	return table, cols, nil
}

// row reads a data row whose keys must be declared columns.
func (v *Validator) row(o object, cols []string) (Row, error) {
	out := make(Row, len(o.m))
	for _, k := range ir.SortedKeys(o.m) {
		if !slices.Contains(cols, k) {
			return nil, ir.Composition(ir.ErrUnknownColumn, o.at(k).Path(), "%q is not a declared column", k)
		}
		val, err := v.value(o.m[k], o.at(k))
		if err != nil {
			return nil, err
		}
		out[k] = val
	}
	return out, nil
}

// value reads a data value: an expression, else a literal.
func (v *Validator) value(raw any, cur ir.Cursor) (Value, error) {
	if expr.IsExpression(raw) {
		e, err := v.exprs.Parse(raw, cur)
		if err != nil {
			return Value{}, err
		}
		return Value{Expr: e}, nil
	}
	lit, err := ir.FromAny(raw)
	if err != nil {
		return Value{}, ir.Shape(ir.ErrInvalidValue, cur.Path(), "%v", err)
	}
	return Value{Literal: lit}, nil
}

func (v *Validator) filterSet(o object, key string) (*filter.Set, error) {
	raw, ok := o.m[key]
	if !ok {
		return nil, nil
	}
	return v.filters.Set(raw, o.at(key))
}

func (v *Validator) selectQuery(o object) (Statement, error) {
	if err := o.allow("type", "schema", "table", "columns", "project", "expressions",
		"filters", "having", "joins", "limit", "offset", "orderBy", "groupBy"); err != nil {
		return nil, err
	}
	table, cols, err := v.target(o, false)
	if err != nil {
		return nil, err
	}
	s := &Select{Table: table, Columns: cols}

	if s.Expressions, err = v.namedExpressions(o, cols); err != nil {
		return nil, err
	}
	if s.Joins, err = v.joins(o, table.Name); err != nil {
		return nil, err
	}
	if s.Project, err = v.projections(o, s); err != nil {
		return nil, err
	}
	if s.Filters, err = v.filterSet(o, "filters"); err != nil {
		return nil, err
	}
	if s.Having, err = v.filterSet(o, "having"); err != nil {
		return nil, err
	}
	if s.Limit, err = o.count("limit"); err != nil {
		return nil, err
	}
	if s.Offset, err = o.count("offset"); err != nil {
		return nil, err
	}
	if s.OrderBy, err = v.orderBy(o, s); err != nil {
		return nil, err
	}
	if s.GroupBy, err = o.names("groupBy", false, true); err != nil {
		return nil, err
	}
	for i, g := range s.GroupBy {
		if !s.resolves(g) {
			return nil, ir.Composition(ir.ErrUnresolved, o.at("groupBy").Index(i).Path(),
				"group by %q does not resolve to a column or expression", g)
		}
	}
	return s, nil
}

// namedExpressions reads the expressions object. Each value is tried as an
// expression, then as an aggregate.
func (v *Validator) namedExpressions(o object, cols []string) ([]NamedExpression, error) {
	exprs, ok, err := o.child("expressions", false)
	if err != nil || !ok {
		return nil, err
	}
	out := make([]NamedExpression, 0, len(exprs.m))
	for _, name := range ir.SortedKeys(exprs.m) {
		cur := exprs.at(name)
		if _, err := v.entityName(name, cur); err != nil {
			return nil, err
		}
		if slices.Contains(cols, name) {
			return nil, ir.Composition(ir.ErrDuplicateName, cur.Path(), "expression %q shadows a column", name)
		}
		raw := exprs.m[name]
		switch {
		case expr.IsExpression(raw):
			e, err := v.exprs.Parse(raw, cur)
			if err != nil {
				return nil, err
			}
			out = append(out, NamedExpression{Name: name, Expr: e})
		case aggregate.IsAggregate(raw):
			a, err := v.aggrs.Parse(raw, cur)
			if err != nil {
				return nil, err
			}
			out = append(out, NamedExpression{Name: name, Aggr: a})
		default:
			return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "expected an expression or aggregate, got %s", ir.Describe(raw))
		}
	}
	return out, nil
}

// joins reads the joins object, sorted by key. An on value is a base
// table column, or "key.column" naming the base table or another join.
func (v *Validator) joins(o object, base string) ([]Join, error) {
	joins, ok, err := o.child("joins", false)
	if err != nil || !ok {
		return nil, err
	}
	keys := ir.SortedKeys(joins.m)
	out := make([]Join, 0, len(keys))
	for _, key := range keys {
		cur := joins.at(key)
		if _, err := v.entityName(key, cur); err != nil {
			return nil, err
		}
		jo, err := v.element(joins.m[key], cur)
		if err != nil {
			return nil, ir.Composition(ir.ErrInvalidJoin, cur.Path(), "join %q must be an object, got %s", key, ir.Describe(joins.m[key]))
		}
		if err := jo.allow("schema", "table", "columns", "on", "type"); err != nil {
			return nil, err
		}
		for _, required := range []string{"table", "columns", "on"} {
			if !jo.has(required) {
				return nil, ir.Composition(ir.ErrInvalidJoin, jo.at(required).Path(), "join %q requires %q", key, required)
			}
		}
		j := Join{Key: key, Type: JoinLeft}
		if j.Table, err = jo.tableName("table"); err != nil {
			return nil, err
		}
		if j.Columns, err = jo.names("columns", true, false); err != nil {
			return nil, err
		}

		on, ok := jo.m["on"].(map[string]any)
		if !ok || len(on) == 0 {
			return nil, ir.Composition(ir.ErrInvalidJoin, jo.at("on").Path(), "join %q requires a non-empty on object", key)
		}
		onObj := v.object(on, jo.at("on"))
		for _, col := range ir.SortedKeys(on) {
			if _, err := v.entityName(col, onObj.at(col)); err != nil {
				return nil, err
			}
			target, ok := on[col].(string)
			if !ok {
				return nil, ir.Composition(ir.ErrInvalidJoin, onObj.at(col).Path(),
					"join condition must name a column, got %s", ir.Describe(on[col]))
			}
			cond := JoinOn{Column: col, BaseColumn: target}
			if tbl, c, found := strings.Cut(target, "."); found {
				if tbl != base && !slices.Contains(keys, tbl) {
					return nil, ir.Composition(ir.ErrInvalidJoin, onObj.at(col).Path(),
						"join condition references unknown table %q", tbl)
				}
				if tbl == key {
					return nil, ir.Composition(ir.ErrInvalidJoin, onObj.at(col).Path(), "join %q cannot reference itself", key)
				}
				if tbl != base {
					cond.BaseTable = tbl
				}
				cond.BaseColumn = c
			}
			if _, err := v.entityName(cond.BaseColumn, onObj.at(col)); err != nil {
				return nil, err
			}
			j.On = append(j.On, cond)
		}

		if raw, ok := jo.m["type"]; ok {
			s, _ := raw.(string)
			switch JoinType(s) {
			case JoinInner, JoinLeft:
				j.Type = JoinType(s)
			default:
				return nil, ir.Composition(ir.ErrInvalidJoin, jo.at("type").Path(),
					"join type must be %q or %q, got %v", JoinInner, JoinLeft, raw)
			}
		}
		out = append(out, j)
	}
	return out, nil
}

// projections resolves project in order: "$key" names a join, anything
// else a column, then an expression.
func (v *Validator) projections(o object, s *Select) ([]Projection, error) {
	raw, _, err := o.list("project", true, true)
	if err != nil {
		return nil, err
	}
	cur := o.at("project")
	out := make([]Projection, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, item := range raw {
		name, ok := item.(string)
		if !ok {
			return nil, ir.Shape(ir.ErrWrongType, cur.Index(i).Path(), "projection must be a string, got %s", ir.Describe(item))
		}
		if seen[name] {
			return nil, ir.Composition(ir.ErrDuplicateName, cur.Index(i).Path(), "%q is projected twice", name)
		}
		seen[name] = true

		p := Projection{Name: name}
		switch {
		case strings.HasPrefix(name, "$"):
			key := name[1:]
			if _, ok := s.Join(key); !ok {
				return nil, ir.Composition(ir.ErrUnresolved, cur.Index(i).Path(),
					"projection %q does not resolve to a join", name)
			}
			p.Name, p.Kind = key, ProjectJoin
		case slices.Contains(s.Columns, name):
			p.Kind = ProjectColumn
		default:
			if _, ok := s.Expression(name); !ok {
				return nil, ir.Composition(ir.ErrUnresolved, cur.Index(i).Path(),
					"projection %q does not resolve to a column, expression or join", name)
			}
			p.Kind = ProjectExpression
		}
		out = append(out, p)
	}
	return out, nil
}

// resolves reports whether name is a column, an expression or
// "join.column" of a declared join.
func (s *Select) resolves(name string) bool {
	if slices.Contains(s.Columns, name) {
		return true
	}
	if _, ok := s.Expression(name); ok {
		return true
	}
	if key, col, ok := strings.Cut(name, "."); ok {
		if j, found := s.Join(key); found {
			return slices.Contains(j.Columns, col)
		}
		if key == s.Table.Name {
			return slices.Contains(s.Columns, col)
		}
	}
	return false
}

// orderBy reads an object, sorted by field, or an array of single-key
// objects kept in order.
func (v *Validator) orderBy(o object, s *Select) ([]Order, error) {
	raw, ok := o.m["orderBy"]
	if !ok {
		return nil, nil
	}
	cur := o.at("orderBy")
	var out []Order
	add := func(m map[string]any, cur ir.Cursor) error {
		for _, field := range ir.SortedKeys(m) {
			dir, ok := m[field].(string)
			if !ok || (Direction(dir) != Asc && Direction(dir) != Desc) {
				return ir.Shape(ir.ErrInvalidValue, cur.Key(field).Path(), "order direction must be %q or %q, got %v", Asc, Desc, m[field])
			}
			if !s.resolves(field) {
				return ir.Composition(ir.ErrUnresolved, cur.Key(field).Path(),
					"order by %q does not resolve to a column, expression or join column", field)
			}
			out = append(out, Order{Field: field, Direction: Direction(dir)})
		}
		return nil
	}

	switch val := raw.(type) {
	case map[string]any:
		if err := add(val, cur); err != nil {
			return nil, err
		}
	case []any:
		for i, item := range val {
			m, ok := item.(map[string]any)
			if !ok || len(m) != 1 {
				return nil, ir.Shape(ir.ErrWrongType, cur.Index(i).Path(), "orderBy entries must be single-key objects")
			}
			if err := add(m, cur.Index(i)); err != nil {
				return nil, err
			}
		}
	default:
		return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "orderBy must be an object or an array, got %s", ir.Describe(raw))
	}
	return out, nil
}
