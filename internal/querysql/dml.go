package querysql

import (
	"strings"

	"github.com/roach88/sqlir/internal/dialect"
	"github.com/roach88/sqlir/internal/filter"
	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/query"
)

// value renders a DML data value.
func (b *builder) value(v query.Value) (string, error) {
	if v.Expr != nil {
		return b.expression(v.Expr)
	}
	return b.bind(v.Literal)
}

// insert renders INSERT, or an upsert when up is set. The column list is
// every declared column present in at least one row; rows missing one of
// them take DEFAULT.
func (b *builder) insert(table query.TableName, declared []string, rows []query.Row, up *query.Upsert) (string, error) {
	var cols []string
	for _, c := range declared {
		for _, r := range rows {
			if _, ok := r[c]; ok {
				cols = append(cols, c)
				break
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("INSERT ")
	if up != nil && len(up.UpdateColumns) == 0 && b.d.Features.Upsert == dialect.UpsertOnDuplicateKey {
		sb.WriteString("IGNORE ")
	}
	sb.WriteString("INTO " + b.table(table))

	if len(cols) == 0 {
		if len(rows) > 1 {
			return "", b.unsupported("inserting several rows without columns")
		}
		sb.WriteString(" " + b.d.Features.EmptyInsert)
	} else {
		sb.WriteString(" (" + b.identList(cols) + ") VALUES ")
		tuples := make([]string, len(rows))
		for i, r := range rows {
			vals := make([]string, len(cols))
			for j, c := range cols {
				v, ok := r[c]
				if !ok {
					if !b.d.Features.DefaultValues {
						return "", b.unsupported("DEFAULT in VALUES; give every row the same columns")
					}
					vals[j] = "DEFAULT"
					continue
				}
				s, err := b.value(v)
				if err != nil {
					return "", err
				}
				vals[j] = s
			}
			tuples[i] = "(" + strings.Join(vals, ", ") + ")"
		}
		sb.WriteString(strings.Join(tuples, ", "))
	}

	if up != nil {
		sb.WriteString(b.conflict(up))
	}
	return sb.String(), nil
}

// conflict renders the upsert clause.
func (b *builder) conflict(up *query.Upsert) string {
	switch b.d.Features.Upsert {
	case dialect.UpsertOnDuplicateKey:
		if len(up.UpdateColumns) == 0 {
			return ""
		}
		sets := make([]string, len(up.UpdateColumns))
		for i, c := range up.UpdateColumns {
			sets[i] = b.ident(c) + " = VALUES(" + b.ident(c) + ")"
		}
		return " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	default:
		clause := " ON CONFLICT (" + b.identList(up.ConflictColumns) + ") DO "
		if len(up.UpdateColumns) == 0 {
			return clause + "NOTHING"
		}
		sets := make([]string, len(up.UpdateColumns))
		for i, c := range up.UpdateColumns {
			sets[i] = b.ident(c) + " = excluded." + b.ident(c)
		}
		return clause + "UPDATE SET " + strings.Join(sets, ", ")
	}
}

func (b *builder) update(s *query.Update) (string, error) {
	keys := ir.SortedKeys(s.Data)
	sets := make([]string, len(keys))
	for i, k := range keys {
		v, err := b.value(s.Data[k])
		if err != nil {
			return "", err
		}
		sets[i] = b.ident(k) + " = " + v
	}
	text := "UPDATE " + b.table(s.Table) + " SET " + strings.Join(sets, ", ")
	return b.where(text, s.Filters)
}

func (b *builder) delete(s *query.Delete) (string, error) {
	return b.where("DELETE FROM "+b.table(s.Table), s.Filters)
}

func (b *builder) where(text string, filters *filter.Set) (string, error) {
	if filters.Empty() {
		return text, nil
	}
	pred, err := b.set(filters)
	if err != nil {
		return "", err
	}
	return text + " WHERE " + pred, nil
}

func (b *builder) truncate(s *query.Truncate) (string, error) {
	if b.d.Features.Truncate == dialect.TruncateDeleteFrom {
		return "DELETE FROM " + b.table(s.Table), nil
	}
	return "TRUNCATE TABLE " + b.table(s.Table), nil
}
