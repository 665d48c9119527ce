package querysql

import (
	"strconv"
	"strings"

	"github.com/roach88/sqlir/internal/dialect"
	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/query"
)

// ddlSeparator joins the commands of a multi-command statement.
const ddlSeparator = ";\n"

func (b *builder) ifNotExists(want bool) (string, error) {
	if !want {
		return "", nil
	}
	if !b.d.Features.IfExists {
		return "", b.unsupported("IF NOT EXISTS")
	}
	return "IF NOT EXISTS ", nil
}

func (b *builder) ifExists(want bool) (string, error) {
	if !want {
		return "", nil
	}
	if !b.d.Features.IfExists {
		return "", b.unsupported("IF EXISTS")
	}
	return "IF EXISTS ", nil
}

func (b *builder) cascade(want bool) (string, error) {
	if !want {
		return "", nil
	}
	if !b.d.Features.Cascade {
		return "", b.unsupported("CASCADE")
	}
	return " CASCADE", nil
}

func (b *builder) createSchema(s *query.CreateSchema) (string, error) {
	if !b.d.Features.Schemas {
		return "", b.unsupported("schemas")
	}
	ine, err := b.ifNotExists(s.IfNotExists)
	if err != nil {
		return "", err
	}
	return "CREATE SCHEMA " + ine + b.ident(s.Schema), nil
}

func (b *builder) dropSchema(s *query.DropSchema) (string, error) {
	if !b.d.Features.Schemas {
		return "", b.unsupported("schemas")
	}
	ie, err := b.ifExists(s.IfExists)
	if err != nil {
		return "", err
	}
	cascade, err := b.cascade(s.Cascade)
	if err != nil {
		return "", err
	}
	return "DROP SCHEMA " + ie + b.ident(s.Schema) + cascade, nil
}

func (b *builder) createTable(s *query.CreateTable) (string, error) {
	ine, err := b.ifNotExists(s.IfNotExists)
	if err != nil {
		return "", err
	}

	// A single flagged primary key column is declared inline; anything
	// else becomes a table constraint.
	var flagged []string
	for _, c := range s.Columns {
		if c.PrimaryKey {
			flagged = append(flagged, c.Name)
		}
	}
	inlinePK := len(s.PrimaryKeys) == 0 && len(flagged) == 1

	var defs []string
	for _, c := range s.Columns {
		def, err := b.columnDef(c, inlinePK)
		if err != nil {
			return "", err
		}
		defs = append(defs, def)
	}

	switch {
	case len(s.PrimaryKeys) > 0:
		defs = append(defs, "PRIMARY KEY ("+b.identList(s.PrimaryKeys)+")")
	case len(flagged) > 1:
		defs = append(defs, "PRIMARY KEY ("+b.identList(flagged)+")")
	}
	for _, u := range s.UniqueKeys {
		defs = append(defs, b.uniqueKey(u))
	}
	for _, fk := range s.ForeignKeys {
		defs = append(defs, b.foreignKey(fk))
	}

	cmds := []string{"CREATE TABLE " + ine + b.table(s.Table) + " (" + strings.Join(defs, ", ") + ")"}
	for _, idx := range s.Indexes {
		cmds = append(cmds, b.index(idx.Name, s.Table, idx.Columns, idx.Unique, ""))
	}
	return strings.Join(cmds, ddlSeparator), nil
}

// columnDef renders a column definition. Nullable columns carry no NULL
// keyword.
func (b *builder) columnDef(c query.ColumnDef, inlinePK bool) (string, error) {
	typ, err := b.columnType(c)
	if err != nil {
		return "", err
	}
	parts := []string{b.ident(c.Name), typ}
	if !c.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if c.PrimaryKey && inlinePK {
		parts = append(parts, "PRIMARY KEY")
	}
	if c.Unique {
		parts = append(parts, "UNIQUE")
	}
	if c.Default != nil {
		def, err := b.defaultValue(*c.Default)
		if err != nil {
			return "", err
		}
		parts = append(parts, "DEFAULT "+def)
	}
	return strings.Join(parts, " "), nil
}

func (b *builder) columnType(c query.ColumnDef) (string, error) {
	ts, ok := b.d.Type(c.Type)
	if !ok {
		return "", ir.Compile(ir.ErrMissingType, "", "%s has no mapping for data type %s", b.d.Name, c.Type)
	}
	if !ts.Sized {
		if c.Length != nil || c.Precision != nil {
			return "", ir.Compile(ir.ErrUnsupported, "", "%s type %s does not take a size", b.d.Name, ts.Name)
		}
		return ts.Name, nil
	}
	switch {
	case c.Length != nil:
		return ts.Name + "(" + strconv.Itoa(*c.Length) + ")", nil
	case c.Precision != nil && c.Scale != nil:
		return ts.Name + "(" + strconv.Itoa(*c.Precision) + ", " + strconv.Itoa(*c.Scale) + ")", nil
	case c.Precision != nil:
		return ts.Name + "(" + strconv.Itoa(*c.Precision) + ")", nil
	case ts.DefaultLength > 0:
		return ts.Name + "(" + strconv.Itoa(ts.DefaultLength) + ")", nil
	}
	return ts.Name, nil
}

// defaultValue renders a column default. Generator calls are wrapped in
// parentheses, which every dialect accepts around a default expression.
func (b *builder) defaultValue(d query.Default) (string, error) {
	if d.Generator == "" {
		return b.literal(d.Value)
	}
	text, err := b.generator(d.Generator)
	if err != nil {
		return "", err
	}
	if strings.Contains(text, "(") {
		return "(" + text + ")", nil
	}
	return text, nil
}

func (b *builder) uniqueKey(u query.UniqueKey) string {
	return b.constraintName(u.Name) + "UNIQUE (" + b.identList(u.Columns) + ")"
}

func (b *builder) foreignKey(fk query.ForeignKey) string {
	var sb strings.Builder
	sb.WriteString(b.constraintName(fk.Name))
	sb.WriteString("FOREIGN KEY (" + b.identList(fk.Columns) + ") REFERENCES ")
	sb.WriteString(b.table(fk.References.Table) + " (" + b.identList(fk.References.Columns) + ")")
	if fk.OnDelete != "" {
		sb.WriteString(" ON DELETE " + fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		sb.WriteString(" ON UPDATE " + fk.OnUpdate)
	}
	return sb.String()
}

func (b *builder) constraintName(name string) string {
	if name == "" {
		return ""
	}
	return "CONSTRAINT " + b.ident(name) + " "
}

func (b *builder) index(name string, table query.TableName, columns []string, unique bool, ine string) string {
	kw := "CREATE INDEX "
	if unique {
		kw = "CREATE UNIQUE INDEX "
	}
	return kw + ine + b.ident(name) + " ON " + b.table(table) + " (" + b.identList(columns) + ")"
}

// alterTable renders one ALTER TABLE command per operation, dropping
// before adding: foreign keys, unique keys, columns, renames, added
// columns, altered columns, then new unique and foreign keys.
func (b *builder) alterTable(s *query.AlterTable) (string, error) {
	prefix := "ALTER TABLE " + b.table(s.Table) + " "
	var cmds []string
	add := func(action string) { cmds = append(cmds, prefix+action) }

	for _, name := range s.DropForeignKeys {
		switch b.d.Features.Constraints {
		case dialect.ConstraintsNamed:
			add("DROP CONSTRAINT " + b.ident(name))
		case dialect.ConstraintsByKind:
			add("DROP FOREIGN KEY " + b.ident(name))
		default:
			return "", b.unsupported("dropping foreign keys")
		}
	}
	for _, name := range s.DropUniqueKeys {
		switch b.d.Features.Constraints {
		case dialect.ConstraintsNamed:
			add("DROP CONSTRAINT " + b.ident(name))
		case dialect.ConstraintsByKind:
			add("DROP INDEX " + b.ident(name))
		default:
			return "", b.unsupported("dropping unique keys")
		}
	}
	for _, name := range s.DropColumns {
		add("DROP COLUMN " + b.ident(name))
	}
	for _, r := range s.RenameColumns {
		add("RENAME COLUMN " + b.ident(r.From) + " TO " + b.ident(r.To))
	}
	for _, c := range s.AddColumns {
		def, err := b.columnDef(c, c.PrimaryKey)
		if err != nil {
			return "", err
		}
		add("ADD COLUMN " + def)
	}
	for _, c := range s.AlterColumns {
		action, err := b.alterColumn(c)
		if err != nil {
			return "", err
		}
		add(action)
	}
	if len(s.AddUniqueKeys) > 0 || len(s.AddForeignKeys) > 0 {
		if b.d.Features.Constraints == dialect.ConstraintsUnsupported {
			return "", b.unsupported("adding constraints to an existing table")
		}
	}
	for _, u := range s.AddUniqueKeys {
		add("ADD " + b.uniqueKey(u))
	}
	for _, fk := range s.AddForeignKeys {
		add("ADD " + b.foreignKey(fk))
	}
	return strings.Join(cmds, ddlSeparator), nil
}

// alterColumn redefines a column in place.
func (b *builder) alterColumn(c query.ColumnDef) (string, error) {
	switch b.d.Features.AlterColumn {
	case dialect.AlterColumnModify:
		def, err := b.columnDef(c, c.PrimaryKey)
		if err != nil {
			return "", err
		}
		return "MODIFY COLUMN " + def, nil

	case dialect.AlterColumnClauses:
		typ, err := b.columnType(c)
		if err != nil {
			return "", err
		}
		col := "ALTER COLUMN " + b.ident(c.Name)
		clauses := []string{col + " TYPE " + typ}
		if c.Nullable {
			clauses = append(clauses, col+" DROP NOT NULL")
		} else {
			clauses = append(clauses, col+" SET NOT NULL")
		}
		if c.Default != nil {
			def, err := b.defaultValue(*c.Default)
			if err != nil {
				return "", err
			}
			clauses = append(clauses, col+" SET DEFAULT "+def)
		} else {
			clauses = append(clauses, col+" DROP DEFAULT")
		}
		return strings.Join(clauses, ", "), nil
	}
	return "", b.unsupported("altering columns")
}

func (b *builder) dropTable(s *query.DropTable) (string, error) {
	ie, err := b.ifExists(s.IfExists)
	if err != nil {
		return "", err
	}
	cascade, err := b.cascade(s.Cascade)
	if err != nil {
		return "", err
	}
	return "DROP TABLE " + ie + b.table(s.Table) + cascade, nil
}

// createView renders CREATE VIEW, or a replacement of the view when
// replace is set. View SELECTs are always inlined.
func (b *builder) createView(view query.TableName, q query.ViewQuery, replace bool) (string, error) {
	body := strings.TrimSpace(q.Text)
	if q.Select != nil {
		inner := &builder{d: b.d}
		text, err := inner.selectQuery(q.Select)
		if err != nil {
			return "", err
		}
		body = text
	}

	name := b.table(view)
	if !replace {
		return "CREATE VIEW " + name + " AS " + body, nil
	}
	if b.d.Features.ReplaceView {
		return "CREATE OR REPLACE VIEW " + name + " AS " + body, nil
	}
	return "DROP VIEW IF EXISTS " + name + ddlSeparator + "CREATE VIEW " + name + " AS " + body, nil
}

func (b *builder) dropView(s *query.DropView) (string, error) {
	ie, err := b.ifExists(s.IfExists)
	if err != nil {
		return "", err
	}
	return "DROP VIEW " + ie + b.table(s.View), nil
}

func (b *builder) createIndex(s *query.CreateIndex) (string, error) {
	ine, err := b.ifNotExists(s.IfNotExists)
	if err != nil {
		return "", err
	}
	return b.index(s.Name, s.Table, s.Columns, s.Unique, ine), nil
}

func (b *builder) dropIndex(s *query.DropIndex) (string, error) {
	ie, err := b.ifExists(s.IfExists)
	if err != nil {
		return "", err
	}
	if b.d.Features.IndexDrop == dialect.DropIndexOnTable {
		if s.Table == "" {
			return "", b.unsupported("DROP INDEX without a table")
		}
		return "DROP INDEX " + ie + b.ident(s.Name) + " ON " + b.d.QuoteQualified(s.Schema, s.Table), nil
	}
	return "DROP INDEX " + ie + b.d.QuoteQualified(s.Schema, s.Name), nil
}
