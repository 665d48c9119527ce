package query

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/ir"
)

// alterOperations are the ALTER_TABLE keys of which at least one is required.
var alterOperations = []string{
	"dropColumns", "addColumns", "renameColumns", "alterColumns",
	"addForeignKeys", "dropForeignKeys", "addUniqueKeys", "dropUniqueKeys",
}

var referentialActions = []string{"CASCADE", "RESTRICT", "SET NULL", "SET DEFAULT", "NO ACTION"}

// ReferentialActions returns the accepted onDelete and onUpdate values.
func ReferentialActions() []string {
	return slices.Clone(referentialActions)
}

func (v *Validator) ddl(t Type, o object) (Statement, error) {
	switch t {
	case TypeCreateSchema:
		if err := o.allow("type", "schema", "ifNotExists"); err != nil {
			return nil, err
		}
		schema, err := o.name("schema", true)
		if err != nil {
			return nil, err
		}
		ine, err := o.flag("ifNotExists")
		if err != nil {
			return nil, err
		}
		return &CreateSchema{Schema: schema, IfNotExists: ine}, nil

	case TypeDropSchema:
		if err := o.allow("type", "schema", "ifExists", "cascade"); err != nil {
			return nil, err
		}
		schema, err := o.name("schema", true)
		if err != nil {
			return nil, err
		}
		ie, err := o.flag("ifExists")
		if err != nil {
			return nil, err
		}
		cascade, err := o.flag("cascade")
		if err != nil {
			return nil, err
		}
		return &DropSchema{Schema: schema, IfExists: ie, Cascade: cascade}, nil

	case TypeCreateTable:
		return v.createTable(o)

	case TypeAlterTable:
		return v.alterTable(o)

	case TypeDropTable:
		if err := o.allow("type", "schema", "name", "ifExists", "cascade"); err != nil {
			return nil, err
		}
		table, err := o.tableName("name")
		if err != nil {
			return nil, err
		}
		ie, err := o.flag("ifExists")
		if err != nil {
			return nil, err
		}
		cascade, err := o.flag("cascade")
		if err != nil {
			return nil, err
		}
		return &DropTable{Table: table, IfExists: ie, Cascade: cascade}, nil

	case TypeCreateView, TypeAlterView:
		if err := o.allow("type", "schema", "name", "query"); err != nil {
			return nil, err
		}
		view, err := o.tableName("name")
		if err != nil {
			return nil, err
		}
		body, err := v.viewQuery(o)
		if err != nil {
			return nil, err
		}
		if t == TypeCreateView {
			return &CreateView{View: view, Query: body}, nil
		}
		return &AlterView{View: view, Query: body}, nil

	case TypeDropView:
		if err := o.allow("type", "schema", "name", "ifExists"); err != nil {
			return nil, err
		}
		view, err := o.tableName("name")
		if err != nil {
			return nil, err
		}
		ie, err := o.flag("ifExists")
		if err != nil {
			return nil, err
		}
		return &DropView{View: view, IfExists: ie}, nil

	case TypeCreateIndex:
		if err := o.allow("type", "schema", "name", "table", "columns", "unique", "ifNotExists"); err != nil {
			return nil, err
		}
		name, err := o.name("name", true)
		if err != nil {
			return nil, err
		}
		table, err := o.tableName("table")
		if err != nil {
			return nil, err
		}
		cols, err := o.names("columns", true, true)
		if err != nil {
			return nil, err
		}
		unique, err := o.flag("unique")
		if err != nil {
			return nil, err
		}
		ine, err := o.flag("ifNotExists")
		if err != nil {
			return nil, err
		}
		return &CreateIndex{Name: name, Table: table, Columns: cols, Unique: unique, IfNotExists: ine}, nil

	default: // TypeDropIndex
		if err := o.allow("type", "schema", "name", "table", "ifExists"); err != nil {
			return nil, err
		}
		schema, err := o.name("schema", false)
		if err != nil {
			return nil, err
		}
		name, err := o.name("name", true)
		if err != nil {
			return nil, err
		}
		table, err := o.name("table", false)
		if err != nil {
			return nil, err
		}
		ie, err := o.flag("ifExists")
		if err != nil {
			return nil, err
		}
		return &DropIndex{Name: name, Schema: schema, Table: table, IfExists: ie}, nil
	}
}

func (v *Validator) createTable(o object) (Statement, error) {
	if err := o.allow("type", "schema", "name", "columns", "primaryKeys", "uniqueKeys", "foreignKeys", "indexes", "ifNotExists"); err != nil {
		return nil, err
	}
	table, err := o.tableName("name")
	if err != nil {
		return nil, err
	}
	raw, _, err := o.list("columns", true, true)
	if err != nil {
		return nil, err
	}
	cols, err := v.columnDefs(raw, o.at("columns"))
	if err != nil {
		return nil, err
	}
	declared := make([]string, len(cols))
	for i, c := range cols {
		declared[i] = c.Name
	}

	out := &CreateTable{Table: table, Columns: cols}

	if out.PrimaryKeys, err = o.names("primaryKeys", false, true); err != nil {
		return nil, err
	}
	if err := subset(out.PrimaryKeys, declared, o.at("primaryKeys"), "primary key column"); err != nil {
		return nil, err
	}
	if len(out.PrimaryKeys) > 0 {
		for i, c := range cols {
			if c.PrimaryKey {
				return nil, ir.Composition(ir.ErrDuplicateName, o.at("columns").Index(i).Key("primaryKey").Path(),
					"column %q is marked primaryKey while primaryKeys is also set", c.Name)
			}
		}
	}

	if out.UniqueKeys, err = v.uniqueKeys(o, "uniqueKeys", declared); err != nil {
		return nil, err
	}
	if out.ForeignKeys, err = v.foreignKeys(o, "foreignKeys", declared); err != nil {
		return nil, err
	}
	if out.Indexes, err = v.indexes(o, declared); err != nil {
		return nil, err
	}
	if out.IfNotExists, err = o.flag("ifNotExists"); err != nil {
		return nil, err
	}
	return out, nil
}

func (v *Validator) alterTable(o object) (Statement, error) {
	keys := append([]string{"type", "schema", "name"}, alterOperations...)
	if err := o.allow(keys...); err != nil {
		return nil, err
	}
	table, err := o.tableName("name")
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(alterOperations, o.has) {
		return nil, ir.Composition(ir.ErrNoOperation, o.cur.Path(),
			"ALTER_TABLE requires at least one operation: %s", strings.Join(alterOperations, ", "))
	}

	out := &AlterTable{Table: table}
	if out.DropColumns, err = o.names("dropColumns", false, true); err != nil {
		return nil, err
	}
	if raw, ok, err := o.list("addColumns", false, true); err != nil {
		return nil, err
	} else if ok {
		if out.AddColumns, err = v.columnDefs(raw, o.at("addColumns")); err != nil {
			return nil, err
		}
	}
	if raw, ok, err := o.list("alterColumns", false, true); err != nil {
		return nil, err
	} else if ok {
		if out.AlterColumns, err = v.columnDefs(raw, o.at("alterColumns")); err != nil {
			return nil, err
		}
	}
	if renames, ok, err := o.child("renameColumns", false); err != nil {
		return nil, err
	} else if ok {
		if len(renames.m) == 0 {
			return nil, ir.Shape(ir.ErrArity, renames.cur.Path(), "renameColumns must not be empty")
		}
		for _, from := range ir.SortedKeys(renames.m) {
			if _, err := v.entityName(from, renames.at(from)); err != nil {
				return nil, err
			}
			to, err := renames.name(from, true)
			if err != nil {
				return nil, err
			}
			out.RenameColumns = append(out.RenameColumns, Rename{From: from, To: to})
		}
	}
	// Table columns are not known here, so constraint columns are only
	// checked lexically.
	if out.AddForeignKeys, err = v.foreignKeys(o, "addForeignKeys", nil); err != nil {
		return nil, err
	}
	if out.DropForeignKeys, err = o.names("dropForeignKeys", false, true); err != nil {
		return nil, err
	}
	if out.AddUniqueKeys, err = v.uniqueKeys(o, "addUniqueKeys", nil); err != nil {
		return nil, err
	}
	if out.DropUniqueKeys, err = o.names("dropUniqueKeys", false, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (v *Validator) viewQuery(o object) (ViewQuery, error) {
	raw, ok := o.m["query"]
	if !ok {
		return ViewQuery{}, o.missing("query")
	}
	switch q := raw.(type) {
	case string:
		if strings.TrimSpace(q) == "" {
			return ViewQuery{}, ir.Shape(ir.ErrInvalidValue, o.at("query").Path(), "view query text must not be empty")
		}
		return ViewQuery{Text: q}, nil
	case map[string]any:
		stmt, err := v.statement(q, o.at("query"), dmlTypes)
		if err != nil {
			return ViewQuery{}, err
		}
		sel, ok := stmt.(*Select)
		if !ok {
			return ViewQuery{}, ir.Shape(ir.ErrInvalidValue, o.at("query").Path(),
				"view query must be a SELECT, got %s", stmt.Type())
		}
		return ViewQuery{Select: sel}, nil
	}
	return ViewQuery{}, ir.Shape(ir.ErrWrongType, o.at("query").Path(),
		"view query must be text or a SELECT query, got %s", ir.Describe(raw))
}

func (v *Validator) columnDefs(raw []any, cur ir.Cursor) ([]ColumnDef, error) {
	out := make([]ColumnDef, 0, len(raw))
	for i, item := range raw {
		c, err := v.columnDef(item, cur.Index(i))
		if err != nil {
			return nil, err
		}
		for _, prev := range out {
			if prev.Name == c.Name {
				return nil, ir.Composition(ir.ErrDuplicateName, cur.Index(i).Key("name").Path(), "duplicate column %q", c.Name)
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (v *Validator) columnDef(raw any, cur ir.Cursor) (ColumnDef, error) {
	o, err := v.element(raw, cur)
	if err != nil {
		return ColumnDef{}, err
	}
	if err := o.allow("name", "type", "length", "precision", "scale", "nullable", "primaryKey", "unique", "default"); err != nil {
		return ColumnDef{}, err
	}
	name, err := o.name("name", true)
	if err != nil {
		return ColumnDef{}, err
	}
	c := ColumnDef{Name: name, Nullable: true}

	rawType, ok := o.m["type"]
	if !ok {
		return ColumnDef{}, o.missing("type")
	}
	typeName, ok := rawType.(string)
	if !ok {
		return ColumnDef{}, ir.Shape(ir.ErrWrongType, o.at("type").Path(), "type must be a string, got %s", ir.Describe(rawType))
	}
	if c.Type, ok = ir.ParseDataType(typeName); !ok {
		types := ir.DataTypes()
		names := make([]string, len(types))
		for i, dt := range types {
			names[i] = string(dt)
		}
		return ColumnDef{}, ir.UnknownTag(o.at("type").Path(),
			"unknown data type %q, expected one of: %s", typeName, strings.Join(names, ", "))
	}

	if o.has("length") {
		if !c.Type.AcceptsLength() {
			return ColumnDef{}, ir.Shape(ir.ErrUnexpectedKey, o.at("length").Path(),
				"length is only allowed for CHAR and VARCHAR, not %s", c.Type)
		}
		if c.Length, err = o.positive("length"); err != nil {
			return ColumnDef{}, err
		}
	}
	for _, k := range []string{"precision", "scale"} {
		if o.has(k) && !c.Type.AcceptsPrecision() {
			return ColumnDef{}, ir.Shape(ir.ErrUnexpectedKey, o.at(k).Path(),
				"%s is only allowed for DECIMAL and NUMERIC, not %s", k, c.Type)
		}
	}
	if o.has("precision") {
		if c.Precision, err = o.positive("precision"); err != nil {
			return ColumnDef{}, err
		}
	}
	if o.has("scale") {
		if c.Precision == nil {
			return ColumnDef{}, ir.Shape(ir.ErrMissingKey, o.at("precision").Path(), "scale requires precision")
		}
		n, err := nonNegative(o.m["scale"], o.at("scale"))
		if err != nil {
			return ColumnDef{}, err
		}
		if int(n) > *c.Precision {
			return ColumnDef{}, ir.Shape(ir.ErrInvalidValue, o.at("scale").Path(),
				"scale %d exceeds precision %d", n, *c.Precision)
		}
		scale := int(n)
		c.Scale = &scale
	}

	if o.has("nullable") {
		if c.Nullable, err = o.flag("nullable"); err != nil {
			return ColumnDef{}, err
		}
	}
	if c.PrimaryKey, err = o.flag("primaryKey"); err != nil {
		return ColumnDef{}, err
	}
	if c.Unique, err = o.flag("unique"); err != nil {
		return ColumnDef{}, err
	}
	if rawDefault, ok := o.m["default"]; ok {
		if c.Default, err = v.columnDefault(c, rawDefault, o.at("default")); err != nil {
			return ColumnDef{}, err
		}
	}
	return c, nil
}

func (o object) positive(key string) (*int, error) {
	n, err := nonNegative(o.m[key], o.at(key))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ir.Shape(ir.ErrInvalidValue, o.at(key).Path(), "%s must be positive", key)
	}
	i := int(n)
	return &i, nil
}

// columnDefault checks a default against the column's type family.
func (v *Validator) columnDefault(c ColumnDef, raw any, cur ir.Cursor) (*Default, error) {
	family := c.Type.Family()
	if family == ir.FamilySerial {
		return nil, ir.Shape(ir.ErrInvalidValue, cur.Path(), "serial column %q cannot have a default", c.Name)
	}

	if expr.IsExpression(raw) {
		e, err := v.exprs.Parse(raw, cur)
		if err != nil {
			return nil, err
		}
		gen, ok := e.Generator()
		if !ok {
			return nil, ir.Shape(ir.ErrInvalidValue, cur.Path(),
				"default expression must be a generator (NOW, CURRENT_DATE, CURRENT_TIME, CURRENT_TIMESTAMP, UUID), got %s", e.Tag)
		}
		if gen.Family() != family && !(gen == ir.GenUUID && family == ir.FamilyString) {
			return nil, ir.Shape(ir.ErrWrongFamily, cur.Path(),
				"generator %s produces %s values, column %q is %s", gen, gen.Family(), c.Name, c.Type)
		}
		return &Default{Generator: gen}, nil
	}

	if raw == nil {
		if !c.Nullable {
			return nil, ir.Shape(ir.ErrInvalidValue, cur.Path(), "NOT NULL column %q cannot default to null", c.Name)
		}
		return &Default{Value: ir.Null{}}, nil
	}

	mismatch := func() error {
		return ir.Shape(ir.ErrWrongType, cur.Path(), "default for %s column %q must be %s, got %s",
			c.Type, c.Name, family, ir.Describe(raw))
	}
	switch family {
	case ir.FamilyString:
		if s, ok := raw.(string); ok {
			return &Default{Value: ir.String(s)}, nil
		}
	case ir.FamilyBoolean:
		if b, ok := raw.(bool); ok {
			return &Default{Value: ir.Bool(b)}, nil
		}
	case ir.FamilyDateTime:
		if s, ok := raw.(string); ok {
			if !validTemporal(c.Type, s) {
				return nil, ir.Shape(ir.ErrInvalidValue, cur.Path(), "default %q is not a valid %s", s, c.Type)
			}
			return &Default{Value: ir.String(s)}, nil
		}
		if t, ok := ir.ParseDate(raw); ok {
			return &Default{Value: ir.NewDate(t)}, nil
		}
	case ir.FamilyJSON:
		val, err := ir.FromAny(raw)
		if err == nil {
			return &Default{Value: val}, nil
		}
	case ir.FamilyInteger, ir.FamilyBigInteger:
		if ir.IsInteger(raw) {
			val, err := ir.FromAny(raw)
			if err == nil {
				return &Default{Value: val}, nil
			}
		}
	case ir.FamilyDecimal:
		if ir.IsNumber(raw) {
			val, err := ir.FromAny(raw)
			if err == nil {
				return &Default{Value: val}, nil
			}
		}
	case ir.FamilyUUID:
		if s, ok := raw.(string); ok {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, ir.Shape(ir.ErrInvalidValue, cur.Path(), "default %q is not a valid UUID: %v", s, err)
			}
			return &Default{Value: ir.String(id.String())}, nil
		}
	}
	return nil, mismatch()
}

// validTemporal checks a textual default for a date or time column.
func validTemporal(t ir.DataType, s string) bool {
	if t == ir.TypeTime {
		for _, layout := range []string{"15:04:05", "15:04:05.000", "15:04"} {
			if _, err := time.Parse(layout, s); err == nil {
				return true
			}
		}
		return false
	}
	_, ok := ir.ParseDate(s)
	return ok
}

func (v *Validator) uniqueKeys(o object, key string, declared []string) ([]UniqueKey, error) {
	raw, ok, err := o.list(key, false, true)
	if err != nil || !ok {
		return nil, err
	}
	out := make([]UniqueKey, 0, len(raw))
	for i, item := range raw {
		uo, err := v.element(item, o.at(key).Index(i))
		if err != nil {
			return nil, err
		}
		if err := uo.allow("name", "columns"); err != nil {
			return nil, err
		}
		name, err := uo.name("name", false)
		if err != nil {
			return nil, err
		}
		cols, err := uo.names("columns", true, true)
		if err != nil {
			return nil, err
		}
		if declared != nil {
			if err := subset(cols, declared, uo.at("columns"), "unique key column"); err != nil {
				return nil, err
			}
		}
		out = append(out, UniqueKey{Name: name, Columns: cols})
	}
	return out, nil
}

func (v *Validator) foreignKeys(o object, key string, declared []string) ([]ForeignKey, error) {
	raw, ok, err := o.list(key, false, true)
	if err != nil || !ok {
		return nil, err
	}
	out := make([]ForeignKey, 0, len(raw))
	for i, item := range raw {
		fo, err := v.element(item, o.at(key).Index(i))
		if err != nil {
			return nil, err
		}
		if err := fo.allow("name", "columns", "references", "onDelete", "onUpdate"); err != nil {
			return nil, err
		}
		fk := ForeignKey{}
		if fk.Name, err = fo.name("name", false); err != nil {
			return nil, err
		}
		if fk.Columns, err = fo.names("columns", true, true); err != nil {
			return nil, err
		}
		if declared != nil {
			if err := subset(fk.Columns, declared, fo.at("columns"), "foreign key column"); err != nil {
				return nil, err
			}
		}
		ref, _, err := fo.child("references", true)
		if err != nil {
			return nil, err
		}
		if err := ref.allow("schema", "table", "columns"); err != nil {
			return nil, err
		}
		if fk.References.Table, err = ref.tableName("table"); err != nil {
			return nil, err
		}
		if fk.References.Columns, err = ref.names("columns", true, true); err != nil {
			return nil, err
		}
		if len(fk.References.Columns) != len(fk.Columns) {
			return nil, ir.Shape(ir.ErrArity, ref.at("columns").Path(),
				"foreign key has %d columns but references %d", len(fk.Columns), len(fk.References.Columns))
		}
		for _, action := range []string{"onDelete", "onUpdate"} {
			rawAction, ok := fo.m[action]
			if !ok {
				continue
			}
			s, _ := rawAction.(string)
			if !slices.Contains(referentialActions, s) {
				return nil, ir.Shape(ir.ErrInvalidValue, fo.at(action).Path(),
					"%s must be one of %s, got %v", action, strings.Join(referentialActions, ", "), rawAction)
			}
			if action == "onDelete" {
				fk.OnDelete = s
			} else {
				fk.OnUpdate = s
			}
		}
		out = append(out, fk)
	}
	return out, nil
}

func (v *Validator) indexes(o object, declared []string) ([]Index, error) {
	raw, ok, err := o.list("indexes", false, true)
	if err != nil || !ok {
		return nil, err
	}
	out := make([]Index, 0, len(raw))
	for i, item := range raw {
		io, err := v.element(item, o.at("indexes").Index(i))
		if err != nil {
			return nil, err
		}
		if err := io.allow("name", "columns", "unique"); err != nil {
			return nil, err
		}
		idx := Index{}
		if idx.Name, err = io.name("name", true); err != nil {
			return nil, err
		}
		for _, prev := range out {
			if prev.Name == idx.Name {
				return nil, ir.Composition(ir.ErrDuplicateName, io.at("name").Path(), "duplicate index %q", idx.Name)
			}
		}
		if idx.Columns, err = io.names("columns", true, true); err != nil {
			return nil, err
		}
		if err := subset(idx.Columns, declared, io.at("columns"), "index column"); err != nil {
			return nil, err
		}
		if idx.Unique, err = io.flag("unique"); err != nil {
			return nil, err
		}
		out = append(out, idx)
	}
	return out, nil
}
