package query

import (
	"slices"

	"github.com/roach88/sqlir/internal/aggregate"
	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/filter"
	"github.com/roach88/sqlir/internal/ir"
)

// Type is the discriminating tag of a query.
type Type string

// DDL types
const (
	TypeCreateSchema Type = "CREATE_SCHEMA"
	TypeDropSchema   Type = "DROP_SCHEMA"
	TypeCreateTable  Type = "CREATE_TABLE"
	TypeAlterTable   Type = "ALTER_TABLE"
	TypeDropTable    Type = "DROP_TABLE"
	TypeCreateView   Type = "CREATE_VIEW"
	TypeAlterView    Type = "ALTER_VIEW"
	TypeDropView     Type = "DROP_VIEW"
	TypeCreateIndex  Type = "CREATE_INDEX"
	TypeDropIndex    Type = "DROP_INDEX"
)

// DML types
const (
	TypeSelect   Type = "SELECT"
	TypeInsert   Type = "INSERT"
	TypeUpsert   Type = "UPSERT"
	TypeUpdate   Type = "UPDATE"
	TypeDelete   Type = "DELETE"
	TypeTruncate Type = "TRUNCATE"
)

var (
	ddlTypes = []Type{
		TypeCreateSchema, TypeDropSchema,
		TypeCreateTable, TypeAlterTable, TypeDropTable,
		TypeCreateView, TypeAlterView, TypeDropView,
		TypeCreateIndex, TypeDropIndex,
	}
	dmlTypes = []Type{TypeSelect, TypeInsert, TypeUpsert, TypeUpdate, TypeDelete, TypeTruncate}
)

// DDLTypes returns the DDL query types.
func DDLTypes() []Type {
	return slices.Clone(ddlTypes)
}

// DMLTypes returns the DML query types.
func DMLTypes() []Type {
	return slices.Clone(dmlTypes)
}

// IsDDL reports whether t is a DDL type.
func (t Type) IsDDL() bool {
	for _, d := range ddlTypes {
		if d == t {
			return true
		}
	}
	return false
}

// Statement is a validated query.
//
// This is a sealed interface - only types in this package implement it.
// Compilers switch exhaustively over the concrete types.
type Statement interface {
	Type() Type
	statement()
}

// TableName is an optionally schema-qualified name.
type TableName struct {
	Schema string
	Name   string
}

// ---------- DDL ----------

// CreateSchema creates a schema.
type CreateSchema struct {
	Schema      string
	IfNotExists bool
}

// DropSchema drops a schema.
type DropSchema struct {
	Schema   string
	IfExists bool
	Cascade  bool
}

// ColumnDef is a column definition. Length applies to string types only;
// Precision and Scale to decimal types only.
type ColumnDef struct {
	Name       string
	Type       ir.DataType
	Length     *int
	Precision  *int
	Scale      *int
	Nullable   bool
	PrimaryKey bool
	Unique     bool
	Default    *Default
}

// Default is a column default: a literal or a generator. Exactly one of
// Value and Generator is set.
type Default struct {
	Value     ir.Value
	Generator ir.Generator
}

// UniqueKey is a named or anonymous unique constraint.
type UniqueKey struct {
	Name    string
	Columns []string
}

// ForeignKey is a foreign key constraint.
type ForeignKey struct {
	Name       string
	Columns    []string
	References Reference
	OnDelete   string
	OnUpdate   string
}

// Reference is the target of a foreign key.
type Reference struct {
	Table   TableName
	Columns []string
}

// Index is an index declared alongside a table.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// CreateTable creates a table.
type CreateTable struct {
	Table       TableName
	Columns     []ColumnDef
	PrimaryKeys []string
	UniqueKeys  []UniqueKey
	ForeignKeys []ForeignKey
	Indexes     []Index
	IfNotExists bool
}

// Rename renames a column.
type Rename struct {
	From string
	To   string
}

// AlterTable changes a table. At least one operation is present.
// Renames are sorted by the old name.
type AlterTable struct {
	Table           TableName
	DropColumns     []string
	AddColumns      []ColumnDef
	RenameColumns   []Rename
	AlterColumns    []ColumnDef
	AddForeignKeys  []ForeignKey
	DropForeignKeys []string
	AddUniqueKeys   []UniqueKey
	DropUniqueKeys  []string
}

// DropTable drops a table.
type DropTable struct {
	Table    TableName
	IfExists bool
	Cascade  bool
}

// ViewQuery is the body of a view: raw text or a validated SELECT.
// Exactly one field is set.
type ViewQuery struct {
	Text   string
	Select *Select
}

// CreateView creates a view.
type CreateView struct {
	View  TableName
	Query ViewQuery
}

// AlterView redefines a view.
type AlterView struct {
	View  TableName
	Query ViewQuery
}

// DropView drops a view.
type DropView struct {
	View     TableName
	IfExists bool
}

// CreateIndex creates an index on a table.
type CreateIndex struct {
	Name        string
	Table       TableName
	Columns     []string
	Unique      bool
	IfNotExists bool
}

// DropIndex drops an index. Table is only needed by dialects that scope
// index names to tables.
type DropIndex struct {
	Name     string
	Schema   string
	Table    string
	IfExists bool
}

// ---------- DML ----------

// Value is a DML data value: a literal or an expression. Exactly one
// field is set.
type Value struct {
	Literal ir.Value
	Expr    *expr.Expression
}

// Row maps column names to values. Columns missing from a row take their
// default.
type Row map[string]Value

// JoinType is INNER or LEFT.
type JoinType string

const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
)

// JoinOn equates a column of the joined table with a column of the base
// table, or of another join when BaseTable is set.
type JoinOn struct {
	Column     string
	BaseTable  string
	BaseColumn string
}

// Join is a keyed join. Projecting "$key" selects all of Columns.
type Join struct {
	Key     string
	Table   TableName
	Columns []string
	On      []JoinOn
	Type    JoinType
}

// ProjectionKind says what a projected name resolved to.
type ProjectionKind int

const (
	ProjectColumn ProjectionKind = iota + 1
	ProjectExpression
	ProjectJoin
)

// Projection is a resolved entry of SELECT.project.
type Projection struct {
	Name string
	Kind ProjectionKind
}

// NamedExpression is an entry of SELECT.expressions. Exactly one of Expr
// and Aggr is set.
type NamedExpression struct {
	Name string
	Expr *expr.Expression
	Aggr *aggregate.Aggregate
}

// Direction is an ORDER BY direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order is one ORDER BY term. Field is a column, an expression name or
// "join.column".
type Order struct {
	Field     string
	Direction Direction
}

// Select reads rows.
type Select struct {
	Table       TableName
	Columns     []string
	Project     []Projection
	Expressions []NamedExpression
	Filters     *filter.Set
	Having      *filter.Set
	Joins       []Join
	Limit       *int64
	Offset      *int64
	OrderBy     []Order
	GroupBy     []string
}

// Expression returns the named expression called name.
func (s *Select) Expression(name string) (NamedExpression, bool) {
	for _, e := range s.Expressions {
		if e.Name == name {
			return e, true
		}
	}
	return NamedExpression{}, false
}

// Join returns the join with the given key.
func (s *Select) Join(key string) (Join, bool) {
	for _, j := range s.Joins {
		if j.Key == key {
			return j, true
		}
	}
	return Join{}, false
}

// HasAggregates reports whether any named expression is an aggregate.
func (s *Select) HasAggregates() bool {
	for _, e := range s.Expressions {
		if e.Aggr != nil {
			return true
		}
	}
	return false
}

// Insert inserts rows.
type Insert struct {
	Table   TableName
	Columns []string
	Rows    []Row
}

// Upsert inserts rows, updating UpdateColumns on a conflict over
// ConflictColumns. UpdateColumns defaults to every non-conflict column.
type Upsert struct {
	Table           TableName
	Columns         []string
	Rows            []Row
	ConflictColumns []string
	UpdateColumns   []string
}

// Update sets columns on matching rows.
type Update struct {
	Table   TableName
	Columns []string
	Data    Row
	Filters *filter.Set
}

// Delete removes matching rows.
type Delete struct {
	Table   TableName
	Columns []string
	Filters *filter.Set
}

// Truncate removes every row.
type Truncate struct {
	Table TableName
}

func (CreateSchema) Type() Type { return TypeCreateSchema }
func (DropSchema) Type() Type   { return TypeDropSchema }
func (CreateTable) Type() Type  { return TypeCreateTable }
func (AlterTable) Type() Type   { return TypeAlterTable }
func (DropTable) Type() Type    { return TypeDropTable }
func (CreateView) Type() Type   { return TypeCreateView }
func (AlterView) Type() Type    { return TypeAlterView }
func (DropView) Type() Type     { return TypeDropView }
func (CreateIndex) Type() Type  { return TypeCreateIndex }
func (DropIndex) Type() Type    { return TypeDropIndex }
func (Select) Type() Type       { return TypeSelect }
func (Insert) Type() Type       { return TypeInsert }
func (Upsert) Type() Type       { return TypeUpsert }
func (Update) Type() Type       { return TypeUpdate }
func (Delete) Type() Type       { return TypeDelete }
func (Truncate) Type() Type     { return TypeTruncate }

func (CreateSchema) statement() {}
func (DropSchema) statement()   {}
func (CreateTable) statement()  {}
func (AlterTable) statement()   {}
func (DropTable) statement()    {}
func (CreateView) statement()   {}
func (AlterView) statement()    {}
func (DropView) statement()     {}
func (CreateIndex) statement()  {}
func (DropIndex) statement()    {}
func (Select) statement()       {}
func (Insert) statement()       {}
func (Upsert) statement()       {}
func (Update) statement()       {}
func (Delete) statement()       {}
func (Truncate) statement()     {}
