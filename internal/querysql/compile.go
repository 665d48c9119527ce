// Package querysql compiles validated statements into dialect SQL.
//
// Output is deterministic: the same statement and dialect always produce
// the same text, parameters and fingerprint. Object keys (filter fields,
// JSON_ROW entries, UPDATE assignments) are emitted in sorted order.
//
// By default every literal is inlined. WithParameters switches the values
// bound to columns (filter operands and row data) to placeholders collected
// in CompiledStatement.Parameters; literals inside expressions, DDL and
// LIMIT/OFFSET are always inlined.
package querysql

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/sqlir/internal/dialect"
	"github.com/roach88/sqlir/internal/filter"
	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/lexical"
	"github.com/roach88/sqlir/internal/query"
)

// CompiledStatement is the output of compilation. Statements that need
// several commands (CREATE_TABLE with indexes, ALTER_TABLE) are joined by
// ";\n".
type CompiledStatement struct {
	Text        string
	Parameters  []ir.Value
	Fingerprint string
}

// Compiler renders statements for one dialect. A Compiler is immutable
// after construction and safe for concurrent use.
type Compiler struct {
	dialect *dialect.Dialect
	checker *lexical.Checker
	params  bool
	logger  *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithParameters emits placeholders for column-bound values instead of
// inlining them.
func WithParameters() Option {
	return func(c *Compiler) {
		c.params = true
	}
}

// WithLogger sets the logger. Outcomes are logged at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithChecker sets the checker CompileFilter applies to field paths. It
// should match the checker the filters were validated with; the default
// is the dialect's.
func WithChecker(checker *lexical.Checker) Option {
	return func(c *Compiler) {
		c.checker = checker
	}
}

// New creates a Compiler for d.
func New(d *dialect.Dialect, opts ...Option) *Compiler {
	c := &Compiler{dialect: d, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.checker == nil {
		c.checker = d.Checker()
	}
	return c
}

// Compile renders stmt for d with inline literals.
func Compile(d *dialect.Dialect, stmt query.Statement) (CompiledStatement, error) {
	return New(d).Compile(stmt)
}

// Compile renders stmt.
func (c *Compiler) Compile(stmt query.Statement) (CompiledStatement, error) {
	if stmt == nil {
		return CompiledStatement{}, fmt.Errorf("cannot compile nil statement")
	}
	b := c.builder()
	text, err := b.statement(stmt)
	if err != nil {
		c.logger.Debug("statement rejected", "dialect", c.dialect.Name, "type", stmt.Type(), "error", err)
		return CompiledStatement{}, err
	}
	out, err := b.finish(text)
	if err != nil {
		return CompiledStatement{}, err
	}
	c.logger.Debug("statement compiled", "dialect", c.dialect.Name, "type", stmt.Type(), "fingerprint", out.Fingerprint)
	return out, nil
}

// CompileFilter renders the predicate of one field filter. field is a
// field path, "column" or "table.column", checked with the compiler's
// checker since it does not come from a validated statement.
func (c *Compiler) CompileFilter(field string, f *filter.Filter) (CompiledStatement, error) {
	ref, err := c.checker.ValidateFieldPath(field)
	if err != nil {
		return CompiledStatement{}, err
	}
	b := c.builder()
	text, err := b.fieldFilter(b.column(ref), f)
	if err != nil {
		return CompiledStatement{}, err
	}
	return b.finish(text)
}

// CompileFilters renders a filter set as a WHERE predicate, without the
// keyword. An empty set renders "1 = 1".
func (c *Compiler) CompileFilters(s *filter.Set) (CompiledStatement, error) {
	b := c.builder()
	text, err := b.set(s)
	if err != nil {
		return CompiledStatement{}, err
	}
	return b.finish(text)
}

func (c *Compiler) builder() *builder {
	return &builder{d: c.dialect, params: c.params}
}

// builder holds the state of one compilation.
type builder struct {
	d      *dialect.Dialect
	params bool
	args   []ir.Value
	scope  *scope
}

func (b *builder) finish(text string) (CompiledStatement, error) {
	fp, err := ir.StatementFingerprint(b.d.Name, text, b.args)
	if err != nil {
		return CompiledStatement{}, err
	}
	return CompiledStatement{Text: text, Parameters: b.args, Fingerprint: fp}, nil
}

func (b *builder) statement(stmt query.Statement) (string, error) {
	switch s := stmt.(type) {
	case *query.CreateSchema:
		return b.createSchema(s)
	case *query.DropSchema:
		return b.dropSchema(s)
	case *query.CreateTable:
		return b.createTable(s)
	case *query.AlterTable:
		return b.alterTable(s)
	case *query.DropTable:
		return b.dropTable(s)
	case *query.CreateView:
		return b.createView(s.View, s.Query, false)
	case *query.AlterView:
		return b.createView(s.View, s.Query, true)
	case *query.DropView:
		return b.dropView(s)
	case *query.CreateIndex:
		return b.createIndex(s)
	case *query.DropIndex:
		return b.dropIndex(s)
	case *query.Select:
		return b.selectQuery(s)
	case *query.Insert:
		return b.insert(s.Table, s.Columns, s.Rows, nil)
	case *query.Upsert:
		return b.insert(s.Table, s.Columns, s.Rows, s)
	case *query.Update:
		return b.update(s)
	case *query.Delete:
		return b.delete(s)
	case *query.Truncate:
		return b.truncate(s)
	default:
		return "", fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

// unsupported reports a construct the dialect cannot render.
func (b *builder) unsupported(format string, args ...any) error {
	return ir.Compile(ir.ErrUnsupported, "", "%s does not support %s", b.d.Name, fmt.Sprintf(format, args...))
}

// ---------- names ----------

func (b *builder) ident(name string) string {
	return b.d.QuoteIdentifier(name)
}

func (b *builder) table(t query.TableName) string {
	return b.d.QuoteQualified(t.Schema, t.Name)
}

func (b *builder) identList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = b.ident(n)
	}
	return strings.Join(quoted, ", ")
}

// column renders a column reference. Inside a SELECT with joins, bare
// columns are qualified with the base table.
func (b *builder) column(ref lexical.ColumnRef) string {
	switch {
	case ref.Table != "":
		return b.ident(ref.Table) + "." + b.ident(ref.Column)
	case b.scope != nil && b.scope.qualify:
		return b.ident(b.scope.base) + "." + b.ident(ref.Column)
	default:
		return b.ident(ref.Column)
	}
}

// ---------- values ----------

// bind renders a column-bound value: a placeholder when parameters are on,
// the inline literal otherwise.
func (b *builder) bind(v ir.Value) (string, error) {
	if !b.params {
		return b.literal(v)
	}
	b.args = append(b.args, v)
	return b.d.FormatPlaceholder(len(b.args)), nil
}

// literal renders v inline. Arrays and objects render as quoted JSON text:
// in row data and UPDATE assignments an array is a single JSON column
// value, not a parenthesized list. Only filter operands (see operand)
// render arrays as a parenthesized list.
func (b *builder) literal(v ir.Value) (string, error) {
	switch x := v.(type) {
	case nil, ir.Null:
		return "NULL", nil
	case ir.Bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case ir.Int:
		return strconv.FormatInt(int64(x), 10), nil
	case ir.BigInt:
		return x.String(), nil
	case ir.Decimal:
		return x.String(), nil
	case ir.String:
		return b.d.QuoteString(string(x)), nil
	case ir.Date:
		return b.d.QuoteString(x.ISO()), nil
	case ir.Array, ir.Object:
		data, err := ir.MarshalCanonical(v)
		if err != nil {
			return "", err
		}
		return b.d.QuoteString(string(data)), nil
	default:
		return "", fmt.Errorf("unsupported value type: %T", v)
	}
}

// operand renders a filter operand. Arrays render as a parenthesized list
// of bound elements.
func (b *builder) operand(v ir.Value) (string, error) {
	arr, ok := v.(ir.Array)
	if !ok {
		return b.bind(v)
	}
	parts := make([]string, len(arr))
	for i, item := range arr {
		s, err := b.bind(item)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, ", ") + ")", nil
}

// Args converts parameters to database/sql arguments. Dates become their
// ISO-8601 text, matching inline rendering; big integers and decimals
// become digit strings; arrays and objects become canonical JSON.
func Args(params []ir.Value) ([]any, error) {
	out := make([]any, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case nil, ir.Null:
			out[i] = nil
		case ir.Bool:
			out[i] = bool(v)
		case ir.Int:
			out[i] = int64(v)
		case ir.BigInt:
			out[i] = v.String()
		case ir.Decimal:
			out[i] = v.String()
		case ir.String:
			out[i] = string(v)
		case ir.Date:
			out[i] = v.ISO()
		case ir.Array, ir.Object:
			data, err := ir.MarshalCanonical(v)
			if err != nil {
				return nil, fmt.Errorf("parameter %d: %w", i+1, err)
			}
			out[i] = string(data)
		default:
			return nil, fmt.Errorf("parameter %d: unsupported value type %T", i+1, p)
		}
	}
	return out, nil
}
