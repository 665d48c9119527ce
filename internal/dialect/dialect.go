// Package dialect describes how a SQL backend spells the constructs the
// compiler emits.
//
// A Dialect is immutable once built. The builtin dialects (postgres,
// mariadb, sqlite) register themselves at init; custom dialects are made
// with a Builder or by overlaying YAML onto a builtin one.
package dialect

import (
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/lexical"
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (MariaDB, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// IdentifierConfig defines how identifiers are quoted.
type IdentifierConfig struct {
	Quote    string `yaml:"quote"`    // opening quote: ", `, [
	QuoteEnd string `yaml:"quoteEnd"` // closing quote, usually the same as Quote
	Escape   string `yaml:"escape"`   // replacement for QuoteEnd inside a name
}

// LiteralConfig defines how string literals are quoted. Escapes holds
// old/new replacement pairs applied in one pass.
type LiteralConfig struct {
	Quote   string
	Escapes []string
}

// TypeSpec is the native spelling of a DataType. Sized types accept a
// length or precision suffix; DefaultLength is used when none is given.
type TypeSpec struct {
	Name          string
	Sized         bool
	DefaultLength int
}

// GeneratorSpec renders a Generator, either as a fixed template or by
// calling Func. Func wins when both are set.
type GeneratorSpec struct {
	Template string
	Func     func() string
}

// Render returns the SQL text of the generator.
func (g GeneratorSpec) Render() string {
	if g.Func != nil {
		return g.Func()
	}
	return g.Template
}

// FuncRenderer renders an expression from its already-rendered arguments.
type FuncRenderer func(args []string) (string, error)

// UpsertStyle selects the conflict clause of an upsert.
type UpsertStyle int

const (
	UpsertOnConflict     UpsertStyle = iota // ON CONFLICT (...) DO UPDATE SET
	UpsertOnDuplicateKey                    // ON DUPLICATE KEY UPDATE
)

// TruncateStyle selects how TRUNCATE is spelled.
type TruncateStyle int

const (
	TruncateTable      TruncateStyle = iota // TRUNCATE TABLE t
	TruncateDeleteFrom                      // DELETE FROM t
)

// AlterColumnStyle selects how a column definition is changed in place.
type AlterColumnStyle int

const (
	AlterColumnUnsupported AlterColumnStyle = iota
	AlterColumnClauses                      // ALTER COLUMN c TYPE ..., SET NOT NULL, SET DEFAULT
	AlterColumnModify                       // MODIFY COLUMN <definition>
)

// ConstraintStyle selects how table constraints are added and dropped
// after creation.
type ConstraintStyle int

const (
	ConstraintsUnsupported ConstraintStyle = iota
	ConstraintsNamed                       // DROP CONSTRAINT n
	ConstraintsByKind                      // DROP FOREIGN KEY n, DROP INDEX n
)

// IndexDropStyle selects how DROP INDEX names its target.
type IndexDropStyle int

const (
	DropIndexQualified IndexDropStyle = iota // DROP INDEX schema.name
	DropIndexOnTable                         // DROP INDEX name ON table
)

// CountDistinctStyle selects how COUNT(DISTINCT ...) takes several columns.
type CountDistinctStyle int

const (
	CountDistinctSingle CountDistinctStyle = iota // one column only
	CountDistinctList                             // COUNT(DISTINCT a, b)
	CountDistinctRow                              // COUNT(DISTINCT (a, b))
)

// Features are the switches the compiler consults.
type Features struct {
	Schemas       bool
	Ilike         bool
	IfExists      bool
	Cascade       bool
	ReplaceView   bool
	DefaultValues bool   // DEFAULT is accepted inside VALUES
	EmptyInsert   string // INSERT tail for a row with no columns
	OffsetLimit   string // LIMIT emitted when only OFFSET is given; empty if OFFSET stands alone
	Upsert        UpsertStyle
	Truncate      TruncateStyle
	AlterColumn   AlterColumnStyle
	Constraints   ConstraintStyle
	IndexDrop     IndexDropStyle
	CountDistinct CountDistinctStyle
}

// Dialect is a backend-specific configuration of quoting, type names,
// generators and function spellings.
type Dialect struct {
	Name        string
	Identifiers IdentifierConfig
	Literals    LiteralConfig
	Placeholder PlaceholderStyle
	Features    Features

	// JSONObject is the function building a JSON object from key/value
	// pairs, used for JSON_ROW.
	JSONObject string

	types      map[ir.DataType]TypeSpec
	generators map[ir.Generator]GeneratorSpec
	functions  map[expr.Tag]FuncRenderer
	literals   *strings.Replacer
	reserved   []string
	checker    *lexical.Checker
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteQualified quotes each non-empty part and joins them with dots.
func (d *Dialect) QuoteQualified(parts ...string) string {
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			quoted = append(quoted, d.QuoteIdentifier(p))
		}
	}
	return strings.Join(quoted, ".")
}

// QuoteString quotes a string literal, applying the dialect's escapes.
func (d *Dialect) QuoteString(s string) string {
	return d.Literals.Quote + d.literals.Replace(s) + d.Literals.Quote
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// Type returns the native spelling of t.
func (d *Dialect) Type(t ir.DataType) (TypeSpec, bool) {
	spec, ok := d.types[t]
	return spec, ok
}

// Generator returns the spec of g.
func (d *Dialect) Generator(g ir.Generator) (GeneratorSpec, bool) {
	spec, ok := d.generators[g]
	return spec, ok
}

// Function returns the renderer of an expression tag.
func (d *Dialect) Function(tag expr.Tag) (FuncRenderer, bool) {
	fn, ok := d.functions[tag]
	return fn, ok
}

// ReservedWords lists the words the dialect reserves beyond the lexical
// default set, in sorted order.
func (d *Dialect) ReservedWords() []string {
	return slices.Clone(d.reserved)
}

// Checker returns the lexical checker for entity names in this dialect:
// the default reserved words plus the dialect's own.
func (d *Dialect) Checker() *lexical.Checker {
	if d.checker == nil {
		return lexical.Default
	}
	return d.checker
}

// Types lists the DataTypes the dialect maps, in catalog order.
func (d *Dialect) Types() []ir.DataType {
	out := make([]ir.DataType, 0, len(d.types))
	for _, t := range ir.DataTypes() {
		if _, ok := d.types[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Functions lists the expression tags the dialect renders, generators
// included, in sorted order.
func (d *Dialect) Functions() []expr.Tag {
	var out []expr.Tag
	for _, tag := range expr.Tags() {
		if _, ok := d.functions[tag]; ok {
			out = append(out, tag)
			continue
		}
		if _, ok := d.generators[ir.Generator(tag)]; ok && tag.IsGenerator() {
			out = append(out, tag)
		}
	}
	return out
}
