package dialect

import (
	"fmt"

	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/ir"
)

// SQLite is the SQLite dialect (3.35 or newer). It has no schemas,
// in-place column changes or post-creation constraints.
var SQLite = New("sqlite").
	Placeholder(PlaceholderQuestion).
	JSONObject("json_object").
	Features(Features{
		IfExists:      true,
		EmptyInsert:   "DEFAULT VALUES",
		OffsetLimit:   "-1",
		Upsert:        UpsertOnConflict,
		Truncate:      TruncateDeleteFrom,
		AlterColumn:   AlterColumnUnsupported,
		Constraints:   ConstraintsUnsupported,
		IndexDrop:     DropIndexQualified,
		CountDistinct: CountDistinctSingle,
	}).
	Type(ir.TypeChar, TypeSpec{Name: "CHAR", Sized: true}).
	Type(ir.TypeVarchar, TypeSpec{Name: "VARCHAR", Sized: true}).
	Type(ir.TypeDecimal, TypeSpec{Name: "DECIMAL", Sized: true}).
	Type(ir.TypeNumeric, TypeSpec{Name: "NUMERIC", Sized: true}).
	Types(map[ir.DataType]string{
		ir.TypeText:      "TEXT",
		ir.TypeBoolean:   "BOOLEAN",
		ir.TypeDate:      "DATE",
		ir.TypeTime:      "TIME",
		ir.TypeDatetime:  "DATETIME",
		ir.TypeTimestamp: "TIMESTAMP",
		ir.TypeJSON:      "JSON",
		ir.TypeJSONB:     "JSON",
		ir.TypeSmallint:  "SMALLINT",
		ir.TypeInteger:   "INTEGER",
		ir.TypeBigint:    "BIGINT",
		ir.TypeReal:      "REAL",
		ir.TypeDouble:    "DOUBLE",
		ir.TypeSerial:    "INTEGER",
		ir.TypeBigserial: "INTEGER",
		ir.TypeUUID:      "TEXT",
	}).
	GeneratorTemplate(ir.GenNow, "CURRENT_TIMESTAMP").
	GeneratorTemplate(ir.GenCurrentDate, "CURRENT_DATE").
	GeneratorTemplate(ir.GenCurrentTime, "CURRENT_TIME").
	GeneratorTemplate(ir.GenCurrentTimestamp, "CURRENT_TIMESTAMP").
	GeneratorFunc(ir.GenUUID, sqliteUUID).
	Functions(standardFunctions()).
	Functions(map[expr.Tag]FuncRenderer{
		expr.TagConcat:      Infix("||"),
		expr.TagToString:    Template("CAST(%[1]s AS TEXT)"),
		expr.TagDateAdd:     sqliteDateShift(""),
		expr.TagDateSub:     sqliteDateShift("-"),
		expr.TagDateDiff:    sqliteDateDiff,
		expr.TagJSONValue:   Call("json_extract"),
		expr.TagJSONExtract: Call("json_extract"),
	}).
	ReservedWords(
		"AUTOINCREMENT", "ESCAPE", "GLOB", "INDEX", "INDEXED", "ISNULL", "NOTNULL",
		"OFFSET", "PRAGMA", "RAISE", "REGEXP", "TRANSACTION", "VACUUM",
	).
	Build()

// sqliteUUID builds a random version 4 UUID in canonical text form.
func sqliteUUID() string {
	hex := func(n int) string { return fmt.Sprintf("hex(randomblob(%d))", n) }
	return "lower(" + hex(4) + " || '-' || " + hex(2) + " || '-4' || substr(" + hex(2) + ", 2) || '-' || " +
		"substr('89ab', 1 + (abs(random()) % 4), 1) || substr(" + hex(2) + ", 2) || '-' || " + hex(6) + ")"
}

// sqliteModifiers are the date() modifiers per unit; WEEK is 7 days.
var sqliteModifiers = map[string]string{
	"SECOND": "seconds",
	"MINUTE": "minutes",
	"HOUR":   "hours",
	"DAY":    "days",
	"WEEK":   "days",
	"MONTH":  "months",
	"YEAR":   "years",
}

func sqliteDateShift(sign string) FuncRenderer {
	return func(args []string) (string, error) {
		date, n, unit := args[0], args[1], args[2]
		if unit == "WEEK" {
			n = "(" + n + " * 7)"
		}
		return fmt.Sprintf("datetime(%s, (%s%s) || ' %s')", date, sign, n, sqliteModifiers[unit]), nil
	}
}

func sqliteDateDiff(args []string) (string, error) {
	unit, from, to := args[0], args[1], args[2]
	seconds, ok := unitSeconds[unit]
	if !ok {
		return "", ir.Compile(ir.ErrUnsupported, "", "sqlite does not support DATE_DIFF in %s", unit)
	}
	return fmt.Sprintf("CAST((julianday(%s) - julianday(%s)) * 86400 / %d AS INTEGER)", to, from, seconds), nil
}

func init() {
	Register(SQLite)
}
