package dialect

import (
	"fmt"

	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/ir"
)

// Postgres is the PostgreSQL dialect. ENCRYPT and DECRYPT need pgcrypto.
var Postgres = New("postgres").
	Placeholder(PlaceholderDollar).
	JSONObject("json_build_object").
	Features(Features{
		Schemas:       true,
		Ilike:         true,
		IfExists:      true,
		Cascade:       true,
		ReplaceView:   true,
		DefaultValues: true,
		EmptyInsert:   "DEFAULT VALUES",
		Upsert:        UpsertOnConflict,
		Truncate:      TruncateTable,
		AlterColumn:   AlterColumnClauses,
		Constraints:   ConstraintsNamed,
		IndexDrop:     DropIndexQualified,
		CountDistinct: CountDistinctRow,
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
		ir.TypeDatetime:  "TIMESTAMP",
		ir.TypeTimestamp: "TIMESTAMPTZ",
		ir.TypeJSON:      "JSON",
		ir.TypeJSONB:     "JSONB",
		ir.TypeSmallint:  "SMALLINT",
		ir.TypeInteger:   "INTEGER",
		ir.TypeBigint:    "BIGINT",
		ir.TypeReal:      "REAL",
		ir.TypeDouble:    "DOUBLE PRECISION",
		ir.TypeSerial:    "SERIAL",
		ir.TypeBigserial: "BIGSERIAL",
		ir.TypeUUID:      "UUID",
	}).
	GeneratorTemplate(ir.GenNow, "NOW()").
	GeneratorTemplate(ir.GenCurrentDate, "CURRENT_DATE").
	GeneratorTemplate(ir.GenCurrentTime, "CURRENT_TIME").
	GeneratorTemplate(ir.GenCurrentTimestamp, "CURRENT_TIMESTAMP").
	GeneratorTemplate(ir.GenUUID, "gen_random_uuid()").
	Functions(standardFunctions()).
	Functions(map[expr.Tag]FuncRenderer{
		expr.TagEncrypt:     Template("pgp_sym_encrypt(%[1]s, %[2]s)"),
		expr.TagDecrypt:     Template("pgp_sym_decrypt(CAST(%[1]s AS BYTEA), %[2]s)"),
		expr.TagToString:    Template("CAST(%[1]s AS TEXT)"),
		expr.TagDateAdd:     Template("(%[1]s + %[2]s * INTERVAL '1 %[3]s')"),
		expr.TagDateSub:     Template("(%[1]s - %[2]s * INTERVAL '1 %[3]s')"),
		expr.TagDateDiff:    postgresDateDiff,
		expr.TagJSONValue:   Template("(jsonb_path_query_first(CAST(%[1]s AS JSONB), CAST(%[2]s AS JSONPATH)) #>> '{}')"),
		expr.TagJSONExtract: Template("jsonb_path_query_first(CAST(%[1]s AS JSONB), CAST(%[2]s AS JSONPATH))"),
	}).
	ReservedWords(
		"ANALYSE", "ANALYZE", "ARRAY", "ASYMMETRIC",
		"CURRENT_CATALOG", "CURRENT_ROLE", "CURRENT_USER",
		"DEFERRABLE", "DO", "END", "ILIKE", "INITIALLY",
		"LATERAL", "LOCALTIME", "LOCALTIMESTAMP",
		"OFFSET", "ONLY", "OVERLAPS", "PLACING", "RETURNING",
		"SESSION_USER", "SIMILAR", "SOME", "SYMMETRIC",
		"USER", "VARIADIC", "WINDOW",
	).
	Build()

func postgresDateDiff(args []string) (string, error) {
	unit, from, to := args[0], args[1], args[2]
	switch unit {
	case "MONTH":
		return fmt.Sprintf("(EXTRACT(YEAR FROM AGE(%[2]s, %[1]s)) * 12 + EXTRACT(MONTH FROM AGE(%[2]s, %[1]s)))", from, to), nil
	case "YEAR":
		return fmt.Sprintf("EXTRACT(YEAR FROM AGE(%[2]s, %[1]s))", from, to), nil
	}
	return fmt.Sprintf("FLOOR(EXTRACT(EPOCH FROM (%s - %s)) / %d)", to, from, unitSeconds[unit]), nil
}

func init() {
	Register(Postgres)
}
