package dialect

import (
	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/ir"
)

// MariaDB is the MariaDB dialect. It assumes the default sql_mode, where
// backslash is an escape character inside string literals.
var MariaDB = New("mariadb").
	Identifiers(IdentifierConfig{Quote: "`", QuoteEnd: "`", Escape: "``"}).
	Literals("'", `\`, `\\`, "'", "''").
	Placeholder(PlaceholderQuestion).
	JSONObject("JSON_OBJECT").
	Features(Features{
		Schemas:       true,
		IfExists:      true,
		ReplaceView:   true,
		DefaultValues: true,
		EmptyInsert:   "() VALUES ()",
		OffsetLimit:   "18446744073709551615",
		Upsert:        UpsertOnDuplicateKey,
		Truncate:      TruncateTable,
		AlterColumn:   AlterColumnModify,
		Constraints:   ConstraintsByKind,
		IndexDrop:     DropIndexOnTable,
		CountDistinct: CountDistinctList,
	}).
	Type(ir.TypeChar, TypeSpec{Name: "CHAR", Sized: true}).
	Type(ir.TypeVarchar, TypeSpec{Name: "VARCHAR", Sized: true, DefaultLength: 255}).
	Type(ir.TypeDecimal, TypeSpec{Name: "DECIMAL", Sized: true}).
	Type(ir.TypeNumeric, TypeSpec{Name: "DECIMAL", Sized: true}).
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
		ir.TypeInteger:   "INT",
		ir.TypeBigint:    "BIGINT",
		ir.TypeReal:      "FLOAT",
		ir.TypeDouble:    "DOUBLE",
		ir.TypeSerial:    "INT AUTO_INCREMENT",
		ir.TypeBigserial: "BIGINT AUTO_INCREMENT",
		ir.TypeUUID:      "UUID",
	}).
	GeneratorTemplate(ir.GenNow, "NOW()").
	GeneratorTemplate(ir.GenCurrentDate, "CURRENT_DATE").
	GeneratorTemplate(ir.GenCurrentTime, "CURRENT_TIME").
	GeneratorTemplate(ir.GenCurrentTimestamp, "CURRENT_TIMESTAMP").
	GeneratorTemplate(ir.GenUUID, "UUID()").
	Functions(standardFunctions()).
	Functions(map[expr.Tag]FuncRenderer{
		expr.TagEncrypt:     Call("AES_ENCRYPT"),
		expr.TagDecrypt:     Call("AES_DECRYPT"),
		expr.TagLength:      Call("CHAR_LENGTH"),
		expr.TagToString:    Template("CAST(%[1]s AS CHAR)"),
		expr.TagDateAdd:     Template("DATE_ADD(%[1]s, INTERVAL %[2]s %[3]s)"),
		expr.TagDateSub:     Template("DATE_SUB(%[1]s, INTERVAL %[2]s %[3]s)"),
		expr.TagDateDiff:    Template("TIMESTAMPDIFF(%[1]s, %[2]s, %[3]s)"),
		expr.TagJSONValue:   Call("JSON_VALUE"),
		expr.TagJSONExtract: Call("JSON_EXTRACT"),
	}).
	ReservedWords(
		"ACCESSIBLE", "BEFORE", "BIGINT", "BINARY", "BLOB",
		"CALL", "CHANGE", "CHAR", "CONDITION", "CONTINUE", "CONVERT", "CURSOR",
		"DATABASE", "DATABASES", "DECIMAL", "DECLARE", "DELAYED", "DESCRIBE", "DIV", "DOUBLE", "DUAL",
		"EACH", "ELSEIF", "ENCLOSED", "ESCAPED", "EXIT", "EXPLAIN",
		"FLOAT", "FORCE", "FULLTEXT",
		"IF", "IGNORE", "INDEX", "INFILE", "INT", "INTEGER", "INTERVAL", "ITERATE",
		"KEY", "KEYS", "KILL",
		"LEAVE", "LINES", "LOAD", "LOCK", "LONG", "LOOP",
		"MATCH", "MOD", "MODIFIES", "OPTIMIZE", "OPTION", "OUTFILE",
		"PROCEDURE", "PURGE",
		"RANGE", "READ", "REAL", "RECURSIVE", "REGEXP", "RELEASE", "RENAME", "REPEAT",
		"REPLACE", "REQUIRE", "RESTRICT", "RETURN", "REVOKE", "RLIKE",
		"SCHEMA", "SCHEMAS", "SEPARATOR", "SHOW", "SIGNAL", "SPATIAL", "SQL", "STARTING", "STRAIGHT_JOIN",
		"TERMINATED", "TRIGGER", "UNDO", "UNLOCK", "UNSIGNED", "USAGE", "USE",
		"UTC_DATE", "UTC_TIME", "UTC_TIMESTAMP",
		"VARCHAR", "WHILE", "WRITE", "XOR", "ZEROFILL",
	).
	Build()

func init() {
	Register(MariaDB)
}
