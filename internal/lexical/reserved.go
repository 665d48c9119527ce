package lexical

// reservedWords are rejected as entity names by the Default checker. The
// list is the intersection-leaning core of the SQL keywords reserved by
// Postgres, MariaDB and SQLite; dialects add their own on top.
var reservedWords = []string{
	"ADD", "ALL", "ALTER", "AND", "ANY", "AS", "ASC",
	"BETWEEN", "BOTH", "BY",
	"CASE", "CAST", "CHECK", "COLLATE", "COLUMN", "CONSTRAINT", "CREATE", "CROSS",
	"CURRENT_DATE", "CURRENT_TIME", "CURRENT_TIMESTAMP",
	"DEFAULT", "DELETE", "DESC", "DISTINCT", "DROP",
	"ELSE", "EXCEPT", "EXISTS",
	"FALSE", "FETCH", "FOR", "FOREIGN", "FROM", "FULL",
	"GRANT", "GROUP",
	"HAVING",
	"IN", "INNER", "INSERT", "INTERSECT", "INTO", "IS",
	"JOIN",
	"LEADING", "LEFT", "LIKE", "LIMIT",
	"NATURAL", "NOT", "NULL",
	"ON", "OR", "ORDER", "OUTER",
	"PRIMARY",
	"REFERENCES", "RIGHT",
	"SELECT", "SET",
	"TABLE", "THEN", "TO", "TRAILING", "TRUE",
	"UNION", "UNIQUE", "UPDATE", "USING",
	"VALUES",
	"WHEN", "WHERE", "WITH",
}
