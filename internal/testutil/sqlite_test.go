package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_ExecAndQuery(t *testing.T) {
	db := OpenSQLite(t)

	db.MustExec("CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT);\nCREATE INDEX t_name ON t (name)")
	db.MustExec("INSERT INTO t (name) VALUES (?), (?)", "a", nil)

	cols, rows, err := db.Query("SELECT id, name FROM t ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)
	assert.Equal(t, [][]any{{int64(1), "a"}, {int64(2), nil}}, rows)

	assert.Equal(t, [][]string{{"1", "a"}, {"2", "<nil>"}}, db.Rows("SELECT id, name FROM t ORDER BY id"))
}

func TestSQLite_ExecRejectsArgsForSeveralCommands(t *testing.T) {
	db := OpenSQLite(t)
	err := db.Exec("SELECT ?;\nSELECT ?", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arguments given for 2 commands")
}

func TestSQLite_ForeignKeysEnforced(t *testing.T) {
	db := OpenSQLite(t)
	db.MustExec("CREATE TABLE p (id INTEGER PRIMARY KEY);\nCREATE TABLE c (p_id INTEGER REFERENCES p (id))")

	err := db.Exec("INSERT INTO c (p_id) VALUES (1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOREIGN KEY")
}

func TestSQLite_Isolated(t *testing.T) {
	a, err := Open()
	require.NoError(t, err)
	defer a.Close()
	b, err := Open()
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Exec("CREATE TABLE only_a (x INTEGER)"))
	_, _, err = b.Query("SELECT x FROM only_a")
	assert.Error(t, err)
}
