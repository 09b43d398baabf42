package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestOpenInMemory verifies that we can open an in-memory SQLite database
// using the modernc.org/sqlite driver and execute a trivial statement.
func TestOpenInMemory(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE t(x INTEGER)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO t(x) VALUES (1),(2),(3)")
	require.NoError(t, err)
}

func TestOpenWithFunctions(t *testing.T) {
	db, err := OpenWithFunctions(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE v(x BLOB)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO v(x) VALUES (?)", blob(1, 1))
	require.NoError(t, err)

	var sq float64
	require.NoError(t, db.QueryRow("SELECT vec_l2sq(x, ?) FROM v", blob(0, 0)).Scan(&sq))
	require.Equal(t, 2.0, sq)
	require.Equal(t, 1, db.Stats().MaxOpenConnections)
}
