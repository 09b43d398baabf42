package engine

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blob(v ...float32) []byte {
	b := make([]byte, 0, 4*len(v))
	for _, f := range v {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

func TestRegisterVectorFunctionsAndUse(t *testing.T) {
	// Register globally before first connection so functions are available.
	require.NoError(t, RegisterVectorFunctions())
	require.NoError(t, RegisterVectorFunctions(), "registration is idempotent")

	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	var sq float64
	require.NoError(t, db.QueryRow(`SELECT vec_l2sq(?, ?)`, blob(0, 0), blob(3, 4)).Scan(&sq))
	assert.Equal(t, 25.0, sq)

	var dist float64
	require.NoError(t, db.QueryRow(`SELECT vec_l2(?, ?)`, blob(0, 0), blob(3, 4)).Scan(&dist))
	assert.InDelta(t, 5.0, dist, 1e-9)

	err = db.QueryRow(`SELECT vec_l2sq(?, ?)`, blob(0, 0), blob(1)).Scan(&sq)
	assert.Error(t, err, "dimension mismatch is reported")

	err = db.QueryRow(`SELECT vec_l2sq(?, ?)`, "text", blob(1)).Scan(&sq)
	assert.Error(t, err, "non-BLOB arguments are rejected")
}

func TestDecodeVector(t *testing.T) {
	v, err := decodeVector(blob(1.5, -2))
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2}, v)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)

	v, err = decodeVector(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}
