package engine

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"

	sqlite "modernc.org/sqlite"
)

var registerOnce sync.Once

// RegisterVectorFunctions registers vec_l2 and vec_l2sq with the driver so
// they are available on connections opened after this call. Both take two
// float32 BLOBs; vec_l2sq returns the squared Euclidean distance used by
// the kNN index, vec_l2 its square root.
func RegisterVectorFunctions() error {
	var err error
	registerOnce.Do(func() {
		for name, fn := range map[string]func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error){
			"vec_l2":   vecL2Impl,
			"vec_l2sq": vecL2SquaredImpl,
		} {
			if e := sqlite.RegisterDeterministicScalarFunction(name, 2, fn); e != nil && !strings.Contains(e.Error(), "already") {
				err = e
			}
		}
	})
	return err
}

func asVector(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return decodeVector(v)
	default:
		return nil, fmt.Errorf("vec: unsupported argument type %T for vector; want BLOB", arg)
	}
}

func vectorArgs(name string, args []driver.Value) ([]float32, []float32, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(args))
	}
	a, err := asVector(args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := asVector(args[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func vecL2SquaredImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := vectorArgs("vec_l2sq", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	return l2Squared(a, b)
}

func vecL2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := vectorArgs("vec_l2", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	d, err := l2Squared(a, b)
	if err != nil {
		return nil, err
	}
	return math.Sqrt(d), nil
}

// Local minimal helpers to avoid import cycles in tests.
func decodeVector(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vec: invalid vector blob length %d", len(b))
	}
	n := len(b) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func l2Squared(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vec: L2 dim mismatch %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum, nil
}
