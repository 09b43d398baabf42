package bruteforce

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Encode stores: dim(uint32), n(uint32), then for each item:
// idLen(uint32), id bytes, vec(float32[dim]).
func Encode(ids []string, vecs [][]float32, dim int) ([]byte, error) {
	if len(ids) != len(vecs) {
		return nil, fmt.Errorf("bruteforce: encode %d ids with %d vectors", len(ids), len(vecs))
	}
	if dim == 0 || len(vecs) == 0 {
		return make([]byte, 8), nil
	}
	size := 8
	for _, id := range ids {
		size += 4 + len(id) + 4*dim
	}
	out := make([]byte, 0, size)
	out = binary.LittleEndian.AppendUint32(out, uint32(dim))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(ids)))
	for idx, id := range ids {
		vec := vecs[idx]
		if len(vec) != dim {
			return nil, fmt.Errorf("bruteforce: encode vector %d has %d dims, want %d", idx, len(vec), dim)
		}
		out = binary.LittleEndian.AppendUint32(out, uint32(len(id)))
		out = append(out, id...)
		for _, v := range vec {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
		}
	}
	return out, nil
}

// Decode parses bytes produced by Encode.
func Decode(data []byte) ([]string, [][]float32, error) {
	if len(data) < 8 {
		return nil, nil, errors.New("bruteforce: invalid data")
	}
	off := 0
	getU32 := func() uint32 { v := binary.LittleEndian.Uint32(data[off : off+4]); off += 4; return v }
	dim := int(getU32())
	n := int(getU32())
	ids := make([]string, 0, min(n, len(data)/4))
	vecs := make([][]float32, 0, cap(ids))
	for idx := 0; idx < n; idx++ {
		if off+4 > len(data) {
			return nil, nil, errors.New("bruteforce: truncated")
		}
		idlen := int(getU32())
		if off+idlen > len(data) {
			return nil, nil, errors.New("bruteforce: truncated id")
		}
		ids = append(ids, string(data[off:off+idlen]))
		off += idlen
		if off+4*dim > len(data) {
			return nil, nil, errors.New("bruteforce: truncated vec")
		}
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(getU32())
		}
		vecs = append(vecs, vec)
	}
	return ids, vecs, nil
}
