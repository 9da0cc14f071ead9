package resultsdb

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeFloats packs values as little-endian float64s.
func encodeFloats(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for n, v := range values {
		binary.LittleEndian.PutUint64(buf[8*n:], math.Float64bits(v))
	}
	return buf
}

// decodeFloats is the inverse of encodeFloats.
func decodeFloats(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("float blob length %d is not a multiple of 8", len(buf))
	}
	out := make([]float64, len(buf)/8)
	for n := range out {
		out[n] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*n:]))
	}
	return out, nil
}
