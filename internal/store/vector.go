package store

import (
	"encoding/binary"
	"math"
)

// EncodeVector serializes a float32 vector as a little-endian blob for the
// code_chunks_vec.embedding column.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector deserializes a blob written by EncodeVector back into a
// float32 vector of the given dimension.
func DecodeVector(blob []byte, dim int) []float32 {
	out := make([]float32, dim)
	for i := 0; i < dim && (i+1)*4 <= len(blob); i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out
}
