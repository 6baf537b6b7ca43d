// Package sliceops holds byte-order helpers.
package sliceops

// SwapBuf returns a reversed copy of in.
func SwapBuf(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[len(in)-1-i] = b
	}
	return out
}

// SwapUUID converts a 128-bit UUID between its canonical big-endian form and
// the little-endian order used over the air.
func SwapUUID(u [16]byte) [16]byte {
	var out [16]byte
	copy(out[:], SwapBuf(u[:]))
	return out
}
