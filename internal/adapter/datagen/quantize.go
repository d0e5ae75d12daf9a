package datagen

import "math/bits"

// immBin quantizes an immediate into a single byte:
// [0,128) maps to itself, [-128,0) maps to 256+i, and anything outside
// that range gets a logarithmic bin with the sign folded into bit 7.
func immBin(i int64) uint8 {
	if i >= 0 && i < 128 {
		return uint8(i)
	}
	if i < 0 && i >= -128 {
		return uint8(256 + i)
	}

	abs := i
	if abs < 0 {
		abs = -abs
	}

	log2 := bits.Len64(uint64(abs)) - 1
	if log2 > 15 {
		log2 = 15
	}
	// +128 sets bit 7 unconditionally, which also serves as the sign fold
	// for the negative case.
	return uint8(log2) + 128
}
