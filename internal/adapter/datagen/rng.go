package datagen

import "math/rand/v2"

// newRNG seeds a ChaCha8 generator from a 64-bit seed, widened into the
// 32-byte key ChaCha8 requires ("a ChaCha8-seeded RNG").
// Using the standard library's ChaCha8 rather than hand-rolling a PRNG is
// the one stdlib dependency this package can't avoid: math/rand/v2 is the
// only place that exposes it as a rand.Source in the Go ecosystem.
func newRNG(seed uint64) *rand.Rand {
	var key [32]byte
	for i := 0; i < 4; i++ {
		s := seed + uint64(i)*0x9E3779B97F4A7C15
		for b := 0; b < 8; b++ {
			key[i*8+b] = byte(s >> (8 * b))
		}
	}
	return rand.New(rand.NewChaCha8(key))
}
