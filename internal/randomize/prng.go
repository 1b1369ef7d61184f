package randomize

// Mulberry32 returns a deterministic generator of floats in [0, 1).
// The state is a single 32-bit word owned by the returned closure, so
// concurrent callers never share PRNG state as long as each call site
// constructs its own generator. All arithmetic wraps at 32 bits, which
// is what keeps the sequence bit-identical to other implementations of
// the same algorithm.
func Mulberry32(seed uint32) func() float64 {
	state := seed
	return func() float64 {
		state += 0x6D2B79F5
		t := state
		t = (t ^ (t >> 15)) * (t | 1)
		t ^= t + (t^(t>>7))*(t|61)
		return float64(t^(t>>14)) / 4294967296.0
	}
}
