package randomize

// Shuffle returns a permuted copy of items using the Fisher-Yates
// algorithm driven by random, a source of floats in [0, 1). The input
// slice is never mutated. Sequences of length 0 or 1 come back as
// unchanged copies without drawing from the source.
func Shuffle[T any](items []T, random func() float64) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := int(random() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
