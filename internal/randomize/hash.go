package randomize

// HashString maps an arbitrary string to a 32-bit seed using the djb2
// XOR variant. It is stable across platforms and runs, which is what
// makes per-student shuffles reproducible. Not a cryptographic hash.
func HashString(s string) uint32 {
	var acc uint32 = 5381
	for i := 0; i < len(s); i++ {
		acc = ((acc << 5) + acc) ^ uint32(s[i])
	}
	return acc
}
