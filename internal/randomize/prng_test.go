package randomize

import "testing"

func TestMulberry32PinnedSequence(t *testing.T) {
	// Reference values for seed 12345. These guard the exact 32-bit
	// wraparound arithmetic; any drift here silently reshuffles every
	// quiz in production.
	want := []float64{
		0.9797282677609473,
		0.3067522644996643,
		0.484205421525985,
	}
	next := Mulberry32(12345)
	for i, w := range want {
		if got := next(); got != w {
			t.Errorf("draw %d = %v, want %v", i, got, w)
		}
	}
}

func TestMulberry32Deterministic(t *testing.T) {
	seeds := []uint32{0, 1, 42, 12345, 0xFFFFFFFF}
	for _, seed := range seeds {
		a := Mulberry32(seed)
		b := Mulberry32(seed)
		for i := 0; i < 100; i++ {
			av, bv := a(), b()
			if av != bv {
				t.Fatalf("seed %d: draw %d diverged: %v != %v", seed, i, av, bv)
			}
		}
	}
}

func TestMulberry32Range(t *testing.T) {
	next := Mulberry32(7)
	for i := 0; i < 10000; i++ {
		v := next()
		if v < 0 || v >= 1 {
			t.Fatalf("draw %d = %v outside [0, 1)", i, v)
		}
	}
}

func TestMulberry32IndependentInstances(t *testing.T) {
	// Interleaving draws from one generator must not disturb another.
	// This is what makes concurrent per-request use safe.
	a := Mulberry32(99)
	_ = a()
	_ = a()

	b := Mulberry32(99)
	ref := Mulberry32(99)
	for i := 0; i < 50; i++ {
		_ = a()
		if bv, rv := b(), ref(); bv != rv {
			t.Fatalf("draw %d: instance b disturbed by instance a", i)
		}
	}
}

func BenchmarkMulberry32(b *testing.B) {
	next := Mulberry32(12345)
	for i := 0; i < b.N; i++ {
		_ = next()
	}
}
