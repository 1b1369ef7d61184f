package randomize

import (
	"reflect"
	"sort"
	"testing"
)

func TestShufflePinnedPermutation(t *testing.T) {
	got := Shuffle([]string{"a", "b", "c", "d"}, Mulberry32(1))
	want := []string{"d", "b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Shuffle(abcd, seed 1) = %v, want %v", got, want)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	input := []string{"w", "x", "y", "z", "w", "q"}
	for seed := uint32(0); seed < 200; seed++ {
		got := Shuffle(input, Mulberry32(seed))
		if len(got) != len(input) {
			t.Fatalf("seed %d: length %d, want %d", seed, len(got), len(input))
		}
		a := append([]string(nil), input...)
		b := append([]string(nil), got...)
		sort.Strings(a)
		sort.Strings(b)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("seed %d: %v is not a permutation of %v", seed, got, input)
		}
	}
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	input := []string{"a", "b", "c", "d", "e"}
	saved := append([]string(nil), input...)
	_ = Shuffle(input, Mulberry32(3))
	if !reflect.DeepEqual(input, saved) {
		t.Errorf("input mutated: %v, want %v", input, saved)
	}
}

func TestShuffleSmallInputs(t *testing.T) {
	calls := 0
	counting := func() float64 {
		calls++
		return 0.5
	}

	if got := Shuffle([]string{}, counting); len(got) != 0 {
		t.Errorf("empty input returned %v", got)
	}
	if got := Shuffle([]string{"only"}, counting); !reflect.DeepEqual(got, []string{"only"}) {
		t.Errorf("single element input returned %v", got)
	}
	if calls != 0 {
		t.Errorf("random source drawn %d times for trivial inputs", calls)
	}
}

func TestShuffleSeedsDiffer(t *testing.T) {
	one := Shuffle([]string{"a", "b", "c", "d"}, Mulberry32(1))
	two := Shuffle([]string{"a", "b", "c", "d"}, Mulberry32(2))
	if reflect.DeepEqual(one, two) {
		t.Errorf("seeds 1 and 2 produced the same order %v", one)
	}
}

func TestShuffleNoIdentityBias(t *testing.T) {
	// Not every seed may permute a short list, but identity orders
	// must stay rare. For n=4 a uniform shuffle leaves ~1/24 of seeds
	// at the identity.
	input := []string{"a", "b", "c", "d"}
	identity := 0
	for seed := uint32(0); seed < 1000; seed++ {
		if reflect.DeepEqual(Shuffle(input, Mulberry32(seed)), input) {
			identity++
		}
	}
	if identity > 100 {
		t.Errorf("identity permutation for %d of 1000 seeds", identity)
	}
	if identity == 1000 {
		t.Error("shuffle never reorders anything")
	}
}

func TestShuffleGenericElementTypes(t *testing.T) {
	type item struct {
		ID   string
		Text string
	}
	input := []item{{"1", "one"}, {"2", "two"}, {"3", "three"}}
	got := Shuffle(input, Mulberry32(11))
	if len(got) != 3 {
		t.Fatalf("length %d, want 3", len(got))
	}
	seen := map[string]bool{}
	for _, it := range got {
		seen[it.ID] = true
	}
	for _, id := range []string{"1", "2", "3"} {
		if !seen[id] {
			t.Errorf("element %s missing after shuffle", id)
		}
	}
}
