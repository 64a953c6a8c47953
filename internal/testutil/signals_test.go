package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(1000, 8000, 0.5, 16)
	if len(s) != 16 {
		t.Fatalf("len = %d, want 16", len(s))
	}
	// Eight samples per period: 0, peak at 2, zero at 4, trough at 6.
	want := map[int]float64{0: 0, 2: 0.5, 4: 0, 6: -0.5, 10: 0.5}
	for n, v := range want {
		if math.Abs(s[n]-v) > 1e-12 {
			t.Fatalf("s[%d] = %v, want %v", n, s[n], v)
		}
	}
}

func TestDeterministicNoise(t *testing.T) {
	a := DeterministicNoise(42, 0.25, 256)
	RequireSliceNearlyEqual(t, DeterministicNoise(42, 0.25, 256), a, 0)

	for n, v := range a {
		if v < -0.25 || v >= 0.25 {
			t.Fatalf("a[%d] = %v outside [-0.25, 0.25)", n, v)
		}
	}

	b := DeterministicNoise(43, 0.25, 256)
	same := 0
	for n := range a {
		if a[n] == b[n] {
			same++
		}
	}
	if same == len(a) {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestImpulse(t *testing.T) {
	imp := Impulse(8, 3)
	for n, v := range imp {
		want := 0.0
		if n == 3 {
			want = 1
		}
		if v != want {
			t.Fatalf("imp[%d] = %v, want %v", n, v, want)
		}
	}

	RequireAllZero(t, Impulse(4, 10))
	RequireAllZero(t, Impulse(4, -1))
}

func TestDC(t *testing.T) {
	RequireSliceNearlyEqual(t, DC(0.5, 3), []float64{0.5, 0.5, 0.5}, 0)
}

func TestCloneIsDeep(t *testing.T) {
	left := []float64{1, 2}
	right := []float64{3}

	c := Clone(left, right)
	c[0][0] = 9
	c[1][0] = 9

	if left[0] != 1 || right[0] != 3 {
		t.Fatal("Clone shares storage with its input")
	}
	if len(c) != 2 || len(c[0]) != 2 || len(c[1]) != 1 {
		t.Fatalf("unexpected shape %v", c)
	}
}
