package testutil

import (
	"math"
	"testing"
)

// RequireSliceNearlyEqual stops the test at the first index where got and
// want differ by more than eps, or when their lengths differ.
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, len(want) = %d", len(got), len(want))
	}
	for n := range got {
		if d := math.Abs(got[n] - want[n]); d > eps {
			t.Fatalf("sample %d: got %v, want %v (|diff| %g > %g)", n, got[n], want[n], d, eps)
		}
	}
}

// RequireFinite stops the test at the first NaN or Inf sample.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()
	for n, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("sample %d: %v is not finite", n, v)
		}
	}
}

// RequireAllZero stops the test at the first sample that is not exactly 0.
func RequireAllZero(t testing.TB, data []float64) {
	t.Helper()
	for n, v := range data {
		if v != 0 {
			t.Fatalf("sample %d: got %v, want 0", n, v)
		}
	}
}
