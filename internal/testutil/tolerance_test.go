package testutil

import (
	"math"
	"testing"
)

func TestRequireSliceNearlyEqualWithinEps(t *testing.T) {
	RequireSliceNearlyEqual(t, []float64{1, 2.0005}, []float64{1, 2}, 1e-3)
	RequireSliceNearlyEqual(t, nil, nil, 0)
}

func TestRequireFinite(t *testing.T) {
	RequireFinite(t, []float64{0, -1, math.MaxFloat64})
}

func TestRequireAllZero(t *testing.T) {
	RequireAllZero(t, make([]float64, 16))
	RequireAllZero(t, nil)
}
