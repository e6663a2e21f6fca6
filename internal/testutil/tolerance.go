package testutil

import (
	"fmt"
	"math"
	"testing"
)

// RequireNearlyEqual fails t at the first sample where got and want
// differ by more than eps.
func RequireNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got=%d want=%d", len(got), len(want))
	}

	for i := range got {
		if diff := math.Abs(got[i] - want[i]); diff > eps || math.IsNaN(diff) {
			t.Fatalf("sample %d mismatch: got=%g want=%g diff=%g", i, got[i], want[i], diff)
		}
	}
}

// RequireSilent fails t if any sample is non-zero.
func RequireSilent(t *testing.T, x []float64) {
	t.Helper()

	for i, v := range x {
		if v != 0 {
			t.Fatalf("sample %d: got=%g want=0", i, v)
		}
	}
}

// RequireBounded fails t if any sample is non-finite or outside
// [-limit, limit].
func RequireBounded(t *testing.T, x []float64, limit float64) {
	t.Helper()

	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
			t.Fatalf("sample %d: got=%g outside +/-%g", i, v, limit)
		}
	}
}

// MaxAbsDiff returns the largest absolute difference between a and b.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}

	var m float64
	for i := range a {
		m = math.Max(m, math.Abs(a[i]-b[i]))
	}

	return m, nil
}
