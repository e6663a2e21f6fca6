package testutil

import (
	"math"
	"testing"
)

func TestSineRMS(t *testing.T) {
	s := Sine(1000, 48000, 1, 480)
	if s[0] != 0 {
		t.Fatalf("s[0] = %g, want 0", s[0])
	}

	if got, want := RMS(s), 1/math.Sqrt2; math.Abs(got-want) > 1e-12 {
		t.Fatalf("RMS() = %g, want %g", got, want)
	}

	if got := Peak(s); math.Abs(got-1) > 1e-12 {
		t.Fatalf("Peak() = %g, want 1", got)
	}
}

func TestNoiseIsReproducible(t *testing.T) {
	a := Noise(3, 0.5, 128)
	b := Noise(3, 0.5, 128)

	RequireNearlyEqual(t, a, b, 0)
	RequireBounded(t, a, 0.5)
}

func TestMaxAbsDiff(t *testing.T) {
	d, err := MaxAbsDiff([]float64{1, 2, 3}, []float64{1, 2.5, 2})
	if err != nil {
		t.Fatalf("MaxAbsDiff() error = %v", err)
	}

	if d != 1 {
		t.Fatalf("MaxAbsDiff() = %g, want 1", d)
	}

	if _, err := MaxAbsDiff([]float64{1}, nil); err == nil {
		t.Fatal("MaxAbsDiff() expected length error")
	}
}

func TestEmptyHelpers(t *testing.T) {
	if RMS(nil) != 0 || Peak(nil) != 0 {
		t.Fatal("empty input must yield zero")
	}

	RequireSilent(t, Constant(0, 8))
}
