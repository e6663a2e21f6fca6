package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{name: "inside", value: 0.5, min: 0, max: 1, expected: 0.5},
		{name: "below", value: 0.4, min: 0.5, max: 40, expected: 0.5},
		{name: "above", value: 40.1, min: 0.5, max: 40, expected: 40},
		{name: "swapped", value: 2, min: 1, max: 0, expected: 1},
		{name: "nan", value: math.NaN(), min: -1, max: 1, expected: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.min, tt.max)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDBConversions(t *testing.T) {
	linear := DBToLinear(-6)

	db := LinearToDB(linear)
	if math.Abs(db+6) > 1e-10 {
		t.Fatalf("LinearToDB(DBToLinear(-6)) = %v, want -6", db)
	}

	if !math.IsInf(LinearToDB(0), -1) {
		t.Fatal("expected -Inf for zero")
	}

	if !math.IsNaN(LinearToDB(-1)) {
		t.Fatal("expected NaN for negative amplitude")
	}
}

func TestSamplesFor(t *testing.T) {
	if got := SamplesFor(0.1, 48000); got != 4800 {
		t.Fatalf("SamplesFor(0.1, 48000) = %d, want 4800", got)
	}

	if got := SamplesFor(-1, 48000); got != 0 {
		t.Fatalf("SamplesFor(-1) = %d, want 0", got)
	}
}

func TestFlushDenormals(t *testing.T) {
	if got := FlushDenormals(1e-35); got != 0 {
		t.Fatalf("FlushDenormals(1e-35) = %g, want 0", got)
	}

	if got := FlushDenormals(-0.5); got != -0.5 {
		t.Fatalf("FlushDenormals(-0.5) = %g, want -0.5", got)
	}
}
