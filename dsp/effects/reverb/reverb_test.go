package reverb

import (
	"math"
	"testing"
)

func TestGenerateImpulseShape(t *testing.T) {
	const sr = 8000.0

	left, right, err := GenerateImpulse(sr, 1.5, 0.01, 3)
	if err != nil {
		t.Fatalf("GenerateImpulse() error = %v", err)
	}

	if len(left) != 80+12000 || len(right) != len(left) {
		t.Fatalf("impulse length = %d/%d, want %d", len(left), len(right), 80+12000)
	}

	for i := 0; i < 80; i++ {
		if left[i] != 0 || right[i] != 0 {
			t.Fatalf("pre-delay sample %d not silent: l=%g r=%g", i, left[i], right[i])
		}
	}

	head, tail := 0.0, 0.0
	for i := 80; i < 80+800; i++ {
		head = math.Max(head, math.Abs(left[i]))
	}

	for i := len(left) - 800; i < len(left); i++ {
		tail = math.Max(tail, math.Abs(left[i]))
	}

	if tail >= head*0.01 {
		t.Fatalf("tail did not decay: head=%g tail=%g", head, tail)
	}
}

func TestGenerateImpulseDeterministic(t *testing.T) {
	a, _, err := GenerateImpulse(8000, 0.5, 0, 42)
	if err != nil {
		t.Fatalf("GenerateImpulse() error = %v", err)
	}

	b, _, err := GenerateImpulse(8000, 0.5, 0, 42)
	if err != nil {
		t.Fatalf("GenerateImpulse() error = %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs between runs: %g vs %g", i, a[i], b[i])
		}
	}
}

func TestReverbSilentUntilGenerated(t *testing.T) {
	r, err := New(8000, 64, WithDecay(0.2))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := make([]float64, 64)
	in[0] = 1

	outL := make([]float64, 64)
	outR := make([]float64, 64)

	if err := r.ProcessStereo(outL, outR, in, in); err != nil {
		t.Fatalf("ProcessStereo() error = %v", err)
	}

	for i := range outL {
		if outL[i] != 0 || outR[i] != 0 {
			t.Fatalf("sample %d not silent before Generate", i)
		}
	}

	if err := r.Generate(); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !r.Ready() {
		t.Fatal("Ready() = false after Generate")
	}

	energy := 0.0
	for b := 0; b < 40; b++ {
		if err := r.ProcessStereo(outL, outR, in, in); err != nil {
			t.Fatalf("ProcessStereo() error = %v", err)
		}

		for i := range outL {
			energy += outL[i]*outL[i] + outR[i]*outR[i]
		}

		in[0] = 0
	}

	if energy == 0 {
		t.Fatal("expected reverb tail after Generate")
	}
}

func TestReverbValidation(t *testing.T) {
	if _, err := New(0, 64); err == nil {
		t.Fatal("New() expected error for invalid sample rate")
	}

	if _, err := New(48000, 64, WithDecay(-1)); err == nil {
		t.Fatal("New() expected error for negative decay")
	}
}
