package biquad

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-entrain/internal/testutil"
)

func TestLowpassResponse(t *testing.T) {
	const sr = 48000.0

	c, err := Lowpass(800, DefaultQ, sr)
	if err != nil {
		t.Fatalf("Lowpass() error = %v", err)
	}

	tests := []struct {
		freq   float64
		wantDB float64
		tol    float64
	}{
		{freq: 100, wantDB: 0, tol: 0.05},
		{freq: 800, wantDB: -3.0103, tol: 0.05},
		{freq: 8000, wantDB: -41.7, tol: 0.2},
	}

	for _, tt := range tests {
		in := testutil.Sine(tt.freq, sr, 1, int(sr))
		out := append([]float64(nil), in...)
		NewSection(c).ProcessBlock(out)

		// Second half only, once the section has settled. It spans whole
		// periods of every test frequency.
		half := len(in) / 2
		got := 20 * math.Log10(testutil.RMS(out[half:])/testutil.RMS(in[half:]))

		if math.Abs(got-tt.wantDB) > tt.tol {
			t.Fatalf("gain at %g Hz = %g dB, want %g +/- %g", tt.freq, got, tt.wantDB, tt.tol)
		}
	}
}

func TestLowpassValidation(t *testing.T) {
	if _, err := Lowpass(0, DefaultQ, 48000); err == nil {
		t.Fatal("Lowpass() expected error for zero frequency")
	}

	if _, err := Lowpass(30000, DefaultQ, 48000); err == nil {
		t.Fatal("Lowpass() expected error above Nyquist")
	}

	if _, err := Lowpass(800, DefaultQ, 0); err == nil {
		t.Fatal("Lowpass() expected error for invalid sample rate")
	}
}

func TestProcessBlockKeepsStateAcrossBlocks(t *testing.T) {
	c, err := Lowpass(800, DefaultQ, 48000)
	if err != nil {
		t.Fatalf("Lowpass() error = %v", err)
	}

	input := make([]float64, 257)
	for i := range input {
		input[i] = math.Sin(2*math.Pi*float64(i)/17) + 0.25*math.Sin(2*math.Pi*float64(i)/3)
	}

	want := append([]float64(nil), input...)
	NewSection(c).ProcessBlock(want)

	got := append([]float64(nil), input...)
	s := NewSection(c)

	for start, size := 0, 1; start < len(got); start, size = start+size, size*2 {
		s.ProcessBlock(got[start:min(start+size, len(got))])
	}

	testutil.RequireNearlyEqual(t, got, want, 1e-12)
}

func TestResetClearsState(t *testing.T) {
	c, err := Lowpass(800, DefaultQ, 48000)
	if err != nil {
		t.Fatalf("Lowpass() error = %v", err)
	}

	s := NewSection(c)
	s.ProcessBlock(testutil.Constant(1, 64))
	s.Reset()

	got := testutil.Sine(440, 48000, 1, 128)
	want := append([]float64(nil), got...)

	s.ProcessBlock(got)
	NewSection(c).ProcessBlock(want)

	testutil.RequireNearlyEqual(t, got, want, 0)
}
