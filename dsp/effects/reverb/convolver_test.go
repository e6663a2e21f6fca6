package reverb

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-entrain/internal/testutil"
)

func directConvolve(signal, kernel []float64) []float64 {
	out := make([]float64, len(signal))
	for n := range out {
		for k, h := range kernel {
			if n-k < 0 {
				break
			}

			out[n] += h * signal[n-k]
		}
	}

	return out
}

func TestConvolverMatchesDirectConvolution(t *testing.T) {
	kernel := testutil.Noise(7, 1, 300)
	signal := testutil.Noise(8, 1, 64*20)

	c, err := NewConvolver(kernel, 64)
	if err != nil {
		t.Fatalf("NewConvolver() error = %v", err)
	}

	if got := c.Partitions(); got != 5 {
		t.Fatalf("Partitions() = %d, want 5", got)
	}

	got := make([]float64, len(signal))
	for b := 0; b < len(signal); b += 64 {
		if err := c.ProcessBlock(got[b:b+64], signal[b:b+64]); err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}
	}

	testutil.RequireNearlyEqual(t, got, directConvolve(signal, kernel), 1e-9)
}

func TestConvolverRejectsWrongBlockSize(t *testing.T) {
	c, err := NewConvolver([]float64{1}, 32)
	if err != nil {
		t.Fatalf("NewConvolver() error = %v", err)
	}

	buf := make([]float64, 16)
	if err := c.ProcessBlock(buf, buf); !errors.Is(err, ErrBlockSize) {
		t.Fatalf("ProcessBlock() error = %v, want ErrBlockSize", err)
	}
}

func TestNewConvolverValidation(t *testing.T) {
	if _, err := NewConvolver(nil, 64); !errors.Is(err, ErrEmptyImpulse) {
		t.Fatalf("NewConvolver(nil) error = %v, want ErrEmptyImpulse", err)
	}

	if _, err := NewConvolver([]float64{1}, 0); err == nil {
		t.Fatal("NewConvolver() expected error for zero partition size")
	}
}
