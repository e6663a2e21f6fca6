package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-entrain/internal/testutil"
)

func TestLimiterHoldsCeiling(t *testing.T) {
	l, err := NewLimiter(48000, WithLimiterThreshold(-3))
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}

	left := testutil.Sine(200, 48000, 1.5, 4800)
	right := testutil.Sine(200, 48000, -1.5, 4800)

	l.ProcessStereo(left, right)

	ceiling := math.Pow(10, -3.0/20) + 1e-12
	testutil.RequireBounded(t, left, ceiling)
	testutil.RequireBounded(t, right, ceiling)
}

func TestLimiterPassesQuietSignalDelayed(t *testing.T) {
	l, err := NewLimiter(48000, WithLimiterLookahead(1))
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}

	latency := l.LatencySamples()
	if latency != 48 {
		t.Fatalf("LatencySamples() = %d, want 48", latency)
	}

	in := make([]float64, 512)
	for i := range in {
		in[i] = 0.1 * math.Sin(2*math.Pi*float64(i)/64)
	}

	out := append([]float64(nil), in...)
	l.ProcessStereo(out, nil)

	for i := latency; i < len(out); i++ {
		if diff := math.Abs(out[i] - in[i-latency]); diff > 1e-12 {
			t.Fatalf("sample %d mismatch: got=%g want=%g", i, out[i], in[i-latency])
		}
	}
}

func TestLimiterValidation(t *testing.T) {
	if _, err := NewLimiter(0); err == nil {
		t.Fatal("NewLimiter() expected error for invalid sample rate")
	}

	if _, err := NewLimiter(48000, WithLimiterThreshold(3)); err == nil {
		t.Fatal("NewLimiter() expected error for positive threshold")
	}

	if _, err := NewLimiter(48000, WithLimiterRelease(0)); err == nil {
		t.Fatal("NewLimiter() expected error for zero release")
	}
}
