package meter

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-entrain/internal/testutil"
)

func TestMeterSineRMS(t *testing.T) {
	m, err := New(WithSmoothing(0), WithWindow(480))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	buf := testutil.Sine(1000, 48000, 1, 480)

	m.ProcessStereo(buf, buf)

	got, err := m.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	want := 1 / math.Sqrt2
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("rms mismatch: got=%g want=%g", got, want)
	}
}

func TestMeterSmoothingDecays(t *testing.T) {
	m, err := New(WithWindow(64))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	loud := make([]float64, 64)
	for i := range loud {
		loud[i] = 0.5
	}

	m.ProcessStereo(loud, nil)

	first, _ := m.Value()
	if math.Abs(first-0.5) > 1e-12 {
		t.Fatalf("first reading: got=%g want=0.5", first)
	}

	m.ProcessStereo(make([]float64, 64), nil)

	second, _ := m.Value()
	if math.Abs(second-0.4) > 1e-12 {
		t.Fatalf("smoothed reading: got=%g want=0.4", second)
	}
}

func TestMeterSilenceIsNegativeInfinity(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	db, err := m.ValueDB()
	if err != nil {
		t.Fatalf("ValueDB() error = %v", err)
	}

	if !math.IsInf(db, -1) {
		t.Fatalf("silence: got=%g want=-Inf", db)
	}
}

func TestMeterDisposed(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m.Dispose()
	m.ProcessStereo([]float64{1, 1}, nil)

	if _, err := m.Value(); !errors.Is(err, ErrDisposed) {
		t.Fatalf("Value() error = %v, want ErrDisposed", err)
	}
}

func TestMeterValidation(t *testing.T) {
	if _, err := New(WithSmoothing(1)); err == nil {
		t.Fatal("expected error for smoothing 1")
	}

	if _, err := New(WithWindow(0)); err == nil {
		t.Fatal("expected error for zero window")
	}
}
