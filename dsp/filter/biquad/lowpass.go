package biquad

import (
	"fmt"
	"math"
)

// DefaultQ is the Butterworth quality factor, 1/sqrt(2).
const DefaultQ = 1 / math.Sqrt2

// Lowpass designs an RBJ cookbook lowpass at freq (Hz) with quality factor q.
// q <= 0 selects DefaultQ.
func Lowpass(freq, q, sampleRate float64) (Coefficients, error) {
	w0, err := normalizedW0(freq, sampleRate)
	if err != nil {
		return Coefficients{}, err
	}

	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		q = DefaultQ
	}

	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b1 := 1 - cw
	b0 := b1 / 2
	b2 := b0
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}, nil
}

func normalizedW0(freq, sampleRate float64) (float64, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, fmt.Errorf("biquad sample rate must be > 0 and finite: %f", sampleRate)
	}

	nyquist := sampleRate / 2
	if freq <= 0 || freq >= nyquist || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, fmt.Errorf("biquad frequency must be in (0, %f): %f", nyquist, freq)
	}

	return 2 * math.Pi * freq / sampleRate, nil
}
