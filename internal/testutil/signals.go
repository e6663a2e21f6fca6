// Package testutil holds signal generators and tolerance checks shared by
// the DSP tests.
package testutil

import (
	"math"
	"math/rand"
)

// Sine returns n samples of amp*sin(2*pi*freqHz*i/sampleRate).
func Sine(freqHz, sampleRate, amp float64, n int) []float64 {
	out := make([]float64, n)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = amp * math.Sin(step*float64(i))
	}

	return out
}

// Noise returns n uniform samples in [-amp, amp] from a fixed seed.
func Noise(seed int64, amp float64, n int) []float64 {
	out := make([]float64, n)
	rng := rand.New(rand.NewSource(seed))

	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amp
	}

	return out
}

// Constant returns n copies of v.
func Constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}

	return out
}

// RMS returns the root mean square of x, zero when empty.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	var sum float64
	for _, v := range x {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(x)))
}

// Peak returns the largest absolute sample of x.
func Peak(x []float64) float64 {
	var p float64
	for _, v := range x {
		p = math.Max(p, math.Abs(v))
	}

	return p
}
