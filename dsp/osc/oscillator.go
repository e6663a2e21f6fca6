package osc

import (
	"fmt"
	"math"
)

// Oscillator is a start/stop-able waveform generator.
type Oscillator struct {
	sampleRate float64
	waveform   Waveform
	phase      float64
	running    bool
}

// NewOscillator creates a stopped oscillator.
func NewOscillator(sampleRate float64, waveform Waveform) (*Oscillator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("oscillator sample rate must be > 0 and finite: %f", sampleRate)
	}

	if !waveform.Valid() {
		return nil, fmt.Errorf("oscillator waveform is invalid: %v", waveform)
	}

	return &Oscillator{sampleRate: sampleRate, waveform: waveform}, nil
}

// Start begins output from phase zero. Starting a running oscillator is a no-op.
func (o *Oscillator) Start() {
	if o.running {
		return
	}

	o.phase = 0
	o.running = true
}

// Stop silences the oscillator. Stopping a stopped oscillator is a no-op.
func (o *Oscillator) Stop() {
	o.running = false
}

// Running reports whether the oscillator produces output.
func (o *Oscillator) Running() bool { return o.running }

// Waveform returns the current shape.
func (o *Oscillator) Waveform() Waveform { return o.waveform }

// SetWaveform switches the shape immediately, keeping phase.
func (o *Oscillator) SetWaveform(w Waveform) error {
	if !w.Valid() {
		return fmt.Errorf("oscillator waveform is invalid: %v", w)
	}

	o.waveform = w

	return nil
}

// SampleRate returns sample rate in Hz.
func (o *Oscillator) SampleRate() float64 { return o.sampleRate }

// ProcessBlock writes len(dst) samples driven by the per-sample frequencies
// in freqHz, which must be at least as long as dst. A stopped oscillator
// writes silence and does not advance.
func (o *Oscillator) ProcessBlock(dst, freqHz []float64) {
	if !o.running {
		for i := range dst {
			dst[i] = 0
		}

		return
	}

	for i := range dst {
		dt := freqHz[i] / o.sampleRate
		dst[i] = shape(o.waveform, o.phase, math.Abs(dt))

		o.phase += dt
		o.phase -= math.Floor(o.phase)
	}
}
