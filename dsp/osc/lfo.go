package osc

import (
	"fmt"
	"math"
)

// LFO is a sine oscillator scaled onto [min, max].
type LFO struct {
	osc *Oscillator
	min float64
	max float64
}

// NewLFO creates a stopped LFO with output range [min, max].
func NewLFO(sampleRate, min, max float64) (*LFO, error) {
	o, err := NewOscillator(sampleRate, WaveSine)
	if err != nil {
		return nil, fmt.Errorf("lfo %w", err)
	}

	l := &LFO{osc: o}
	if err := l.SetRange(min, max); err != nil {
		return nil, err
	}

	return l, nil
}

// SetRange changes the output range.
func (l *LFO) SetRange(min, max float64) error {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return fmt.Errorf("lfo range must be finite: [%f, %f]", min, max)
	}

	l.min = min
	l.max = max

	return nil
}

// Range returns the output range.
func (l *LFO) Range() (min, max float64) { return l.min, l.max }

// Start begins modulation. Idempotent.
func (l *LFO) Start() { l.osc.Start() }

// Stop halts modulation. Idempotent.
func (l *LFO) Stop() { l.osc.Stop() }

// Running reports whether the LFO produces output.
func (l *LFO) Running() bool { return l.osc.Running() }

// ProcessBlock writes the scaled LFO signal for the per-sample rates in
// rateHz. A stopped LFO writes zeros, not min.
func (l *LFO) ProcessBlock(dst, rateHz []float64) {
	l.osc.ProcessBlock(dst, rateHz)
	if !l.osc.Running() {
		return
	}

	span := l.max - l.min
	for i, v := range dst {
		dst[i] = l.min + span*0.5*(v+1)
	}
}
