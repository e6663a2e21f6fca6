package audio

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-entrain/dsp/osc"
)

// Oscillator is a periodic source with a frequency Param in Hz.
type Oscillator struct {
	*node

	osc       *osc.Oscillator
	frequency *Param
}

// NewOscillator creates a stopped oscillator.
func (c *Context) NewOscillator(waveform osc.Waveform, freqHz float64) (*Oscillator, error) {
	o, err := osc.NewOscillator(c.sampleRate, waveform)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	if !validFrequency(freqHz, c.sampleRate) {
		return nil, fmt.Errorf("oscillator frequency must be in [0, %f]: %f", c.sampleRate/2, freqHz)
	}

	n := &Oscillator{osc: o}
	n.node = c.newNode("oscillator", n)
	n.frequency = n.newParam(freqHz, 0, c.sampleRate/2)

	return n, nil
}

// Frequency returns the frequency Param.
func (o *Oscillator) Frequency() *Param { return o.frequency }

// Start starts the oscillator. Starting a running oscillator is a no-op.
func (o *Oscillator) Start() {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()

	if !o.disposed {
		o.osc.Start()
	}
}

// Stop stops the oscillator. Stopping a stopped oscillator is a no-op.
func (o *Oscillator) Stop() {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()

	o.osc.Stop()
}

// Running reports whether the oscillator produces sound.
func (o *Oscillator) Running() bool {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()

	return o.osc.Running()
}

// Waveform returns the current waveform.
func (o *Oscillator) Waveform() osc.Waveform {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()

	return o.osc.Waveform()
}

// SetWaveform switches the waveform immediately, keeping the phase.
func (o *Oscillator) SetWaveform(w osc.Waveform) error {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()

	return o.osc.SetWaveform(w)
}

func (o *Oscillator) process(_, out *bus, frame int64) {
	freq := o.frequency.fill(frame)
	if !o.osc.Running() {
		out.silence()
		return
	}

	o.osc.ProcessBlock(out.l, freq)
	out.channels = 1
}

func (o *Oscillator) dispose() { o.osc.Stop() }

// LFO is a low-frequency sine source scaled onto a range, used to drive
// Params through Modulate.
type LFO struct {
	*node

	lfo       *osc.LFO
	frequency *Param
}

// NewLFO creates a stopped LFO at rateHz with output range [min, max].
func (c *Context) NewLFO(rateHz, min, max float64) (*LFO, error) {
	l, err := osc.NewLFO(c.sampleRate, min, max)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	if !validFrequency(rateHz, c.sampleRate) {
		return nil, fmt.Errorf("lfo rate must be in [0, %f]: %f", c.sampleRate/2, rateHz)
	}

	n := &LFO{lfo: l}
	n.node = c.newNode("lfo", n)
	n.frequency = n.newParam(rateHz, 0, c.sampleRate/2)

	return n, nil
}

// Frequency returns the rate Param in Hz.
func (l *LFO) Frequency() *Param { return l.frequency }

// SetRange changes the output range immediately.
func (l *LFO) SetRange(min, max float64) error {
	l.ctx.mu.Lock()
	defer l.ctx.mu.Unlock()

	return l.lfo.SetRange(min, max)
}

// Range returns the output range.
func (l *LFO) Range() (min, max float64) {
	l.ctx.mu.Lock()
	defer l.ctx.mu.Unlock()

	return l.lfo.Range()
}

// Start starts the LFO. Idempotent.
func (l *LFO) Start() {
	l.ctx.mu.Lock()
	defer l.ctx.mu.Unlock()

	if !l.disposed {
		l.lfo.Start()
	}
}

// Stop stops the LFO; a stopped LFO outputs zero. Idempotent.
func (l *LFO) Stop() {
	l.ctx.mu.Lock()
	defer l.ctx.mu.Unlock()

	l.lfo.Stop()
}

// Running reports whether the LFO is running.
func (l *LFO) Running() bool {
	l.ctx.mu.Lock()
	defer l.ctx.mu.Unlock()

	return l.lfo.Running()
}

func (l *LFO) process(_, out *bus, frame int64) {
	rate := l.frequency.fill(frame)
	if !l.lfo.Running() {
		out.silence()
		return
	}

	l.lfo.ProcessBlock(out.l, rate)
	out.channels = 1
}

func (l *LFO) dispose() { l.lfo.Stop() }

func validFrequency(f, sampleRate float64) bool {
	return !math.IsNaN(f) && f >= 0 && f <= sampleRate/2
}
