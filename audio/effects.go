package audio

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-entrain/dsp/effects/dynamics"
	"github.com/cwbudde/algo-entrain/dsp/effects/reverb"
	"github.com/cwbudde/algo-entrain/dsp/filter/biquad"
)

// Filter is a fixed lowpass biquad, one section per channel.
type Filter struct {
	*node

	cutoff   float64
	sections [2]*biquad.Section
}

// NewLowpass creates a lowpass Filter with the given cutoff and Q.
func (c *Context) NewLowpass(cutoffHz, q float64) (*Filter, error) {
	coeffs, err := biquad.Lowpass(cutoffHz, q, c.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	n := &Filter{
		cutoff:   cutoffHz,
		sections: [2]*biquad.Section{biquad.NewSection(coeffs), biquad.NewSection(coeffs)},
	}
	n.node = c.newNode("lowpass", n)

	return n, nil
}

// Cutoff returns the cutoff frequency in Hz.
func (f *Filter) Cutoff() float64 { return f.cutoff }

func (f *Filter) process(in, out *bus, _ int64) {
	out.copyFrom(in)

	switch out.channels {
	case 0:
		if f.sections[0].State() == [2]float64{} && f.sections[1].State() == [2]float64{} {
			return
		}

		// Feed silence so the state decays instead of freezing.
		clear(out.l)
		f.sections[0].ProcessBlock(out.l)
		clear(out.r)
		f.sections[1].ProcessBlock(out.r)
		out.channels = 2
	case 1:
		f.sections[0].ProcessBlock(out.l)
		f.sections[1].Reset()
	default:
		f.sections[0].ProcessBlock(out.l)
		f.sections[1].ProcessBlock(out.r)
	}
}

// Limiter is a stereo-linked lookahead brickwall limiter.
type Limiter struct {
	*node

	lim *dynamics.Limiter
}

// NewLimiter creates a Limiter with its ceiling at thresholdDB.
func (c *Context) NewLimiter(thresholdDB float64) (*Limiter, error) {
	lim, err := dynamics.NewLimiter(c.sampleRate, dynamics.WithLimiterThreshold(thresholdDB))
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	n := &Limiter{lim: lim}
	n.node = c.newNode("limiter", n)

	return n, nil
}

// Threshold returns the ceiling in dB.
func (l *Limiter) Threshold() float64 { return l.lim.Threshold() }

func (l *Limiter) process(in, out *bus, _ int64) {
	out.copyFrom(in)
	out.stereo()
	l.lim.ProcessStereo(out.l, out.r)
}

// Reverb is a wet-only stereo convolution reverb. It renders silence until
// Generate has prepared the impulse response.
type Reverb struct {
	*node

	rev *reverb.Reverb
	err error
}

// NewReverb creates a Reverb with the given decay and pre-delay.
func (c *Context) NewReverb(decay, preDelay time.Duration) (*Reverb, error) {
	rev, err := reverb.New(c.sampleRate, c.blockSize,
		reverb.WithDecay(decay.Seconds()),
		reverb.WithPreDelay(preDelay.Seconds()),
	)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	n := &Reverb{rev: rev}
	n.node = c.newNode("reverb", n)

	return n, nil
}

// Generate computes the impulse response.
func (r *Reverb) Generate() error {
	r.ctx.mu.Lock()
	defer r.ctx.mu.Unlock()

	if r.disposed {
		return ErrDisposed
	}

	return r.rev.Generate()
}

// Ready reports whether the impulse response has been generated.
func (r *Reverb) Ready() bool {
	r.ctx.mu.Lock()
	defer r.ctx.mu.Unlock()

	return r.rev.Ready()
}

// Decay returns the decay time.
func (r *Reverb) Decay() time.Duration {
	return time.Duration(r.rev.Decay() * float64(time.Second))
}

func (r *Reverb) process(in, out *bus, _ int64) {
	if !r.rev.Ready() {
		out.silence()
		return
	}

	in.stereo()

	if err := r.rev.ProcessStereo(out.l, out.r, in.l, in.r); err != nil {
		if r.err == nil {
			r.ctx.logger.Error("audio: reverb render failed", "error", err)
		}

		r.err = err
		out.silence()

		return
	}

	out.channels = 2
}

func (r *Reverb) dispose() { r.rev.Reset() }
