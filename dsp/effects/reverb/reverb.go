package reverb

import (
	"fmt"
	"math"
)

const (
	defaultReverbDecay    = 1.5
	defaultReverbPreDelay = 0.01
	defaultReverbSeed     = 1
)

// Option configures a Reverb.
type Option func(*Reverb) error

// WithDecay sets the time in seconds for the tail to fall by 60 dB.
func WithDecay(seconds float64) Option {
	return func(r *Reverb) error {
		if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("reverb decay must be > 0 and finite: %f", seconds)
		}

		r.decay = seconds

		return nil
	}
}

// WithPreDelay sets the silent gap before the tail in seconds.
func WithPreDelay(seconds float64) Option {
	return func(r *Reverb) error {
		if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("reverb pre-delay must be >= 0 and finite: %f", seconds)
		}

		r.preDelay = seconds

		return nil
	}
}

// WithSeed sets the noise seed of the generated impulse.
func WithSeed(seed int64) Option {
	return func(r *Reverb) error {
		r.seed = seed
		return nil
	}
}

// Reverb is a wet-only stereo convolution reverb with a generated impulse.
// Until Generate has run it outputs silence.
type Reverb struct {
	sampleRate float64
	blockSize  int
	decay      float64
	preDelay   float64
	seed       int64

	left  *Convolver
	right *Convolver
}

// New creates a Reverb for fixed blocks of blockSize frames.
func New(sampleRate float64, blockSize int, opts ...Option) (*Reverb, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("reverb sample rate must be > 0 and finite: %f", sampleRate)
	}

	if blockSize <= 0 {
		return nil, fmt.Errorf("reverb block size must be > 0: %d", blockSize)
	}

	r := &Reverb{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		decay:      defaultReverbDecay,
		preDelay:   defaultReverbPreDelay,
		seed:       defaultReverbSeed,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Generate computes the impulse response and prepares the convolvers.
// Calling it again regenerates from the current settings.
func (r *Reverb) Generate() error {
	irL, irR, err := GenerateImpulse(r.sampleRate, r.decay, r.preDelay, r.seed)
	if err != nil {
		return err
	}

	left, err := NewConvolver(irL, r.blockSize)
	if err != nil {
		return err
	}

	right, err := NewConvolver(irR, r.blockSize)
	if err != nil {
		return err
	}

	r.left, r.right = left, right

	return nil
}

// Ready reports whether Generate has completed.
func (r *Reverb) Ready() bool { return r.left != nil }

// Decay returns the decay time in seconds.
func (r *Reverb) Decay() float64 { return r.decay }

// BlockSize returns the fixed block length.
func (r *Reverb) BlockSize() int { return r.blockSize }

// ProcessStereo writes the wet signal of inL/inR into outL/outR.
// All slices must be BlockSize long.
func (r *Reverb) ProcessStereo(outL, outR, inL, inR []float64) error {
	if !r.Ready() {
		for i := range outL {
			outL[i] = 0
			outR[i] = 0
		}

		return nil
	}

	if err := r.left.ProcessBlock(outL, inL); err != nil {
		return err
	}

	return r.right.ProcessBlock(outR, inR)
}

// Reset clears the reverb tail.
func (r *Reverb) Reset() {
	if r.left != nil {
		r.left.Reset()
		r.right.Reset()
	}
}
