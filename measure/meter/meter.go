package meter

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-entrain/dsp/core"
)

const (
	defaultSmoothing = 0.8
	defaultWindow    = 1024
	maxWindow        = 1 << 16
)

// ErrDisposed is returned when reading a disposed meter.
var ErrDisposed = errors.New("meter: disposed")

// Option configures a Meter.
type Option func(*Meter) error

// WithSmoothing sets the per-read decay factor in [0, 1). Zero disables
// smoothing.
func WithSmoothing(s float64) Option {
	return func(m *Meter) error {
		if s < 0 || s >= 1 || math.IsNaN(s) {
			return fmt.Errorf("meter smoothing must be in [0, 1): %f", s)
		}

		m.smoothing = s

		return nil
	}
}

// WithWindow sets the analysis window length in frames.
func WithWindow(frames int) Option {
	return func(m *Meter) error {
		if frames < 1 || frames > maxWindow {
			return fmt.Errorf("meter window must be in [1, %d]: %d", maxWindow, frames)
		}

		m.window = frames

		return nil
	}
}

// Meter tracks the level of a stereo signal.
type Meter struct {
	smoothing float64
	window    int

	energy  []float64 // per-frame mean square, ring buffer
	pos     int
	scratch []float64

	rms      float64
	disposed bool
}

// New creates a Meter.
func New(opts ...Option) (*Meter, error) {
	m := &Meter{
		smoothing: defaultSmoothing,
		window:    defaultWindow,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(m); err != nil {
			return nil, err
		}
	}

	m.energy = make([]float64, m.window)

	return m, nil
}

// Smoothing returns the smoothing factor.
func (m *Meter) Smoothing() float64 { return m.smoothing }

// Window returns the analysis window length in frames.
func (m *Meter) Window() int { return m.window }

// ProcessStereo feeds one block. right may be nil for a mono signal.
func (m *Meter) ProcessStereo(left, right []float64) {
	if m.disposed || len(left) == 0 {
		return
	}

	m.scratch = core.EnsureLen(m.scratch, len(left))
	if right == nil {
		vecmath.MulBlock(m.scratch, left, left)
	} else {
		vecmath.Power(m.scratch, left, right[:len(left)])
		vecmath.ScaleBlock(m.scratch, m.scratch, 0.5)
	}

	for _, e := range m.scratch {
		m.energy[m.pos] = e
		m.pos++
		if m.pos == len(m.energy) {
			m.pos = 0
		}
	}
}

// Value returns the smoothed RMS as a linear amplitude. Each call advances
// the smoothing by one step.
func (m *Meter) Value() (float64, error) {
	if m.disposed {
		return 0, ErrDisposed
	}

	sum := 0.0
	for _, e := range m.energy {
		sum += e
	}

	rms := math.Sqrt(sum / float64(len(m.energy)))
	m.rms = math.Max(rms, m.rms*m.smoothing)

	return m.rms, nil
}

// ValueDB returns Value in dBFS. Silence yields -Inf.
func (m *Meter) ValueDB() (float64, error) {
	v, err := m.Value()
	if err != nil {
		return math.Inf(-1), err
	}

	return core.LinearToDB(v), nil
}

// Reset clears the window and the smoothed reading.
func (m *Meter) Reset() {
	for i := range m.energy {
		m.energy[i] = 0
	}

	m.pos = 0
	m.rms = 0
}

// Dispose releases the meter. Later reads fail with ErrDisposed.
func (m *Meter) Dispose() {
	m.disposed = true
	m.energy = make([]float64, 1)
	m.scratch = nil
}
