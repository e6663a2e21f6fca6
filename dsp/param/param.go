package param

import (
	"fmt"
	"math"
)

// Option configures a Param.
type Option func(*Param) error

// WithRange bounds every value the Param can hold to [min, max].
func WithRange(min, max float64) Option {
	return func(p *Param) error {
		if math.IsNaN(min) || math.IsNaN(max) || min > max {
			return fmt.Errorf("param range must satisfy min <= max: [%f, %f]", min, max)
		}

		p.min = min
		p.max = max

		return nil
	}
}

// Param is a numeric control with scheduled linear ramps.
type Param struct {
	from   float64
	target float64

	start int64
	end   int64

	min float64
	max float64
}

// New creates a Param holding initial.
func New(initial float64, opts ...Option) (*Param, error) {
	p := &Param{min: math.Inf(-1), max: math.Inf(1)}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if math.IsNaN(initial) || math.IsInf(initial, 0) {
		return nil, fmt.Errorf("param initial value must be finite: %f", initial)
	}

	v := p.bound(initial)
	p.from = v
	p.target = v

	return p, nil
}

// MustNew is like New but panics on invalid options. It is meant for
// constants chosen by the caller, never for user input.
func MustNew(initial float64, opts ...Option) *Param {
	p, err := New(initial, opts...)
	if err != nil {
		panic(err)
	}

	return p
}

// Target returns the value the Param holds once all automation completes.
func (p *Param) Target() float64 {
	return p.target
}

// ValueAt returns the automated value at frame.
func (p *Param) ValueAt(frame int64) float64 {
	if frame >= p.end || p.end <= p.start {
		return p.target
	}

	if frame <= p.start {
		return p.from
	}

	t := float64(frame-p.start) / float64(p.end-p.start)

	return p.from + (p.target-p.from)*t
}

// Ramping reports whether a ramp is still in progress at frame.
func (p *Param) Ramping(frame int64) bool {
	return frame < p.end && p.end > p.start
}

// SetValue cancels pending automation and holds v from frame on.
// Non-finite values are ignored.
func (p *Param) SetValue(v float64, frame int64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}

	v = p.bound(v)
	p.from = v
	p.target = v
	p.start = frame
	p.end = frame
}

// RampTo schedules a linear ramp from the value at frame to v, reaching v
// after frames frames. frames <= 0 behaves like SetValue.
// Non-finite targets are ignored.
func (p *Param) RampTo(v float64, frame, frames int64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}

	if frames <= 0 {
		p.SetValue(v, frame)
		return
	}

	current := p.ValueAt(frame)
	p.from = current
	p.target = p.bound(v)
	p.start = frame
	p.end = frame + frames
}

// Fill writes the automated value for frames [frame, frame+len(dst)) to dst.
func (p *Param) Fill(dst []float64, frame int64) {
	if !p.Ramping(frame) {
		for i := range dst {
			dst[i] = p.target
		}

		return
	}

	for i := range dst {
		dst[i] = p.ValueAt(frame + int64(i))
	}
}

func (p *Param) bound(v float64) float64 {
	if v < p.min {
		return p.min
	}

	if v > p.max {
		return p.max
	}

	return v
}
