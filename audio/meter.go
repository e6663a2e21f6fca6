package audio

import (
	"fmt"

	"github.com/cwbudde/algo-entrain/measure/meter"
)

// Meter passes its input through unchanged and tracks its level.
type Meter struct {
	*node

	m *meter.Meter
}

// NewMeter creates a Meter with the given per-read smoothing in [0, 1).
func (c *Context) NewMeter(smoothing float64) (*Meter, error) {
	m, err := meter.New(meter.WithSmoothing(smoothing))
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	n := &Meter{m: m}
	n.node = c.newNode("meter", n)

	return n, nil
}

// Value returns the smoothed level in dBFS; silence yields -Inf.
func (m *Meter) Value() (float64, error) {
	m.ctx.mu.Lock()
	defer m.ctx.mu.Unlock()

	if m.disposed {
		return 0, ErrDisposed
	}

	return m.m.ValueDB()
}

// Reset clears the level history.
func (m *Meter) Reset() {
	m.ctx.mu.Lock()
	defer m.ctx.mu.Unlock()

	m.m.Reset()
}

func (m *Meter) process(in, out *bus, _ int64) {
	out.copyFrom(in)

	switch out.channels {
	case 0:
		clear(out.l)
		m.m.ProcessStereo(out.l, nil)
	case 1:
		m.m.ProcessStereo(out.l, nil)
	default:
		m.m.ProcessStereo(out.l, out.r)
	}
}

func (m *Meter) dispose() { m.m.Dispose() }

// Destination is the sink of the graph; its input is what the context renders.
type Destination struct {
	*node
}

func (d *Destination) process(in, out *bus, _ int64) {
	out.copyFrom(in)
}
