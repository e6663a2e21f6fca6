package audio

import (
	"slices"
	"time"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-entrain/dsp/param"
)

type modulation struct {
	src   *node
	scale float64
}

// Param is an automatable node parameter. Its per-frame value is the
// ramped base value plus the sum of its modulation inputs.
type Param struct {
	owner *node
	p     *param.Param
	mods  []modulation

	buf    []float64
	modBuf []float64
}

func (n *node) newParam(initial, min, max float64) *Param {
	p := &Param{
		owner:  n,
		p:      param.MustNew(initial, param.WithRange(min, max)),
		buf:    make([]float64, n.ctx.blockSize),
		modBuf: make([]float64, n.ctx.blockSize),
	}
	n.params = append(n.params, p)

	return p
}

// Value returns the base value at the context's current frame.
func (p *Param) Value() float64 {
	c := p.owner.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	return p.p.ValueAt(c.frame)
}

// Target returns the base value once pending ramps complete.
func (p *Param) Target() float64 {
	c := p.owner.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	return p.p.Target()
}

// SetValue sets the base value immediately, cancelling any ramp.
func (p *Param) SetValue(v float64) {
	c := p.owner.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	p.p.SetValue(v, c.frame)
}

// RampTo ramps the base value linearly from its current value to v over d.
// A pending ramp is replaced, starting from the instantaneous value.
func (p *Param) RampTo(v float64, d time.Duration) {
	c := p.owner.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	p.p.RampTo(v, c.frame, c.framesFor(d))
}

// Modulate adds scale times the mono output of src to the parameter.
// Modulating again from the same source replaces the scale.
func (p *Param) Modulate(src Node, scale float64) error {
	if src == nil {
		return ErrDisposed
	}

	s := src.base()
	c := p.owner.ctx
	if s.ctx != c {
		return ErrForeignNode
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s.disposed || p.owner.disposed {
		return ErrDisposed
	}

	for i := range p.mods {
		if p.mods[i].src == s {
			p.mods[i].scale = scale
			return nil
		}
	}

	p.mods = append(p.mods, modulation{src: s, scale: scale})
	s.feeds = append(s.feeds, p)

	return nil
}

// Unmodulate removes src as a modulation input.
func (p *Param) Unmodulate(src Node) {
	if src == nil {
		return
	}

	s := src.base()
	c := p.owner.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	p.mods = slices.DeleteFunc(p.mods, func(m modulation) bool { return m.src == s })
	s.feeds = remove(s.feeds, p)
}

// NumModulators counts modulation inputs.
func (p *Param) NumModulators() int {
	c := p.owner.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(p.mods)
}

// fill computes the per-frame values of the current block. Must hold ctx.mu.
func (p *Param) fill(frame int64) []float64 {
	p.p.Fill(p.buf, frame)

	c := p.owner.ctx
	for _, m := range p.mods {
		c.pull(m.src).mono(p.modBuf)
		vecmath.ScaleBlock(p.modBuf, p.modBuf, m.scale)
		vecmath.AddBlockInPlace(p.buf, p.modBuf)
	}

	return p.buf
}
