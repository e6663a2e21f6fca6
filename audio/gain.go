package audio

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// maxGain bounds linear gain Params.
const maxGain = 16.0

// Gain scales its input by a per-frame linear gain.
type Gain struct {
	*node

	gain *Param
}

// NewGain creates a Gain node with a linear gain value.
func (c *Context) NewGain(gain float64) (*Gain, error) {
	if math.IsNaN(gain) || gain < 0 || gain > maxGain {
		return nil, fmt.Errorf("gain must be in [0, %f]: %f", maxGain, gain)
	}

	n := &Gain{}
	n.node = c.newNode("gain", n)
	n.gain = n.newParam(gain, 0, maxGain)

	return n, nil
}

// Gain returns the linear gain Param.
func (g *Gain) Gain() *Param { return g.gain }

func (g *Gain) process(in, out *bus, frame int64) {
	gain := g.gain.fill(frame)

	out.copyFrom(in)
	if out.channels == 0 {
		return
	}

	vecmath.MulBlockInPlace(out.l, gain)
	if out.channels == 2 {
		vecmath.MulBlockInPlace(out.r, gain)
	}
}

// Panner positions its input in the stereo field with the equal-power law.
// Pan is in [-1, 1]; the output is always stereo.
type Panner struct {
	*node

	pan *Param
}

// NewPanner creates a Panner at pan.
func (c *Context) NewPanner(pan float64) (*Panner, error) {
	if math.IsNaN(pan) || pan < -1 || pan > 1 {
		return nil, fmt.Errorf("pan must be in [-1, 1]: %f", pan)
	}

	n := &Panner{}
	n.node = c.newNode("panner", n)
	n.pan = n.newParam(pan, -1, 1)

	return n, nil
}

// Pan returns the pan Param.
func (p *Panner) Pan() *Param { return p.pan }

func (p *Panner) process(in, out *bus, frame int64) {
	pan := p.pan.fill(frame)

	switch in.channels {
	case 0:
		out.silence()
		return
	case 1:
		for i, x := range in.l {
			gl, gr := panGains(pan[i])
			out.l[i] = x * gl
			out.r[i] = x * gr
		}
	default:
		for i := range in.l {
			xl, xr := in.l[i], in.r[i]
			v := clampPan(pan[i])

			if v <= 0 {
				gl, gr := panGains(2*v + 1)
				out.l[i] = xl + xr*gl
				out.r[i] = xr * gr
			} else {
				gl, gr := panGains(2*v - 1)
				out.l[i] = xl * gl
				out.r[i] = xr + xl*gr
			}
		}
	}

	out.channels = 2
}

// panGains returns the equal-power channel gains for pan in [-1, 1].
func panGains(pan float64) (left, right float64) {
	x := (clampPan(pan) + 1) / 2

	return math.Cos(x * math.Pi / 2), math.Sin(x * math.Pi / 2)
}

func clampPan(v float64) float64 {
	if v < -1 {
		return -1
	}

	if v > 1 {
		return 1
	}

	return v
}
