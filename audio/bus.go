package audio

import (
	"github.com/cwbudde/algo-vecmath"
)

// bus is one block of node output. channels is 0 (silent), 1 (mono) or 2.
// Contents beyond the active channels are undefined.
type bus struct {
	l, r     []float64
	channels int
}

func newBus(frames int) bus {
	return bus{l: make([]float64, frames), r: make([]float64, frames)}
}

func (b *bus) silence() { b.channels = 0 }

// mix adds src into b, upmixing b to stereo when src is stereo.
func (b *bus) mix(src *bus) {
	if src.channels == 0 {
		return
	}

	if b.channels == 0 {
		copy(b.l, src.l)
		if src.channels == 2 {
			copy(b.r, src.r)
		}

		b.channels = src.channels

		return
	}

	if src.channels == 2 && b.channels == 1 {
		copy(b.r, b.l)
		b.channels = 2
	}

	vecmath.AddBlockInPlace(b.l, src.l)

	if b.channels == 2 {
		if src.channels == 2 {
			vecmath.AddBlockInPlace(b.r, src.r)
		} else {
			vecmath.AddBlockInPlace(b.r, src.l)
		}
	}
}

// copyFrom replaces b with src.
func (b *bus) copyFrom(src *bus) {
	b.channels = 0
	b.mix(src)
}

// stereo upmixes b to two channels, zero-filling a silent bus.
func (b *bus) stereo() {
	switch b.channels {
	case 0:
		clear(b.l)
		clear(b.r)
	case 1:
		copy(b.r, b.l)
	}

	b.channels = 2
}

// mono writes the channel average of b into dst.
func (b *bus) mono(dst []float64) {
	switch b.channels {
	case 0:
		clear(dst)
	case 1:
		copy(dst, b.l)
	default:
		vecmath.ScaleBlock(dst, b.l, 0.5)
		for i := range dst {
			dst[i] += 0.5 * b.r[i]
		}
	}
}
