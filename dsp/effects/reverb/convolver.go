package reverb

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

var (
	// ErrEmptyImpulse is returned for a zero-length impulse response.
	ErrEmptyImpulse = errors.New("reverb: empty impulse response")
	// ErrBlockSize is returned when a block does not match the partition size.
	ErrBlockSize = errors.New("reverb: block length does not match partition size")
)

// Convolver is a uniformly partitioned overlap-save convolver. Input and
// output are processed in fixed blocks of the partition size; the impulse
// response is split into partitions of the same size whose spectra are
// multiplied against a frequency-domain delay line of past input blocks.
type Convolver struct {
	partSize int
	fftSize  int

	plan *algofft.Plan[complex128]

	kernelSpectra [][]complex128
	fdl           [][]complex128
	fdlPos        int

	window []float64
	scratch []complex128
	acc     []complex128
}

// NewConvolver prepares a convolver for kernel with the given partition size.
func NewConvolver(kernel []float64, partSize int) (*Convolver, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyImpulse
	}

	if partSize <= 0 {
		return nil, fmt.Errorf("reverb: partition size must be positive, got %d", partSize)
	}

	fftSize := 2 * nextPowerOf2(partSize)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("reverb: failed to create FFT plan: %w", err)
	}

	parts := (len(kernel) + partSize - 1) / partSize

	c := &Convolver{
		partSize:      partSize,
		fftSize:       fftSize,
		plan:          plan,
		kernelSpectra: make([][]complex128, parts),
		fdl:           make([][]complex128, parts),
		window:        make([]float64, fftSize),
		scratch:       make([]complex128, fftSize),
		acc:           make([]complex128, fftSize),
	}

	padded := make([]complex128, fftSize)
	for p := 0; p < parts; p++ {
		for i := range padded {
			padded[i] = 0
		}

		start := p * partSize
		end := min(start+partSize, len(kernel))
		for i := start; i < end; i++ {
			padded[i-start] = complex(kernel[i], 0)
		}

		spectrum := make([]complex128, fftSize)
		if err := plan.Forward(spectrum, padded); err != nil {
			return nil, fmt.Errorf("reverb: failed to transform partition %d: %w", p, err)
		}

		c.kernelSpectra[p] = spectrum
		c.fdl[p] = make([]complex128, fftSize)
	}

	return c, nil
}

// PartitionSize returns the block length accepted by ProcessBlock.
func (c *Convolver) PartitionSize() int { return c.partSize }

// Partitions returns the number of impulse partitions.
func (c *Convolver) Partitions() int { return len(c.kernelSpectra) }

// ProcessBlock convolves one input block into dst. Both slices must have
// exactly PartitionSize samples. dst and src may alias.
func (c *Convolver) ProcessBlock(dst, src []float64) error {
	if len(src) != c.partSize || len(dst) != c.partSize {
		return fmt.Errorf("%w: want %d, got src=%d dst=%d", ErrBlockSize, c.partSize, len(src), len(dst))
	}

	// Slide the input window: the newest block sits in the last partSize
	// slots, preceded by the previous fftSize-partSize samples.
	copy(c.window, c.window[c.partSize:])
	copy(c.window[c.fftSize-c.partSize:], src)

	for i, v := range c.window {
		c.scratch[i] = complex(v, 0)
	}

	c.fdlPos--
	if c.fdlPos < 0 {
		c.fdlPos = len(c.fdl) - 1
	}

	if err := c.plan.Forward(c.fdl[c.fdlPos], c.scratch); err != nil {
		return fmt.Errorf("reverb: forward FFT failed: %w", err)
	}

	for i := range c.acc {
		c.acc[i] = 0
	}

	parts := len(c.kernelSpectra)
	for p := 0; p < parts; p++ {
		x := c.fdl[(c.fdlPos+p)%parts]
		h := c.kernelSpectra[p]

		for i := range c.acc {
			c.acc[i] += x[i] * h[i]
		}
	}

	if err := c.plan.Inverse(c.scratch, c.acc); err != nil {
		return fmt.Errorf("reverb: inverse FFT failed: %w", err)
	}

	tail := c.scratch[c.fftSize-c.partSize:]
	for i := range dst {
		dst[i] = real(tail[i])
	}

	return nil
}

// Reset clears the input history.
func (c *Convolver) Reset() {
	for i := range c.window {
		c.window[i] = 0
	}

	for _, x := range c.fdl {
		for i := range x {
			x[i] = 0
		}
	}

	c.fdlPos = 0
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
