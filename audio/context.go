package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cwbudde/algo-entrain/dsp/core"
)

// Sink consumes rendered audio in real time, typically an output device.
// Open must not block on pulling from src.
type Sink interface {
	Open(ctx context.Context, src Source) error
	Close() error
}

// Source is the pull side of a Context as seen by a Sink.
type Source interface {
	SampleRate() float64
	// ReadFloat32 fills dst with interleaved stereo frames.
	ReadFloat32(dst []float32) (int, error)
}

// Option configures a Context.
type Option func(*Context) error

// WithSampleRate sets the rendering sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(c *Context) error {
		if sampleRate < 8000 || sampleRate > 192000 || math.IsNaN(sampleRate) {
			return fmt.Errorf("sample rate must be in [%f, %f]: %f", 8000.0, 192000.0, sampleRate)
		}

		c.sampleRate = sampleRate

		return nil
	}
}

// WithBlockSize sets the render quantum in frames.
func WithBlockSize(frames int) Option {
	return func(c *Context) error {
		if frames < 16 || frames > 8192 {
			return fmt.Errorf("block size must be in [16, 8192]: %d", frames)
		}

		c.blockSize = frames

		return nil
	}
}

// WithSink attaches a real-time sink opened by Begin.
func WithSink(s Sink) Option {
	return func(c *Context) error {
		c.sink = s
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) error {
		if l != nil {
			c.logger = l
		}

		return nil
	}
}

// Context owns a node graph and renders it block by block.
type Context struct {
	mu sync.Mutex

	sampleRate float64
	blockSize  int
	sink       Sink
	logger     *slog.Logger

	frame   int64
	pass    uint64
	begun   bool
	opening bool
	closed  bool

	dest  *Destination
	taps  []*Tap
	nodes int

	silent  bus
	pending []float32
}

// NewContext creates a Context with its destination node.
func NewContext(opts ...Option) (*Context, error) {
	def := core.DefaultProcessorConfig()

	c := &Context{
		sampleRate: def.SampleRate,
		blockSize:  def.BlockSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.silent = newBus(c.blockSize)
	c.dest = &Destination{}
	c.dest.node = c.newNode("destination", c.dest)

	return c, nil
}

// SampleRate returns the rendering sample rate.
func (c *Context) SampleRate() float64 { return c.sampleRate }

// BlockSize returns the render quantum in frames.
func (c *Context) BlockSize() int { return c.blockSize }

// Destination returns the final node of the graph.
func (c *Context) Destination() *Destination { return c.dest }

// CurrentFrame returns the frame at which the next block starts.
func (c *Context) CurrentFrame() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.frame
}

// CurrentTime returns CurrentFrame as a duration.
func (c *Context) CurrentTime() time.Duration {
	f := c.CurrentFrame()
	return time.Duration(float64(f) / c.sampleRate * float64(time.Second))
}

// NodeCount returns the number of live (undisposed) nodes.
func (c *Context) NodeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.nodes
}

// Started reports whether Begin has completed.
func (c *Context) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.begun
}

// Begin starts audio: it opens the sink, if any. A failed sink leaves the
// context un-begun so Begin can be retried. Calling Begin again after
// success is a no-op.
func (c *Context) Begin(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	if c.begun || c.opening {
		c.mu.Unlock()
		return nil
	}

	c.opening = true
	sink := c.sink
	c.mu.Unlock()

	var err error
	if sink != nil {
		err = sink.Open(ctx, c)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.opening = false
	if err != nil {
		return fmt.Errorf("audio: begin: %w", err)
	}

	c.begun = true
	c.logger.Debug("audio context started", "sample_rate", c.sampleRate, "block_size", c.blockSize)

	return nil
}

// Close stops the sink and closes every tap. It is idempotent.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	c.closed = true
	c.begun = false
	sink := c.sink
	taps := c.taps
	c.taps = nil
	c.mu.Unlock()

	for _, t := range taps {
		t.closeStream()
	}

	if sink != nil {
		if err := sink.Close(); err != nil {
			return fmt.Errorf("audio: close sink: %w", err)
		}
	}

	return nil
}

// Render renders one block and returns the destination channels. The
// returned slices are only valid until the next Render.
func (c *Context) Render() (left, right []float64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.render()
}

func (c *Context) render() (left, right []float64, err error) {
	if c.closed {
		return nil, nil, ErrClosed
	}

	if !c.begun {
		return nil, nil, ErrNotStarted
	}

	c.pass++
	out := c.pull(c.dest.node)
	out.stereo()

	for _, t := range c.taps {
		t.write(out.l, out.r)
	}

	c.frame += int64(c.blockSize)

	return out.l, out.r, nil
}

// ReadFloat32 renders as many blocks as needed to fill dst with
// interleaved stereo frames. A trailing partial block is kept for the
// next call.
func (c *Context) ReadFloat32(dst []float32) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := copy(dst, c.pending)
	c.pending = c.pending[n:]

	for n+1 < len(dst) {
		l, r, err := c.render()
		if err != nil {
			return n, err
		}

		for i := range l {
			if n+1 < len(dst) {
				dst[n] = float32(l[i])
				dst[n+1] = float32(r[i])
				n += 2

				continue
			}

			c.pending = append(c.pending, float32(l[i]), float32(r[i]))
		}
	}

	return n, nil
}

func (c *Context) framesFor(d time.Duration) int64 {
	return core.SamplesFor(d.Seconds(), c.sampleRate)
}

func (c *Context) removeTap(t *Tap) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, x := range c.taps {
		if x == t {
			c.taps = append(c.taps[:i], c.taps[i+1:]...)
			return
		}
	}
}
