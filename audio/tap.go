package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	resampling "github.com/tphakala/go-audio-resampling"
)

const (
	bytesPerFrame      = 4
	defaultTapCapacity = 10 * time.Second
)

// TapOption configures a Tap.
type TapOption func(*Tap)

// WithTapCapacity bounds the unread audio a tap holds. When a reader falls
// further behind, the oldest frames are dropped and counted by Dropped.
func WithTapCapacity(d time.Duration) TapOption {
	return func(t *Tap) {
		if d > 0 {
			t.capacity = d
		}
	}
}

// Tap captures the rendered destination output as interleaved signed
// 16-bit little-endian stereo PCM. When the tap rate differs from the
// context rate each channel is resampled on its own.
type Tap struct {
	ctx      *Context
	rate     float64
	capacity time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	buf     []byte
	off     int
	limit   int
	dropped int64
	closed  bool

	resamplers [2]resampling.Resampler
}

// NewTap attaches a capture tap at outputRate Hz. Zero selects the context
// rate.
func (c *Context) NewTap(outputRate float64, opts ...TapOption) (*Tap, error) {
	if outputRate == 0 {
		outputRate = c.sampleRate
	}

	if outputRate < 8000 || outputRate > 192000 || math.IsNaN(outputRate) {
		return nil, fmt.Errorf("tap rate must be in [%f, %f]: %f", 8000.0, 192000.0, outputRate)
	}

	t := &Tap{ctx: c, rate: outputRate, capacity: defaultTapCapacity}
	t.cond = sync.NewCond(&t.mu)

	for _, opt := range opts {
		opt(t)
	}

	t.limit = max(1, int(math.Round(t.capacity.Seconds()*outputRate))) * bytesPerFrame

	if outputRate != c.sampleRate {
		for i := range t.resamplers {
			r, err := resampling.New(&resampling.Config{
				InputRate:  c.sampleRate,
				OutputRate: outputRate,
				Channels:   1,
				Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
			})
			if err != nil {
				return nil, fmt.Errorf("audio: tap resampler: %w", err)
			}

			t.resamplers[i] = r
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	c.taps = append(c.taps, t)

	return t, nil
}

// SampleRate returns the output rate of the tap.
func (t *Tap) SampleRate() float64 { return t.rate }

// write appends one rendered block. Called with ctx.mu held.
func (t *Tap) write(left, right []float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	if t.resamplers[0] != nil {
		l, err := t.resamplers[0].Process(left)
		if err != nil {
			t.ctx.logger.Error("audio: tap resample failed", "channel", 0, "error", err)
			return
		}

		r, err := t.resamplers[1].Process(right)
		if err != nil {
			t.ctx.logger.Error("audio: tap resample failed", "channel", 1, "error", err)
			return
		}

		left, right = l, r
	}

	t.append(left, right)
	t.cond.Broadcast()
}

// append stores interleaved frames, dropping the oldest unread frames
// beyond the capacity. Must hold t.mu.
func (t *Tap) append(left, right []float64) {
	n := min(len(left), len(right))
	if n == 0 {
		return
	}

	if t.off > 0 && t.off >= len(t.buf)/2 {
		t.buf = t.buf[:copy(t.buf, t.buf[t.off:])]
		t.off = 0
	}

	for i := 0; i < n; i++ {
		t.buf = binary.LittleEndian.AppendUint16(t.buf, uint16(toInt16(left[i])))
		t.buf = binary.LittleEndian.AppendUint16(t.buf, uint16(toInt16(right[i])))
	}

	// The end of buf is always a frame boundary and limit is whole frames,
	// so len-limit lands on a boundary even after a partial Read.
	if over := len(t.buf) - t.off - t.limit; over > 0 {
		t.off += over
		t.dropped += int64((over + bytesPerFrame - 1) / bytesPerFrame)
	}
}

// Read reads captured PCM. It blocks until data is available and returns
// io.EOF once the tap is closed and drained.
func (t *Tap) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for t.off == len(t.buf) && !t.closed {
		t.cond.Wait()
	}

	if t.off == len(t.buf) {
		return 0, io.EOF
	}

	n := copy(p, t.buf[t.off:])
	t.off += n

	if t.off == len(t.buf) {
		t.buf = t.buf[:0]
		t.off = 0
	}

	return n, nil
}

// Buffered returns the number of captured bytes not yet read.
func (t *Tap) Buffered() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.buf) - t.off
}

// Dropped returns the number of frames discarded because the reader fell
// behind by more than the tap capacity.
func (t *Tap) Dropped() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.dropped
}

// Close detaches the tap and drains the resampler tail. Already captured
// data stays readable.
func (t *Tap) Close() error {
	t.ctx.removeTap(t)
	t.closeStream()

	return nil
}

func (t *Tap) closeStream() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	t.closed = true
	defer t.cond.Broadcast()

	if t.resamplers[0] == nil {
		return
	}

	l, err := t.resamplers[0].Flush()
	if err != nil {
		t.ctx.logger.Error("audio: tap flush failed", "channel", 0, "error", err)
		return
	}

	r, err := t.resamplers[1].Flush()
	if err != nil {
		t.ctx.logger.Error("audio: tap flush failed", "channel", 1, "error", err)
		return
	}

	t.append(l, r)
}

func toInt16(s float64) int16 {
	switch {
	case math.IsNaN(s):
		return 0
	case s >= 1:
		return math.MaxInt16
	case s <= -1:
		return math.MinInt16
	default:
		return int16(math.Round(s * math.MaxInt16))
	}
}
