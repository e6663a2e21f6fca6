// Package device plays an audio.Context through the system output device.
package device

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/hajimehoshi/oto/v2"

	"github.com/cwbudde/algo-entrain/audio"
)

const channelCount = 2

// ErrAlreadyOpen is returned when Open is called on an open sink.
var ErrAlreadyOpen = errors.New("device: already open")

// Oto is an audio.Sink backed by the oto output library. oto allows one
// context per process, so a process should create a single Oto.
type Oto struct {
	mu     sync.Mutex
	ctx    *oto.Context
	player oto.Player
	stream *stream
}

// NewOto returns an unopened sink.
func NewOto() *Oto { return &Oto{} }

// Open starts playback of src. It waits for the device to become ready or
// for ctx to be done.
func (o *Oto) Open(ctx context.Context, src audio.Source) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		return ErrAlreadyOpen
	}

	if o.ctx == nil {
		otoCtx, ready, err := oto.NewContext(int(src.SampleRate()), channelCount, oto.FormatFloat32LE)
		if err != nil {
			return fmt.Errorf("device: open output: %w", err)
		}

		select {
		case <-ready:
		case <-ctx.Done():
			return ctx.Err()
		}

		o.ctx = otoCtx
	}

	o.stream = newStream(src)
	o.player = o.ctx.NewPlayer(o.stream)
	o.player.Play()

	return nil
}

// Close stops playback. The device context stays alive for a later Open.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}

	o.stream.stop()
	err := o.player.Close()
	o.player = nil
	o.stream = nil

	if err != nil {
		return fmt.Errorf("device: close player: %w", err)
	}

	return nil
}

// stream adapts an audio.Source to the float32 little-endian byte stream
// oto consumes.
type stream struct {
	src audio.Source

	mu      sync.Mutex
	stopped bool
	frames  []float32
}

func newStream(src audio.Source) *stream {
	return &stream{src: src}
}

func (s *stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return 0, io.EOF
	}

	n := len(p) / 4
	if cap(s.frames) < n {
		s.frames = make([]float32, n)
	}

	frames := s.frames[:n]

	got, err := s.src.ReadFloat32(frames)
	for i := 0; i < got; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(frames[i]))
	}

	if err != nil {
		s.stopped = true
		if got == 0 {
			return 0, io.EOF
		}
	}

	return got * 4, nil
}

func (s *stream) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
}
