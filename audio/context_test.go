package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/algo-entrain/dsp/osc"
	"github.com/cwbudde/algo-entrain/internal/testutil"
)

func newStartedContext(t *testing.T, opts ...Option) *Context {
	t.Helper()

	c, err := NewContext(opts...)
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}

	if err := c.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	return c
}

func mustOscillator(t *testing.T, c *Context, freq float64) *Oscillator {
	t.Helper()

	o, err := c.NewOscillator(osc.WaveSine, freq)
	if err != nil {
		t.Fatalf("NewOscillator() error = %v", err)
	}

	return o
}

func TestRenderRequiresBegin(t *testing.T) {
	c, err := NewContext()
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}

	if _, _, err := c.Render(); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Render() error = %v, want ErrNotStarted", err)
	}

	if err := c.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if err := c.Begin(context.Background()); err != nil {
		t.Fatalf("second Begin() error = %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, _, err := c.Render(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Render() error = %v, want ErrClosed", err)
	}

	if err := c.Begin(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Begin() after Close error = %v, want ErrClosed", err)
	}
}

type failingSink struct{ opens int }

func (s *failingSink) Open(context.Context, Source) error {
	s.opens++
	return errors.New("no device")
}

func (s *failingSink) Close() error { return nil }

func TestBeginFailureLeavesContextUnstarted(t *testing.T) {
	sink := &failingSink{}

	c, err := NewContext(WithSink(sink))
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}

	if err := c.Begin(context.Background()); err == nil {
		t.Fatal("Begin() expected sink error")
	}

	if c.Started() {
		t.Fatal("Started() = true after failed Begin")
	}

	_ = c.Begin(context.Background())
	if sink.opens != 2 {
		t.Fatalf("sink opens = %d, want 2 (retry)", sink.opens)
	}
}

func TestOscillatorRendersSine(t *testing.T) {
	c := newStartedContext(t, WithBlockSize(64))
	o := mustOscillator(t, c, 1000)

	if err := o.Connect(c.Destination()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	l, _, err := c.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	testutil.RequireSilent(t, l)

	o.Start()
	o.Start()

	l, r, err := c.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := testutil.Sine(1000, c.SampleRate(), 1, len(l))
	testutil.RequireNearlyEqual(t, l, want, 1e-9)
	testutil.RequireNearlyEqual(t, r, want, 1e-9)

	o.Stop()
	o.Stop()

	if o.Running() {
		t.Fatal("Running() = true after Stop")
	}
}

func TestParamRampReachesTarget(t *testing.T) {
	c := newStartedContext(t, WithSampleRate(8000), WithBlockSize(80))

	g, err := c.NewGain(0)
	if err != nil {
		t.Fatalf("NewGain() error = %v", err)
	}

	g.Gain().RampTo(1, 100*time.Millisecond)

	if got := g.Gain().Target(); got != 1 {
		t.Fatalf("Target() = %g, want 1", got)
	}

	for i := 0; i < 5; i++ {
		if _, _, err := c.Render(); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
	}

	if got := g.Gain().Value(); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("mid-ramp value: got=%g want=0.5", got)
	}

	g.Gain().RampTo(0, 100*time.Millisecond)

	for i := 0; i < 10; i++ {
		if _, _, err := c.Render(); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
	}

	if got := g.Gain().Value(); got != 0 {
		t.Fatalf("final value: got=%g want=0", got)
	}
}

func TestConnectionLifecycle(t *testing.T) {
	c := newStartedContext(t)

	o := mustOscillator(t, c, 200)

	g, err := c.NewGain(1)
	if err != nil {
		t.Fatalf("NewGain() error = %v", err)
	}

	if err := o.Connect(g); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := o.Connect(g); err != nil {
		t.Fatalf("duplicate Connect() error = %v", err)
	}

	if got := g.NumInputs(); got != 1 {
		t.Fatalf("NumInputs() = %d, want 1", got)
	}

	if err := g.Connect(c.Destination()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	before := c.NodeCount()

	g.Dispose()
	g.Dispose()

	if got := c.NodeCount(); got != before-1 {
		t.Fatalf("NodeCount() = %d, want %d", got, before-1)
	}

	if got := o.NumOutputs(); got != 0 {
		t.Fatalf("oscillator outputs after dispose = %d, want 0", got)
	}

	if got := c.Destination().NumInputs(); got != 0 {
		t.Fatalf("destination inputs after dispose = %d, want 0", got)
	}

	if err := o.Connect(g); !errors.Is(err, ErrDisposed) {
		t.Fatalf("Connect() to disposed error = %v, want ErrDisposed", err)
	}

	other, err := NewContext()
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}

	if err := o.Connect(other.Destination()); !errors.Is(err, ErrForeignNode) {
		t.Fatalf("Connect() across contexts error = %v, want ErrForeignNode", err)
	}
}

func TestDisposeEveryNodeKind(t *testing.T) {
	c := newStartedContext(t, WithBlockSize(64))

	must := func(n Node, err error) Node {
		t.Helper()

		if err != nil {
			t.Fatalf("constructor error = %v", err)
		}

		return n
	}

	nodes := []Node{
		mustOscillator(t, c, 220),
		must(c.NewLFO(0.1, 0, 1)),
		must(c.NewGain(1)),
		must(c.NewPanner(0)),
		must(c.NewLowpass(800, 0.7071)),
		must(c.NewLimiter(-3)),
		must(c.NewReverb(100*time.Millisecond, 0)),
		must(c.NewMeter(0.8)),
	}

	for i := 0; i+1 < len(nodes); i++ {
		if err := nodes[i].Connect(nodes[i+1]); err != nil {
			t.Fatalf("Connect(%s -> %s) error = %v", nodes[i].Kind(), nodes[i+1].Kind(), err)
		}
	}

	if err := nodes[len(nodes)-1].Connect(c.Destination()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	before := c.NodeCount()

	for _, n := range nodes {
		n.Dispose()
		n.Dispose()

		if !n.Disposed() {
			t.Fatalf("%s: Disposed() = false after Dispose", n.Kind())
		}
	}

	if got, want := c.NodeCount(), before-len(nodes); got != want {
		t.Fatalf("NodeCount() = %d, want %d", got, want)
	}

	if got := c.Destination().NumInputs(); got != 0 {
		t.Fatalf("destination inputs = %d, want 0", got)
	}

	if _, err := nodes[len(nodes)-1].(*Meter).Value(); !errors.Is(err, ErrDisposed) {
		t.Fatalf("Meter.Value() after dispose error = %v, want ErrDisposed", err)
	}

	l, _, err := c.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	testutil.RequireSilent(t, l)
}

func TestPannerHardLeft(t *testing.T) {
	c := newStartedContext(t, WithBlockSize(64))
	o := mustOscillator(t, c, 440)

	p, err := c.NewPanner(-1)
	if err != nil {
		t.Fatalf("NewPanner() error = %v", err)
	}

	_ = o.Connect(p)
	_ = p.Connect(c.Destination())
	o.Start()

	l, r, err := c.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	energy := 0.0
	for i := range l {
		energy += l[i] * l[i]
		if math.Abs(r[i]) > 1e-12 {
			t.Fatalf("sample %d leaked into right: %g", i, r[i])
		}
	}

	if energy == 0 {
		t.Fatal("expected signal on the left channel")
	}
}

func TestPanGainsEqualPower(t *testing.T) {
	for _, pan := range []float64{-1, -0.5, 0, 0.3, 1} {
		l, r := panGains(pan)
		if math.Abs(l*l+r*r-1) > 1e-12 {
			t.Fatalf("pan %g: power got=%g want=1", pan, l*l+r*r)
		}
	}
}

func TestParamModulation(t *testing.T) {
	render := func(modulate bool) []float64 {
		c := newStartedContext(t, WithBlockSize(64))
		o := mustOscillator(t, c, 300)

		base := 1.0
		if modulate {
			base = 0
		}

		g, err := c.NewGain(base)
		if err != nil {
			t.Fatalf("NewGain() error = %v", err)
		}

		if modulate {
			lfo, err := c.NewLFO(1, 0.5, 0.5)
			if err != nil {
				t.Fatalf("NewLFO() error = %v", err)
			}

			if err := g.Gain().Modulate(lfo, 1); err != nil {
				t.Fatalf("Modulate() error = %v", err)
			}

			lfo.Start()
		}

		_ = o.Connect(g)
		_ = g.Connect(c.Destination())
		o.Start()

		l, _, err := c.Render()
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}

		return append([]float64(nil), l...)
	}

	dry := render(false)
	wet := render(true)

	for i := range dry {
		if math.Abs(wet[i]-0.5*dry[i]) > 1e-12 {
			t.Fatalf("sample %d mismatch: got=%g want=%g", i, wet[i], 0.5*dry[i])
		}
	}
}

func TestTapCapturesPCM(t *testing.T) {
	c := newStartedContext(t, WithBlockSize(64))

	tap, err := c.NewTap(0)
	if err != nil {
		t.Fatalf("NewTap() error = %v", err)
	}

	o := mustOscillator(t, c, 500)
	_ = o.Connect(c.Destination())
	o.Start()

	for i := 0; i < 3; i++ {
		if _, _, err := c.Render(); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
	}

	if err := tap.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := io.ReadAll(tap)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if want := 3 * 64 * 2 * 2; len(data) != want {
		t.Fatalf("captured bytes = %d, want %d", len(data), want)
	}
}

func TestTapResamplesChannelsIndependently(t *testing.T) {
	c := newStartedContext(t, WithSampleRate(48000), WithBlockSize(128))

	tap, err := c.NewTap(24000)
	if err != nil {
		t.Fatalf("NewTap() error = %v", err)
	}

	o := mustOscillator(t, c, 440)

	p, err := c.NewPanner(-1)
	if err != nil {
		t.Fatalf("NewPanner() error = %v", err)
	}

	_ = o.Connect(p)
	_ = p.Connect(c.Destination())
	o.Start()

	for i := 0; i < 40; i++ {
		if _, _, err := c.Render(); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
	}

	before := tap.Buffered()

	if err := tap.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if after := tap.Buffered(); after < before {
		t.Fatalf("Buffered() after Close = %d, want >= %d", after, before)
	}

	data, err := io.ReadAll(tap)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if len(data)%4 != 0 {
		t.Fatalf("captured %d bytes, not whole frames", len(data))
	}

	frames := len(data) / 4
	if want := 40 * 128 / 2; frames < want*8/10 || frames > want*12/10 {
		t.Fatalf("captured frames = %d, want about %d", frames, want)
	}

	energy := 0.0
	for i := 0; i < frames; i++ {
		l := int16(binary.LittleEndian.Uint16(data[4*i:]))
		r := int16(binary.LittleEndian.Uint16(data[4*i+2:]))
		if r != 0 {
			t.Fatalf("frame %d leaked into right: %d", i, r)
		}

		energy += float64(l) * float64(l)
	}

	if energy == 0 {
		t.Fatal("expected signal on the left channel")
	}
}

func TestTapDropsOldestBeyondCapacity(t *testing.T) {
	c := newStartedContext(t, WithSampleRate(48000), WithBlockSize(64))

	tap, err := c.NewTap(0, WithTapCapacity(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewTap() error = %v", err)
	}

	o := mustOscillator(t, c, 500)
	_ = o.Connect(c.Destination())
	o.Start()

	var left, right []float64

	render := func() {
		t.Helper()

		l, r, err := c.Render()
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}

		left = append(left, l...)
		right = append(right, r...)
	}

	for i := 0; i < 20; i++ {
		render()
	}

	if got, want := tap.Buffered(), 480*4; got != want {
		t.Fatalf("Buffered() = %d, want %d", got, want)
	}

	if got := tap.Dropped(); got != 800 {
		t.Fatalf("Dropped() = %d, want 800", got)
	}

	// A partial read must not shift the frame grid of what is kept.
	if n, err := tap.Read(make([]byte, 3)); err != nil || n != 3 {
		t.Fatalf("Read() = %d, %v; want 3, nil", n, err)
	}

	render()

	if got := tap.Dropped(); got != 864 {
		t.Fatalf("Dropped() = %d, want 864", got)
	}

	if err := tap.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := io.ReadAll(tap)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	var want []byte
	for i := len(left) - 480; i < len(left); i++ {
		want = binary.LittleEndian.AppendUint16(want, uint16(toInt16(left[i])))
		want = binary.LittleEndian.AppendUint16(want, uint16(toInt16(right[i])))
	}

	if !bytes.Equal(data, want) {
		t.Fatalf("kept %d bytes that are not the newest 480 frames", len(data))
	}
}

func TestReadFloat32KeepsPartialBlock(t *testing.T) {
	c := newStartedContext(t, WithBlockSize(16))
	o := mustOscillator(t, c, 1000)
	_ = o.Connect(c.Destination())
	o.Start()

	first := make([]float32, 20)
	if n, err := c.ReadFloat32(first); err != nil || n != 20 {
		t.Fatalf("ReadFloat32() = %d, %v; want 20, nil", n, err)
	}

	second := make([]float32, 12)
	if n, err := c.ReadFloat32(second); err != nil || n != 12 {
		t.Fatalf("ReadFloat32() = %d, %v; want 12, nil", n, err)
	}

	// Frame 10 is the first frame of the second read.
	want := float32(math.Sin(2 * math.Pi * 1000 * 10 / c.SampleRate()))
	if math.Abs(float64(second[0]-want)) > 1e-6 {
		t.Fatalf("continuity: got=%g want=%g", second[0], want)
	}

	if got := c.CurrentFrame(); got != 16 {
		t.Fatalf("CurrentFrame() = %d, want 16", got)
	}
}
