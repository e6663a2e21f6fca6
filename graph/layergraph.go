package graph

import (
	"errors"
	"fmt"
	"time"

	"github.com/cwbudde/algo-entrain/audio"
	"github.com/cwbudde/algo-entrain/dsp/core"
	"github.com/cwbudde/algo-entrain/dsp/osc"
	"github.com/cwbudde/algo-entrain/layer"
)

// Variant is the type-specific part of a layer: Binaural, Isochronic or
// Monaural.
type Variant interface {
	layerType() layer.Type
}

// Binaural plays one oscillator per ear, hard panned.
type Binaural struct {
	Left, Right       *audio.Oscillator
	LeftPan, RightPan *audio.Panner
}

// Isochronic gates one oscillator with a unipolar LFO at the beat rate.
type Isochronic struct {
	Osc     *audio.Oscillator
	Gate    *audio.Gain
	GateLFO *audio.LFO
}

// Monaural sums two oscillators at half amplitude each.
type Monaural struct {
	Carrier, Beat         *audio.Oscillator
	CarrierHalf, BeatHalf *audio.Gain
}

func (*Binaural) layerType() layer.Type   { return layer.Binaural }
func (*Isochronic) layerType() layer.Type { return layer.Isochronic }
func (*Monaural) layerType() layer.Type   { return layer.Monaural }

// LayerGraph owns every node of one layer.
type LayerGraph struct {
	params  layer.Params
	variant Variant

	filter  *audio.Filter
	gain    *audio.Gain
	tremolo *audio.Gain
	pan     *audio.Panner
	mod     *audio.LFO

	nodes []audio.Node

	started  bool
	fading   bool
	released bool
}

// ID returns the layer id.
func (g *LayerGraph) ID() string { return g.params.ID }

// Params returns the parameters currently applied to the graph.
func (g *LayerGraph) Params() layer.Params { return g.params }

// Variant returns the type-specific nodes.
func (g *LayerGraph) Variant() Variant { return g.variant }

// Output returns the last node of the layer.
func (g *LayerGraph) Output() audio.Node { return g.pan }

// Gain returns the layer gain node.
func (g *LayerGraph) Gain() *audio.Gain { return g.gain }

// Modulator returns the layer LFO.
func (g *LayerGraph) Modulator() *audio.LFO { return g.mod }

// Started reports whether the layer's sources were started.
func (g *LayerGraph) Started() bool { return g.started }

// Released reports whether the layer has been released.
func (g *LayerGraph) Released() bool { return g.released }

// Running reports whether any oscillator of the layer produces sound.
func (g *LayerGraph) Running() bool {
	for _, o := range g.oscillators() {
		if o.Running() {
			return true
		}
	}

	return false
}

// Frequencies returns the target frequency of every oscillator in
// topology order.
func (g *LayerGraph) Frequencies() []float64 {
	oscs := g.oscillators()

	out := make([]float64, len(oscs))
	for i, o := range oscs {
		out[i] = o.Frequency().Target()
	}

	return out
}

// builder tracks created nodes so a failed construction releases them.
type builder struct {
	ctx   *audio.Context
	nodes []audio.Node
	err   error
}

func (b *builder) track(n audio.Node, err error) {
	if err != nil {
		b.err = errors.Join(b.err, err)
		return
	}

	b.nodes = append(b.nodes, n)
}

func (b *builder) connect(src, dst audio.Node) {
	if b.err != nil {
		return
	}

	if err := src.Connect(dst); err != nil {
		b.err = err
	}
}

func (b *builder) oscillator(p layer.Params, freq float64) *audio.Oscillator {
	o, err := b.ctx.NewOscillator(p.Waveform, freq)
	b.track(o, err)

	return o
}

func (b *builder) gain(v float64) *audio.Gain {
	g, err := b.ctx.NewGain(v)
	b.track(g, err)

	return g
}

func (b *builder) panner(v float64) *audio.Panner {
	p, err := b.ctx.NewPanner(v)
	b.track(p, err)

	return p
}

func (b *builder) lfo(rate, min, max float64) *audio.LFO {
	l, err := b.ctx.NewLFO(rate, min, max)
	b.track(l, err)

	return l
}

func (b *builder) release() {
	for _, n := range b.nodes {
		n.Dispose()
	}
}

// newLayerGraph builds the topology of p. The layer gain starts silent and
// the caller brings every parameter in through apply.
func newLayerGraph(ctx *audio.Context, p layer.Params, cfg Config) (*LayerGraph, error) {
	b := &builder{ctx: ctx}
	g := &LayerGraph{params: p}

	filter, err := ctx.NewLowpass(cfg.FilterCutoffHz, cfg.FilterQ)
	b.track(filter, err)
	g.filter = filter
	g.gain = b.gain(0)
	g.tremolo = b.gain(1)
	g.pan = b.panner(p.Pan)
	g.mod = b.lfo(p.LFO.RateHz, 0, 0)

	if b.err != nil {
		b.release()
		return nil, fmt.Errorf("graph: build layer %s: %w", p.ID, b.err)
	}

	switch p.Type {
	case layer.Binaural:
		left, right := binauralFrequencies(p)
		v := &Binaural{
			Left:     b.oscillator(p, left),
			Right:    b.oscillator(p, right),
			LeftPan:  b.panner(-1),
			RightPan: b.panner(1),
		}
		if b.err == nil {
			b.connect(v.Left, v.LeftPan)
			b.connect(v.Right, v.RightPan)
			b.connect(v.LeftPan, g.filter)
			b.connect(v.RightPan, g.filter)
		}

		g.variant = v
	case layer.Isochronic:
		v := &Isochronic{
			Osc:     b.oscillator(p, p.Carrier),
			Gate:    b.gain(0),
			GateLFO: b.lfo(p.BeatHz, 0, 1),
		}
		if b.err == nil {
			b.connect(v.Osc, v.Gate)
			b.connect(v.Gate, g.filter)

			if err := v.Gate.Gain().Modulate(v.GateLFO, 1); err != nil {
				b.err = err
			}
		}

		g.variant = v
	case layer.Monaural:
		carrier, beat := monauralFrequencies(p)
		v := &Monaural{
			Carrier:     b.oscillator(p, carrier),
			Beat:        b.oscillator(p, beat),
			CarrierHalf: b.gain(0.5),
			BeatHalf:    b.gain(0.5),
		}
		if b.err == nil {
			b.connect(v.Carrier, v.CarrierHalf)
			b.connect(v.Beat, v.BeatHalf)
			b.connect(v.CarrierHalf, g.filter)
			b.connect(v.BeatHalf, g.filter)
		}

		g.variant = v
	default:
		b.err = fmt.Errorf("unknown layer type %q", p.Type)
	}

	b.connect(g.filter, g.gain)
	b.connect(g.gain, g.tremolo)
	b.connect(g.tremolo, g.pan)

	if b.err != nil {
		b.release()
		return nil, fmt.Errorf("graph: build layer %s: %w", p.ID, b.err)
	}

	g.nodes = b.nodes

	return g, nil
}

func binauralFrequencies(p layer.Params) (left, right float64) {
	return p.CarrierLeft - p.BeatHz/2, p.CarrierRight + p.BeatHz/2
}

func monauralFrequencies(p layer.Params) (carrier, beat float64) {
	return p.Carrier, p.Carrier + p.BeatHz
}

// apply merges patch into the layer and ramps the affected nodes. Fields
// are assumed normalized.
func (g *LayerGraph) apply(patch layer.Patch, cfg Config) error {
	// The waveform goes first; if it cannot be set it is dropped from the
	// patch so the mirrored params keep matching the nodes.
	var waveErr error
	if patch.Waveform != nil {
		waveErr = g.setWaveform(*patch.Waveform)
		if waveErr != nil {
			patch.Waveform = nil
		}
	}

	next := patch.Apply(g.params)

	if patch.AffectsFrequency() {
		g.rampFrequencies(next, cfg.FrequencyRamp)
	}

	if patch.GainDB != nil && !g.fading {
		g.gain.Gain().RampTo(core.DBToLinear(next.GainDB), cfg.AmplitudeRamp)
	}

	if patch.Pan != nil {
		g.pan.Pan().RampTo(next.Pan, cfg.AmplitudeRamp)
	}

	g.params = next

	if patch.LFO != nil || patch.BeatHz != nil {
		return errors.Join(waveErr, g.wireModulation())
	}

	return waveErr
}

// setWaveform switches every oscillator to w, or none of them.
func (g *LayerGraph) setWaveform(w osc.Waveform) error {
	if !w.Valid() {
		return fmt.Errorf("graph: invalid waveform %d", int(w))
	}

	for _, o := range g.oscillators() {
		if err := o.SetWaveform(w); err != nil {
			return err
		}
	}

	return nil
}

// rampFrequencies recomputes every oscillator frequency from the merged
// parameters, so a carrier and a beat supplied together move as one.
func (g *LayerGraph) rampFrequencies(p layer.Params, d time.Duration) {
	switch v := g.variant.(type) {
	case *Binaural:
		left, right := binauralFrequencies(p)
		v.Left.Frequency().RampTo(left, d)
		v.Right.Frequency().RampTo(right, d)
	case *Isochronic:
		v.Osc.Frequency().RampTo(p.Carrier, d)
		v.GateLFO.Frequency().RampTo(p.BeatHz, d)
	case *Monaural:
		carrier, beat := monauralFrequencies(p)
		v.Carrier.Frequency().RampTo(carrier, d)
		v.Beat.Frequency().RampTo(beat, d)
	}
}

// wireModulation routes the layer LFO to its target. Beat modulation
// swings the beat rate by +-depth percent; gain modulation dips the layer
// amplitude by up to depth percent.
func (g *LayerGraph) wireModulation() error {
	g.unwireModulation()

	lfo := g.params.LFO
	g.mod.Frequency().SetValue(lfo.RateHz)

	if !lfo.Enabled || lfo.Depth == 0 {
		g.mod.Stop()
		return nil
	}

	depth := lfo.Depth / 100

	var err error

	switch lfo.Target {
	case layer.TargetGain:
		if err = g.mod.SetRange(-depth, 0); err == nil {
			err = g.tremolo.Gain().Modulate(g.mod, 1)
		}
	default:
		dev := depth * g.params.BeatHz
		if err = g.mod.SetRange(-dev, dev); err != nil {
			break
		}

		switch v := g.variant.(type) {
		case *Binaural:
			err = errors.Join(
				v.Left.Frequency().Modulate(g.mod, -0.5),
				v.Right.Frequency().Modulate(g.mod, 0.5),
			)
		case *Isochronic:
			err = v.GateLFO.Frequency().Modulate(g.mod, 1)
		case *Monaural:
			err = v.Beat.Frequency().Modulate(g.mod, 1)
		}
	}

	if err != nil {
		return fmt.Errorf("graph: wire lfo of %s: %w", g.params.ID, err)
	}

	if g.started {
		g.mod.Start()
	}

	return nil
}

func (g *LayerGraph) unwireModulation() {
	g.tremolo.Gain().Unmodulate(g.mod)

	switch v := g.variant.(type) {
	case *Binaural:
		v.Left.Frequency().Unmodulate(g.mod)
		v.Right.Frequency().Unmodulate(g.mod)
	case *Isochronic:
		v.GateLFO.Frequency().Unmodulate(g.mod)
	case *Monaural:
		v.Beat.Frequency().Unmodulate(g.mod)
	}
}

func (g *LayerGraph) oscillators() []*audio.Oscillator {
	switch v := g.variant.(type) {
	case *Binaural:
		return []*audio.Oscillator{v.Left, v.Right}
	case *Isochronic:
		return []*audio.Oscillator{v.Osc}
	case *Monaural:
		return []*audio.Oscillator{v.Carrier, v.Beat}
	default:
		return nil
	}
}

// start starts every source. Idempotent.
func (g *LayerGraph) start() {
	if g.released {
		return
	}

	for _, o := range g.oscillators() {
		o.Start()
	}

	if v, ok := g.variant.(*Isochronic); ok {
		v.GateLFO.Start()
	}

	if g.params.LFO.Enabled && g.params.LFO.Depth > 0 {
		g.mod.Start()
	}

	g.started = true
}

// stop stops every source. Idempotent.
func (g *LayerGraph) stop() {
	for _, o := range g.oscillators() {
		o.Stop()
	}

	if v, ok := g.variant.(*Isochronic); ok {
		v.GateLFO.Stop()
	}

	g.mod.Stop()
	g.started = false
}

func (g *LayerGraph) fadeOut(d time.Duration) {
	g.fading = true
	g.gain.Gain().RampTo(0, d)
}

func (g *LayerGraph) restore() {
	g.fading = false
	g.gain.Gain().SetValue(core.DBToLinear(g.params.GainDB))
}

// release stops and disposes every node. Repeated calls are no-ops.
func (g *LayerGraph) release() {
	if g.released {
		return
	}

	g.stop()

	for _, n := range g.nodes {
		n.Dispose()
	}

	g.released = true
}
