package layer

import (
	"fmt"

	"github.com/cwbudde/algo-entrain/dsp/core"
)

// Range is an inclusive numeric range.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Clamp limits v to r. NaN maps to Min.
func (r Range) Clamp(v float64) float64 { return core.Clamp(v, r.Min, r.Max) }

// Contains reports whether v lies in r.
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

func (r Range) validate(name string) error {
	if !core.IsFinite(r.Min) || !core.IsFinite(r.Max) || r.Min > r.Max {
		return fmt.Errorf("%s range must satisfy min <= max: [%f, %f]", name, r.Min, r.Max)
	}

	return nil
}

// Limits are the clamp ranges applied to every layer value before it
// reaches the graph.
type Limits struct {
	BeatHz    Range `yaml:"beat_hz"`
	GainDB    Range `yaml:"gain_db"`
	Pan       Range `yaml:"pan"`
	CarrierHz Range `yaml:"carrier_hz"`
	LFORateHz Range `yaml:"lfo_rate_hz"`
	LFODepth  Range `yaml:"lfo_depth"`

	Attack  Range `yaml:"attack"`
	Decay   Range `yaml:"decay"`
	Sustain Range `yaml:"sustain"`
	Release Range `yaml:"release"`
}

// DefaultLimits returns the ranges of the control surface.
func DefaultLimits() Limits {
	return Limits{
		BeatHz:    Range{0.5, 40},
		GainDB:    Range{-48, 0},
		Pan:       Range{-1, 1},
		CarrierHz: Range{80, 600},
		LFORateHz: Range{0.05, 0.5},
		LFODepth:  Range{0, 30},
		Attack:    Range{0.01, 5},
		Decay:     Range{0.01, 5},
		Sustain:   Range{0, 1},
		Release:   Range{0.01, 10},
	}
}

// Validate checks that every range is well formed.
func (l Limits) Validate() error {
	for _, r := range []struct {
		name string
		r    Range
	}{
		{"beat_hz", l.BeatHz},
		{"gain_db", l.GainDB},
		{"pan", l.Pan},
		{"carrier_hz", l.CarrierHz},
		{"lfo_rate_hz", l.LFORateHz},
		{"lfo_depth", l.LFODepth},
		{"attack", l.Attack},
		{"decay", l.Decay},
		{"sustain", l.Sustain},
		{"release", l.Release},
	} {
		if err := r.r.validate(r.name); err != nil {
			return err
		}
	}

	return nil
}

// Normalize returns p with every field in range. Unknown types fall back
// to Binaural, missing carriers take the defaults of the type, and an
// empty id is replaced by a fresh one.
func (l Limits) Normalize(p Params) Params {
	if !p.Type.Valid() {
		p.Type = Binaural
	}

	if p.ID == "" {
		p.ID = NewID()
	}

	def := Default(p.Type)

	switch p.Type {
	case Binaural:
		if p.CarrierLeft <= 0 {
			p.CarrierLeft = def.CarrierLeft
		}

		if p.CarrierRight <= 0 {
			p.CarrierRight = def.CarrierRight
		}

		p.CarrierLeft = l.CarrierHz.Clamp(p.CarrierLeft)
		p.CarrierRight = l.CarrierHz.Clamp(p.CarrierRight)
	default:
		if p.Carrier <= 0 {
			p.Carrier = def.Carrier
		}

		p.Carrier = l.CarrierHz.Clamp(p.Carrier)
	}

	if !p.Waveform.Valid() {
		p.Waveform = def.Waveform
	}

	p.BeatHz = l.BeatHz.Clamp(p.BeatHz)
	p.GainDB = l.GainDB.Clamp(p.GainDB)
	p.Pan = l.Pan.Clamp(p.Pan)
	p.Envelope = l.envelope(p.Envelope)
	p.LFO = l.lfo(p.LFO)

	return p
}

// NormalizePatch clamps every supplied field of p. Carrier fields are
// clamped but never defaulted, since a patch only carries what changed.
func (l Limits) NormalizePatch(p Patch) Patch {
	clamp := func(v *float64, r Range) *float64 {
		if v == nil {
			return nil
		}

		return Ptr(r.Clamp(*v))
	}

	p.CarrierLeft = clamp(p.CarrierLeft, l.CarrierHz)
	p.CarrierRight = clamp(p.CarrierRight, l.CarrierHz)
	p.Carrier = clamp(p.Carrier, l.CarrierHz)
	p.BeatHz = clamp(p.BeatHz, l.BeatHz)
	p.GainDB = clamp(p.GainDB, l.GainDB)
	p.Pan = clamp(p.Pan, l.Pan)

	if p.Waveform != nil && !p.Waveform.Valid() {
		p.Waveform = nil
	}

	if p.Envelope != nil {
		p.Envelope = Ptr(l.envelope(*p.Envelope))
	}

	if p.LFO != nil {
		p.LFO = Ptr(l.lfo(*p.LFO))
	}

	return p
}

func (l Limits) envelope(e Envelope) Envelope {
	return Envelope{
		Attack:  l.Attack.Clamp(e.Attack),
		Decay:   l.Decay.Clamp(e.Decay),
		Sustain: l.Sustain.Clamp(e.Sustain),
		Release: l.Release.Clamp(e.Release),
	}
}

func (l Limits) lfo(v LFO) LFO {
	if !v.Target.Valid() {
		v.Target = TargetBeat
	}

	v.RateHz = l.LFORateHz.Clamp(v.RateHz)
	v.Depth = l.LFODepth.Clamp(v.Depth)

	return v
}
