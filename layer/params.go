package layer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-entrain/dsp/osc"
)

// Type selects the synthesis topology of a layer.
type Type string

const (
	// Binaural plays one tone per ear; the beat is perceived, not physical.
	Binaural Type = "binaural"
	// Isochronic gates a single tone on and off at the beat rate.
	Isochronic Type = "isochronic"
	// Monaural sums two close tones into one physical beat.
	Monaural Type = "monaural"
)

// Types lists every layer type.
var Types = []Type{Binaural, Isochronic, Monaural}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	switch t {
	case Binaural, Isochronic, Monaural:
		return true
	default:
		return false
	}
}

// ParseType maps a type name to a Type.
func ParseType(name string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(name)))
	if !t.Valid() {
		return "", fmt.Errorf("layer: unknown type %q", name)
	}

	return t, nil
}

// LFOTarget selects what an enabled LFO modulates.
type LFOTarget string

const (
	TargetBeat LFOTarget = "beat"
	TargetGain LFOTarget = "gain"
)

// Valid reports whether t is a known target.
func (t LFOTarget) Valid() bool { return t == TargetBeat || t == TargetGain }

// Envelope is descriptive ADSR metadata. It is validated and stored but
// not applied to the signal.
type Envelope struct {
	Attack  float64 `yaml:"attack"`
	Decay   float64 `yaml:"decay"`
	Sustain float64 `yaml:"sustain"`
	Release float64 `yaml:"release"`
}

// LFO is the slow modulation of a layer.
type LFO struct {
	Enabled bool      `yaml:"enabled"`
	RateHz  float64   `yaml:"rate_hz"`
	Depth   float64   `yaml:"depth"` // percent
	Target  LFOTarget `yaml:"target"`
}

// Params is the full description of one layer.
//
// Binaural layers use CarrierLeft and CarrierRight; isochronic and
// monaural layers use Carrier.
type Params struct {
	ID           string       `yaml:"id,omitempty"`
	Type         Type         `yaml:"type"`
	CarrierLeft  float64      `yaml:"carrier_left,omitempty"`
	CarrierRight float64      `yaml:"carrier_right,omitempty"`
	Carrier      float64      `yaml:"carrier,omitempty"`
	BeatHz       float64      `yaml:"beat_hz"`
	Waveform     osc.Waveform `yaml:"waveform"`
	GainDB       float64      `yaml:"gain_db"`
	Pan          float64      `yaml:"pan"`
	Envelope     Envelope     `yaml:"env"`
	LFO          LFO          `yaml:"lfo"`
	Muted        bool         `yaml:"muted,omitempty"`
	Solo         bool         `yaml:"solo,omitempty"`
}

// NewID returns a fresh layer id.
func NewID() string { return uuid.NewString() }

// WithFreshID returns a copy of p with a new id.
func (p Params) WithFreshID() Params {
	p.ID = NewID()
	return p
}

// DefaultLFO is the disabled LFO every default layer carries.
func DefaultLFO() LFO {
	return LFO{Enabled: false, RateHz: 0.1, Depth: 10, Target: TargetBeat}
}

// Default returns a quiet, centered layer of type t with a fresh id.
// Unknown types fall back to Binaural.
func Default(t Type) Params {
	p := Params{
		ID:       NewID(),
		Type:     t,
		BeatHz:   10,
		Waveform: osc.WaveSine,
		GainDB:   -40,
		LFO:      DefaultLFO(),
	}

	switch t {
	case Isochronic:
		p.Carrier = 200
		p.Envelope = Envelope{Attack: 0.05, Decay: 0.05, Sustain: 0.9, Release: 0.3}
	case Monaural:
		p.Carrier = 200
		p.Envelope = Envelope{Attack: 0.1, Decay: 0.1, Sustain: 0.8, Release: 0.5}
	default:
		p.Type = Binaural
		p.CarrierLeft = 200
		p.CarrierRight = 210
		p.Envelope = Envelope{Attack: 0.1, Decay: 0.1, Sustain: 0.8, Release: 0.5}
	}

	return p
}
