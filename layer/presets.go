package layer

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-entrain/dsp/osc"
)

// ErrUnknownPreset is returned by Lookup for an unknown preset id.
var ErrUnknownPreset = errors.New("layer: unknown preset")

// Preset is a named set of layers.
type Preset struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Layers      []Params `yaml:"layers"`
}

// Fresh returns copies of the preset layers, each with a new id.
func (p Preset) Fresh() []Params {
	out := make([]Params, len(p.Layers))
	for i, l := range p.Layers {
		out[i] = l.WithFreshID()
	}

	return out
}

func binaural(left, right, beat float64, env Envelope) Params {
	p := Default(Binaural)
	p.CarrierLeft, p.CarrierRight, p.BeatHz, p.Envelope = left, right, beat, env

	return p
}

func single(t Type, carrier, beat float64, env Envelope) Params {
	p := Default(t)
	p.Carrier, p.BeatHz, p.Envelope = carrier, beat, env

	return p
}

// BuiltIn returns the built-in presets. Every call yields fresh layer ids.
func BuiltIn() []Preset {
	return []Preset{
		{
			ID:          "alpha-focus",
			Name:        "Alpha Focus",
			Description: "10 Hz binaural beats for enhanced focus and concentration",
			Layers: []Params{
				binaural(200, 210, 10, Envelope{0.1, 0.1, 0.8, 0.5}),
				binaural(300, 310, 10.5, Envelope{0.2, 0.1, 0.7, 0.6}),
			},
		},
		{
			ID:          "theta-relax",
			Name:        "Theta Deep Relax",
			Description: "5 Hz mix of binaural and isochronic for deep relaxation",
			Layers: []Params{
				binaural(150, 155, 5, Envelope{0.3, 0.2, 0.9, 1.0}),
				single(Isochronic, 200, 5.2, Envelope{0.1, 0.1, 0.95, 0.8}),
			},
		},
		{
			ID:          "delta-sleep",
			Name:        "Delta Sleep",
			Description: "2 Hz low carriers for deep sleep and regeneration",
			Layers: []Params{
				binaural(80, 82, 2, Envelope{0.5, 0.3, 0.95, 2.0}),
				single(Isochronic, 100, 2.1, Envelope{0.3, 0.2, 0.9, 1.5}),
			},
		},
		{
			ID:          "gamma-burst",
			Name:        "Gamma Burst",
			Description: "40 Hz monaural with low gain + alpha support for cognitive enhancement",
			Layers: []Params{
				single(Monaural, 200, 40, Envelope{0.05, 0.05, 0.8, 0.2}),
				binaural(200, 210, 10, Envelope{0.1, 0.1, 0.8, 0.5}),
			},
		},
		{
			ID:          "theta-gamma-coupling",
			Name:        "Theta-Gamma Coupling",
			Description: "6 Hz + 40 Hz layers for enhanced learning and memory",
			Layers: []Params{
				binaural(200, 206, 6, Envelope{0.2, 0.1, 0.8, 0.8}),
				single(Monaural, 200, 40, Envelope{0.05, 0.05, 0.7, 0.3}),
			},
		},
		{
			ID:          "blank",
			Name:        "Blank Layer",
			Description: "Start with a single binaural layer",
			Layers:      []Params{Default(Binaural)},
		},
	}
}

// Lookup finds a preset by id in presets.
func Lookup(presets []Preset, id string) (Preset, error) {
	i := slices.IndexFunc(presets, func(p Preset) bool { return p.ID == id })
	if i < 0 {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
	}

	return presets[i], nil
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// DecodePresets reads presets from a YAML document of the form
//
//	presets:
//	  - id: my-preset
//	    name: My Preset
//	    layers:
//	      - type: binaural
//	        carrier_left: 200
//	        ...
//
// Each layer is normalized with limits; layers without an id get one.
func DecodePresets(r io.Reader, limits Limits) ([]Preset, error) {
	var f presetFile

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, fmt.Errorf("layer: decode presets: %w", err)
	}

	for i := range f.Presets {
		p := &f.Presets[i]
		if p.ID == "" {
			return nil, fmt.Errorf("layer: preset %d has no id", i)
		}

		for j := range p.Layers {
			l := p.Layers[j]
			if l.Type == "" {
				return nil, fmt.Errorf("layer: preset %q layer %d has no type", p.ID, j)
			}

			if !l.Type.Valid() {
				return nil, fmt.Errorf("layer: preset %q layer %d: unknown type %q", p.ID, j, l.Type)
			}

			p.Layers[j] = limits.Normalize(withDecodeDefaults(l))
		}
	}

	return f.Presets, nil
}

// EncodePresets writes presets in the format read by DecodePresets.
func EncodePresets(w io.Writer, presets []Preset) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(presetFile{Presets: presets}); err != nil {
		return fmt.Errorf("layer: encode presets: %w", err)
	}

	return enc.Close()
}

// withDecodeDefaults fills fields a preset file may leave out with the
// defaults of the layer type.
func withDecodeDefaults(p Params) Params {
	def := Default(p.Type)

	if p.BeatHz == 0 {
		p.BeatHz = def.BeatHz
	}

	if p.GainDB == 0 {
		p.GainDB = def.GainDB
	}

	if p.Envelope == (Envelope{}) {
		p.Envelope = def.Envelope
	}

	if p.LFO == (LFO{}) {
		p.LFO = def.LFO
	}

	if !p.Waveform.Valid() {
		p.Waveform = osc.WaveSine
	}

	return p
}
