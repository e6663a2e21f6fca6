package layer

import "github.com/cwbudde/algo-entrain/dsp/osc"

// Patch is a partial update of a layer: nil fields are left unchanged.
type Patch struct {
	CarrierLeft  *float64
	CarrierRight *float64
	Carrier      *float64
	BeatHz       *float64
	Waveform     *osc.Waveform
	GainDB       *float64
	Pan          *float64
	Envelope     *Envelope
	LFO          *LFO
	Muted        *bool
	Solo         *bool
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T { return &v }

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.CarrierLeft == nil && p.CarrierRight == nil && p.Carrier == nil &&
		p.BeatHz == nil && p.Waveform == nil && p.GainDB == nil && p.Pan == nil &&
		p.Envelope == nil && p.LFO == nil && p.Muted == nil && p.Solo == nil
}

// Apply merges the supplied fields into dst.
func (p Patch) Apply(dst Params) Params {
	if p.CarrierLeft != nil {
		dst.CarrierLeft = *p.CarrierLeft
	}

	if p.CarrierRight != nil {
		dst.CarrierRight = *p.CarrierRight
	}

	if p.Carrier != nil {
		dst.Carrier = *p.Carrier
	}

	if p.BeatHz != nil {
		dst.BeatHz = *p.BeatHz
	}

	if p.Waveform != nil {
		dst.Waveform = *p.Waveform
	}

	if p.GainDB != nil {
		dst.GainDB = *p.GainDB
	}

	if p.Pan != nil {
		dst.Pan = *p.Pan
	}

	if p.Envelope != nil {
		dst.Envelope = *p.Envelope
	}

	if p.LFO != nil {
		dst.LFO = *p.LFO
	}

	if p.Muted != nil {
		dst.Muted = *p.Muted
	}

	if p.Solo != nil {
		dst.Solo = *p.Solo
	}

	return dst
}

// Full returns a patch that sets every field of p.
func Full(p Params) Patch {
	return Patch{
		CarrierLeft:  Ptr(p.CarrierLeft),
		CarrierRight: Ptr(p.CarrierRight),
		Carrier:      Ptr(p.Carrier),
		BeatHz:       Ptr(p.BeatHz),
		Waveform:     Ptr(p.Waveform),
		GainDB:       Ptr(p.GainDB),
		Pan:          Ptr(p.Pan),
		Envelope:     Ptr(p.Envelope),
		LFO:          Ptr(p.LFO),
		Muted:        Ptr(p.Muted),
		Solo:         Ptr(p.Solo),
	}
}

// AffectsFrequency reports whether the patch changes a frequency-bearing
// field.
func (p Patch) AffectsFrequency() bool {
	return p.CarrierLeft != nil || p.CarrierRight != nil || p.Carrier != nil || p.BeatHz != nil
}
