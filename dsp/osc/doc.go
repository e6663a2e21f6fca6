// Package osc provides phase-accumulator oscillators.
//
// Oscillator renders one of four classic waveforms with a per-sample
// frequency input so the caller can drive it from ramped automation.
// LFO maps a sine oscillator onto an arbitrary [min, max] output range,
// which makes it usable directly as a parameter modulator (for example a
// 0..1 amplitude gate).
package osc
