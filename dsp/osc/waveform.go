package osc

import (
	"fmt"
	"math"
	"strings"
)

// Waveform defines the oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSquare
	WaveSawtooth
)

// String returns the canonical lower-case name.
func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveTriangle:
		return "triangle"
	case WaveSquare:
		return "square"
	case WaveSawtooth:
		return "sawtooth"
	default:
		return fmt.Sprintf("waveform(%d)", int(w))
	}
}

// ParseWaveform maps a waveform name to a Waveform.
// "saw" is accepted as an alias for "sawtooth".
func ParseWaveform(name string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine":
		return WaveSine, nil
	case "triangle":
		return WaveTriangle, nil
	case "square":
		return WaveSquare, nil
	case "sawtooth", "saw":
		return WaveSawtooth, nil
	default:
		return WaveSine, fmt.Errorf("osc: unknown waveform %q", name)
	}
}

// Valid reports whether w is one of the defined shapes.
func (w Waveform) Valid() bool {
	return w >= WaveSine && w <= WaveSawtooth
}

// shape evaluates w at phase in [0, 1) with phase increment dt. Square and
// sawtooth use a polynomial band-limited step to keep aliasing down.
func shape(w Waveform, phase, dt float64) float64 {
	switch w {
	case WaveTriangle:
		return 1 - 4*math.Abs(phase-0.5)
	case WaveSquare:
		v := 1.0
		if phase >= 0.5 {
			v = -1
		}

		v += polyBLEP(phase, dt)

		return v - polyBLEP(math.Mod(phase+0.5, 1), dt)
	case WaveSawtooth:
		return 2*phase - 1 - polyBLEP(phase, dt)
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}

	switch {
	case t < dt:
		t /= dt
		return t + t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + t + t + 1
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (w Waveform) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("osc: invalid waveform %d", int(w))
	}

	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Waveform) UnmarshalText(text []byte) error {
	v, err := ParseWaveform(string(text))
	if err != nil {
		return err
	}

	*w = v

	return nil
}
