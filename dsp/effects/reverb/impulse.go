package reverb

import (
	"fmt"
	"math"
	"math/rand"
)

// decayFloor is the level the tail reaches at the decay time (-60 dB).
const decayFloor = 1e-3

// GenerateImpulse builds a stereo impulse response of decorrelated white
// noise, silent for preDelay seconds and then decaying exponentially so it
// reaches -60 dB after decay seconds. The result is deterministic for a
// given seed.
func GenerateImpulse(sampleRate, decay, preDelay float64, seed int64) (left, right []float64, err error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, nil, fmt.Errorf("reverb sample rate must be > 0 and finite: %f", sampleRate)
	}

	if decay <= 0 || math.IsNaN(decay) || math.IsInf(decay, 0) {
		return nil, nil, fmt.Errorf("reverb decay must be > 0 and finite: %f", decay)
	}

	if preDelay < 0 || math.IsNaN(preDelay) || math.IsInf(preDelay, 0) {
		return nil, nil, fmt.Errorf("reverb pre-delay must be >= 0 and finite: %f", preDelay)
	}

	pre := int(math.Round(preDelay * sampleRate))
	tail := int(math.Ceil(decay * sampleRate))
	n := pre + tail

	left = make([]float64, n)
	right = make([]float64, n)

	rng := rand.New(rand.NewSource(seed))
	k := math.Log(decayFloor) / (decay * sampleRate)

	for i := 0; i < tail; i++ {
		env := math.Exp(k * float64(i))
		left[pre+i] = (rng.Float64()*2 - 1) * env
		right[pre+i] = (rng.Float64()*2 - 1) * env
	}

	normalizeEnergy(left, right)

	return left, right, nil
}

// normalizeEnergy scales both channels so the louder one has unit energy,
// which keeps the wet level independent of the decay time.
func normalizeEnergy(left, right []float64) {
	el, er := 0.0, 0.0
	for i := range left {
		el += left[i] * left[i]
		er += right[i] * right[i]
	}

	e := math.Max(el, er)
	if e == 0 {
		return
	}

	scale := 1 / math.Sqrt(e)
	for i := range left {
		left[i] *= scale
		right[i] *= scale
	}
}
