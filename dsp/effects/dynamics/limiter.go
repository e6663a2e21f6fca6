package dynamics

import (
	"fmt"
	"math"
)

const (
	defaultLimiterThresholdDB = -3.0
	defaultLimiterReleaseMs   = 100.0
	defaultLimiterLookaheadMs = 3.0

	minLimiterThresholdDB = -24.0
	maxLimiterThresholdDB = 0.0
	minLimiterReleaseMs   = 1.0
	maxLimiterReleaseMs   = 5000.0
	minLimiterLookaheadMs = 0.0
	maxLimiterLookaheadMs = 200.0
)

// LimiterOption mutates limiter construction parameters.
type LimiterOption func(*limiterConfig) error

type limiterConfig struct {
	thresholdDB float64
	releaseMs   float64
	lookaheadMs float64
}

// WithLimiterThreshold sets the ceiling in dBFS.
func WithLimiterThreshold(dB float64) LimiterOption {
	return func(cfg *limiterConfig) error {
		if dB < minLimiterThresholdDB || dB > maxLimiterThresholdDB || !isFinite(dB) {
			return fmt.Errorf("limiter threshold must be in [%f, %f]: %f",
				minLimiterThresholdDB, maxLimiterThresholdDB, dB)
		}

		cfg.thresholdDB = dB

		return nil
	}
}

// WithLimiterRelease sets the release time in milliseconds.
func WithLimiterRelease(ms float64) LimiterOption {
	return func(cfg *limiterConfig) error {
		if ms < minLimiterReleaseMs || ms > maxLimiterReleaseMs || !isFinite(ms) {
			return fmt.Errorf("limiter release must be in [%f, %f]: %f",
				minLimiterReleaseMs, maxLimiterReleaseMs, ms)
		}

		cfg.releaseMs = ms

		return nil
	}
}

// WithLimiterLookahead sets the lookahead time in milliseconds.
func WithLimiterLookahead(ms float64) LimiterOption {
	return func(cfg *limiterConfig) error {
		if ms < minLimiterLookaheadMs || ms > maxLimiterLookaheadMs || !isFinite(ms) {
			return fmt.Errorf("limiter lookahead must be in [%f, %f]: %f",
				minLimiterLookaheadMs, maxLimiterLookaheadMs, ms)
		}

		cfg.lookaheadMs = ms

		return nil
	}
}

// Limiter is a stereo-linked lookahead peak limiter.
type Limiter struct {
	sampleRate  float64
	thresholdDB float64
	releaseMs   float64
	lookaheadMs float64

	threshold   float64
	releaseCoef float64
	env         float64

	delayL   []float64
	delayR   []float64
	peaks    []float64
	writePos int
}

// NewLimiter creates a limiter with production defaults and optional overrides.
func NewLimiter(sampleRate float64, opts ...LimiterOption) (*Limiter, error) {
	if sampleRate <= 0 || !isFinite(sampleRate) {
		return nil, fmt.Errorf("limiter sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := limiterConfig{
		thresholdDB: defaultLimiterThresholdDB,
		releaseMs:   defaultLimiterReleaseMs,
		lookaheadMs: defaultLimiterLookaheadMs,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	l := &Limiter{
		sampleRate:  sampleRate,
		thresholdDB: cfg.thresholdDB,
		releaseMs:   cfg.releaseMs,
		lookaheadMs: cfg.lookaheadMs,
	}
	l.threshold = math.Pow(10, l.thresholdDB/20)
	l.releaseCoef = math.Exp(-1 / (l.releaseMs / 1000 * sampleRate))
	l.rebuildDelay()

	return l, nil
}

// Threshold returns the ceiling in dBFS.
func (l *Limiter) Threshold() float64 { return l.thresholdDB }

// Release returns the release time in milliseconds.
func (l *Limiter) Release() float64 { return l.releaseMs }

// Lookahead returns the lookahead time in milliseconds.
func (l *Limiter) Lookahead() float64 { return l.lookaheadMs }

// LatencySamples returns the program-path delay in samples.
func (l *Limiter) LatencySamples() int { return len(l.delayL) - 1 }

// Reset clears detector and delay state.
func (l *Limiter) Reset() {
	l.env = 0
	l.writePos = 0

	for i := range l.delayL {
		l.delayL[i] = 0
		l.delayR[i] = 0
		l.peaks[i] = 0
	}
}

// ProcessStereo limits left and right in place with a shared gain.
// right may be nil for mono processing.
func (l *Limiter) ProcessStereo(left, right []float64) {
	for i := range left {
		xl := left[i]
		xr := 0.0
		if right != nil {
			xr = right[i]
		}

		yl, yr := l.processFrame(xl, xr)

		left[i] = yl
		if right != nil {
			right[i] = yr
		}
	}
}

func (l *Limiter) processFrame(xl, xr float64) (float64, float64) {
	l.delayL[l.writePos] = xl
	l.delayR[l.writePos] = xr
	l.peaks[l.writePos] = math.Max(math.Abs(xl), math.Abs(xr))

	windowPeak := 0.0
	for _, p := range l.peaks {
		if p > windowPeak {
			windowPeak = p
		}
	}

	if windowPeak > l.env {
		l.env = windowPeak
	} else {
		l.env = windowPeak + (l.env-windowPeak)*l.releaseCoef
	}

	gain := 1.0
	if l.env > l.threshold {
		gain = l.threshold / l.env
	}

	readPos := l.writePos + 1
	if readPos >= len(l.delayL) {
		readPos = 0
	}

	yl := l.delayL[readPos] * gain
	yr := l.delayR[readPos] * gain
	l.writePos = readPos

	return yl, yr
}

func (l *Limiter) rebuildDelay() {
	delaySamples := int(math.Round(l.lookaheadMs * l.sampleRate / 1000.0))
	if delaySamples < 0 {
		delaySamples = 0
	}

	size := delaySamples + 1
	l.delayL = make([]float64, size)
	l.delayR = make([]float64, size)
	l.peaks = make([]float64, size)
	l.writePos = 0
}

func isFinite(v float64) bool {
	return !(math.IsNaN(v) || math.IsInf(v, 0))
}
