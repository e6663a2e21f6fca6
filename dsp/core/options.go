package core

// ProcessorConfig defines common DSP processing settings.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
}

// DefaultProcessorConfig returns the render settings used for live playback.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 48000,
		BlockSize:  256,
	}
}

// SamplesFor returns the number of frames covering seconds at sampleRate,
// rounded to the nearest frame and never negative.
func SamplesFor(seconds, sampleRate float64) int64 {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}

	return int64(seconds*sampleRate + 0.5)
}
