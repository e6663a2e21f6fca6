package graph

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-entrain/layer"
)

// Config holds the fixed settings of the master bus and the ramp times.
type Config struct {
	MasterGainDB       float64
	MasterGainRange    layer.Range
	LimiterThresholdDB float64
	ReverbSendDB       float64
	ReverbDecay        time.Duration
	ReverbPreDelay     time.Duration
	FilterCutoffHz     float64
	FilterQ            float64

	AmplitudeRamp time.Duration
	FrequencyRamp time.Duration
	MasterRamp    time.Duration

	MeterFloorDB   float64
	MeterCeilingDB float64
	MeterSmoothing float64

	Limits layer.Limits
}

// DefaultConfig returns the stock master bus settings.
func DefaultConfig() Config {
	return Config{
		MasterGainDB:       -18,
		MasterGainRange:    layer.Range{Min: -48, Max: -3},
		LimiterThresholdDB: -3,
		ReverbSendDB:       -20,
		ReverbDecay:        1500 * time.Millisecond,
		ReverbPreDelay:     10 * time.Millisecond,
		FilterCutoffHz:     800,
		FilterQ:            0.7071067811865476,
		AmplitudeRamp:      100 * time.Millisecond,
		FrequencyRamp:      200 * time.Millisecond,
		MasterRamp:         100 * time.Millisecond,
		MeterFloorDB:       -60,
		MeterCeilingDB:     0,
		MeterSmoothing:     0.8,
		Limits:             layer.DefaultLimits(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MeterFloorDB >= c.MeterCeilingDB {
		return fmt.Errorf("meter floor must be below ceiling: %f >= %f", c.MeterFloorDB, c.MeterCeilingDB)
	}

	if c.AmplitudeRamp < 0 || c.FrequencyRamp < 0 || c.MasterRamp < 0 {
		return fmt.Errorf("ramp durations must be >= 0")
	}

	if c.MasterGainRange.Min > c.MasterGainRange.Max {
		return fmt.Errorf("master gain range must satisfy min <= max: [%f, %f]",
			c.MasterGainRange.Min, c.MasterGainRange.Max)
	}

	return c.Limits.Validate()
}
