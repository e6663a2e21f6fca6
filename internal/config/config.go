// Package config loads the engine configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-entrain/audio"
	"github.com/cwbudde/algo-entrain/dsp/core"
	"github.com/cwbudde/algo-entrain/graph"
	"github.com/cwbudde/algo-entrain/layer"
	"github.com/cwbudde/algo-entrain/transport"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Audio configures the render context.
type Audio struct {
	SampleRate float64 `yaml:"sample_rate"`
	BlockSize  int     `yaml:"block_size"`
}

// Master configures the master bus.
type Master struct {
	GainDB             float64       `yaml:"gain_db"`
	GainRange          layer.Range   `yaml:"gain_range"`
	LimiterThresholdDB float64       `yaml:"limiter_threshold_db"`
	ReverbSendDB       float64       `yaml:"reverb_send_db"`
	ReverbDecay        time.Duration `yaml:"reverb_decay"`
	ReverbPreDelay     time.Duration `yaml:"reverb_pre_delay"`
	FilterCutoffHz     float64       `yaml:"filter_cutoff_hz"`
}

// Ramps holds the parameter ramp times.
type Ramps struct {
	Amplitude time.Duration `yaml:"amplitude"`
	Frequency time.Duration `yaml:"frequency"`
	Master    time.Duration `yaml:"master"`
}

// Transport holds the playback timings.
type Transport struct {
	FadeOut       time.Duration `yaml:"fade_out"`
	Tick          time.Duration `yaml:"tick"`
	MeterInterval time.Duration `yaml:"meter_interval"`
}

// Meter configures the output level reading.
type Meter struct {
	FloorDB   float64 `yaml:"floor_db"`
	CeilingDB float64 `yaml:"ceiling_db"`
	Smoothing float64 `yaml:"smoothing"`
}

// Config is the complete engine configuration.
type Config struct {
	Audio         Audio        `yaml:"audio"`
	Master        Master       `yaml:"master"`
	Ramps         Ramps        `yaml:"ramps"`
	Transport     Transport    `yaml:"transport"`
	Meter         Meter        `yaml:"meter"`
	Limits        layer.Limits `yaml:"limits"`
	SoloExclusive bool         `yaml:"solo_exclusive"`
}

// Default returns the stock configuration.
func Default() Config {
	p := core.DefaultProcessorConfig()
	g := graph.DefaultConfig()
	t := transport.DefaultConfig()

	return Config{
		Audio: Audio{SampleRate: p.SampleRate, BlockSize: p.BlockSize},
		Master: Master{
			GainDB:             g.MasterGainDB,
			GainRange:          g.MasterGainRange,
			LimiterThresholdDB: g.LimiterThresholdDB,
			ReverbSendDB:       g.ReverbSendDB,
			ReverbDecay:        g.ReverbDecay,
			ReverbPreDelay:     g.ReverbPreDelay,
			FilterCutoffHz:     g.FilterCutoffHz,
		},
		Ramps: Ramps{
			Amplitude: g.AmplitudeRamp,
			Frequency: g.FrequencyRamp,
			Master:    g.MasterRamp,
		},
		Transport: Transport{
			FadeOut:       t.FadeOut,
			Tick:          t.Tick,
			MeterInterval: t.MeterInterval,
		},
		Meter: Meter{
			FloorDB:   g.MeterFloorDB,
			CeilingDB: g.MeterCeilingDB,
			Smoothing: g.MeterSmoothing,
		},
		Limits:        layer.DefaultLimits(),
		SoloExclusive: t.SoloExclusive,
	}
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return Parse(data)
}

// Parse decodes data over Default and validates the result. Unknown keys
// are rejected. Empty input yields the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Encode writes cfg as YAML.
func (c Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	return enc.Close()
}

// Validate checks every section.
func (c Config) Validate() error {
	var errs []error

	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be in [8000, 192000]: %f", c.Audio.SampleRate))
	}

	if c.Audio.BlockSize < 16 || c.Audio.BlockSize > 8192 {
		errs = append(errs, fmt.Errorf("block_size must be in [16, 8192]: %d", c.Audio.BlockSize))
	}

	if !c.Master.GainRange.Contains(c.Master.GainDB) {
		errs = append(errs, fmt.Errorf("master gain_db must be in [%f, %f]: %f",
			c.Master.GainRange.Min, c.Master.GainRange.Max, c.Master.GainDB))
	}

	if c.Master.LimiterThresholdDB > 0 {
		errs = append(errs, fmt.Errorf("limiter_threshold_db must be <= 0: %f", c.Master.LimiterThresholdDB))
	}

	if c.Master.ReverbDecay <= 0 || c.Master.ReverbPreDelay < 0 {
		errs = append(errs, fmt.Errorf("reverb decay must be > 0 and pre-delay >= 0: %s, %s",
			c.Master.ReverbDecay, c.Master.ReverbPreDelay))
	}

	if c.Master.FilterCutoffHz <= 0 || c.Master.FilterCutoffHz >= c.Audio.SampleRate/2 {
		errs = append(errs, fmt.Errorf("filter_cutoff_hz must be in (0, %f): %f",
			c.Audio.SampleRate/2, c.Master.FilterCutoffHz))
	}

	if c.Transport.FadeOut <= 0 || c.Transport.Tick <= 0 {
		errs = append(errs, fmt.Errorf("fade_out and tick must be > 0: %s, %s",
			c.Transport.FadeOut, c.Transport.Tick))
	}

	if c.Transport.MeterInterval < 50*time.Millisecond || c.Transport.MeterInterval > 100*time.Millisecond {
		errs = append(errs, fmt.Errorf("meter_interval must be in [50ms, 100ms]: %s", c.Transport.MeterInterval))
	}

	if c.Meter.Smoothing < 0 || c.Meter.Smoothing >= 1 {
		errs = append(errs, fmt.Errorf("meter smoothing must be in [0, 1): %f", c.Meter.Smoothing))
	}

	if err := c.Graph().Validate(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}

// Graph returns the graph manager settings.
func (c Config) Graph() graph.Config {
	g := graph.DefaultConfig()

	g.MasterGainDB = c.Master.GainDB
	g.MasterGainRange = c.Master.GainRange
	g.LimiterThresholdDB = c.Master.LimiterThresholdDB
	g.ReverbSendDB = c.Master.ReverbSendDB
	g.ReverbDecay = c.Master.ReverbDecay
	g.ReverbPreDelay = c.Master.ReverbPreDelay
	g.FilterCutoffHz = c.Master.FilterCutoffHz
	g.AmplitudeRamp = c.Ramps.Amplitude
	g.FrequencyRamp = c.Ramps.Frequency
	g.MasterRamp = c.Ramps.Master
	g.MeterFloorDB = c.Meter.FloorDB
	g.MeterCeilingDB = c.Meter.CeilingDB
	g.MeterSmoothing = c.Meter.Smoothing
	g.Limits = c.Limits

	return g
}

// TransportConfig returns the transport timings.
func (c Config) TransportConfig() transport.Config {
	return transport.Config{
		FadeOut:       c.Transport.FadeOut,
		Tick:          c.Transport.Tick,
		MeterInterval: c.Transport.MeterInterval,
		MeterFloorDB:  c.Meter.FloorDB,
		SoloExclusive: c.SoloExclusive,
	}
}

// AudioOptions returns the context options for sample rate and block size.
func (c Config) AudioOptions() []audio.Option {
	return []audio.Option{
		audio.WithSampleRate(c.Audio.SampleRate),
		audio.WithBlockSize(c.Audio.BlockSize),
	}
}
