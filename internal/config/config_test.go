package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-entrain/graph"
	"github.com/cwbudde/algo-entrain/transport"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, graph.DefaultConfig(), cfg.Graph())
	assert.Equal(t, transport.DefaultConfig(), cfg.TransportConfig())
}

func TestParseEmptyYieldsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseMergesOverDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
audio:
  sample_rate: 44100
master:
  gain_db: -24
  reverb_decay: 2s
transport:
  meter_interval: 80ms
limits:
  beat_hz: {min: 1, max: 30}
solo_exclusive: true
`))
	require.NoError(t, err)

	assert.Equal(t, 44100.0, cfg.Audio.SampleRate)
	assert.Equal(t, 256, cfg.Audio.BlockSize)
	assert.Equal(t, -24.0, cfg.Master.GainDB)
	assert.Equal(t, 2*time.Second, cfg.Master.ReverbDecay)
	assert.Equal(t, 10*time.Millisecond, cfg.Master.ReverbPreDelay)
	assert.Equal(t, 80*time.Millisecond, cfg.Transport.MeterInterval)
	assert.Equal(t, 30.0, cfg.Limits.BeatHz.Max)
	assert.Equal(t, -48.0, cfg.Limits.GainDB.Min)

	assert.True(t, cfg.TransportConfig().SoloExclusive)
	assert.Equal(t, 2*time.Second, cfg.Graph().ReverbDecay)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":         "master:\n  volume: 3\n",
		"meter too fast":      "transport:\n  meter_interval: 10ms\n",
		"meter too slow":      "transport:\n  meter_interval: 200ms\n",
		"master out of range": "master:\n  gain_db: 0\n",
		"inverted limits":     "limits:\n  pan: {min: 1, max: -1}\n",
		"block size":          "audio:\n  block_size: 4\n",
		"smoothing":           "meter:\n  smoothing: 1\n",
		"cutoff":              "master:\n  filter_cutoff_hz: 30000\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestValidationErrorsWrapErrInvalid(t *testing.T) {
	_, err := Parse([]byte("transport:\n  meter_interval: 1s\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "meter_interval")
}

func TestLoadAndEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Master.GainDB = -30
	cfg.Ramps.Frequency = 350 * time.Millisecond

	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))
	assert.Contains(t, buf.String(), "frequency: 350ms")

	path := filepath.Join(t.TempDir(), "entrain.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}
