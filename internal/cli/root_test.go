package cli

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-entrain/internal/config"
	"github.com/cwbudde/algo-entrain/layer"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"presets", "render", "play", "config"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("presets"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func TestPresetsListsBuiltIns(t *testing.T) {
	out, err := execute(t, "presets")
	require.NoError(t, err)

	for _, p := range layer.BuiltIn() {
		assert.Contains(t, out, p.ID)
	}

	assert.Contains(t, out, "binaural")
	assert.Contains(t, out, "L 200 Hz / R 210 Hz")
}

func TestPresetsYAMLRoundTrips(t *testing.T) {
	out, err := execute(t, "presets", "--yaml")
	require.NoError(t, err)

	presets, err := layer.DecodePresets(bytes.NewBufferString(out), layer.DefaultLimits())
	require.NoError(t, err)
	assert.Len(t, presets, len(layer.BuiltIn()))
}

func TestPresetsFileIsMerged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  - id: custom
    name: Custom
    layers:
      - type: isochronic
        carrier: 300
        beat_hz: 6
`), 0o600))

	out, err := execute(t, "--presets", path, "presets")
	require.NoError(t, err)
	assert.Contains(t, out, "custom")
	assert.Contains(t, out, "alpha-focus")
}

func TestConfigPrintsEffectiveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entrain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("master:\n  gain_db: -30\n"), 0o600))

	out, err := execute(t, "-c", path, "config")
	require.NoError(t, err)

	cfg, err := config.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, -30.0, cfg.Master.GainDB)
}

func TestInvalidConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entrain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transport:\n  meter_interval: 5s\n"), 0o600))

	_, err := execute(t, "-c", path, "presets")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRenderUnknownPreset(t *testing.T) {
	_, err := execute(t, "render", "-p", "nope", "-o", filepath.Join(t.TempDir(), "x.pcm"))
	assert.ErrorIs(t, err, layer.ErrUnknownPreset)
}

func TestRenderWritesPCMThroughFade(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "entrain.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("audio:\n  sample_rate: 16000\n"), 0o600))

	outPath := filepath.Join(dir, "out.pcm")
	_, err := execute(t, "-c", cfgPath, "render", "-p", "alpha-focus", "-d", "1s", "-o", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Zero(t, len(data)%4, "whole stereo s16 frames")

	// One second of playback plus the one second fade.
	frames := len(data) / 4
	assert.InDelta(t, 2*16000, frames, 3*256)

	var peak int
	for i := 0; i+1 < len(data); i += 2 {
		v := int(int16(binary.LittleEndian.Uint16(data[i:])))
		peak = max(peak, v, -v)
	}

	assert.Positive(t, peak, "render must not be silent")
}

func TestMeterBar(t *testing.T) {
	tests := []struct {
		db   float64
		full int
	}{
		{db: math.Inf(-1), full: 0},
		{db: -60, full: 0},
		{db: -30, full: 5},
		{db: 0, full: 10},
		{db: 12, full: 10},
	}

	for _, tt := range tests {
		bar := meterBar(tt.db, -60, 0, 10)
		assert.Equal(t, 10, lipgloss.Width(bar))
		assert.Equal(t, tt.full, strings.Count(bar, "█"), "db=%g", tt.db)
	}
}
