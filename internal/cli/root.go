// Package cli implements the entrain command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-entrain/internal/config"
	"github.com/cwbudde/algo-entrain/layer"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath  string
	PresetsPath string
	Verbose     bool

	cfg    config.Config
	logger *slog.Logger
}

// NewRootCommand creates the root command for the entrain CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "entrain",
		Short: "Brainwave entrainment synthesizer",
		Long: `Layered binaural, isochronic and monaural beat synthesis.

Presets can be listed, rendered offline to raw PCM or played through the
default audio device.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.PresetsPath, "presets", "", "YAML file with additional presets")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(NewPresetsCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

func (o *RootOptions) load(stderr io.Writer) error {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}

	o.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	o.cfg = config.Default()
	if o.ConfigPath == "" {
		return nil
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}

	o.cfg = cfg

	return nil
}

// presets returns the presets from --presets followed by the built-in
// ones.
func (o *RootOptions) presets() ([]layer.Preset, error) {
	builtIn := layer.BuiltIn()
	if o.PresetsPath == "" {
		return builtIn, nil
	}

	f, err := os.Open(o.PresetsPath)
	if err != nil {
		return nil, fmt.Errorf("presets: %w", err)
	}
	defer f.Close()

	extra, err := layer.DecodePresets(f, o.cfg.Limits)
	if err != nil {
		return nil, err
	}

	return append(extra, builtIn...), nil
}

func (o *RootOptions) preset(id string) (layer.Preset, error) {
	all, err := o.presets()
	if err != nil {
		return layer.Preset{}, err
	}

	return layer.Lookup(all, id)
}
