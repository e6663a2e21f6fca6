package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-entrain/layer"
)

// NewPresetsCommand creates the presets command.
func NewPresetsCommand(rootOpts *RootOptions) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := rootOpts.presets()
			if err != nil {
				return err
			}

			if asYAML {
				return layer.EncodePresets(cmd.OutOrStdout(), presets)
			}

			return printPresets(cmd.OutOrStdout(), presets)
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the presets as a YAML preset file")

	return cmd
}

func printPresets(w io.Writer, presets []layer.Preset) error {
	for _, p := range presets {
		if _, err := fmt.Fprintf(w, "%s  %s\n", titleStyle.Render(p.ID), labelStyle.Render(p.Name)); err != nil {
			return err
		}

		if p.Description != "" {
			fmt.Fprintf(w, "  %s\n", dimStyle.Render(p.Description))
		}

		for _, l := range p.Layers {
			fmt.Fprintf(w, "  - %s\n", describeLayer(l))
		}
	}

	return nil
}

func describeLayer(p layer.Params) string {
	var sb strings.Builder

	switch p.Type {
	case layer.Binaural:
		fmt.Fprintf(&sb, "%-10s L %.0f Hz / R %.0f Hz", p.Type, p.CarrierLeft, p.CarrierRight)
	default:
		fmt.Fprintf(&sb, "%-10s %.0f Hz", p.Type, p.Carrier)
	}

	fmt.Fprintf(&sb, ", beat %.1f Hz, %s, %.0f dB", p.BeatHz, p.Waveform, p.GainDB)

	if p.LFO.Enabled {
		fmt.Fprintf(&sb, ", lfo %.2f Hz %.0f%% %s", p.LFO.RateHz, p.LFO.Depth, p.LFO.Target)
	}

	return sb.String()
}
