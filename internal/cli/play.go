package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-entrain/audio/device"
	"github.com/cwbudde/algo-entrain/internal/clock"
	"github.com/cwbudde/algo-entrain/transport"
)

// PlayOptions holds the play command flags.
type PlayOptions struct {
	Preset  string
	Minutes int
	GainDB  float64
	Quiet   bool
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a preset through the default audio device",
		Long: `Play a preset until the session length elapses or the process is
interrupted. Interrupting fades the output out before exiting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			return runPlay(ctx, rootOpts, opts, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.Preset, "preset", "p", "alpha-focus", "preset id")
	cmd.Flags().IntVarP(&opts.Minutes, "minutes", "m", 0, "session length in minutes, 0 for none")
	cmd.Flags().Float64Var(&opts.GainDB, "gain", 0, "master gain in dB, 0 keeps the configured level")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "do not draw the level meter")

	return cmd
}

func runPlay(ctx context.Context, rootOpts *RootOptions, opts *PlayOptions, stderr io.Writer) error {
	p, err := rootOpts.preset(opts.Preset)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stopped := make(chan struct{}, 1)
	observe := func(ev transport.Event) {
		if ev == transport.EventStopped {
			select {
			case stopped <- struct{}{}:
			default:
			}
		}
	}

	e, err := rootOpts.newEngine(ctx, clock.Wall{}, device.NewOto(), observe)
	if err != nil {
		return err
	}
	defer e.close()

	e.load(p, opts.Minutes)

	if opts.GainDB != 0 {
		e.session.SetMasterGain(opts.GainDB)
	}

	e.session.Start(ctx)

	if !e.session.AudioState().IsPlaying {
		return fmt.Errorf("play: transport did not start")
	}

	fmt.Fprintf(stderr, "%s %s\n", titleStyle.Render(p.ID), dimStyle.Render(p.Name))

	refresh := time.NewTicker(100 * time.Millisecond)
	defer refresh.Stop()

	meter := rootOpts.cfg.Meter

	for {
		select {
		case <-ctx.Done():
			e.session.Stop()

			select {
			case <-stopped:
			case <-time.After(rootOpts.cfg.Transport.FadeOut + 500*time.Millisecond):
			}

			fmt.Fprintln(stderr)

			return nil
		case <-stopped:
			fmt.Fprintln(stderr)
			return nil
		case <-refresh.C:
			if opts.Quiet {
				continue
			}

			line := statusLine(e.session.AudioState(), e.session.MeterData(), meter.FloorDB, meter.CeilingDB)
			fmt.Fprintf(stderr, "\r%s", line)
		}
	}
}
