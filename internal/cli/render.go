package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-entrain/internal/clock"
	"github.com/cwbudde/algo-entrain/transport"
)

// RenderOptions holds the render command flags.
type RenderOptions struct {
	Preset   string
	Output   string
	Minutes  int
	Duration time.Duration
	Rate     float64
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a preset offline to raw PCM",
		Long: `Render a preset faster than real time. The session timer and the
fade-out run on a simulated clock, so the output matches what play would
produce. The result is interleaved stereo signed 16-bit little-endian PCM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), rootOpts, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.Preset, "preset", "p", "alpha-focus", "preset id")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().IntVarP(&opts.Minutes, "minutes", "m", 0, "session length in minutes, 0 for none")
	cmd.Flags().DurationVarP(&opts.Duration, "duration", "d", 30*time.Second,
		"stop after this long when no session length is set")
	cmd.Flags().Float64Var(&opts.Rate, "rate", 0, "output sample rate in Hz, 0 for the engine rate")

	return cmd
}

func runRender(ctx context.Context, rootOpts *RootOptions, opts *RenderOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	p, err := rootOpts.preset(opts.Preset)
	if err != nil {
		return err
	}

	limit := opts.Duration
	if opts.Minutes > 0 {
		limit = time.Duration(opts.Minutes) * time.Minute
	}

	if limit <= 0 {
		return fmt.Errorf("render: duration must be > 0: %s", limit)
	}

	out := stdout
	if opts.Output != "-" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		defer f.Close()

		out = f
	}

	clk := clock.NewManual(time.Unix(0, 0))

	e, err := rootOpts.newEngine(ctx, clk, nil, nil)
	if err != nil {
		return err
	}
	defer e.close()

	tap, err := e.ctx.NewTap(opts.Rate)
	if err != nil {
		return err
	}

	copied := make(chan error, 1)
	go func() {
		_, err := io.Copy(out, tap)
		copied <- err
	}()

	e.load(p, opts.Minutes)
	e.session.Start(ctx)

	rootOpts.logger.Info("render: started", "preset", p.ID, "limit", limit, "rate", tap.SampleRate())

	renderErr := renderUntilStopped(ctx, e, clk, limit)

	_ = tap.Close()

	if err := <-copied; err != nil {
		return fmt.Errorf("render: write: %w", err)
	}

	if n := tap.Dropped(); n > 0 && renderErr == nil {
		return fmt.Errorf("render: output fell behind, %d frames dropped", n)
	}

	return renderErr
}

// renderUntilStopped advances the clock in step with the rendered frames.
// Once limit is reached the session is stopped and rendering continues
// through the fade.
func renderUntilStopped(ctx context.Context, e *engine, clk *clock.Manual, limit time.Duration) error {
	var now time.Duration

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		t := e.ctx.CurrentTime()
		clk.Advance(t - now)
		now = t

		switch e.session.TransportState() {
		case transport.Stopped:
			return nil
		case transport.Playing:
			if now >= limit {
				e.session.Stop()
			}
		}

		if _, _, err := e.ctx.Render(); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
}
