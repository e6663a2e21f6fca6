package cli

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-entrain/audio"
	"github.com/cwbudde/algo-entrain/graph"
	"github.com/cwbudde/algo-entrain/internal/clock"
	"github.com/cwbudde/algo-entrain/layer"
	"github.com/cwbudde/algo-entrain/session"
	"github.com/cwbudde/algo-entrain/transport"
)

// engine bundles one audio context with the session controlling it.
type engine struct {
	ctx     *audio.Context
	session *session.Session
}

func (o *RootOptions) newEngine(ctx context.Context, clk clock.Clock, sink audio.Sink,
	observe func(transport.Event),
) (*engine, error) {
	audioOpts := append(o.cfg.AudioOptions(), audio.WithLogger(o.logger))
	if sink != nil {
		audioOpts = append(audioOpts, audio.WithSink(sink))
	}

	actx, err := audio.NewContext(audioOpts...)
	if err != nil {
		return nil, err
	}

	g := graph.New(actx, graph.WithConfig(o.cfg.Graph()), graph.WithLogger(o.logger))

	s := session.New(g, clk,
		session.WithLogger(o.logger),
		session.WithTransportConfig(o.cfg.TransportConfig()),
		session.WithObserver(observe),
	)

	if err := s.Initialize(ctx); err != nil {
		s.Close()
		_ = actx.Close()

		return nil, fmt.Errorf("initialize: %w", err)
	}

	return &engine{ctx: actx, session: s}, nil
}

// load replaces the session layers with the preset and sets the session
// length.
func (e *engine) load(p layer.Preset, minutes int) {
	e.session.LoadPreset(p.Layers)
	e.session.SetSessionLength(minutes)
}

func (e *engine) close() error {
	e.session.Close()
	return e.ctx.Close()
}
