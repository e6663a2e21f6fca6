// Package transport drives playback of a graph: start, stop with a fade,
// the elapsed-time ticker, the session auto-stop and the meter sampler.
//
// A Controller is not safe for concurrent use. Its methods must be called
// while holding the locker passed with WithLocker (or from one goroutine
// when none is given); its timer callbacks acquire that same locker.
package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cwbudde/algo-entrain/graph"
	"github.com/cwbudde/algo-entrain/internal/clock"
	"github.com/cwbudde/algo-entrain/layer"
)

// State is the playback state.
type State int

const (
	Stopped State = iota
	Playing
	// FadingOut follows a stop until the fade completes. It reports as not
	// playing.
	FadingOut
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case FadingOut:
		return "fading-out"
	default:
		return "unknown"
	}
}

// Event tells an observer what changed.
type Event int

const (
	EventStarted Event = iota
	EventTick
	EventFadeStarted
	EventStopped
	EventMeter
)

// Graph is the part of graph.Manager the controller drives.
type Graph interface {
	Initialize(ctx context.Context) error
	Initialized() bool
	StartLayer(id string)
	StopLayer(id string)
	FadeOutLayer(id string, d time.Duration)
	RestoreLayer(id string)
	GetMeterData() graph.MeterData
	ResetMeter()
}

var _ Graph = (*graph.Manager)(nil)

// Config holds the transport timings.
type Config struct {
	FadeOut       time.Duration
	Tick          time.Duration
	MeterInterval time.Duration
	MeterFloorDB  float64
	// SoloExclusive silences every non-soloed layer while any layer is
	// soloed. When false the solo flag is stored only.
	SoloExclusive bool
}

// DefaultConfig returns the stock timings.
func DefaultConfig() Config {
	return Config{
		FadeOut:       time.Second,
		Tick:          time.Second,
		MeterInterval: 50 * time.Millisecond,
		MeterFloorDB:  -60,
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithConfig replaces the default timings.
func WithConfig(cfg Config) Option {
	return func(c *Controller) { c.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithLocker serializes timer callbacks with the caller's lock.
func WithLocker(l sync.Locker) Option {
	return func(c *Controller) { c.locker = l }
}

// WithObserver registers a callback run after every transport event. It
// runs with the controller's locker held.
func WithObserver(f func(Event)) Option {
	return func(c *Controller) { c.observe = f }
}

// Controller is the playback state machine.
type Controller struct {
	graph   Graph
	layers  func() []layer.Params
	clock   clock.Clock
	locker  sync.Locker
	cfg     Config
	log     *slog.Logger
	observe func(Event)

	state         State
	elapsed       time.Duration
	sessionLength time.Duration
	meter         graph.MeterData

	ticker  clock.Timer
	sampler clock.Timer
	reset   clock.Timer
}

// New creates a stopped Controller. layers returns the current layer set
// in order; clk drives every timer.
func New(g Graph, layers func() []layer.Params, clk clock.Clock, opts ...Option) *Controller {
	c := &Controller{
		graph:  g,
		layers: layers,
		cfg:    DefaultConfig(),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.locker == nil {
		c.locker = &sync.Mutex{}
	}

	c.clock = clock.NewSerialized(clk, c.locker)
	c.meter = graph.SilentMeter(c.cfg.MeterFloorDB)

	return c
}

// State returns the playback state.
func (c *Controller) State() State { return c.state }

// IsPlaying reports whether the transport is playing. It is false while
// fading out.
func (c *Controller) IsPlaying() bool { return c.state == Playing }

// Elapsed returns the time since the last start, in whole ticks.
func (c *Controller) Elapsed() time.Duration { return c.elapsed }

// SessionLength returns the auto-stop length; zero means none.
func (c *Controller) SessionLength() time.Duration { return c.sessionLength }

// SetSessionLength sets the auto-stop length; zero or negative disables
// it. While playing the new length is checked at the next tick.
func (c *Controller) SetSessionLength(d time.Duration) {
	if d < 0 {
		d = 0
	}

	c.sessionLength = d
}

// Meter returns the last sampled meter reading.
func (c *Controller) Meter() graph.MeterData { return c.meter }

// Audible reports whether p should sound given the solo state of the set.
func Audible(p layer.Params, anySolo, soloExclusive bool) bool {
	if p.Muted {
		return false
	}

	if soloExclusive && anySolo {
		return p.Solo
	}

	return true
}

func anySolo(layers []layer.Params) bool {
	for _, p := range layers {
		if p.Solo {
			return true
		}
	}

	return false
}

// Start starts every audible layer, resets the elapsed time and starts the
// ticker and the meter sampler. It initializes the graph if needed; a
// failed initialization is logged and leaves the transport stopped.
// Starting while fading out cancels the fade and starts over.
func (c *Controller) Start(ctx context.Context) {
	if c.state == Playing {
		return
	}

	if !c.graph.Initialized() {
		if err := c.graph.Initialize(ctx); err != nil {
			c.log.Error("transport: start: initialize failed", "error", err)
			return
		}
	}

	layers := c.layers()

	if c.state == FadingOut {
		stopTimer(&c.reset)

		for _, p := range layers {
			c.graph.StopLayer(p.ID)
			c.graph.RestoreLayer(p.ID)
		}
	}

	solo := anySolo(layers)
	for _, p := range layers {
		if Audible(p, solo, c.cfg.SoloExclusive) {
			c.graph.StartLayer(p.ID)
		}
	}

	c.state = Playing
	c.elapsed = 0

	stopTimer(&c.ticker)
	c.ticker = c.clock.Every(c.cfg.Tick, c.tick)

	stopTimer(&c.sampler)
	c.sampler = c.clock.Every(c.cfg.MeterInterval, c.sampleMeter)

	c.log.Info("transport: started", "layers", len(layers), "session_length", c.sessionLength)
	c.notify(EventStarted)
}

// Stop begins the fade-out: playing turns false at once, the ticker stops
// and every layer ramps to silence. When the fade completes the layers are
// stopped, their gains restored, the sampler cancelled and the meter reset
// to the floor. Stop while not playing, including during a fade, is a
// no-op.
func (c *Controller) Stop() {
	if c.state != Playing {
		return
	}

	c.beginFade("stop")
}

func (c *Controller) beginFade(reason string) {
	c.state = FadingOut
	stopTimer(&c.ticker)

	for _, p := range c.layers() {
		c.graph.FadeOutLayer(p.ID, c.cfg.FadeOut)
	}

	c.reset = c.clock.AfterFunc(c.cfg.FadeOut, c.finishFade)

	c.log.Info("transport: fading out", "reason", reason, "elapsed", c.elapsed)
	c.notify(EventFadeStarted)
}

func (c *Controller) finishFade() {
	if c.state != FadingOut {
		return
	}

	c.reset = nil

	for _, p := range c.layers() {
		c.graph.StopLayer(p.ID)
		c.graph.RestoreLayer(p.ID)
	}

	stopTimer(&c.sampler)
	c.graph.ResetMeter()
	c.meter = graph.SilentMeter(c.cfg.MeterFloorDB)
	c.state = Stopped

	c.log.Info("transport: stopped")
	c.notify(EventStopped)
}

// Halt stops every layer immediately without a fade and cancels all
// timers.
func (c *Controller) Halt() {
	stopTimer(&c.ticker)
	stopTimer(&c.sampler)
	stopTimer(&c.reset)

	for _, p := range c.layers() {
		c.graph.StopLayer(p.ID)
		c.graph.RestoreLayer(p.ID)
	}

	wasRunning := c.state != Stopped
	c.state = Stopped
	c.meter = graph.SilentMeter(c.cfg.MeterFloorDB)

	if wasRunning {
		c.graph.ResetMeter()
		c.notify(EventStopped)
	}
}

// SyncLayer starts or stops layer p immediately, without a fade, to match
// its audibility. It does nothing unless playing.
func (c *Controller) SyncLayer(p layer.Params) {
	if c.state != Playing {
		return
	}

	if Audible(p, anySolo(c.layers()), c.cfg.SoloExclusive) {
		c.graph.StartLayer(p.ID)
	} else {
		c.graph.StopLayer(p.ID)
	}
}

// SyncAll applies SyncLayer to every layer.
func (c *Controller) SyncAll() {
	if c.state != Playing {
		return
	}

	layers := c.layers()
	solo := anySolo(layers)

	for _, p := range layers {
		if Audible(p, solo, c.cfg.SoloExclusive) {
			c.graph.StartLayer(p.ID)
		} else {
			c.graph.StopLayer(p.ID)
		}
	}
}

func (c *Controller) tick() {
	if c.state != Playing {
		return
	}

	c.elapsed += c.cfg.Tick
	c.notify(EventTick)

	if c.sessionLength > 0 && c.elapsed >= c.sessionLength {
		c.log.Info("transport: session complete", "length", c.sessionLength)
		c.beginFade("session")
	}
}

func (c *Controller) sampleMeter() {
	c.meter = c.graph.GetMeterData()
	c.notify(EventMeter)
}

// Close cancels every timer without touching the graph.
func (c *Controller) Close() {
	stopTimer(&c.ticker)
	stopTimer(&c.sampler)
	stopTimer(&c.reset)
	c.state = Stopped
}

func (c *Controller) notify(e Event) {
	if c.observe != nil {
		c.observe(e)
	}
}

func stopTimer(t *clock.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
