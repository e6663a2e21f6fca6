package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cwbudde/algo-entrain/audio"
	"github.com/cwbudde/algo-entrain/dsp/core"
	"github.com/cwbudde/algo-entrain/layer"
)

// ErrNotInitialized is logged when a layer is added before Initialize.
var ErrNotInitialized = errors.New("graph: manager not initialized")

// MeterData is a display-ready level snapshot in dB. All four fields come
// from one mono RMS reading of the master bus; they are not independent
// channel or peak measurements.
type MeterData struct {
	RMS   float64 `json:"rms"`
	Peak  float64 `json:"peak"`
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// SilentMeter returns MeterData with every field at floor.
func SilentMeter(floor float64) MeterData {
	return MeterData{RMS: floor, Peak: floor, Left: floor, Right: floor}
}

// levelReader is the part of the master meter the manager reads.
type levelReader interface {
	Value() (float64, error)
}

type masterBus struct {
	gain       *audio.Gain
	limiter    *audio.Limiter
	meter      *audio.Meter
	reverbSend *audio.Gain
	reverb     *audio.Reverb

	level levelReader
}

func (b *masterBus) nodes() []audio.Node {
	return []audio.Node{b.gain, b.limiter, b.meter, b.reverbSend, b.reverb}
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// Manager owns the master bus and the layer registry.
type Manager struct {
	ctx *audio.Context
	cfg Config
	log *slog.Logger

	master       *masterBus
	masterGainDB float64
	initialized  bool
	disposed     bool

	layers map[string]*LayerGraph
	order  []string
}

// New creates a Manager rendering into ctx. Nothing is built until
// Initialize.
func New(ctx *audio.Context, opts ...Option) *Manager {
	m := &Manager{
		ctx:    ctx,
		cfg:    DefaultConfig(),
		log:    slog.Default(),
		layers: make(map[string]*LayerGraph),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.masterGainDB = m.cfg.MasterGainRange.Clamp(m.cfg.MasterGainDB)

	return m
}

// Config returns the configuration.
func (m *Manager) Config() Config { return m.cfg }

// Context returns the audio context.
func (m *Manager) Context() *audio.Context { return m.ctx }

// Initialized reports whether Initialize has succeeded.
func (m *Manager) Initialized() bool { return m.initialized }

// Initialize builds the master bus, begins audio and generates the reverb
// impulse. Only the first successful call does work. On failure the
// manager stays uninitialized and a later call retries.
func (m *Manager) Initialize(ctx context.Context) error {
	if m.disposed {
		return fmt.Errorf("graph: initialize: %w", audio.ErrClosed)
	}

	if m.initialized {
		return nil
	}

	if m.master == nil {
		bus, err := m.buildMaster()
		if err != nil {
			m.log.Error("graph: build master bus failed", "error", err)
			return err
		}

		m.master = bus
	}

	if err := m.ctx.Begin(ctx); err != nil {
		m.log.Error("graph: audio start failed", "error", err)
		return err
	}

	if err := m.master.reverb.Generate(); err != nil {
		m.log.Error("graph: reverb impulse failed", "error", err)
		return err
	}

	m.initialized = true
	m.log.Info("graph: initialized",
		"sample_rate", m.ctx.SampleRate(),
		"master_gain_db", m.masterGainDB,
		"reverb_decay", m.cfg.ReverbDecay,
	)

	return nil
}

func (m *Manager) buildMaster() (*masterBus, error) {
	c := m.ctx
	b := &builder{ctx: c}
	bus := &masterBus{}

	bus.gain = b.gain(core.DBToLinear(m.masterGainDB))

	limiter, err := c.NewLimiter(m.cfg.LimiterThresholdDB)
	b.track(limiter, err)
	bus.limiter = limiter

	meter, err := c.NewMeter(m.cfg.MeterSmoothing)
	b.track(meter, err)
	bus.meter = meter

	bus.reverbSend = b.gain(core.DBToLinear(m.cfg.ReverbSendDB))

	rev, err := c.NewReverb(m.cfg.ReverbDecay, m.cfg.ReverbPreDelay)
	b.track(rev, err)
	bus.reverb = rev

	if b.err == nil {
		dest := c.Destination()
		b.connect(bus.gain, bus.limiter)
		b.connect(bus.limiter, bus.meter)
		b.connect(bus.meter, dest)
		b.connect(bus.reverbSend, bus.reverb)
		b.connect(bus.reverb, dest)
	}

	if b.err != nil {
		b.release()
		return nil, fmt.Errorf("graph: master bus: %w", b.err)
	}

	bus.level = bus.meter

	return bus, nil
}

// AddLayer builds and registers the graph of p, then applies every
// parameter of p. It returns nil, false when the manager is not
// initialized or the build fails; failures are logged.
func (m *Manager) AddLayer(p layer.Params) (*LayerGraph, bool) {
	if !m.initialized || m.disposed {
		m.log.Error("graph: add layer", "id", p.ID, "error", ErrNotInitialized)
		return nil, false
	}

	p = m.cfg.Limits.Normalize(p)

	if _, dup := m.layers[p.ID]; dup {
		m.log.Error("graph: add layer: duplicate id", "id", p.ID)
		return nil, false
	}

	g, err := newLayerGraph(m.ctx, p, m.cfg)
	if err != nil {
		m.log.Error("graph: add layer", "id", p.ID, "type", p.Type, "error", err)
		return nil, false
	}

	if err := errors.Join(
		g.Output().Connect(m.master.gain),
		g.Output().Connect(m.master.reverbSend),
	); err != nil {
		g.release()
		m.log.Error("graph: add layer: connect", "id", p.ID, "error", err)

		return nil, false
	}

	// Registered before parameters are applied, so the layer is reachable
	// through the registry from the first update on.
	m.layers[p.ID] = g
	m.order = append(m.order, p.ID)

	if err := g.apply(layer.Full(p), m.cfg); err != nil {
		m.log.Error("graph: add layer: apply", "id", p.ID, "error", err)
	}

	m.log.Debug("graph: layer added", "id", p.ID, "type", p.Type)

	return g, true
}

// UpdateLayerNodes applies the supplied fields of patch to layer id.
// Unknown ids are ignored.
func (m *Manager) UpdateLayerNodes(id string, patch layer.Patch) {
	g, ok := m.layers[id]
	if !ok || patch.Empty() {
		return
	}

	if err := g.apply(m.cfg.Limits.NormalizePatch(patch), m.cfg); err != nil {
		m.log.Error("graph: update layer", "id", id, "error", err)
	}
}

// StartLayer starts the sources of layer id. Idempotent.
func (m *Manager) StartLayer(id string) {
	if g, ok := m.layers[id]; ok {
		g.start()
	}
}

// StopLayer stops the sources of layer id. Idempotent.
func (m *Manager) StopLayer(id string) {
	if g, ok := m.layers[id]; ok {
		g.stop()
	}
}

// FadeOutLayer ramps the gain of layer id to silence over d. Gain updates
// are held back until RestoreLayer.
func (m *Manager) FadeOutLayer(id string, d time.Duration) {
	if g, ok := m.layers[id]; ok {
		g.fadeOut(d)
	}
}

// RestoreLayer sets the gain of layer id back to its configured level
// immediately.
func (m *Manager) RestoreLayer(id string) {
	if g, ok := m.layers[id]; ok {
		g.restore()
	}
}

// RemoveLayer stops and releases layer id. Removing an unknown id is a
// no-op.
func (m *Manager) RemoveLayer(id string) {
	g, ok := m.layers[id]
	if !ok {
		return
	}

	g.release()
	delete(m.layers, id)

	for i, x := range m.order {
		if x == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	m.log.Debug("graph: layer removed", "id", id)
}

// Layer returns the graph of layer id.
func (m *Manager) Layer(id string) (*LayerGraph, bool) {
	g, ok := m.layers[id]
	return g, ok
}

// LayerIDs returns the registered ids in insertion order.
func (m *Manager) LayerIDs() []string {
	return append([]string(nil), m.order...)
}

// Len returns the number of registered layers.
func (m *Manager) Len() int { return len(m.layers) }

// SetMasterGain ramps the master gain to db, clamped to the master range.
func (m *Manager) SetMasterGain(db float64) {
	if math.IsNaN(db) {
		m.log.Error("graph: set master gain: not a number")
		return
	}

	m.masterGainDB = m.cfg.MasterGainRange.Clamp(db)
	if m.master == nil {
		return
	}

	m.master.gain.Gain().RampTo(core.DBToLinear(m.masterGainDB), m.cfg.MasterRamp)
}

// MasterGainDB returns the master gain target in dB.
func (m *Manager) MasterGainDB() float64 { return m.masterGainDB }

// MasterConnections counts the inputs into the master gain and the reverb
// send. Each registered layer contributes two.
func (m *Manager) MasterConnections() int {
	if m.master == nil {
		return 0
	}

	return m.master.gain.NumInputs() + m.master.reverbSend.NumInputs()
}

// GetMeterData reads the master meter. Failures and non-finite readings
// become the floor; the result is clamped to [floor, ceiling].
func (m *Manager) GetMeterData() MeterData {
	floor := m.cfg.MeterFloorDB
	if m.master == nil || m.master.level == nil {
		return SilentMeter(floor)
	}

	db, err := m.master.level.Value()
	if err != nil {
		m.log.Debug("graph: meter read failed", "error", err)
		return SilentMeter(floor)
	}

	if !core.IsFinite(db) {
		db = floor
	}

	db = core.Clamp(db, floor, m.cfg.MeterCeilingDB)

	return MeterData{RMS: db, Peak: db, Left: db, Right: db}
}

// ResetMeter clears the master meter history.
func (m *Manager) ResetMeter() {
	if m.master != nil {
		m.master.meter.Reset()
	}
}

// Dispose releases every layer and the master bus. The manager must not
// be used afterwards; repeated calls are no-ops.
func (m *Manager) Dispose() {
	if m.disposed {
		return
	}

	for _, id := range m.LayerIDs() {
		m.RemoveLayer(id)
	}

	if m.master != nil {
		for _, n := range m.master.nodes() {
			n.Dispose()
		}
	}

	m.disposed = true
	m.initialized = false
	m.log.Info("graph: disposed")
}
