// Package session is the control surface of the entrainment engine. It
// keeps the caller's layer list, mirrors every edit into the graph
// manager and drives the transport. All methods are safe for concurrent
// use; timer callbacks of the transport run under the same lock.
package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/cwbudde/algo-entrain/graph"
	"github.com/cwbudde/algo-entrain/internal/clock"
	"github.com/cwbudde/algo-entrain/layer"
	"github.com/cwbudde/algo-entrain/transport"
)

// AudioState is the transport read model.
type AudioState struct {
	IsPlaying    bool
	MasterGainDB float64
	// SessionMinutes is the auto-stop length; zero means none.
	SessionMinutes int
	Elapsed        time.Duration
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger, also passed to the transport.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTransportConfig sets the transport timings.
func WithTransportConfig(cfg transport.Config) Option {
	return func(s *Session) { s.transportCfg = cfg }
}

// WithObserver registers a callback for transport events. It runs with
// the session lock held and must not call back into the Session.
func WithObserver(f func(transport.Event)) Option {
	return func(s *Session) { s.observe = f }
}

// Session owns the layer list and the transport of one graph.
type Session struct {
	mu sync.Mutex

	graph     *graph.Manager
	transport *transport.Controller
	log       *slog.Logger
	limits    layer.Limits

	transportCfg transport.Config
	observe      func(transport.Event)

	layers  []layer.Params
	minutes int
}

// New creates a Session over g with timers on clk.
func New(g *graph.Manager, clk clock.Clock, opts ...Option) *Session {
	s := &Session{
		graph:        g,
		log:          slog.Default(),
		limits:       g.Config().Limits,
		transportCfg: transport.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.transport = transport.New(g, s.snapshot, clk,
		transport.WithConfig(s.transportCfg),
		transport.WithLogger(s.log),
		transport.WithLocker(&s.mu),
		transport.WithObserver(s.notify),
	)

	return s
}

func (s *Session) snapshot() []layer.Params { return s.layers }

func (s *Session) notify(e transport.Event) {
	if s.observe != nil {
		s.observe(e)
	}
}

// Initialize initializes the graph. Failures are returned and logged;
// Start retries lazily.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.graph.Initialize(ctx)
}

// AddLayer normalizes p, adds it to the graph and the layer list, and
// starts it when playing and audible. It returns the layer id and whether
// the layer was added.
func (s *Session) AddLayer(p layer.Params) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addLayer(p)
}

func (s *Session) addLayer(p layer.Params) (string, bool) {
	p = s.limits.Normalize(p)

	if _, ok := s.graph.AddLayer(p); !ok {
		return "", false
	}

	s.layers = append(s.layers, p)
	s.transport.SyncLayer(p)

	return p.ID, true
}

// AddDefaultLayer adds the default layer of type t.
func (s *Session) AddDefaultLayer(t layer.Type) (string, bool) {
	return s.AddLayer(layer.Default(t))
}

// UpdateLayer applies the supplied fields to layer id. A mute or solo
// change takes effect immediately, as with the toggles.
func (s *Session) UpdateLayer(id string, patch layer.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return
	}

	patch = s.limits.NormalizePatch(patch)

	s.graph.UpdateLayerNodes(id, patch)
	s.layers[i] = patch.Apply(s.layers[i])

	switch {
	case patch.Solo != nil && s.transportCfg.SoloExclusive:
		s.transport.SyncAll()
	case patch.Muted != nil:
		s.transport.SyncLayer(s.layers[i])
	}
}

// RemoveLayer removes layer id from the graph and the list.
func (s *Session) RemoveLayer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return
	}

	s.graph.RemoveLayer(id)
	s.layers = slices.Delete(s.layers, i, i+1)

	if s.transportCfg.SoloExclusive {
		s.transport.SyncAll()
	}
}

// ToggleMute flips the mute flag of layer id. While playing the layer
// stops or restarts immediately, without a fade.
func (s *Session) ToggleMute(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return
	}

	s.layers[i].Muted = !s.layers[i].Muted
	s.graph.UpdateLayerNodes(id, layer.Patch{Muted: layer.Ptr(s.layers[i].Muted)})
	s.transport.SyncLayer(s.layers[i])
}

// ToggleSolo flips the solo flag of layer id. Unless solo exclusivity is
// configured this changes nothing audible.
func (s *Session) ToggleSolo(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return
	}

	s.layers[i].Solo = !s.layers[i].Solo
	s.graph.UpdateLayerNodes(id, layer.Patch{Solo: layer.Ptr(s.layers[i].Solo)})

	if s.transportCfg.SoloExclusive {
		s.transport.SyncAll()
	}
}

// Start starts playback.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transport.Start(ctx)
}

// Stop fades playback out.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transport.Stop()
}

// SetMasterGain ramps the master gain.
func (s *Session) SetMasterGain(db float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph.SetMasterGain(db)
}

// SetSessionLength sets the auto-stop length in minutes; zero or less
// disables it.
func (s *Session) SetSessionLength(minutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if minutes < 0 {
		minutes = 0
	}

	s.minutes = minutes
	s.transport.SetSessionLength(time.Duration(minutes) * time.Minute)
}

// LoadPreset replaces the layer set: playback halts at once, the current
// layers are removed and every given layer is added with a fresh id.
// Playback is not restarted.
func (s *Session) LoadPreset(layers []layer.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transport.Halt()

	for _, p := range s.layers {
		s.graph.RemoveLayer(p.ID)
	}

	s.layers = nil

	for _, p := range layers {
		if _, ok := s.addLayer(p.WithFreshID()); !ok {
			s.log.Error("session: load preset: layer skipped", "type", p.Type)
		}
	}
}

// AudioState returns the transport read model.
func (s *Session) AudioState() AudioState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return AudioState{
		IsPlaying:      s.transport.IsPlaying(),
		MasterGainDB:   s.graph.MasterGainDB(),
		SessionMinutes: s.minutes,
		Elapsed:        s.transport.Elapsed(),
	}
}

// TransportState returns the detailed playback state.
func (s *Session) TransportState() transport.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.transport.State()
}

// MeterData returns the last sampled meter reading.
func (s *Session) MeterData() graph.MeterData {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.transport.Meter()
}

// Layers returns a copy of the layer list.
func (s *Session) Layers() []layer.Params {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.layers)
}

// Layer returns layer id.
func (s *Session) Layer(id string) (layer.Params, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return layer.Params{}, false
	}

	return s.layers[i], true
}

// Describe renders the graph topology.
func (s *Session) Describe() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.graph.Describe()
}

// Close cancels the transport timers and disposes the graph. The session
// must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transport.Close()
	s.graph.Dispose()
	s.layers = nil
}

func (s *Session) index(id string) int {
	return slices.IndexFunc(s.layers, func(p layer.Params) bool { return p.ID == id })
}
