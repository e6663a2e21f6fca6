// Package graph builds and edits the audio graph of an entrainment
// session.
//
// A Manager owns the master bus
//
//	layers -> master gain -> limiter -> meter -> destination
//	layers -> reverb send -> reverb (wet) -> destination
//
// and a registry of LayerGraphs keyed by layer id. Each LayerGraph is one
// of three fixed topologies (Binaural, Isochronic, Monaural) feeding a
// shared per-layer tail:
//
//	sources -> lowpass -> gain -> tremolo -> pan -> master gain, reverb send
//
// Parameter edits are applied as short linear ramps so they never click.
//
// A Manager is not safe for concurrent use; callers serialize all calls on
// one control goroutine. Rendering runs concurrently inside the
// audio.Context, which synchronizes itself.
package graph
