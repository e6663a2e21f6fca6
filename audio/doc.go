// Package audio is a small pull-based synthesis platform.
//
// A Context owns a graph of nodes (oscillators, LFOs, gains, panners, a
// lowpass filter, a limiter, a reverb, a meter and the destination) and
// renders it in fixed blocks. Node parameters are Params with
// frame-accurate linear ramps and additive modulation inputs.
//
// All exported methods are safe for concurrent use: graph mutation and
// block rendering are serialized by the context lock, so a real-time sink
// can pull blocks while a control goroutine edits the graph.
package audio
