// Package layer holds the parameter model of an entrainment layer: the
// full Params of one layer, partial updates (Patch), the clamp ranges
// applied before any value reaches the audio graph (Limits), default
// layers and the built-in presets.
package layer
