// Package meter implements a smoothed RMS level meter.
//
// Blocks are fed with ProcessStereo; a reading (Value, ValueDB) computes the
// RMS over the most recent analysis window and applies peak-style smoothing:
// the reading jumps up immediately and decays by the smoothing factor per
// read. This is the reading shown by level displays, not a calibrated
// loudness measure.
package meter
