// Package reverb provides the shared send reverb of the master bus.
//
// The impulse response is generated once (decaying stereo noise, see
// GenerateImpulse) and applied with a uniformly partitioned FFT convolver,
// so the per-block cost stays flat no matter how long the tail is.
package reverb
