// Package param provides sample-accurate parameter automation.
//
// A Param holds a value on a frame timeline. SetValue jumps immediately,
// RampTo schedules a linear ramp from the instantaneous value to a target
// over a number of frames. Scheduling a new ramp while one is running
// cancels the pending one and starts from wherever the value currently is,
// so automation never jumps.
package param
