// Package dynamics provides the master-bus peak limiter.
//
// Limiter is a stereo-linked lookahead limiter: the program path is delayed
// by the lookahead time while the detector sees the undelayed signal, so
// gain reduction is in place before a peak reaches the output.
package dynamics
