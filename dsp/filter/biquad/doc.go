// Package biquad provides a second-order IIR filter section and the RBJ
// lowpass design used to tame the upper harmonics of each tone layer.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients].
package biquad
