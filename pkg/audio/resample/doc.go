// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts mixer channel audio to the device sample rate
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates and keeps
// state between calls, so a channel can be fed one fragment at a time.
//
// Example:
//
//	r := resample.New(22050, 44100, 2)
//	out := make([]int32, r.OutputSamplesNeeded(len(in)))
//	n := r.Resample(in, out)
package resample
