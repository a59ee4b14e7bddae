// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the fundamental PCM types shared by the engine.
//
// A Format tags every fragment queued to a mixer channel with its sample
// rate, channel count, bit depth, signedness and byte order, because game
// data mixes unsigned 8-bit effects, big-endian 16-bit bundle audio and
// little-endian expanded 12-bit audio.
//
// Samples travel through the mixer as int32 values in 24-bit range:
//
//	s := audio.SampleFromInt16(v)  // 16-bit -> 24-bit
//	u := audio.SampleFromUint8(b)  // unsigned 8-bit -> 24-bit
//	o := audio.SampleToInt16(mixed)
package audio
