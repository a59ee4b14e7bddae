// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the Output interface with oto and discarding implementations
// Package output provides audio playback interfaces.
//
// Oto plays through the system device; Null discards samples for headless
// runs.
//
// Example:
//
//	out := output.NewOto(logger)
//	err := out.Open(22050, 2)
//	err = out.Write(samples)
package output
