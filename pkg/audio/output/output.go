// ABOUTME: Audio output interface definition
// ABOUTME: Sink for the interleaved stereo frames produced by the mixer pump
package output

import "errors"

// ErrNotOpen is returned when writing to an output that has not been opened
var ErrNotOpen = errors.New("output not open")

// Output receives mixed audio. Samples are interleaved int32 in 24-bit range.
type Output interface {
	// Open prepares the sink for the given format
	Open(sampleRate, channels int) error

	// Write consumes samples; device outputs block until the device accepts them
	Write(samples []int32) error

	Close() error
}
