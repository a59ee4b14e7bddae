// ABOUTME: Decoder and stream interface definitions
// ABOUTME: Common interfaces for fragment decoders and external codec streams
package decode

import "io"

// Decoder decodes a raw PCM fragment to int32 samples in 24-bit range
type Decoder interface {
	// Decode converts encoded audio data to PCM samples
	Decode(data []byte) ([]int32, error)

	// Close releases decoder resources
	Close() error
}

// Stream is an external codec stream producing interleaved 16-bit
// little-endian PCM. Read returns io.EOF at end of data.
type Stream interface {
	io.Reader
	SampleRate() int
	Channels() int
	Close() error
}
