// ABOUTME: MP3 stream decoder
// ABOUTME: Decodes MP3 side files to 16-bit little-endian PCM
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// MP3Stream decodes an MP3 stream. go-mp3 always produces stereo, so
// mono output is a downmix.
type MP3Stream struct {
	decoder  *mp3.Decoder
	channels int
	buf      pcmBuffer
	raw      []byte
}

// NewMP3Stream creates a new MP3 stream
func NewMP3Stream(r io.Reader, channels int) (*MP3Stream, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}
	if channels <= 0 {
		channels = 2
	}
	return &MP3Stream{
		decoder:  decoder,
		channels: channels,
		raw:      make([]byte, 4608),
	}, nil
}

// Read fills p with interleaved 16-bit LE samples
func (s *MP3Stream) Read(p []byte) (int, error) {
	return s.buf.read(p, s.fill)
}

func (s *MP3Stream) fill() error {
	n, err := s.decoder.Read(s.raw)
	frame := make([]int16, 2)
	for i := 0; i+4 <= n; i += 4 {
		frame[0] = int16(binary.LittleEndian.Uint16(s.raw[i:]))
		frame[1] = int16(binary.LittleEndian.Uint16(s.raw[i+2:]))
		s.buf.appendFrame(frame, s.channels)
	}
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("mp3 decode error: %w", err)
	}
	return nil
}

// SampleRate returns the stream sample rate
func (s *MP3Stream) SampleRate() int {
	return s.decoder.SampleRate()
}

// Channels returns the output channel count
func (s *MP3Stream) Channels() int {
	return s.channels
}

// Close releases decoder resources
func (s *MP3Stream) Close() error {
	return nil
}
