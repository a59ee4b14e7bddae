// ABOUTME: Ogg Vorbis stream decoder
// ABOUTME: Wraps the beep vorbis streamer and converts to 16-bit little-endian PCM
package decode

import (
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/vorbis"
)

// VorbisStream decodes an Ogg Vorbis stream
type VorbisStream struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	channels int
	buf      pcmBuffer
	samples  [][2]float64
}

// NewVorbisStream creates a new Vorbis stream
func NewVorbisStream(r io.Reader, channels int) (*VorbisStream, error) {
	rc, ok := r.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(r)
	}
	streamer, format, err := vorbis.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to open vorbis stream: %w", err)
	}
	if channels <= 0 {
		channels = format.NumChannels
	}
	return &VorbisStream{
		streamer: streamer,
		format:   format,
		channels: channels,
		samples:  make([][2]float64, 1024),
	}, nil
}

// Read fills p with interleaved 16-bit LE samples
func (s *VorbisStream) Read(p []byte) (int, error) {
	return s.buf.read(p, s.fill)
}

func (s *VorbisStream) fill() error {
	n, ok := s.streamer.Stream(s.samples)
	if !ok {
		if err := s.streamer.Err(); err != nil {
			return fmt.Errorf("vorbis decode error: %w", err)
		}
		return io.EOF
	}

	src := s.format.NumChannels
	if src > 2 {
		src = 2
	}
	frame := make([]int16, src)
	for i := 0; i < n; i++ {
		for ch := 0; ch < src; ch++ {
			frame[ch] = floatToInt16(s.samples[i][ch])
		}
		s.buf.appendFrame(frame, s.channels)
	}
	return nil
}

func floatToInt16(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}

// SampleRate returns the stream sample rate
func (s *VorbisStream) SampleRate() int {
	return int(s.format.SampleRate)
}

// Channels returns the output channel count
func (s *VorbisStream) Channels() int {
	return s.channels
}

// Close releases decoder resources
func (s *VorbisStream) Close() error {
	return s.streamer.Close()
}
