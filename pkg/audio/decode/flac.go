// ABOUTME: FLAC stream decoder
// ABOUTME: Decodes FLAC side files frame by frame to 16-bit little-endian PCM
package decode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// FLACStream decodes a FLAC stream
type FLACStream struct {
	stream   *flac.Stream
	channels int
	shift    int
	buf      pcmBuffer
}

// NewFLACStream creates a new FLAC stream
func NewFLACStream(r io.Reader, channels int) (*FLACStream, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open flac stream: %w", err)
	}
	if stream.Info.NChannels == 0 {
		stream.Close()
		return nil, fmt.Errorf("flac stream has no channels")
	}
	if channels <= 0 {
		channels = int(stream.Info.NChannels)
	}
	return &FLACStream{
		stream:   stream,
		channels: channels,
		shift:    int(stream.Info.BitsPerSample) - 16,
	}, nil
}

// Read fills p with interleaved 16-bit LE samples
func (s *FLACStream) Read(p []byte) (int, error) {
	return s.buf.read(p, s.fill)
}

func (s *FLACStream) fill() error {
	f, err := s.stream.ParseNext()
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("flac decode error: %w", err)
	}

	src := len(f.Subframes)
	frame := make([]int16, src)
	for i := 0; i < int(f.BlockSize); i++ {
		for ch := 0; ch < src; ch++ {
			v := f.Subframes[ch].Samples[i]
			if s.shift > 0 {
				v >>= s.shift
			} else if s.shift < 0 {
				v <<= -s.shift
			}
			frame[ch] = int16(v)
		}
		s.buf.appendFrame(frame, s.channels)
	}
	return nil
}

// SampleRate returns the stream sample rate
func (s *FLACStream) SampleRate() int {
	return int(s.stream.Info.SampleRate)
}

// Channels returns the output channel count
func (s *FLACStream) Channels() int {
	return s.channels
}

// Close releases decoder resources
func (s *FLACStream) Close() error {
	return s.stream.Close()
}
