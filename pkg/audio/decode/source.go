// ABOUTME: Adapter from a codec stream to an int32 sample source
// ABOUTME: Lets the mixer pull whole external files as tracks
package decode

import (
	"io"

	"github.com/Sendspin/digimuse/pkg/audio"
)

// Source adapts a Stream to int32 samples in 24-bit range
type Source struct {
	stream Stream
	raw    []byte
	odd    []byte
}

// NewSource wraps a stream
func NewSource(s Stream) *Source {
	return &Source{stream: s}
}

// Read fills samples and returns the count read. io.EOF is returned once
// the stream is drained.
func (s *Source) Read(samples []int32) (int, error) {
	need := len(samples)*2 - len(s.odd)
	if need < 0 {
		need = 0
	}
	if cap(s.raw) < need+len(s.odd) {
		s.raw = make([]byte, need+len(s.odd))
	}
	buf := s.raw[:len(s.odd)+need]
	copy(buf, s.odd)

	n, err := io.ReadFull(s.stream, buf[len(s.odd):])
	total := len(s.odd) + n
	s.odd = s.odd[:0]
	if total%2 == 1 {
		s.odd = append(s.odd, buf[total-1])
		total--
	}

	count := total / 2
	copy(samples, DecodePCM(buf[:total], 16, false, true))
	if err == io.ErrUnexpectedEOF || (err == io.EOF && count > 0) {
		err = nil
	}
	return count, err
}

// SampleRate returns the underlying stream rate
func (s *Source) SampleRate() int {
	return s.stream.SampleRate()
}

// Channels returns the underlying channel count
func (s *Source) Channels() int {
	return s.stream.Channels()
}

// Format describes the samples produced by the source
func (s *Source) Format() audio.Format {
	return audio.Format{
		Codec:        "pcm",
		SampleRate:   s.stream.SampleRate(),
		Channels:     s.stream.Channels(),
		BitDepth:     16,
		LittleEndian: true,
	}
}

// Close closes the stream
func (s *Source) Close() error {
	return s.stream.Close()
}
