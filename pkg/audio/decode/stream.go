// ABOUTME: Shared plumbing for external codec streams
// ABOUTME: Buffers decoded frames and remaps channel counts to 16-bit LE output
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnknownStream is returned when no stream decoder handles an extension
var ErrUnknownStream = errors.New("no stream decoder for extension")

// OpenStream picks a stream decoder by file extension. channels is the
// channel count of the produced PCM; 0 keeps the source layout.
func OpenStream(name string, r io.Reader, channels int) (Stream, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".fla", ".flac":
		return NewFLACStream(r, channels)
	case ".mp3":
		return NewMP3Stream(r, channels)
	case ".ogg":
		return NewVorbisStream(r, channels)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStream, ext)
	}
}

// pcmBuffer holds decoded frames until they are read out
type pcmBuffer struct {
	pending []byte
	eof     bool
}

// read drains pending bytes, calling fill whenever the buffer runs dry
func (b *pcmBuffer) read(p []byte, fill func() error) (int, error) {
	n := 0
	for n < len(p) {
		if len(b.pending) == 0 {
			if b.eof {
				break
			}
			if err := fill(); err != nil {
				if err == io.EOF {
					b.eof = true
					continue
				}
				return n, err
			}
			continue
		}
		c := copy(p[n:], b.pending)
		b.pending = b.pending[c:]
		n += c
	}
	if n == 0 && b.eof {
		return 0, io.EOF
	}
	return n, nil
}

// appendFrame remaps one interleaved frame of src channels to dst channels
// and appends it as 16-bit little-endian
func (b *pcmBuffer) appendFrame(frame []int16, dst int) {
	src := len(frame)
	for ch := 0; ch < dst; ch++ {
		var v int16
		switch {
		case src == dst:
			v = frame[ch]
		case dst == 1:
			sum := 0
			for _, s := range frame {
				sum += int(s)
			}
			v = int16(sum / src)
		default:
			v = frame[ch%src]
		}
		b.pending = binary.LittleEndian.AppendUint16(b.pending, uint16(v))
	}
}
