// ABOUTME: WAV export of decoded sound data
// ABOUTME: Adapts interleaved PCM samples to a beep streamer for the wav encoder
package main

import (
	"fmt"
	"os"

	"github.com/Sendspin/digimuse/pkg/audio"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// pcmStreamer streams interleaved 24-bit range samples as beep frames
type pcmStreamer struct {
	samples  []int32
	channels int
	pos      int
}

func (s *pcmStreamer) Stream(frames [][2]float64) (int, bool) {
	n := 0
	for n < len(frames) && s.pos+s.channels <= len(s.samples) {
		left := float64(s.samples[s.pos]) / (audio.Max24Bit + 1)
		right := left
		if s.channels == 2 {
			right = float64(s.samples[s.pos+1]) / (audio.Max24Bit + 1)
		}
		frames[n] = [2]float64{left, right}
		s.pos += s.channels
		n++
	}
	return n, n > 0
}

func (s *pcmStreamer) Err() error { return nil }

// writeWAV encodes samples as a 16-bit WAV file at path
func writeWAV(path string, samples []int32, rate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(rate),
		NumChannels: channels,
		Precision:   2,
	}
	if err := wav.Encode(f, &pcmStreamer{samples: samples, channels: channels}, format); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
