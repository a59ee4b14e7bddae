// ABOUTME: Tests for command helpers
// ABOUTME: Covers sound argument parsing and WAV export
package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Sendspin/digimuse/internal/sound"
	"github.com/gopxl/beep/v2/wav"
)

func TestSoundArgs(t *testing.T) {
	id, name, err := soundArgs("main.imx", sound.KindBundle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 1 || name != "main.imx" {
		t.Errorf("expected (1, main.imx), got (%d, %s)", id, name)
	}

	id, name, err = soundArgs("42", sound.KindInlineResource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 || name != "" {
		t.Errorf("expected (42, \"\"), got (%d, %q)", id, name)
	}

	if _, _, err := soundArgs("main.imx", sound.KindInlineResource); err == nil {
		t.Error("expected error for non-numeric resource id")
	}
}

func TestPCMStreamerMono(t *testing.T) {
	s := &pcmStreamer{samples: []int32{0, 4194304, -8388608}, channels: 1}
	frames := make([][2]float64, 4)

	n, ok := s.Stream(frames)
	if !ok || n != 3 {
		t.Fatalf("expected 3 frames, got %d (ok=%v)", n, ok)
	}
	if frames[1][0] != 0.5 || frames[1][1] != 0.5 {
		t.Errorf("expected mono sample copied to both sides, got %v", frames[1])
	}
	if frames[2][0] != -1 {
		t.Errorf("expected -1, got %v", frames[2][0])
	}

	if n, ok := s.Stream(frames); ok || n != 0 {
		t.Errorf("expected drained streamer, got %d (ok=%v)", n, ok)
	}
}

func TestPCMStreamerStereoDropsPartialFrame(t *testing.T) {
	s := &pcmStreamer{samples: []int32{1, 2, 3, 4, 5}, channels: 2}
	frames := make([][2]float64, 8)

	if n, _ := s.Stream(frames); n != 2 {
		t.Errorf("expected 2 frames, got %d", n)
	}
}

func TestWriteWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	samples := make([]int32, 2*1000)
	for i := range samples {
		samples[i] = int32(i) << 8
	}

	if err := writeWAV(path, samples, 22050, 2); err != nil {
		t.Fatalf("writeWAV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	defer streamer.Close()

	if format.SampleRate != 22050 {
		t.Errorf("expected rate 22050, got %d", format.SampleRate)
	}
	if format.NumChannels != 2 {
		t.Errorf("expected 2 channels, got %d", format.NumChannels)
	}
	if streamer.Len() != 1000 {
		t.Errorf("expected 1000 frames, got %d", streamer.Len())
	}
}
