// ABOUTME: Tests for PCM decoder
// ABOUTME: Tests 8-bit, 16-bit and 24-bit PCM decoding in both byte orders
package decode

import (
	"testing"

	"github.com/Sendspin/digimuse/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 22050,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestPCMDecode16BitLittleEndian(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", BitDepth: 16, LittleEndian: true})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	output, err := decoder.Decode([]byte{0x00, 0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(output) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(output))
	}
	if output[0] != 256<<8 {
		t.Errorf("expected first sample %d, got %d", 256<<8, output[0])
	}
	if output[1] != 770<<8 {
		t.Errorf("expected second sample %d, got %d", 770<<8, output[1])
	}
}

func TestPCMDecode16BitBigEndian(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	output, _ := decoder.Decode([]byte{0x01, 0x00, 0xFF, 0xFF})
	if output[0] != 256<<8 {
		t.Errorf("expected first sample %d, got %d", 256<<8, output[0])
	}
	if output[1] != -1<<8 {
		t.Errorf("expected second sample %d, got %d", -1<<8, output[1])
	}
}

func TestPCMDecode8BitUnsigned(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", BitDepth: 8, Unsigned: true})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	output, _ := decoder.Decode([]byte{0x80, 0xFF, 0x00})
	expected := []int32{0, 127 << 16, -128 << 16}
	for i, e := range expected {
		if output[i] != e {
			t.Errorf("sample %d: expected %d, got %d", i, e, output[i])
		}
	}
}

func TestPCMDecode24Bit(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", BitDepth: 24})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	output, _ := decoder.Decode([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05})
	if output[0] != 0x020100 {
		t.Errorf("expected first sample %d, got %d", 0x020100, output[0])
	}
	if output[1] != 0x050403 {
		t.Errorf("expected second sample %d, got %d", 0x050403, output[1])
	}
}

func TestNewPCM_InvalidCodec(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "imc", BitDepth: 16})
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}
	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for PCM decoder: imc"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestNewPCM_UnsupportedBitDepth(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", BitDepth: 12})
	if err == nil {
		t.Fatal("expected error for unsupported bit depth, got nil")
	}
	if decoder != nil {
		t.Fatal("expected decoder to be nil for unsupported bit depth")
	}

	expectedError := "unsupported bit depth: 12 (supported: 8, 16, 24)"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestPCMDecode_EmptyInput(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	output, err := decoder.Decode([]byte{})
	if err != nil {
		t.Fatalf("decode failed with empty input: %v", err)
	}
	if len(output) != 0 {
		t.Errorf("expected 0 samples from empty input, got %d", len(output))
	}
}
