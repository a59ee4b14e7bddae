// ABOUTME: Tests for audio types
// ABOUTME: Tests sample conversion and clamping functions
package audio

import "testing"

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected int32
	}{
		{"zero", 0, 0},
		{"positive", 100, 100 << 8},
		{"negative", -100, -100 << 8},
		{"max", 32767, 32767 << 8},
		{"min", -32768, -32768 << 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected int16
	}{
		{"zero", 0, 0},
		{"positive", 100 << 8, 100},
		{"negative", -100 << 8, -100},
		{"24bit positive", 1000000, 3906},
		{"24bit negative", -1000000, -3907},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleFromUint8(t *testing.T) {
	tests := []struct {
		name     string
		input    byte
		expected int32
	}{
		{"silence", 0x80, 0},
		{"max", 0xFF, 127 << 16},
		{"min", 0x00, -128 << 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromUint8(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleFrom24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    [3]byte
		expected int32
	}{
		{"zero", [3]byte{0, 0, 0}, 0},
		{"positive", [3]byte{0x56, 0x34, 0x12}, 0x123456},
		{"negative", [3]byte{0x00, 0xFF, 0xFF}, -256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFrom24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestClamp24(t *testing.T) {
	if got := Clamp24(Max24Bit + 10); got != Max24Bit {
		t.Errorf("expected %d, got %d", Max24Bit, got)
	}
	if got := Clamp24(Min24Bit - 10); got != Min24Bit {
		t.Errorf("expected %d, got %d", Min24Bit, got)
	}
	if got := Clamp24(1234); got != 1234 {
		t.Errorf("expected 1234, got %d", got)
	}
}

func TestClampInt16(t *testing.T) {
	if got := ClampInt16(40000); got != 32767 {
		t.Errorf("expected 32767, got %d", got)
	}
	if got := ClampInt16(-40000); got != -32768 {
		t.Errorf("expected -32768, got %d", got)
	}
}

func TestFormatFrameSize(t *testing.T) {
	f := Format{Channels: 2, BitDepth: 16}
	if f.FrameSize() != 4 {
		t.Errorf("expected frame size 4, got %d", f.FrameSize())
	}
	f = Format{Channels: 1, BitDepth: 8}
	if f.FrameSize() != 1 {
		t.Errorf("expected frame size 1, got %d", f.FrameSize())
	}
}
