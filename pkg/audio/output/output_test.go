// ABOUTME: Audio output tests
// ABOUTME: Verifies Output implementations, master volume and the null sink
package output

import (
	"errors"
	"testing"
)

func TestOtoImplementsOutput(t *testing.T) {
	var _ Output = (*Oto)(nil)
}

func TestNullImplementsOutput(t *testing.T) {
	var _ Output = (*Null)(nil)
}

func TestNewOto(t *testing.T) {
	out := NewOto(nil)
	if out.Volume() != MaxVolume {
		t.Errorf("expected default volume %d, got %d", MaxVolume, out.Volume())
	}
	if out.Muted() {
		t.Error("expected output unmuted")
	}
}

func TestOtoWriteBeforeOpen(t *testing.T) {
	out := NewOto(nil)
	if err := out.Write([]int32{1, 2}); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}

func TestOtoCloseBeforeOpen(t *testing.T) {
	if err := NewOto(nil).Close(); err != nil {
		t.Errorf("expected close of an unopened output to succeed, got %v", err)
	}
}

func TestOtoSetVolumeClamps(t *testing.T) {
	out := NewOto(nil)
	out.SetVolume(200)
	if out.Volume() != MaxVolume {
		t.Errorf("expected volume clamped to %d, got %d", MaxVolume, out.Volume())
	}
	out.SetVolume(-3)
	if out.Volume() != 0 {
		t.Errorf("expected volume clamped to 0, got %d", out.Volume())
	}
}

func TestOtoGain(t *testing.T) {
	out := NewOto(nil)
	out.SetVolume(64)
	if g := out.gain(); g != 64 {
		t.Errorf("expected gain 64, got %d", g)
	}
	out.SetMuted(true)
	if g := out.gain(); g != 0 {
		t.Errorf("expected gain 0 when muted, got %d", g)
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		sample int32
		gain   int
		want   int32
	}{
		{1270, MaxVolume, 1270},
		{1270, 0, 0},
		{1270, 127 / 2, 630},
		{-1270, 127 / 2, -630},
	}

	for _, tt := range tests {
		if got := scale(tt.sample, tt.gain); got != tt.want {
			t.Errorf("scale(%d, %d) = %d, want %d", tt.sample, tt.gain, got, tt.want)
		}
	}
}

func TestNullCountsSamples(t *testing.T) {
	n := NewNull()
	if err := n.Write([]int32{1}); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen before Open, got %v", err)
	}

	if err := n.Open(22050, 2); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	n.Write([]int32{5, -9, 3})
	n.Write([]int32{1})

	if n.Written() != 4 {
		t.Errorf("expected 4 samples, got %d", n.Written())
	}
	if n.Peak() != 9 {
		t.Errorf("expected peak 9, got %d", n.Peak())
	}
}
