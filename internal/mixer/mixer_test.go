// ABOUTME: Tests for the software mixer
// ABOUTME: Covers channel lifecycle, gain staging, pause, sources and the output pump
package mixer

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Sendspin/digimuse/pkg/audio"
	"github.com/Sendspin/digimuse/pkg/audio/output"
)

func testMixer() *Mixer {
	return New(22050, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func monoFormat() audio.Format {
	return audio.Format{Codec: "pcm", SampleRate: 22050, Channels: 1, BitDepth: 16, LittleEndian: true}
}

func le16(values ...int16) []byte {
	out := make([]byte, 0, len(values)*2)
	for _, v := range values {
		out = binary.LittleEndian.AppendUint16(out, uint16(v))
	}
	return out
}

func TestChannelLifecycle(t *testing.T) {
	m := testMixer()
	id := m.OpenChannel(monoFormat(), 3)

	if !m.IsActive(id) {
		t.Fatal("expected new channel to be active")
	}
	if !m.IsEndOfData(id) {
		t.Error("expected new channel to have no data")
	}

	if err := m.Queue(id, le16(1, 2, 3, 4)); err != nil {
		t.Fatalf("queue failed: %v", err)
	}
	if m.IsEndOfData(id) {
		t.Error("expected queued data")
	}
	if s := m.Stats(); s.QueuedSamples != 4 {
		t.Errorf("expected 4 queued samples, got %d", s.QueuedSamples)
	}

	m.Read(make([]int32, 16))
	if !m.IsEndOfData(id) {
		t.Error("expected queue drained after read")
	}
	if !m.IsActive(id) {
		t.Error("expected unfinished channel to stay active")
	}

	m.Finish(id)
	if m.IsActive(id) {
		t.Error("expected finished drained channel to be inactive")
	}
	if err := m.Queue(id, le16(1)); err == nil {
		t.Error("expected error queueing to a removed channel")
	}
}

func TestFinishDrainsQueuedAudio(t *testing.T) {
	m := testMixer()
	id := m.OpenChannel(monoFormat(), 3)
	m.Queue(id, le16(100, 100, 100, 100))
	m.Finish(id)

	if !m.IsActive(id) {
		t.Fatal("expected finished channel with queued audio to stay active")
	}
	m.Read(make([]int32, 16))
	if m.IsActive(id) {
		t.Error("expected channel inactive after draining")
	}
}

func TestStop(t *testing.T) {
	m := testMixer()
	id := m.OpenChannel(monoFormat(), 3)
	m.Queue(id, le16(1, 2))

	m.Stop(id)
	if m.IsActive(id) {
		t.Error("expected stopped channel to be inactive")
	}
	if m.Stats().Channels != 0 {
		t.Errorf("expected no channels, got %d", m.Stats().Channels)
	}
}

func TestReadGainStaging(t *testing.T) {
	tests := []struct {
		name          string
		volume        int
		balance       int
		groupVolume   int
		expectedLeft  int32
		expectedRight int32
	}{
		{"full", 127, 0, 127, 256000, 256000},
		{"silent", 0, 0, 127, 0, 0},
		{"hard right", 127, 127, 127, 0, 256000},
		{"hard left", 127, -128, 127, 256000, 0},
		{"group muted", 127, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMixer()
			id := m.OpenChannel(monoFormat(), 3)
			m.SetVolume(id, tt.volume)
			m.SetBalance(id, tt.balance)
			m.SetGroupVolume(3, tt.groupVolume)
			m.Queue(id, le16(1000, 1000, 1000, 1000))

			out := make([]int32, 8)
			m.Read(out)

			// the resampler emits its carried frame first
			if out[0] != 0 || out[1] != 0 {
				t.Errorf("expected leading silent frame, got %d %d", out[0], out[1])
			}
			if out[2] != tt.expectedLeft || out[3] != tt.expectedRight {
				t.Errorf("expected %d/%d, got %d/%d", tt.expectedLeft, tt.expectedRight, out[2], out[3])
			}
		})
	}
}

func TestReadSumsAndClamps(t *testing.T) {
	m := testMixer()
	for i := 0; i < 3; i++ {
		id := m.OpenChannel(monoFormat(), 3)
		m.Queue(id, le16(30000, 30000, 30000))
	}

	out := make([]int32, 6)
	m.Read(out)
	if out[2] != audio.Max24Bit {
		t.Errorf("expected sum clamped to %d, got %d", audio.Max24Bit, out[2])
	}
}

func TestPauseHoldsAudio(t *testing.T) {
	m := testMixer()
	id := m.OpenChannel(monoFormat(), 3)
	m.Queue(id, le16(1000, 1000))

	m.Pause(true)
	out := make([]int32, 4)
	m.Read(out)
	for i, s := range out {
		if s != 0 {
			t.Errorf("sample %d: expected silence while paused, got %d", i, s)
		}
	}
	if m.IsEndOfData(id) {
		t.Error("expected queued audio kept while paused")
	}

	m.Pause(false)
	m.Read(out)
	if out[2] == 0 {
		t.Error("expected audio after resume")
	}
}

type fakeSource struct {
	samples []int32
}

func (f *fakeSource) Read(p []int32) (int, error) {
	if len(f.samples) == 0 {
		return 0, io.EOF
	}
	n := copy(p, f.samples)
	f.samples = f.samples[n:]
	return n, nil
}

func (f *fakeSource) SampleRate() int { return 22050 }
func (f *fakeSource) Channels() int   { return 2 }

func TestSourceChannel(t *testing.T) {
	m := testMixer()
	id := m.OpenSourceChannel(&fakeSource{samples: []int32{10, 20, 30, 40}}, 2)

	if err := m.Queue(id, le16(1)); err == nil {
		t.Error("expected error queueing to a source channel")
	}

	out := make([]int32, 4)
	m.Read(out)
	if out[2] != 10 || out[3] != 20 {
		t.Errorf("expected source frame 10/20, got %d/%d", out[2], out[3])
	}

	m.Read(out)
	m.Read(out)
	if m.IsActive(id) {
		t.Error("expected source channel inactive after EOF")
	}
}

func TestRunWritesToOutput(t *testing.T) {
	m := testMixer()
	out := output.NewNull()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := m.Run(ctx, out, 256)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if out.Written() == 0 {
		t.Error("expected mixer to write to the output")
	}
}

func TestSetGroupMovesChannel(t *testing.T) {
	m := testMixer()
	id := m.OpenChannel(monoFormat(), 3)
	m.SetGroupVolume(1, 0)
	m.SetGroup(id, 1)
	m.Queue(id, le16(1000, 1000, 1000, 1000))

	out := make([]int32, 8)
	m.Read(out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected silence from a muted group, got %d at %d", v, i)
		}
	}
	if m.GroupVolume(3) != MaxVolume {
		t.Errorf("expected untouched group at full volume, got %d", m.GroupVolume(3))
	}
}

func TestQueueRejectsUnplayableFormat(t *testing.T) {
	m := testMixer()
	id := m.OpenChannel(audio.Format{Codec: "pcm", SampleRate: 22050, Channels: 1, BitDepth: 12}, 1)

	if err := m.Queue(id, le16(1, 2)); err == nil {
		t.Error("expected error queueing to a channel without a decoder")
	}
}
