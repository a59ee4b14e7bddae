// ABOUTME: Test fixtures for the scheduler
// ABOUTME: A recording mixer fake and in-memory iMUS sound builders
package imuse

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Sendspin/digimuse/internal/bundle"
	"github.com/Sendspin/digimuse/internal/sound"
	"github.com/Sendspin/digimuse/pkg/audio"
)

type fakeChannel struct {
	format   audio.Format
	group    int
	source   Source
	queued   [][]byte
	volume   int
	balance  int
	finished bool
	draining bool
	stopped  bool
	inactive bool
}

func (c *fakeChannel) data() []byte {
	return bytes.Join(c.queued, nil)
}

// fakeMixer records every call. Finished channels go inactive at once
// unless drain is set, in which case they stay active like a real queue.
type fakeMixer struct {
	mu        sync.Mutex
	next      int
	channels  map[int]*fakeChannel
	paused    bool
	endOfData bool
	drain     bool
}

func newFakeMixer() *fakeMixer {
	return &fakeMixer{next: 1, channels: make(map[int]*fakeChannel)}
}

func (m *fakeMixer) open(c *fakeChannel) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	c.volume = 127
	m.channels[id] = c
	return id
}

func (m *fakeMixer) OpenChannel(format audio.Format, group int) int {
	return m.open(&fakeChannel{format: format, group: group})
}

func (m *fakeMixer) OpenSourceChannel(src Source, group int) int {
	return m.open(&fakeChannel{source: src, group: group})
}

func (m *fakeMixer) channel(id int) *fakeChannel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channels[id]
}

func (m *fakeMixer) Queue(id int, data []byte) error {
	if c := m.channel(id); c != nil {
		c.queued = append(c.queued, bytes.Clone(data))
	}
	return nil
}

func (m *fakeMixer) Finish(id int) {
	if c := m.channel(id); c != nil {
		if m.drain {
			c.draining = true
			return
		}
		c.finished = true
	}
}

func (m *fakeMixer) Stop(id int) {
	if c := m.channel(id); c != nil {
		c.stopped = true
	}
}

func (m *fakeMixer) IsActive(id int) bool {
	c := m.channel(id)
	return c != nil && !c.finished && !c.stopped && !c.inactive
}

func (m *fakeMixer) IsEndOfData(id int) bool {
	return m.endOfData
}

func (m *fakeMixer) SetVolume(id, volume int) {
	if c := m.channel(id); c != nil {
		c.volume = volume
	}
}

func (m *fakeMixer) SetBalance(id, balance int) {
	if c := m.channel(id); c != nil {
		c.balance = balance
	}
}

func (m *fakeMixer) SetGroup(id, group int) {
	if c := m.channel(id); c != nil {
		c.group = group
	}
}

func (m *fakeMixer) Pause(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = paused
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type chunk struct {
	tag     string
	payload []byte
}

func u32s(vals ...int) []byte {
	out := make([]byte, 0, len(vals)*4)
	for _, v := range vals {
		out = binary.BigEndian.AppendUint32(out, uint32(v))
	}
	return out
}

func fill(n int, value byte) []byte {
	return bytes.Repeat([]byte{value}, n)
}

// buildIMUS lays out an iMUS file. Region and jump offsets given to the
// helpers below are relative to the sample data and are moved past the header.
func buildIMUS(data []byte, chunks ...chunk) []byte {
	var buf bytes.Buffer
	buf.WriteString("iMUS")
	buf.Write(u32s(0))
	buf.WriteString("MAP ")
	buf.Write(u32s(0))
	for _, c := range chunks {
		buf.WriteString(c.tag)
		buf.Write(u32s(len(c.payload)))
		buf.Write(c.payload)
	}
	buf.WriteString("DATA")
	buf.Write(u32s(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

// testSound describes an iMUS sound with offsets relative to its data
type testSound struct {
	bits, freq, channels int
	regions              [][2]int // offset, length
	jumps                [][4]int // offset, dest, hook, fade ms
	markers              map[int]string
	syncs                [][]byte
	data                 []byte
}

func (s testSound) header() int {
	n := 16 + 8 + 8 + 20
	n += len(s.regions) * (8 + 8)
	n += len(s.jumps) * (8 + 16)
	for _, text := range s.markers {
		n += 8 + 4 + len(text) + 1
	}
	for _, sync := range s.syncs {
		n += 8 + len(sync)
	}
	return n
}

func (s testSound) build() []byte {
	base := s.header()
	chunks := []chunk{{"FRMT", u32s(0, 0, s.bits, s.freq, s.channels)}}
	for pos, text := range s.markers {
		chunks = append(chunks, chunk{"TEXT", append(append(u32s(base+pos), text...), 0)})
	}
	for _, r := range s.regions {
		chunks = append(chunks, chunk{"REGN", u32s(base+r[0], r[1])})
	}
	for _, j := range s.jumps {
		chunks = append(chunks, chunk{"JUMP", u32s(base+j[0], base+j[1], j[2], j[3])})
	}
	for _, sync := range s.syncs {
		chunks = append(chunks, chunk{"SYNC", sync})
	}
	return buildIMUS(s.data, chunks...)
}

// linear returns an 8-bit mono sound at 6000 Hz, which feeds 100 bytes per
// tick at 60 Hz, with one region per given length
func linear(values []byte, lengths ...int) testSound {
	s := testSound{bits: 8, freq: 6000, channels: 1}
	off := 0
	for i, n := range lengths {
		s.regions = append(s.regions, [2]int{off, n})
		s.data = append(s.data, fill(n, values[i])...)
		off += n
	}
	return s
}

// looping returns a sound whose only region jumps back to itself
func looping(length int) testSound {
	s := linear([]byte{0x90, 0x91}, length, 1)
	s.jumps = [][4]int{{length, 0, 0, 0}}
	return s
}

type harness struct {
	engine *Engine
	mixer  *fakeMixer
	sounds *sound.Manager
	store  *sound.MapStore
	dir    string
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	dir := t.TempDir()
	policy, err := sound.NewTitlePolicy(nil, "dig", false, 1)
	if err != nil {
		t.Fatalf("failed to create policy: %v", err)
	}
	store := sound.NewMapStore()
	sounds := sound.NewManager(bundle.NewDirCache(dir, discardLogger()), store, policy, discardLogger())
	mixer := newFakeMixer()
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	return &harness{
		engine: New(sounds, mixer, opts),
		mixer:  mixer,
		sounds: sounds,
		store:  store,
		dir:    dir,
	}
}

func (h *harness) ticks(n int) {
	for i := 0; i < n; i++ {
		h.engine.Tick()
	}
}

func (h *harness) track(id int) *Track {
	return &h.engine.tracks[id]
}

func (h *harness) queued(t *testing.T, trackID int) []byte {
	t.Helper()
	c := h.mixer.channel(h.track(trackID).channel)
	if c == nil {
		t.Fatalf("track %d has no mixer channel", trackID)
	}
	return c.data()
}

// writeBundle writes a digmusic.bun holding one sound per name. Each sound
// is wrapped in a single copy-codec COMP block.
func (h *harness) writeBundle(t *testing.T, sounds map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(make([]byte, 12))

	type entry struct {
		name         string
		offset, size int
	}
	var entries []entry
	for name, data := range sounds {
		var comp bytes.Buffer
		comp.WriteString("COMP")
		comp.Write(u32s(1, 0, 0))
		comp.Write(u32s(32, len(data), 0, 0))
		comp.Write(data)
		entries = append(entries, entry{name, buf.Len(), comp.Len()})
		buf.Write(comp.Bytes())
	}

	dirOffset := buf.Len()
	for _, e := range entries {
		base, ext, _ := strings.Cut(e.name, ".")
		b := make([]byte, 12)
		copy(b, base)
		copy(b[8:], ext)
		buf.Write(b)
		buf.Write(u32s(e.offset, e.size))
	}

	out := buf.Bytes()
	copy(out[0:4], "DIGI")
	binary.BigEndian.PutUint32(out[4:], uint32(dirOffset))
	binary.BigEndian.PutUint32(out[8:], uint32(len(entries)))
	if err := os.WriteFile(filepath.Join(h.dir, "digmusic.bun"), out, 0o644); err != nil {
		t.Fatalf("failed to write bundle: %v", err)
	}
}
