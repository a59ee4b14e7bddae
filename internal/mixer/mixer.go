// ABOUTME: Software mixer owning every playback channel
// ABOUTME: Channel lifecycle, per-channel volume and balance, group volumes and the output pump
package mixer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Sendspin/digimuse/pkg/audio"
	"github.com/Sendspin/digimuse/pkg/audio/decode"
	"github.com/Sendspin/digimuse/pkg/audio/output"
)

const (
	// MaxVolume is the full scale of channel and group volumes
	MaxVolume = 127

	// OutputChannels is the channel count of mixed output
	OutputChannels = 2
)

// Stats summarizes mixer state for monitoring
type Stats struct {
	Channels      int
	QueuedSamples int
	Mixed         int64
	Underruns     int64
}

// Mixer sums channels into stereo int32 output. It is safe for concurrent use.
type Mixer struct {
	mu       sync.Mutex
	rate     int
	nextID   int
	channels map[int]*channel
	groups   map[int]int
	paused   bool

	mixed     int64
	underruns int64

	logger *slog.Logger
}

// New creates a mixer producing stereo output at rate
func New(rate int, logger *slog.Logger) *Mixer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mixer{
		rate:     rate,
		nextID:   1,
		channels: make(map[int]*channel),
		groups:   make(map[int]int),
		logger:   logger.With("component", "mixer"),
	}
}

// Rate returns the output sample rate
func (m *Mixer) Rate() int {
	return m.rate
}

// OpenChannel creates a queue-fed channel for fragments of format
func (m *Mixer) OpenChannel(format audio.Format, group int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	c := newChannel(id, format, group, m.rate)
	dec, err := decode.NewPCM(format)
	if err != nil {
		m.logger.Warn("Channel format not playable", "channel", id, "error", err)
	}
	c.dec = dec
	m.channels[id] = c
	m.logger.Debug("Channel opened",
		"channel", id,
		"rate", format.SampleRate,
		"channels", format.Channels,
		"bits", format.BitDepth,
		"group", group)
	return id
}

// OpenSourceChannel creates a channel that pulls from src
func (m *Mixer) OpenSourceChannel(src Source, group int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	format := audio.Format{
		Codec:      "pcm",
		SampleRate: src.SampleRate(),
		Channels:   src.Channels(),
		BitDepth:   16,
	}
	id := m.nextID
	m.nextID++
	c := newChannel(id, format, group, m.rate)
	c.source = src
	m.channels[id] = c
	m.logger.Debug("Source channel opened", "channel", id, "rate", format.SampleRate, "group", group)
	return id
}

// Queue appends a raw PCM fragment to a channel
func (m *Mixer) Queue(id int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.channels[id]
	if !ok {
		return fmt.Errorf("channel %d is not open", id)
	}
	if c.source != nil {
		return fmt.Errorf("channel %d is source-fed", id)
	}
	if c.finished {
		return fmt.Errorf("channel %d is finished", id)
	}
	return c.push(data)
}

// Finish marks a channel's input complete; it goes inactive once drained
func (m *Mixer) Finish(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.channels[id]; ok {
		c.finished = true
		m.reap(c)
	}
}

// Stop removes a channel immediately, dropping queued audio
func (m *Mixer) Stop(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.channels[id]; ok {
		delete(m.channels, id)
		m.logger.Debug("Channel stopped", "channel", id)
	}
}

// StopAll removes every channel
func (m *Mixer) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.channels = make(map[int]*channel)
}

// IsActive reports whether a channel exists and can still produce audio
func (m *Mixer) IsActive(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.channels[id]
	return ok && c.active()
}

// IsEndOfData reports whether a channel has no queued audio left
func (m *Mixer) IsEndOfData(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.channels[id]
	return !ok || c.endOfData()
}

// SetVolume sets a channel volume in 0..MaxVolume
func (m *Mixer) SetVolume(id, volume int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.channels[id]; ok {
		c.volume = clamp(volume, 0, MaxVolume)
	}
}

// SetBalance sets a channel balance in -128..127
func (m *Mixer) SetBalance(id, balance int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.channels[id]; ok {
		c.balance = clamp(balance, -128, 127)
	}
}

// SetGroup moves a channel to another volume group
func (m *Mixer) SetGroup(id, group int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.channels[id]; ok {
		c.group = group
	}
}

// SetGroupVolume sets the volume applied to every channel of group
func (m *Mixer) SetGroupVolume(group, volume int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.groups[group] = clamp(volume, 0, MaxVolume)
}

// GroupVolume returns the volume of group
func (m *Mixer) GroupVolume(group int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.groupVolume(group)
}

func (m *Mixer) groupVolume(group int) int {
	if v, ok := m.groups[group]; ok {
		return v
	}
	return MaxVolume
}

// Pause holds every channel in place; Read returns silence while paused
func (m *Mixer) Pause(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.paused = paused
}

// Stats returns a snapshot of mixer counters
func (m *Mixer) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{Channels: len(m.channels), Mixed: m.mixed, Underruns: m.underruns}
	for _, c := range m.channels {
		s.QueuedSamples += c.queued
	}
	return s
}

// Read mixes len(out)/2 stereo frames into out
func (m *Mixer) Read(out []int32) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	frames := len(out) / OutputChannels
	n := frames * OutputChannels
	for i := range out[:n] {
		out[i] = 0
	}
	if m.paused || frames == 0 {
		return n
	}

	acc := make([]int64, n)
	for _, c := range m.channels {
		samples := c.fill(frames)
		if len(samples) < n && !c.finished && c.source == nil {
			m.underruns++
		}
		left, right := c.gains(m.groupVolume(c.group))
		for i := 0; i+1 < len(samples); i += 2 {
			acc[i] += int64(samples[i]) * left
			acc[i+1] += int64(samples[i+1]) * right
		}
		m.reap(c)
	}

	const scale = MaxVolume * MaxVolume
	for i, v := range acc {
		out[i] = audio.Clamp24(v / scale)
	}
	m.mixed += int64(frames)
	return n
}

// reap drops a channel that can produce nothing more
func (m *Mixer) reap(c *channel) {
	if !c.active() {
		if c.dec != nil {
			c.dec.Close()
		}
		delete(m.channels, c.id)
		m.logger.Debug("Channel drained", "channel", c.id)
	}
}

// Run mixes chunks of frames and writes them to out at the mixer rate
// until ctx is cancelled
func (m *Mixer) Run(ctx context.Context, out output.Output, frames int) error {
	if err := out.Open(m.rate, OutputChannels); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	period := time.Duration(frames) * time.Second / time.Duration(m.rate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	buf := make([]int32, frames*OutputChannels)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Read(buf)
			if err := out.Write(buf); err != nil {
				m.logger.Error("Output write failed", "error", err)
				return err
			}
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
