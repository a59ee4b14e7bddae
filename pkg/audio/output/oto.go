// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays the mixed engine output with a master volume on the 0..127 engine scale
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Sendspin/digimuse/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// MaxVolume is full scale for the master volume
const MaxVolume = 127

// Oto plays 16-bit little-endian PCM through one persistent oto player fed
// by a pipe. Write blocks while the device buffer is full, which paces the
// mixer pump.
type Oto struct {
	otoCtx   *oto.Context
	player   *oto.Player
	pr       *io.PipeReader
	pw       *io.PipeWriter
	rate     int
	channels int

	mu     sync.Mutex
	volume int
	muted  bool

	buf    []byte
	logger *slog.Logger
}

// NewOto creates an output at full master volume
func NewOto(logger *slog.Logger) *Oto {
	if logger == nil {
		logger = slog.Default()
	}
	return &Oto{
		volume: MaxVolume,
		logger: logger.With("component", "output"),
	}
}

// Open creates the oto context. oto allows one context per process, so a
// second Open keeps the first format.
func (o *Oto) Open(sampleRate, channels int) error {
	if o.otoCtx != nil {
		if o.rate != sampleRate || o.channels != channels {
			o.logger.Warn("Format change ignored, oto cannot be reinitialized",
				"rate", o.rate, "channels", o.channels,
				"requested_rate", sampleRate, "requested_channels", channels)
		}
		return nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	o.otoCtx = ctx
	o.rate = sampleRate
	o.channels = channels
	o.pr, o.pw = io.Pipe()
	o.player = ctx.NewPlayer(o.pr)
	o.player.Play()

	o.logger.Info("Audio output opened", "rate", sampleRate, "channels", channels)
	return nil
}

// Write converts samples to 16-bit PCM at the master volume and blocks
// until the player has taken them
func (o *Oto) Write(samples []int32) error {
	if o.pw == nil {
		return ErrNotOpen
	}

	o.mu.Lock()
	gain := o.gain()
	o.mu.Unlock()

	if cap(o.buf) < len(samples)*2 {
		o.buf = make([]byte, len(samples)*2)
	}
	o.buf = o.buf[:len(samples)*2]
	for i, s := range samples {
		binary.LittleEndian.PutUint16(o.buf[i*2:], uint16(audio.SampleToInt16(scale(s, gain))))
	}

	if _, err := o.pw.Write(o.buf); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Close stops the player and suspends the device
func (o *Oto) Close() error {
	if o.pw != nil {
		o.pw.Close()
		o.pw = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pr != nil {
		o.pr.Close()
		o.pr = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			return fmt.Errorf("failed to suspend oto context: %w", err)
		}
	}
	return nil
}

// SetVolume sets the master volume, clamped to 0..127
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > MaxVolume {
		volume = MaxVolume
	}
	o.mu.Lock()
	o.volume = volume
	o.mu.Unlock()
	o.logger.Debug("Master volume set", "volume", volume)
}

// Volume returns the master volume
func (o *Oto) Volume() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// SetMuted silences the output without losing the volume
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
	o.logger.Debug("Mute changed", "muted", muted)
}

// Muted reports the mute state
func (o *Oto) Muted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

func (o *Oto) gain() int {
	if o.muted {
		return 0
	}
	return o.volume
}

// scale applies a 0..127 gain to a 24-bit range sample
func scale(s int32, gain int) int32 {
	if gain == MaxVolume {
		return s
	}
	return audio.Clamp24(int64(s) * int64(gain) / MaxVolume)
}
