// ABOUTME: Scheduler engine with its track pool and periodic tick
// ABOUTME: Feeds region data to mixer channels and applies fades once per tick
package imuse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Sendspin/digimuse/internal/sound"
	"github.com/Sendspin/digimuse/pkg/audio"
	"github.com/Sendspin/digimuse/pkg/audio/codec"
)

const (
	// MaxTracks is the number of live tracks; each has one shadow track
	MaxTracks = 8

	// DefaultHz is the default tick rate
	DefaultHz = 60

	// RadioChatterSoundID is the sound filtered when radio chatter is enabled
	RadioChatterSoundID = 10000

	maxFeedBytes = codec.BlockSize
)

var (
	// ErrTrackRange is returned for a track id outside the pool
	ErrTrackRange = errors.New("track id out of range")

	// ErrNoFreeTrack is returned when allocation finds no slot to use or evict
	ErrNoFreeTrack = errors.New("no free track")
)

// Mixer is the channel mixer fed by the engine
type Mixer interface {
	OpenChannel(format audio.Format, group int) int
	OpenSourceChannel(src Source, group int) int
	Queue(id int, data []byte) error
	Finish(id int)
	Stop(id int)
	IsActive(id int) bool
	IsEndOfData(id int) bool
	SetVolume(id, volume int)
	SetBalance(id, balance int)
	SetGroup(id, group int)
	Pause(paused bool)
}

// Source is an externally decoded stream played without region logic
type Source = audio.Source

// Sounds opens and reads sound descriptors
type Sounds interface {
	Open(soundID int, name string, kind sound.Kind, group sound.VolGroup, disk int) (*sound.Descriptor, error)
	Close(d *sound.Descriptor)
	Clone(d *sound.Descriptor) (*sound.Descriptor, error)
	FetchRegion(d *sound.Descriptor, region, offset, size int) ([]byte, error)
}

// Trigger is a one-shot music switch armed for the next region carrying Marker
type Trigger struct {
	Marker    string
	FadeDelay int // 60 Hz ticks
	FileName  string
	SoundID   int
	HookID    int
	Volume    int
}

// Options configures an Engine
type Options struct {
	Hz           int
	RadioChatter bool
	Logger       *slog.Logger
}

// Engine schedules tracks. All methods are safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	tracks [MaxTracks * 2]Track
	sounds Sounds
	mixer  Mixer
	hz     int
	paused bool

	trigger     Trigger
	triggerUsed bool

	radioChatter bool
	ticks        uint64

	logger *slog.Logger
}

// New creates an engine reading sounds from sounds and playing through mixer
func New(sounds Sounds, mixer Mixer, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hz := opts.Hz
	if hz <= 0 {
		hz = DefaultHz
	}

	e := &Engine{
		sounds:       sounds,
		mixer:        mixer,
		hz:           hz,
		radioChatter: opts.RadioChatter,
		logger:       logger.With("component", "imuse"),
	}
	for i := range e.tracks {
		e.tracks[i].id = i
		e.tracks[i].reset()
	}
	return e
}

// Hz returns the tick rate
func (e *Engine) Hz() int {
	return e.hz
}

// Run ticks the engine at its configured rate until ctx is cancelled
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(e.hz))
	defer ticker.Stop()

	e.logger.Info("Scheduler started", "hz", e.hz)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Scheduler stopped", "ticks", e.Ticks())
			return ctx.Err()
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Ticks returns the number of ticks run
func (e *Engine) Ticks() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}

// Tick runs one scheduler pass over every used track
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ticks++
	for i := range e.tracks {
		t := &e.tracks[i]
		if !t.used {
			continue
		}

		if !t.stream {
			if !e.mixer.IsActive(t.channel) {
				t.reset()
			}
			continue
		}

		if e.paused {
			return
		}

		if t.volFadeUsed && e.stepFade(t) {
			continue
		}

		if err := e.feed(t); err != nil {
			e.logger.Error("Track feed failed",
				"track", t.id,
				"sound_id", t.soundID,
				"error", err)
			continue
		}

		if t.channel != 0 && e.mixer.IsActive(t.channel) {
			e.mixer.SetVolume(t.channel, t.getVol())
			e.mixer.SetBalance(t.channel, t.getPan())
		}
	}
}

// stepFade moves the volume one step toward the fade target. It returns
// true when the track was flushed.
func (e *Engine) stepFade(t *Track) bool {
	switch {
	case t.volFadeStep < 0:
		if t.vol > t.volFadeDest {
			t.vol += t.volFadeStep
			if t.vol < t.volFadeDest {
				t.vol = t.volFadeDest
				t.volFadeUsed = false
			}
			if t.vol == 0 {
				e.logger.Debug("Fade out complete", "track", t.id, "sound_id", t.soundID)
				e.flushTrack(t)
				return true
			}
		}
	case t.volFadeStep > 0:
		if t.vol < t.volFadeDest {
			t.vol += t.volFadeStep
			if t.vol > t.volFadeDest {
				t.vol = t.volFadeDest
				t.volFadeUsed = false
			}
		}
	}
	return false
}

// feedAlign returns the sample alignment mask for a format
func feedAlign(bits, channels int) (int, bool) {
	switch bits {
	case 12, 16:
		if channels == 2 {
			return 3, true
		}
		return 1, true
	case 8:
		if channels == 2 {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// feed queues this tick's share of region data to the track's channel
func (e *Engine) feed(t *Track) error {
	if t.souStreamUsed {
		return nil
	}

	if t.curRegion == -1 {
		e.switchToNextRegion(t)
		// a trigger may have restarted the slot with another sound
		if !t.stream || t.curRegion == -1 {
			return nil
		}
	}

	bits := t.desc.Bits
	channels := t.desc.Channels

	feedSize := t.feedSize / e.hz
	if e.mixer.IsEndOfData(t.channel) {
		feedSize *= 2
	}
	mask, ok := feedAlign(bits, channels)
	if !ok {
		return fmt.Errorf("unexpected sample width %d bits", bits)
	}
	feedSize &^= mask
	if feedSize == 0 {
		return nil
	}

	for feedSize > 0 {
		data, carried, err := e.fetch(t, bits, channels, feedSize)
		if err != nil {
			return err
		}
		feedSize += carried
		cur := len(data)
		if cur > feedSize {
			cur = feedSize
			data = data[:cur]
		}

		if cur > 0 {
			if err := e.mixer.Queue(t.channel, data); err != nil {
				return err
			}
			t.regionOffset += cur
		}

		if t.desc.IsEndOfRegion() {
			e.switchToNextRegion(t)
			if !t.stream || t.curRegion == -1 {
				break
			}
		} else if cur == 0 {
			break
		}
		feedSize -= cur
	}
	return nil
}

// fetch reads up to feedSize playable bytes from the current region. For
// 12-bit sounds it also returns the bytes carried over from the previous
// fetch, which the caller adds to its feed.
func (e *Engine) fetch(t *Track, bits, channels, feedSize int) ([]byte, int, error) {
	if feedSize > maxFeedBytes {
		feedSize = maxFeedBytes
	}

	switch bits {
	case 12:
		carried := t.dataMod12Bit
		feedSize += carried
		raw12 := feedSize * 3 / 4
		len12 := (raw12 / 3) * 4
		t.dataMod12Bit = feedSize - len12

		raw, err := e.sounds.FetchRegion(t.desc, t.curRegion, t.regionOffset*3/4, raw12)
		if err != nil {
			return nil, 0, err
		}
		return codec.Expand12Bit(raw), carried, nil

	case 16:
		data, err := e.sounds.FetchRegion(t.desc, t.curRegion, t.regionOffset, feedSize)
		if err != nil {
			return nil, 0, err
		}
		if channels == 2 {
			return data[:len(data)&^3], 0, nil
		}
		return data[:len(data)&^1], 0, nil

	default:
		data, err := e.sounds.FetchRegion(t.desc, t.curRegion, t.regionOffset, feedSize)
		if err != nil {
			return nil, 0, err
		}
		if e.radioChatter && t.soundID == RadioChatterSoundID {
			if len(data) > feedSize {
				data = data[:feedSize]
			}
			data = radioChatter(data)
		}
		if channels == 2 {
			data = data[:len(data)&^1]
		}
		return data, 0, nil
	}
}
