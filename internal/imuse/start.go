// ABOUTME: Starting sounds on scheduler tracks
// ABOUTME: Slot allocation, descriptor open with disk fallback and mixer channel setup
package imuse

import (
	"fmt"

	"github.com/Sendspin/digimuse/internal/sound"
)

// Priorities used by the start helpers
const (
	PriorityMusic         = 126
	PriorityMusicOtherPos = 127
	PriorityVoice         = 127
	MaxPriority           = 127
	defaultPan            = 64
	defaultVolume         = 127
	freqRounding          = 25
)

// StartSound starts a sound on a free track and returns the track id
func (e *Engine) StartSound(soundID int, name string, kind sound.Kind, group sound.VolGroup, hookID, volume, priority int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.startSound(soundID, name, kind, group, hookID, volume, priority, nil)
}

// StartMusic starts a music bundle sound
func (e *Engine) StartMusic(name string, soundID, hookID, volume int) (int, error) {
	return e.StartSound(soundID, name, sound.KindBundle, sound.GroupMusic, hookID, volume, PriorityMusic)
}

// StartMusicWithOtherPos starts a music sound at the playback position of
// the track currently playing otherSoundID
func (e *Engine) StartMusicWithOtherPos(name string, soundID, hookID, volume, otherSoundID int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var other *Track
	for i := 0; i < MaxTracks; i++ {
		t := &e.tracks[i]
		if t.used && !t.toBeRemoved && t.soundID == otherSoundID {
			other = t
			break
		}
	}
	return e.startSound(soundID, name, sound.KindBundle, sound.GroupMusic, hookID, volume, PriorityMusicOtherPos, other)
}

// StartVoice starts a speech sound from the voice bundle
func (e *Engine) StartVoice(soundID int, name string) (int, error) {
	return e.StartSound(soundID, name, sound.KindBundle, sound.GroupVoice, 0, defaultVolume, PriorityVoice)
}

// StartSfx starts a sound effect from the resource store
func (e *Engine) StartSfx(soundID, priority int) (int, error) {
	return e.StartSound(soundID, "", sound.KindInlineResource, sound.GroupSfx, 0, defaultVolume, priority)
}

// StartStream plays an externally decoded source on a track. The track
// has no regions; it ends when the source is drained.
func (e *Engine) StartStream(soundID int, src Source, group sound.VolGroup, volume, priority int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.allocate(priority)
	if !ok {
		return -1, fmt.Errorf("%w: sound %d priority %d", ErrNoFreeTrack, soundID, priority)
	}

	t := &e.tracks[id]
	t.reset()
	t.pan = defaultPan
	t.vol = volume * 1000
	t.soundID = soundID
	t.volGroup = group
	t.priority = priority
	t.freq = src.SampleRate()
	t.source = src
	t.souStreamUsed = true

	t.channel = e.mixer.OpenSourceChannel(src, int(group))
	e.mixer.SetVolume(t.channel, t.getVol())
	e.mixer.SetBalance(t.channel, t.getPan())
	t.used = true

	e.logger.Info("Stream started",
		"track", id,
		"sound_id", soundID,
		"rate", t.freq,
		"channels", src.Channels(),
		"group", group)
	return id, nil
}

// openWithFallback opens a sound on the current disk, then disks 1 and 2
func (e *Engine) openWithFallback(soundID int, name string, kind sound.Kind, group sound.VolGroup) (*sound.Descriptor, error) {
	var err error
	for _, disk := range []int{-1, 1, 2} {
		var d *sound.Descriptor
		d, err = e.sounds.Open(soundID, name, kind, group, disk)
		if err == nil {
			return d, nil
		}
	}
	return nil, err
}

func (e *Engine) startSound(soundID int, name string, kind sound.Kind, group sound.VolGroup, hookID, volume, priority int, other *Track) (int, error) {
	var pos *Track
	if other != nil && other.used && !other.toBeRemoved {
		snapshot := *other
		pos = &snapshot
	}

	id, ok := e.allocate(priority)
	if !ok {
		return -1, fmt.Errorf("%w: sound %d priority %d", ErrNoFreeTrack, soundID, priority)
	}

	t := &e.tracks[id]
	t.reset()
	t.pan = defaultPan
	t.vol = volume * 1000
	t.soundID = soundID
	t.soundName = name
	t.kind = kind
	t.volGroup = group
	t.curHookID = hookID
	t.priority = priority

	desc, err := e.openWithFallback(soundID, name, kind, group)
	if err != nil {
		e.logger.Error("Cannot open sound",
			"sound_id", soundID,
			"name", name,
			"kind", kind,
			"error", err)
		t.reset()
		return -1, err
	}
	t.desc = desc

	t.freq = desc.Freq
	bits := desc.Bits
	channels := desc.Channels
	freq := desc.Freq - desc.Freq%freqRounding
	t.feedSize = freq * channels
	if bits == 12 || bits == 16 {
		t.feedSize *= 2
	}

	if channels == 2 {
		t.mixerFlags |= FlagStereo
	}
	if bits == 12 || bits == 16 {
		t.mixerFlags |= Flag16Bits
	} else if bits == 8 {
		t.mixerFlags |= FlagUnsigned
	}
	if bits == 12 || desc.Compressed() {
		t.mixerFlags |= FlagLittleEndian
	}

	if pos != nil {
		t.curRegion = pos.curRegion
		t.dataOffset = pos.dataOffset
		t.regionOffset = pos.regionOffset
		t.dataMod12Bit = pos.dataMod12Bit
	}

	t.channel = e.mixer.OpenChannel(t.format(), int(group))
	e.mixer.SetVolume(t.channel, t.getVol())
	e.mixer.SetBalance(t.channel, t.getPan())
	t.stream = true
	t.used = true

	e.logger.Info("Sound started",
		"track", id,
		"sound_id", soundID,
		"name", name,
		"group", group,
		"bits", bits,
		"channels", channels,
		"freq", desc.Freq,
		"priority", priority)
	return id, nil
}
