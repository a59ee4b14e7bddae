// ABOUTME: Track mutators and status queries of the scheduler
// ABOUTME: Volume, pan, hooks, fades, music control, lip sync and monitoring snapshots
package imuse

import (
	"encoding/binary"
	"fmt"

	"github.com/Sendspin/digimuse/internal/sound"
)

// TrackInfo is a snapshot of one used track
type TrackInfo struct {
	ID          int    `json:"id"`
	SoundID     int    `json:"sound_id"`
	Name        string `json:"name"`
	Group       string `json:"group"`
	Priority    int    `json:"priority"`
	Volume      int    `json:"volume"`
	Pan         int    `json:"pan"`
	Hook        int    `json:"hook"`
	Region      int    `json:"region"`
	Regions     int    `json:"regions"`
	PosMs       int    `json:"pos_ms"`
	Fading      bool   `json:"fading"`
	Shadow      bool   `json:"shadow"`
	Streamed    bool   `json:"streamed"`
	ToBeRemoved bool   `json:"to_be_removed"`
}

// liveTracks calls fn for every used live track playing soundID that is not being removed
func (e *Engine) liveTracks(soundID int, fn func(t *Track)) {
	for i := 0; i < MaxTracks; i++ {
		t := &e.tracks[i]
		if t.used && !t.toBeRemoved && t.soundID == soundID {
			fn(t)
		}
	}
}

// SetVolume sets the volume (0..127) of every track playing soundID
func (e *Engine) SetVolume(soundID, volume int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.liveTracks(soundID, func(t *Track) {
		t.vol = volume * 1000
	})
}

// SetPan sets the pan (0..127, 64 centre) of every track playing soundID
func (e *Engine) SetPan(soundID, pan int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.liveTracks(soundID, func(t *Track) {
		t.pan = pan
	})
}

// SetPriority sets the priority of every track playing soundID
func (e *Engine) SetPriority(soundID, priority int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if priority < 0 || priority > MaxPriority {
		e.logger.Warn("Priority out of range, ignored", "sound_id", soundID, "priority", priority)
		return
	}
	e.liveTracks(soundID, func(t *Track) {
		t.priority = priority
	})
}

// SetHookID selects the jump hook of every track playing soundID
func (e *Engine) SetHookID(soundID, hookID int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.liveTracks(soundID, func(t *Track) {
		t.curHookID = hookID
	})
}

// SetFade fades every track playing soundID to destVolume over delay 60 Hz ticks
func (e *Engine) SetFade(soundID, destVolume, delay int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if delay <= 0 {
		e.logger.Warn("Fade delay must be positive, ignored", "sound_id", soundID, "delay", delay)
		return
	}
	e.liveTracks(soundID, func(t *Track) {
		t.volFadeDelay = delay
		t.volFadeDest = destVolume * 1000
		t.volFadeStep = fadeStep(t.vol, t.volFadeDest, e.hz, delay)
		t.volFadeUsed = true
		e.logger.Debug("Fade set",
			"track", t.id,
			"sound_id", soundID,
			"dest", t.volFadeDest,
			"step", t.volFadeStep)
	})
}

// SetVolumeGroup moves every track playing soundID to group
func (e *Engine) SetVolumeGroup(soundID int, group sound.VolGroup) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.liveTracks(soundID, func(t *Track) {
		t.volGroup = group
		if t.channel != 0 {
			e.mixer.SetGroup(t.channel, int(group))
		}
	})
}

// liveMusic calls fn for every used live music track that is not being removed
func (e *Engine) liveMusic(fn func(t *Track) bool) {
	for i := 0; i < MaxTracks; i++ {
		t := &e.tracks[i]
		if t.used && !t.toBeRemoved && t.volGroup == sound.GroupMusic {
			if !fn(t) {
				return
			}
		}
	}
}

// SetHookIDForMusic selects the jump hook of every music track
func (e *Engine) SetHookIDForMusic(hookID int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.liveMusic(func(t *Track) bool {
		t.curHookID = hookID
		return true
	})
}

// FadeOutMusic fades every music track out over delay 60 Hz ticks
func (e *Engine) FadeOutMusic(delay int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Debug("Fading out music", "delay", delay)
	e.liveMusic(func(t *Track) bool {
		e.cloneToFadeOutTrack(t, delay)
		e.flushTrack(t)
		return true
	})
}

// FadeOutMusicAndStartNew starts a music sound at the position of the
// current music and fades the current one out
func (e *Engine) FadeOutMusicAndStartNew(delay int, name string, soundID int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.liveMusic(func(t *Track) bool {
		id, err := e.startSound(soundID, name, sound.KindBundle, sound.GroupMusic, 0, defaultVolume, PriorityMusicOtherPos, t)
		if err != nil {
			e.logger.Error("Cannot start music at current position", "sound_id", soundID, "name", name, "error", err)
		}
		if id == t.id || !t.used {
			// the old music was evicted, its slot is free or holds the new one
			return false
		}
		e.cloneToFadeOutTrack(t, delay)
		e.flushTrack(t)
		return false
	})
}

// SetTrigger arms a one-shot music switch
func (e *Engine) SetTrigger(trigger Trigger) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.trigger = trigger
	e.triggerUsed = true
	e.logger.Debug("Trigger armed", "marker", trigger.Marker, "next", trigger.FileName, "sound_id", trigger.SoundID)
}

// StopSound flushes every track playing soundID
func (e *Engine) StopSound(soundID int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.tracks {
		t := &e.tracks[i]
		if t.used && !t.toBeRemoved && t.soundID == soundID {
			e.flushTrack(t)
		}
	}
}

// StopAll silences and frees every track
func (e *Engine) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.tracks {
		t := &e.tracks[i]
		if t.used {
			e.stopTrack(t)
		}
	}
	e.logger.Info("All tracks stopped")
}

// Pause suspends or resumes feeding and mixing
func (e *Engine) Pause(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.paused = paused
	e.mixer.Pause(paused)
	e.logger.Info("Pause changed", "paused", paused)
}

// Paused reports whether the engine is paused
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.paused
}

// SoundStatus reports whether soundID is audible on any track
func (e *Engine) SoundStatus(soundID int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.tracks {
		t := &e.tracks[i]
		if t.used && t.soundID == soundID && e.mixer.IsActive(t.channel) {
			return true
		}
	}
	return false
}

// currentMusic returns the first live music track
func (e *Engine) currentMusic() *Track {
	var cur *Track
	e.liveMusic(func(t *Track) bool {
		cur = t
		return false
	})
	return cur
}

// CurMusicSoundID returns the sound id of the current music, or -1
func (e *Engine) CurMusicSoundID() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t := e.currentMusic(); t != nil {
		return t.soundID
	}
	return -1
}

// CurMusicSoundName returns the name of the current music, or ""
func (e *Engine) CurMusicSoundName() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t := e.currentMusic(); t != nil {
		return t.soundName
	}
	return ""
}

// MusicPlaying reports whether any live music track is playing
func (e *Engine) MusicPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.currentMusic() != nil
}

func (t *Track) posInMs() int {
	unit := t.feedSize / 200
	if unit == 0 {
		return 0
	}
	return 5 * (t.dataOffset + t.regionOffset) / unit
}

// PosInMs returns the playback position of soundID in milliseconds
func (e *Engine) PosInMs(soundID int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos := 0
	for i := 0; i < MaxTracks; i++ {
		t := &e.tracks[i]
		if t.used && !t.toBeRemoved && t.soundID == soundID {
			pos = t.posInMs()
			break
		}
	}
	return pos
}

// LipSync returns the mouth shape of soundID at msPos from sync table syncID
func (e *Engine) LipSync(soundID, syncID, msPos int) (width, height int, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	msPos /= 16
	if msPos < 0 || msPos >= 0x10000 {
		return 0, 0, false
	}

	var data []byte
	for i := 0; i < MaxTracks; i++ {
		t := &e.tracks[i]
		if t.used && !t.toBeRemoved && t.soundID == soundID && t.desc != nil {
			data = t.desc.Sync(syncID)
			break
		}
	}
	entries := len(data) / 4
	if entries == 0 {
		return 0, 0, false
	}

	i := 0
	for i < entries && int(binary.BigEndian.Uint16(data[i*4:])) < msPos {
		i++
	}
	if i == entries {
		i--
	}
	if int(binary.BigEndian.Uint16(data[i*4:])) > msPos && i > 0 {
		i--
	}
	return int(data[i*4+2]), int(data[i*4+3]), true
}

// Snapshot returns the state of every used track
func (e *Engine) Snapshot() []TrackInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	var infos []TrackInfo
	for i := range e.tracks {
		if e.tracks[i].used {
			infos = append(infos, e.tracks[i].info())
		}
	}
	return infos
}

// Track returns the state of one track
func (e *Engine) Track(id int) (TrackInfo, error) {
	if id < 0 || id >= len(e.tracks) {
		return TrackInfo{}, fmt.Errorf("%w: %d", ErrTrackRange, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.tracks[id].info(), nil
}

func (t *Track) info() TrackInfo {
	info := TrackInfo{
		ID:          t.id,
		SoundID:     t.soundID,
		Name:        t.soundName,
		Group:       t.volGroup.String(),
		Priority:    t.priority,
		Volume:      t.getVol(),
		Pan:         t.pan,
		Hook:        t.curHookID,
		Region:      t.curRegion,
		PosMs:       t.posInMs(),
		Fading:      t.volFadeUsed,
		Shadow:      t.isShadow(),
		Streamed:    t.souStreamUsed,
		ToBeRemoved: t.toBeRemoved,
	}
	if t.desc != nil {
		info.Regions = t.desc.NumRegions()
	}
	return info
}
