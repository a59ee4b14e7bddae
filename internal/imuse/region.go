// ABOUTME: Track slot allocation, region switching, fade clones and flushing
// ABOUTME: Implements the per-track transitions taken at region boundaries
package imuse

import "github.com/Sendspin/digimuse/internal/sound"

// allocate returns a free live track, evicting the lowest priority track
// below priority when the pool is full
func (e *Engine) allocate(priority int) (int, bool) {
	for i := 0; i < MaxTracks; i++ {
		if !e.tracks[i].used {
			return i, true
		}
	}

	victim := -1
	lowest := priority
	for i := 0; i < MaxTracks; i++ {
		t := &e.tracks[i]
		if t.used && !t.toBeRemoved && !t.souStreamUsed && t.priority < lowest {
			lowest = t.priority
			victim = i
		}
	}
	if victim == -1 {
		e.logger.Warn("No track available for priority", "priority", priority)
		return -1, false
	}

	t := &e.tracks[victim]
	e.logger.Debug("Evicting track",
		"track", victim,
		"sound_id", t.soundID,
		"priority", t.priority,
		"requested", priority)
	e.stopTrack(t)
	return victim, true
}

// stopTrack silences a track at once and frees its slot
func (e *Engine) stopTrack(t *Track) {
	if t.channel != 0 {
		e.mixer.Stop(t.channel)
	}
	if t.desc != nil {
		e.sounds.Close(t.desc)
	}
	t.reset()
}

// flushTrack ends a track. Queued audio drains before the slot is reclaimed.
func (e *Engine) flushTrack(t *Track) {
	t.toBeRemoved = true

	if t.souStreamUsed {
		e.mixer.Stop(t.channel)
	} else if t.stream {
		e.logger.Debug("Flushing track", "track", t.id, "sound_id", t.soundID)
		e.mixer.Finish(t.channel)
		t.stream = false
		if t.desc != nil {
			e.sounds.Close(t.desc)
			t.desc = nil
		}
	}

	if !e.mixer.IsActive(t.channel) {
		t.reset()
	}
}

// cloneToFadeOutTrack copies t into its shadow slot with an independent
// descriptor and a fade to silence over fadeDelay 60 Hz ticks
func (e *Engine) cloneToFadeOutTrack(t *Track, fadeDelay int) *Track {
	if t.toBeRemoved {
		e.logger.Error("Refusing to clone a track that is being removed", "track", t.id)
		return nil
	}
	if t.isShadow() {
		return nil
	}

	fade := &e.tracks[t.id+MaxTracks]
	if fade.used {
		e.logger.Debug("Shadow track busy, forcing flush", "track", fade.id, "sound_id", fade.soundID)
		e.flushTrack(fade)
		e.mixer.Stop(fade.channel)
		if fade.desc != nil {
			e.sounds.Close(fade.desc)
		}
	}

	*fade = *t
	fade.id = t.id + MaxTracks
	fade.source = nil

	desc, err := e.sounds.Clone(t.desc)
	if err != nil {
		e.logger.Error("Cannot clone sound for fade out",
			"sound_id", t.soundID,
			"name", t.soundName,
			"error", err)
		fade.reset()
		return nil
	}
	fade.desc = desc

	if fadeDelay <= 0 {
		fadeDelay = 1
	}
	fade.volFadeDelay = fadeDelay
	fade.volFadeDest = 0
	fade.volFadeStep = fadeStep(fade.vol, 0, e.hz, fadeDelay)
	fade.volFadeUsed = true

	fade.channel = e.mixer.OpenChannel(fade.format(), int(fade.volGroup))
	e.mixer.SetVolume(fade.channel, fade.getVol())
	e.mixer.SetBalance(fade.channel, fade.getPan())
	fade.stream = true
	fade.used = true

	e.logger.Debug("Track cloned to fade out",
		"track", t.id,
		"shadow", fade.id,
		"sound_id", t.soundID,
		"delay", fadeDelay,
		"step", fade.volFadeStep)
	return fade
}

// fadeStep returns the per-tick volume change that moves vol to dest in
// delay 60 Hz ticks at a tick rate of hz. The tick period is truncated to
// whole milliseconds first, so the step undershoots and the last tick clamps.
func fadeStep(vol, dest, hz, delay int) int {
	return int(int64(dest-vol) * 60 * int64(1000/hz) / (1000 * int64(delay)))
}

// rewindToRegion points a freshly cloned fade track at the start of its region
func rewindToRegion(fade *Track) {
	if fade == nil {
		return
	}
	fade.dataOffset = fade.desc.RegionOffset(fade.curRegion)
	fade.regionOffset = 0
	fade.curHookID = 0
}

// switchToNextRegion advances t past the region that just ended, taking a
// trigger or a hook jump when one applies
func (e *Engine) switchToNextRegion(t *Track) {
	if t.isShadow() {
		e.flushTrack(t)
		return
	}

	d := t.desc
	t.curRegion++
	if t.curRegion >= d.NumRegions() {
		e.logger.Debug("End of sound", "track", t.id, "sound_id", t.soundID)
		e.flushTrack(t)
		return
	}

	if e.triggerUsed && len(d.Markers) > 0 && d.TriggerMatches(t.curRegion, e.trigger.Marker) {
		trig := e.trigger
		e.triggerUsed = false
		e.logger.Debug("Trigger fired",
			"sound_id", t.soundID,
			"region", t.curRegion,
			"marker", trig.Marker,
			"next", trig.FileName)

		rewindToRegion(e.cloneToFadeOutTrack(t, trig.FadeDelay))
		e.flushTrack(t)
		if _, err := e.startSound(trig.SoundID, trig.FileName, sound.KindBundle, sound.GroupMusic,
			trig.HookID, trig.Volume, PriorityMusic, nil); err != nil {
			e.logger.Error("Trigger music failed to start", "sound_id", trig.SoundID, "error", err)
		}
		return
	}

	if jumpID := d.JumpIDByRegionAndHook(t.curRegion, t.curHookID); jumpID != -1 {
		region := d.RegionIDByJump(jumpID)
		sampleHook := d.JumpHookID(jumpID)
		if region == -1 {
			e.logger.Warn("Jump destination has no region", "sound_id", t.soundID, "jump", jumpID)
		} else if sampleHook != 0 {
			if t.curHookID == sampleHook {
				if delay := 60 * d.JumpFade(jumpID) / 1000; delay != 0 {
					rewindToRegion(e.cloneToFadeOutTrack(t, delay))
				}
				e.logger.Debug("Hook jump", "sound_id", t.soundID, "hook", sampleHook, "region", region)
				t.curRegion = region
				t.curHookID = 0
			}
		} else {
			if delay := 60 * d.JumpFade(jumpID) / 1000; delay != 0 {
				rewindToRegion(e.cloneToFadeOutTrack(t, delay))
			}
			t.curRegion = region
		}
	}

	t.dataOffset = d.RegionOffset(t.curRegion)
	t.regionOffset = 0
}
