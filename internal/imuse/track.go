// ABOUTME: Track state for the scheduler
// ABOUTME: Playback position, volume fade, hook and mixer binding of one track
package imuse

import (
	"github.com/Sendspin/digimuse/internal/sound"
	"github.com/Sendspin/digimuse/pkg/audio"
)

// Mixer format flags of a track
const (
	FlagStereo = 1 << iota
	Flag16Bits
	FlagUnsigned
	FlagLittleEndian
)

// Track is one playback slot
type Track struct {
	id          int
	used        bool
	toBeRemoved bool

	pan          int // 0..127, 64 is centre
	vol          int // 0..127000
	volFadeDest  int
	volFadeStep  int
	volFadeDelay int
	volFadeUsed  bool

	soundID   int
	soundName string
	kind      sound.Kind
	volGroup  sound.VolGroup
	curHookID int
	priority  int

	curRegion    int
	regionOffset int
	dataOffset   int
	dataMod12Bit int

	mixerFlags int
	feedSize   int
	freq       int

	desc *sound.Descriptor

	channel       int
	stream        bool
	souStreamUsed bool
	source        Source
}

func (t *Track) reset() {
	id := t.id
	*t = Track{id: id, curRegion: -1}
}

// getVol returns the mixer channel volume
func (t *Track) getVol() int {
	return t.vol / 1000
}

// getPan returns the mixer channel balance
func (t *Track) getPan() int {
	p := (t.pan - 64) * 2
	if p > 127 {
		p = 127
	}
	return p
}

func (t *Track) format() audio.Format {
	f := audio.Format{
		Codec:      "pcm",
		SampleRate: t.freq,
		Channels:   1,
		BitDepth:   8,
	}
	if t.mixerFlags&FlagStereo != 0 {
		f.Channels = 2
	}
	if t.mixerFlags&Flag16Bits != 0 {
		f.BitDepth = 16
	}
	f.Unsigned = t.mixerFlags&FlagUnsigned != 0
	f.LittleEndian = t.mixerFlags&FlagLittleEndian != 0
	return f
}

// isShadow reports whether the track belongs to the fade-out pool
func (t *Track) isShadow() bool {
	return t.id >= MaxTracks
}
