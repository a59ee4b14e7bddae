// ABOUTME: Music director mapping game states and sequences to music tracks
// ABOUTME: Applies table transitions through the scheduler's music operations
package music

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Sendspin/digimuse/internal/imuse"
)

const (
	ignoredState  = 4
	noSongFadeOut = 120
	emptyFileFade = 60
	defaultVolume = 127
	triggerMarker = "exit"
)

var (
	// ErrUnknownState is returned for a state id missing from the table
	ErrUnknownState = errors.New("unknown music state")

	// ErrUnknownSequence is returned for a sequence id missing from the table
	ErrUnknownSequence = errors.New("unknown music sequence")
)

// Player is the music side of the scheduler
type Player interface {
	StartMusic(name string, soundID, hookID, volume int) (int, error)
	FadeOutMusic(delay int)
	FadeOutMusicAndStartNew(delay int, name string, soundID int)
	SetHookIDForMusic(hookID int)
	SetTrigger(trigger imuse.Trigger)
	CurMusicSoundID() int
	MusicPlaying() bool
}

// Director tracks the current music state and sequence
type Director struct {
	mu     sync.Mutex
	player Player
	tables *Tables

	curState         int
	curSeq           int
	nextSeq          int
	stoppingSequence bool
	attributes       map[int]int

	logger *slog.Logger
}

// New creates a director. A nil tables uses the built-in tables.
func New(player Player, tables *Tables, logger *slog.Logger) *Director {
	if tables == nil {
		tables = DefaultTables()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Director{
		player:     player,
		tables:     tables,
		attributes: make(map[int]int),
		logger:     logger.With("component", "music"),
	}
}

// SetState switches to the music state id. 0 selects the null state.
func (d *Director) SetState(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id == ignoredState {
		return nil
	}
	if id == 0 {
		id = NullState
	}
	num := find(d.tables.States, id)
	if num == -1 {
		return fmt.Errorf("%w: %d", ErrUnknownState, id)
	}
	if num == d.curState {
		return nil
	}

	d.logger.Debug("Music state", "id", id, "name", d.tables.States[num].Name)
	if d.curSeq == 0 {
		if num == 0 {
			d.play(nil, num, false)
		} else {
			d.play(&d.tables.States[num], num, false)
		}
	}
	d.curState = num
	return nil
}

// SetSequence switches to the music sequence id. 0 ends the current
// sequence and resumes the state music.
func (d *Director) SetSequence(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.setSequence(id)
}

func (d *Director) setSequence(id int) error {
	if id == 0 {
		id = NullSequence
	}
	num := find(d.tables.Sequences, id)
	if num == -1 {
		return fmt.Errorf("%w: %d", ErrUnknownSequence, id)
	}
	if num == d.curSeq {
		return nil
	}

	d.logger.Debug("Music sequence", "id", id, "name", d.tables.Sequences[num].Name)
	if num != 0 {
		if d.curSeq != 0 {
			switch d.tables.Sequences[d.curSeq].Transition {
			case TransitionHold, TransitionHoldOnly:
				d.nextSeq = num
				d.logger.Debug("Sequence queued", "id", id)
				return nil
			}
		}
		d.play(&d.tables.Sequences[num], 0, true)
		d.nextSeq = 0
	} else {
		switch {
		case d.nextSeq != 0:
			d.play(&d.tables.Sequences[d.nextSeq], 0, true)
			num = d.nextSeq
			d.nextSeq = 0
		case d.curState != 0:
			d.play(&d.tables.States[d.curState], d.curState, true)
		default:
			d.play(nil, d.curState, true)
		}
	}
	d.curSeq = num
	return nil
}

// SetAttribute sets a hook attribute used by states with an attribute position
func (d *Director) SetAttribute(pos, value int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.attributes[pos] = value
}

// Attribute returns a hook attribute
func (d *Director) Attribute(pos int) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.attributes[pos]
}

// State returns the current state entry
func (d *Director) State() Entry {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.tables.States[d.curState]
}

// Sequence returns the current sequence entry
func (d *Director) Sequence() Entry {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.tables.Sequences[d.curSeq]
}

// Refresh ends a finished sequence once no music is left playing
func (d *Director) Refresh() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player.MusicPlaying() {
		return
	}
	if d.curSeq != 0 || d.stoppingSequence {
		d.logger.Debug("Sequence finished", "sequence", d.tables.Sequences[d.curSeq].Name)
		d.stoppingSequence = false
		if err := d.setSequence(0); err != nil {
			d.logger.Error("Cannot end sequence", "error", err)
		}
	}
}

// Run refreshes the director every period until ctx is cancelled
func (d *Director) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.Refresh()
		}
	}
}

// hook returns the hook for a state entry and advances its attribute
func (d *Director) hook(e *Entry, attribPos int) int {
	if attribPos == 0 {
		return 0
	}
	if e.AttribPos != 0 {
		attribPos = e.AttribPos
	}
	hookID := d.attributes[attribPos]
	if e.Hook != 0 {
		next := hookID + 1
		if next > e.Hook {
			next = 1
		}
		d.attributes[attribPos] = next
	}
	return hookID
}

// play applies the transition of e. A nil e fades the music out.
func (d *Director) play(e *Entry, attribPos int, sequence bool) {
	if e == nil {
		d.player.FadeOutMusic(noSongFadeOut)
		return
	}
	hookID := d.hook(e, attribPos)

	switch e.Transition {
	case TransitionNone, TransitionHoldOnly:
	case TransitionHook:
		d.player.SetHookIDForMusic(e.Hook)
	case TransitionStopSequence:
		d.stoppingSequence = true
		d.player.SetHookIDForMusic(e.Hook)
	case TransitionFade, TransitionCrossfade, TransitionHold, TransitionTrigger:
		if e.File == "" {
			d.player.FadeOutMusic(emptyFileFade)
			return
		}
		if d.player.CurMusicSoundID() == e.ID {
			return
		}
		if e.Transition == TransitionHold {
			d.stoppingSequence = true
		}

		switch {
		case e.Transition == TransitionFade:
			d.player.FadeOutMusic(e.FadeDelay)
			d.start(e, e.Hook)
		case e.Transition == TransitionTrigger:
			d.player.SetTrigger(imuse.Trigger{
				Marker:    triggerMarker,
				FadeDelay: e.FadeDelay,
				FileName:  e.File,
				SoundID:   e.ID,
				HookID:    e.Hook,
				Volume:    defaultVolume,
			})
		case !sequence && e.AttribPos != 0 && e.AttribPos == d.tables.States[d.curState].AttribPos:
			d.player.FadeOutMusicAndStartNew(e.FadeDelay, e.File, e.ID)
		default:
			d.player.FadeOutMusic(e.FadeDelay)
			d.start(e, hookID)
		}
	default:
		d.logger.Warn("Unknown music transition", "id", e.ID, "transition", e.Transition)
	}
}

func (d *Director) start(e *Entry, hookID int) {
	if _, err := d.player.StartMusic(e.File, e.ID, hookID, defaultVolume); err != nil {
		d.logger.Error("Cannot start music", "id", e.ID, "file", e.File, "error", err)
	}
}
