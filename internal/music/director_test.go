// ABOUTME: Tests for the music director
// ABOUTME: Covers state and sequence transitions, queued sequences, triggers and table loading
package music

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Sendspin/digimuse/internal/imuse"
)

type fakePlayer struct {
	calls   []string
	current int
	trigger imuse.Trigger
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{current: -1}
}

func (p *fakePlayer) StartMusic(name string, soundID, hookID, volume int) (int, error) {
	p.calls = append(p.calls, fmt.Sprintf("start %s %d hook=%d vol=%d", name, soundID, hookID, volume))
	p.current = soundID
	return 0, nil
}

func (p *fakePlayer) FadeOutMusic(delay int) {
	p.calls = append(p.calls, fmt.Sprintf("fade %d", delay))
	p.current = -1
}

func (p *fakePlayer) FadeOutMusicAndStartNew(delay int, name string, soundID int) {
	p.calls = append(p.calls, fmt.Sprintf("fade+start %d %s %d", delay, name, soundID))
	p.current = soundID
}

func (p *fakePlayer) SetHookIDForMusic(hookID int) {
	p.calls = append(p.calls, fmt.Sprintf("hook %d", hookID))
}

func (p *fakePlayer) SetTrigger(trigger imuse.Trigger) {
	p.calls = append(p.calls, fmt.Sprintf("trigger %s %d", trigger.FileName, trigger.SoundID))
	p.trigger = trigger
}

func (p *fakePlayer) CurMusicSoundID() int { return p.current }
func (p *fakePlayer) MusicPlaying() bool   { return p.current != -1 }

func testTables() *Tables {
	return &Tables{
		States: []Entry{
			{ID: 1000, Name: "null"},
			{ID: 1100, Name: "town", Transition: TransitionCrossfade, FadeDelay: 60, File: "TOWN.IMX"},
			{ID: 1101, Name: "harbor", Transition: TransitionCrossfade, AttribPos: 4, FadeDelay: 30, File: "HARBOR.IMX"},
			{ID: 1102, Name: "harbor night", Transition: TransitionCrossfade, AttribPos: 4, FadeDelay: 30, File: "NIGHT.IMX"},
			{ID: 1103, Name: "cave", Transition: TransitionFade, Hook: 2, FadeDelay: 10, File: "CAVE.IMX"},
			{ID: 1104, Name: "silent", Transition: TransitionCrossfade},
			{ID: 1105, Name: "gate", Transition: TransitionTrigger, Hook: 1, FadeDelay: 42, File: "GATE.IMX"},
			{ID: 1106, Name: "loop", Transition: TransitionCrossfade, AttribPos: 7, Hook: 3, FadeDelay: 60, File: "LOOP.IMX"},
			{ID: 1107, Name: "loop alt", Transition: TransitionCrossfade, AttribPos: 8, Hook: 3, FadeDelay: 60, File: "LOOP2.IMX"},
		},
		Sequences: []Entry{
			{ID: 2000, Name: "null"},
			{ID: 2100, Name: "intro", Transition: TransitionHold, FadeDelay: 60, File: "INTRO.IMX"},
			{ID: 2105, Name: "chase", Transition: TransitionCrossfade, FadeDelay: 60, File: "CHASE.IMX"},
			{ID: 2110, Name: "boat", Transition: TransitionHook, Hook: 1},
			{ID: 2115, Name: "escape", Transition: TransitionStopSequence, Hook: 2},
		},
	}
}

func newTestDirector() (*Director, *fakePlayer) {
	p := newFakePlayer()
	return New(p, testTables(), slog.New(slog.NewTextHandler(io.Discard, nil))), p
}

func expectCalls(t *testing.T, p *fakePlayer, expected ...string) {
	t.Helper()
	if len(expected) == 0 && len(p.calls) == 0 {
		return
	}
	if !reflect.DeepEqual(p.calls, expected) {
		t.Errorf("expected calls %q, got %q", expected, p.calls)
	}
	p.calls = nil
}

func TestSetStateCrossfades(t *testing.T) {
	d, p := newTestDirector()

	if err := d.SetState(1100); err != nil {
		t.Fatalf("set state failed: %v", err)
	}
	expectCalls(t, p, "fade 60", "start TOWN.IMX 1100 hook=0 vol=127")

	d.SetState(1100)
	expectCalls(t, p)

	d.SetState(0)
	expectCalls(t, p, "fade 120")
	if d.State().ID != NullState {
		t.Errorf("expected null state, got %d", d.State().ID)
	}
}

func TestSetStateIgnoresStateFour(t *testing.T) {
	d, p := newTestDirector()
	if err := d.SetState(4); err != nil {
		t.Fatalf("expected state 4 ignored, got %v", err)
	}
	expectCalls(t, p)
}

func TestSetStateUnknown(t *testing.T) {
	d, _ := newTestDirector()
	if err := d.SetState(1999); !errors.Is(err, ErrUnknownState) {
		t.Errorf("expected ErrUnknownState, got %v", err)
	}
	if err := d.SetSequence(2999); !errors.Is(err, ErrUnknownSequence) {
		t.Errorf("expected ErrUnknownSequence, got %v", err)
	}
}

func TestSharedAttributeKeepsPosition(t *testing.T) {
	d, p := newTestDirector()
	d.SetState(1101)
	expectCalls(t, p, "fade 30", "start HARBOR.IMX 1101 hook=0 vol=127")

	d.SetState(1102)
	expectCalls(t, p, "fade+start 30 NIGHT.IMX 1102")
}

func TestFadeTransitionUsesTableHook(t *testing.T) {
	d, p := newTestDirector()
	d.SetState(1103)
	expectCalls(t, p, "fade 10", "start CAVE.IMX 1103 hook=2 vol=127")
}

func TestEmptyFileFadesOut(t *testing.T) {
	d, p := newTestDirector()
	d.SetState(1104)
	expectCalls(t, p, "fade 60")
}

func TestTriggerTransition(t *testing.T) {
	d, p := newTestDirector()
	d.SetState(1105)
	expectCalls(t, p, "trigger GATE.IMX 1105")

	expected := imuse.Trigger{Marker: "exit", FadeDelay: 42, FileName: "GATE.IMX", SoundID: 1105, HookID: 1, Volume: 127}
	if p.trigger != expected {
		t.Errorf("expected trigger %+v, got %+v", expected, p.trigger)
	}
}

func TestAttributeHookCycles(t *testing.T) {
	d, p := newTestDirector()

	var hooks []int
	for i := 0; i < 4; i++ {
		d.SetState(1106)
		d.SetState(1107)
		hooks = append(hooks, d.Attribute(7))
	}
	if !reflect.DeepEqual(hooks, []int{1, 2, 3, 1}) {
		t.Errorf("expected attribute to cycle 1..3, got %v", hooks)
	}
	if p.calls[1] != "start LOOP.IMX 1106 hook=0 vol=127" || p.calls[5] != "start LOOP.IMX 1106 hook=1 vol=127" {
		t.Errorf("unexpected calls %q", p.calls)
	}
}

func TestSequenceOverridesState(t *testing.T) {
	d, p := newTestDirector()
	d.SetState(1100)
	p.calls = nil

	d.SetSequence(2105)
	expectCalls(t, p, "fade 60", "start CHASE.IMX 2105 hook=0 vol=127")

	d.SetState(1103)
	expectCalls(t, p)

	d.SetSequence(0)
	expectCalls(t, p, "fade 10", "start CAVE.IMX 1103 hook=2 vol=127")
	if d.Sequence().ID != NullSequence {
		t.Errorf("expected null sequence, got %d", d.Sequence().ID)
	}
}

func TestHoldingSequenceQueuesNext(t *testing.T) {
	d, p := newTestDirector()

	d.SetSequence(2100)
	expectCalls(t, p, "fade 60", "start INTRO.IMX 2100 hook=0 vol=127")

	d.SetSequence(2105)
	expectCalls(t, p)
	if d.Sequence().ID != 2100 {
		t.Errorf("expected holding sequence still current, got %d", d.Sequence().ID)
	}

	d.SetSequence(0)
	expectCalls(t, p, "fade 60", "start CHASE.IMX 2105 hook=0 vol=127")
	if d.Sequence().ID != 2105 {
		t.Errorf("expected queued sequence current, got %d", d.Sequence().ID)
	}
}

func TestHookSequences(t *testing.T) {
	d, p := newTestDirector()
	d.SetSequence(2110)
	expectCalls(t, p, "hook 1")

	d.SetSequence(2115)
	expectCalls(t, p, "hook 2")
	if !d.stoppingSequence {
		t.Error("expected stopping sequence flag")
	}
}

func TestRefreshEndsFinishedSequence(t *testing.T) {
	d, p := newTestDirector()
	d.SetState(1100)
	d.SetSequence(2105)
	p.calls = nil

	d.Refresh()
	expectCalls(t, p)

	p.current = -1
	d.Refresh()
	expectCalls(t, p, "fade 60", "start TOWN.IMX 1100 hook=0 vol=127")
	if d.Sequence().ID != NullSequence {
		t.Errorf("expected sequence ended, got %d", d.Sequence().ID)
	}
}

func TestDefaultTables(t *testing.T) {
	tables := DefaultTables()
	if len(tables.States) < 2 || len(tables.Sequences) < 2 {
		t.Fatalf("expected built-in tables, got %d states %d sequences", len(tables.States), len(tables.Sequences))
	}
	seen := make(map[int]bool)
	for _, e := range append(tables.States, tables.Sequences...) {
		if seen[e.ID] {
			t.Errorf("duplicate id %d", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestLoadTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "music.yaml")
	data := []byte("states:\n  - {id: 1000}\n  - {id: 1001, transition: 3, file: A.IMX}\nsequences:\n  - {id: 2000}\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write tables: %v", err)
	}

	tables, err := LoadTables(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if tables.States[1].File != "A.IMX" || tables.States[1].Transition != TransitionCrossfade {
		t.Errorf("unexpected state %+v", tables.States[1])
	}

	if _, err := ParseTables([]byte("states:\n  - {id: 1001}\nsequences:\n  - {id: 2000}\n")); !errors.Is(err, ErrInvalidTables) {
		t.Errorf("expected ErrInvalidTables, got %v", err)
	}
	if _, err := LoadTables(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}
