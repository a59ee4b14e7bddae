// ABOUTME: Engine assembly shared by the play, serve and monitor commands
// ABOUTME: Wires bundle cache, sound manager, mixer, scheduler and music director from config
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Sendspin/digimuse/internal/bundle"
	"github.com/Sendspin/digimuse/internal/config"
	"github.com/Sendspin/digimuse/internal/imuse"
	"github.com/Sendspin/digimuse/internal/mixer"
	"github.com/Sendspin/digimuse/internal/music"
	"github.com/Sendspin/digimuse/internal/sound"
	"github.com/Sendspin/digimuse/pkg/audio/output"
)

// directorPeriod is how often the director checks for finished music
const directorPeriod = 500 * time.Millisecond

// engineRuntime is a fully wired engine
type engineRuntime struct {
	cache    *bundle.DirCache
	sounds   *sound.Manager
	mixer    *mixer.Mixer
	engine   *imuse.Engine
	director *music.Director
	logger   *slog.Logger
}

// newPolicy builds the title policy from config
func newPolicy(c *config.Config) (*sound.TitlePolicy, error) {
	var rules map[string]sound.TitleRule
	if c.TitleRules != "" {
		data, err := os.ReadFile(c.TitleRules)
		if err != nil {
			return nil, fmt.Errorf("failed to read title rules: %w", err)
		}
		rules, err = sound.ParseTitleRules(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse title rules %s: %w", c.TitleRules, err)
		}
	}

	policy, err := sound.NewTitlePolicy(rules, c.Title, c.Demo, c.Disk)
	if err != nil {
		return nil, fmt.Errorf("failed to create title policy: %w", err)
	}
	return policy, nil
}

// newSoundManager builds the bundle cache and sound pool from config
func newSoundManager(c *config.Config, logger *slog.Logger) (*bundle.DirCache, *sound.Manager, error) {
	policy, err := newPolicy(c)
	if err != nil {
		return nil, nil, err
	}

	cache := bundle.NewDirCache(c.GameDir, logger)

	var store sound.ResourceStore
	if c.ResourceDir != "" {
		store = sound.DirStore{Dir: c.ResourceDir}
	}

	return cache, sound.NewManager(cache, store, policy, logger), nil
}

// newEngineRuntime wires an engine from config
func newEngineRuntime(c *config.Config, logger *slog.Logger) (*engineRuntime, error) {
	cache, sounds, err := newSoundManager(c, logger)
	if err != nil {
		return nil, err
	}

	tables, err := music.LoadTables(c.MusicTables)
	if err != nil {
		return nil, fmt.Errorf("failed to load music tables: %w", err)
	}

	m := mixer.New(c.SampleRate, logger)
	m.SetGroupVolume(int(sound.GroupMusic), c.Volume.Music)
	m.SetGroupVolume(int(sound.GroupVoice), c.Volume.Voice)
	m.SetGroupVolume(int(sound.GroupSfx), c.Volume.Sfx)

	engine := imuse.New(sounds, m, imuse.Options{
		Hz:           c.CallbackHz,
		RadioChatter: c.RadioChatter,
		Logger:       logger,
	})

	return &engineRuntime{
		cache:    cache,
		sounds:   sounds,
		mixer:    m,
		engine:   engine,
		director: music.New(engine, tables, logger),
		logger:   logger,
	}, nil
}

// newOutput opens the audio device, or a null sink when silent is set
func newOutput(c *config.Config, silent bool, logger *slog.Logger) output.Output {
	if silent {
		return output.NewNull()
	}
	o := output.NewOto(logger)
	o.SetVolume(c.Volume.Master)
	return o
}

// run drives the scheduler, the director and the mixer pump until ctx is
// cancelled, then stops every track and releases the sound pool
func (r *engineRuntime) run(ctx context.Context, out output.Output) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 3)

	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	start("scheduler", r.engine.Run)
	start("director", func(ctx context.Context) error {
		return r.director.Run(ctx, directorPeriod)
	})
	start("mixer", func(ctx context.Context) error {
		return r.mixer.Run(ctx, out, r.mixer.Rate()/100)
	})

	wg.Wait()
	close(errs)

	r.engine.StopAll()
	r.sounds.CloseAll()
	r.cache.Close()
	if err := out.Close(); err != nil {
		r.logger.Warn("Failed to close output", "error", err)
	}

	if err, ok := <-errs; ok {
		return err
	}
	return nil
}
