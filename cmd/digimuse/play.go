// ABOUTME: Play command for a single sound or an external audio file
// ABOUTME: Runs the engine with the audio device until the sound ends or the time limit passes
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Sendspin/digimuse/internal/imuse"
	"github.com/Sendspin/digimuse/internal/sound"
	"github.com/Sendspin/digimuse/pkg/audio/decode"
	"github.com/spf13/cobra"
)

// streamSoundID identifies external files played with --file
const streamSoundID = 9000

var (
	playHook    int
	playVolume  int
	playSeconds float64
	playFile    string
	playSilent  bool
)

var playCmd = &cobra.Command{
	Use:   "play [name|id]",
	Short: "Play one sound through the engine",
	Long: `Play starts one sound on the scheduler and plays it on the default audio
device until it ends, the --seconds limit passes or the command is
interrupted. Music sounds follow their hook jumps, so a looping cue plays
until the time limit. With --file an MP3, FLAC or Ogg Vorbis file is decoded
and played as an externally streamed track.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if playFile == "" && len(args) == 0 {
			return fmt.Errorf("a sound name or --file is required")
		}
		if playVolume < 0 || playVolume > 127 {
			return fmt.Errorf("volume %d out of range 0..127", playVolume)
		}

		logger := slog.Default()
		rt, err := newEngineRuntime(cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if playSeconds > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(playSeconds*float64(time.Second)))
			defer cancel()
		}

		soundID, err := startPlayback(rt, args)
		if err != nil {
			rt.sounds.CloseAll()
			rt.cache.Close()
			return err
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if !rt.engine.SoundStatus(soundID) {
						logger.Info("Sound finished", "sound_id", soundID, "ticks", rt.engine.Ticks())
						cancel()
						return
					}
				}
			}
		}()

		return rt.run(ctx, newOutput(cfg, playSilent, logger))
	},
}

// startPlayback starts the requested sound and returns its id
func startPlayback(rt *engineRuntime, args []string) (int, error) {
	group, err := sound.ParseVolGroup(soundGroup)
	if err != nil {
		return 0, err
	}

	if playFile != "" {
		f, err := os.Open(playFile)
		if err != nil {
			return 0, fmt.Errorf("opening %s: %w", playFile, err)
		}
		stream, err := decode.OpenStream(filepath.Base(playFile), f, 2)
		if err != nil {
			f.Close()
			return 0, err
		}
		if _, err := rt.engine.StartStream(streamSoundID, decode.NewSource(stream), group, playVolume, imuse.MaxPriority); err != nil {
			stream.Close()
			return 0, err
		}
		return streamSoundID, nil
	}

	kind, err := sound.ParseKind(soundKind)
	if err != nil {
		return 0, err
	}
	soundID, name, err := soundArgs(args[0], kind)
	if err != nil {
		return 0, err
	}

	priority := imuse.PriorityMusic
	if group != sound.GroupMusic {
		priority = imuse.MaxPriority
	}
	if _, err := rt.engine.StartSound(soundID, name, kind, group, playHook, playVolume, priority); err != nil {
		return 0, err
	}
	return soundID, nil
}

func init() {
	playCmd.Flags().StringVar(&soundKind, "kind", "bundle", "sound kind (bundle, resource)")
	playCmd.Flags().StringVar(&soundGroup, "group", "music", "volume group (music, voice, sfx)")
	playCmd.Flags().IntVar(&playHook, "hook", 0, "hook id selecting jumps")
	playCmd.Flags().IntVar(&playVolume, "volume", 127, "track volume (0-127)")
	playCmd.Flags().Float64Var(&playSeconds, "seconds", 0, "stop after this many seconds (0 plays to the end)")
	playCmd.Flags().StringVar(&playFile, "file", "", "play an MP3, FLAC or Ogg Vorbis file as a stream")
	playCmd.Flags().BoolVar(&playSilent, "silent", false, "mix without opening the audio device")
	rootCmd.AddCommand(playCmd)
}
