// ABOUTME: Extract command exporting bundle sounds as WAV files
// ABOUTME: Decodes every region of each sound in order and writes one WAV per sound
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sendspin/digimuse/internal/sound"
	"github.com/Sendspin/digimuse/pkg/audio/codec"
	"github.com/Sendspin/digimuse/pkg/audio/decode"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// extractChunk is the raw fetch size, a multiple of the 12-bit packing unit
const extractChunk = 0x1800

var extractOut string

var extractCmd = &cobra.Command{
	Use:   "extract [names...]",
	Short: "Export bundle sounds as WAV files",
	Long: `Extract decodes sounds from the music or voice bundle of the configured
title and disk and writes each one as a 16-bit WAV file. Regions are written
back to back in file order; jumps are not followed. Without names every entry
of the bundle is exported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		group, err := sound.ParseVolGroup(soundGroup)
		if err != nil {
			return err
		}

		cache, sounds, err := newSoundManager(cfg, slog.Default())
		if err != nil {
			return err
		}
		defer cache.Close()

		names := args
		if len(names) == 0 {
			bundleName, err := sounds.Policy().BundleName(group, cfg.Disk)
			if err != nil {
				return err
			}
			idx, err := cache.Resolve(bundleName)
			if err != nil {
				return fmt.Errorf("reading bundle %s: %w", bundleName, err)
			}
			for _, e := range idx.Entries() {
				names = append(names, e.Name)
			}
		}

		if err := os.MkdirAll(extractOut, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		start := time.Now()
		bar := newProgress(len(names), !(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug"))

		var written uint64
		failed := 0
		for i, name := range names {
			bar.update(i+1, name)

			n, err := extractSound(sounds, name, group)
			if err != nil {
				slog.Warn("Skipping sound", "name", name, "error", err)
				failed++
				continue
			}
			written += n
		}
		bar.finish()

		slog.Info("Extract finished",
			"sounds", len(names)-failed,
			"failed", failed,
			"pcm", humanize.Bytes(written),
			"duration", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

// extractSound writes one sound to the output directory and returns the PCM byte count
func extractSound(sounds *sound.Manager, name string, group sound.VolGroup) (uint64, error) {
	d, err := sounds.Open(1, name, sound.KindBundle, group, -1)
	if err != nil {
		return 0, err
	}
	defer sounds.Close(d)

	bits := d.Bits
	unsigned := bits == 8
	littleEndian := bits == 12 || d.Compressed()
	if bits == 12 {
		bits = 16
	}

	var samples []int32
	for region := range d.Regions {
		data, err := readRegion(sounds, d, region)
		if err != nil {
			return 0, err
		}
		samples = append(samples, decode.DecodePCM(data, bits, unsigned, littleEndian)...)
	}

	out := filepath.Join(extractOut, strings.TrimSuffix(name, filepath.Ext(name))+".wav")
	if err := writeWAV(out, samples, d.Freq, d.Channels); err != nil {
		return 0, err
	}
	slog.Debug("Sound extracted", "name", name, "path", out, "samples", len(samples))
	return uint64(len(samples) * bits / 8), nil
}

// readRegion fetches a whole region as playable PCM
func readRegion(sounds *sound.Manager, d *sound.Descriptor, region int) ([]byte, error) {
	var out []byte
	for offset := 0; ; offset += extractChunk {
		data, err := sounds.FetchRegion(d, region, offset, extractChunk)
		if err != nil {
			return nil, fmt.Errorf("region %d: %w", region, err)
		}
		if d.Bits == 12 {
			data = codec.Expand12Bit(data)
		}
		out = append(out, data...)
		if d.IsEndOfRegion() || len(data) == 0 {
			return out, nil
		}
	}
}

func init() {
	extractCmd.Flags().StringVar(&soundGroup, "group", "music", "bundle to read (music, voice)")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "wav", "output directory")
	rootCmd.AddCommand(extractCmd)
}
