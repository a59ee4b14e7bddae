// ABOUTME: Info command for a single sound
// ABOUTME: Opens a sound and prints its format, regions, jumps, markers and sync tables
package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Sendspin/digimuse/internal/sound"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	soundKind  string
	soundGroup string
)

var infoCmd = &cobra.Command{
	Use:   "info <name|id>",
	Short: "Describe a sound",
	Long: `Info opens a sound and prints its sample format and the region, jump,
marker and lip sync tables parsed from its header. Bundle sounds are named
by their entry name; inline resources by their numeric id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, sounds, err := newSoundManager(cfg, slog.Default())
		if err != nil {
			return err
		}
		defer cache.Close()

		d, err := openSound(sounds, args[0], soundKind, soundGroup)
		if err != nil {
			return err
		}
		defer sounds.Close(d)

		printDescriptor(d)
		return nil
	},
}

// openSound opens the sound named by arg as a bundle entry or an inline resource
func openSound(sounds *sound.Manager, arg, kindName, groupName string) (*sound.Descriptor, error) {
	kind, err := sound.ParseKind(kindName)
	if err != nil {
		return nil, err
	}
	group, err := sound.ParseVolGroup(groupName)
	if err != nil {
		return nil, err
	}

	soundID, name, err := soundArgs(arg, kind)
	if err != nil {
		return nil, err
	}

	d, err := sounds.Open(soundID, name, kind, group, -1)
	if err != nil {
		return nil, fmt.Errorf("opening sound %s: %w", arg, err)
	}
	return d, nil
}

// soundArgs splits arg into the id and name used to open a sound of kind
func soundArgs(arg string, kind sound.Kind) (int, string, error) {
	if kind != sound.KindInlineResource {
		return 1, arg, nil
	}
	soundID, err := strconv.Atoi(arg)
	if err != nil {
		return 0, "", fmt.Errorf("resource sounds are named by numeric id, got %q", arg)
	}
	return soundID, "", nil
}

func printDescriptor(d *sound.Descriptor) {
	name := d.Name
	if name == "" {
		name = strconv.Itoa(d.ID)
	}
	fmt.Printf("Sound:    %s (%s, %s)\n", name, d.Kind, d.VolGroup)
	fmt.Printf("Format:   %d Hz, %d-bit, %d channel(s)\n", d.Freq, d.Bits, d.Channels)
	if d.Compressed() {
		fmt.Println("Storage:  external codec side files")
	}

	fmt.Printf("Regions:  %d\n", len(d.Regions))
	for i, r := range d.Regions {
		fmt.Printf("  %3d  offset %8d  %s\n", i, r.Offset, humanize.Bytes(uint64(r.Length)))
	}

	if len(d.Jumps) > 0 {
		fmt.Printf("Jumps:    %d\n", len(d.Jumps))
		for i, j := range d.Jumps {
			fmt.Printf("  %3d  %8d -> %8d  hook %d  fade %d ms\n", i, j.Offset, j.Dest, j.HookID, j.FadeDelay)
		}
	}

	if len(d.Markers) > 0 {
		fmt.Printf("Markers:  %d\n", len(d.Markers))
		for _, m := range d.Markers {
			fmt.Printf("  %8d  %q\n", m.Pos, m.Text)
		}
	}

	if len(d.Syncs) > 0 {
		fmt.Printf("Syncs:    %d\n", len(d.Syncs))
		for i, s := range d.Syncs {
			fmt.Printf("  %3d  %s\n", i, humanize.Bytes(uint64(len(s.Data))))
		}
	}
}

func init() {
	infoCmd.Flags().StringVar(&soundKind, "kind", "bundle", "sound kind (bundle, resource)")
	infoCmd.Flags().StringVar(&soundGroup, "group", "music", "volume group (music, voice, sfx)")
	rootCmd.AddCommand(infoCmd)
}
