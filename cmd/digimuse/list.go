// ABOUTME: List command for bundle archives
// ABOUTME: Lists the archives in the game directory or the entries of one archive
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sendspin/digimuse/internal/bundle"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [bundle]",
	Short: "List bundle archives or the entries of one archive",
	Long: `List without arguments shows every bundle archive in the game directory.
With a bundle name it reads the archive directory and lists its entries with
their offsets and sizes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listArchives(cfg.GameDir)
		}

		cache := bundle.NewDirCache(cfg.GameDir, nil)
		defer cache.Close()

		idx, err := cache.Resolve(args[0])
		if err != nil {
			return fmt.Errorf("reading bundle %s: %w", args[0], err)
		}

		var total uint64
		for i, e := range idx.Entries() {
			fmt.Printf("%4d  %-24s %10d  %s\n", i, e.Name, e.Offset, humanize.Bytes(uint64(e.Size)))
			total += uint64(e.Size)
		}
		fmt.Printf("%d entries, %s\n", idx.Len(), humanize.Bytes(total))
		return nil
	},
}

func listArchives(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading game directory: %w", err)
	}

	found := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".bun") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found++
		fmt.Printf("%-24s %10s  %s\n", e.Name(), humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
	}
	if found == 0 {
		fmt.Printf("No bundle archives in %s\n", dir)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
}
