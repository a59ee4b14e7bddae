// ABOUTME: Discover command browsing for engines on the local network
// ABOUTME: Prints every digimuse control server found over mDNS
package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Sendspin/digimuse/internal/discovery"
	"github.com/spf13/cobra"
)

var discoverWait time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find control servers on the local network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := discovery.NewManager(discovery.Config{Logger: slog.Default()})
		if err := m.Browse(); err != nil {
			return fmt.Errorf("starting mDNS browse: %w", err)
		}
		defer m.Stop()

		seen := make(map[string]bool)
		deadline := time.After(discoverWait)
		for {
			select {
			case s := <-m.Servers():
				url := fmt.Sprintf("ws://%s%s", s.Addr(), s.Path)
				if seen[url] {
					continue
				}
				seen[url] = true
				fmt.Printf("%-24s %s\n", s.Name, url)
			case <-deadline:
				if len(seen) == 0 {
					fmt.Println("No servers found")
				}
				return nil
			}
		}
	},
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverWait, "wait", 5*time.Second, "how long to browse")
	rootCmd.AddCommand(discoverCmd)
}
