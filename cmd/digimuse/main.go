// ABOUTME: Entry point for the digimuse command line tool
// ABOUTME: Defines the cobra root command, persistent flags and logging setup
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Sendspin/digimuse/internal/config"
	"github.com/Sendspin/digimuse/internal/logging"
	"github.com/Sendspin/digimuse/internal/version"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	cfg     *config.Config
	cfgFile string

	gameDir    string
	title      string
	disk       int
	logLevel   string
	logFormat  string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:     "digimuse",
	Short:   "Interactive music engine for bundled game audio",
	Version: version.Version,
	Long: `digimuse plays the interactive music, voice and effect sounds stored in
game bundle archives. It resolves sounds through the bundle directory cache,
decodes compressed blocks on demand and schedules up to eight tracks with
hook jumps, triggers and crossfades.

Use list and info to inspect archives, play to hear a single sound, extract
to export sounds as WAV files and serve to run the engine behind a websocket
control server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("game-dir") {
			cfg.GameDir = gameDir
		}
		if cmd.Flags().Changed("title") {
			cfg.Title = title
		}
		if cmd.Flags().Changed("disk") {
			cfg.Disk = disk
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat, term.IsTerminal(int(os.Stderr.Fd())))

		slog.Debug("Configuration",
			"game_dir", cfg.GameDir,
			"title", cfg.Title,
			"demo", cfg.Demo,
			"disk", cfg.Disk,
			"callback_hz", cfg.CallbackHz,
			"sample_rate", cfg.SampleRate,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is digimuse.yaml in $HOME or pwd)")
	rootCmd.PersistentFlags().StringVarP(&gameDir, "game-dir", "g", "", "directory holding the bundle archives")
	rootCmd.PersistentFlags().StringVarP(&title, "title", "t", "", "game title selecting bundle names (cmi, dig)")
	rootCmd.PersistentFlags().IntVar(&disk, "disk", 1, "current disk number")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
