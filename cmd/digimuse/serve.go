// ABOUTME: Serve and monitor commands running the engine behind the control server
// ABOUTME: Starts scheduler, director, mixer and websocket server, optionally with the track monitor
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sendspin/digimuse/internal/control"
	"github.com/Sendspin/digimuse/internal/logging"
	"github.com/Sendspin/digimuse/internal/ui"
	"github.com/Sendspin/digimuse/internal/version"
	"github.com/spf13/cobra"
)

// monitorRefresh is how often the monitor redraws the track table
const monitorRefresh = 250 * time.Millisecond

var (
	servePort   int
	serveName   string
	serveNoMDNS bool
	serveSilent bool
	monitorLog  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine behind the websocket control server",
	Long: `Serve runs the scheduler, the music director and the mixer on the audio
device and accepts control clients on ws://host:port/digimuse. The server is
advertised over mDNS unless --no-mdns is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd, nil)
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the engine and control server with a live track monitor",
	Long: `Monitor is serve with a terminal view of the track pool. Logs are written
to --log-file while the monitor owns the terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.OpenFile(monitorLog, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logging.Setup(f, cfg.LogLevel, cfg.LogFormat, false)

		return serve(cmd, ui.NewCommands())
	},
}

// serve runs the engine until interrupted. A non-nil commands also runs the monitor.
func serve(cmd *cobra.Command, commands *ui.Commands) error {
	if cmd.Flags().Changed("port") {
		cfg.Control.Port = servePort
	}
	if cmd.Flags().Changed("name") {
		cfg.Control.Name = serveName
	}
	if serveNoMDNS {
		cfg.Control.MDNS = false
	}

	logger := slog.Default()
	rt, err := newEngineRuntime(cfg, logger)
	if err != nil {
		return err
	}

	server := control.New(control.Config{
		Port:       cfg.Control.Port,
		Name:       cfg.Control.Name,
		Version:    version.String(),
		EnableMDNS: cfg.Control.MDNS,
		Logger:     logger,
	}, rt.engine, rt.director)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run(ctx)
		cancel()
	}()

	if commands != nil {
		go runMonitor(ctx, cancel, server, rt, commands)
	}

	logger.Info("Engine running",
		"title", cfg.Title,
		"port", cfg.Control.Port,
		"hz", cfg.CallbackHz,
		"rate", cfg.SampleRate)

	err = rt.run(ctx, newOutput(cfg, serveSilent, logger))
	cancel()
	if srvErr := <-serverErr; srvErr != nil && err == nil {
		err = srvErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runMonitor drives the bubbletea monitor and applies its commands to the engine
func runMonitor(ctx context.Context, cancel context.CancelFunc, server *control.Server, rt *engineRuntime, commands *ui.Commands) {
	prog := ui.Run(commands)
	go func() {
		if _, err := prog.Run(); err != nil {
			rt.logger.Error("Monitor failed", "error", err)
		}
		cancel()
	}()

	connected := true
	prog.Send(ui.StatusMsg{Connected: &connected, ServerName: cfg.Control.Name})

	ticker := time.NewTicker(monitorRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			prog.Quit()
			return

		case c := <-commands.C:
			switch c.Kind {
			case ui.CommandQuit:
				cancel()
			case ui.CommandPause:
				rt.engine.Pause(c.Paused)
			case ui.CommandStopAll:
				rt.engine.StopAll()
			case ui.CommandFadeMusic:
				if rt.engine.MusicPlaying() {
					rt.engine.FadeOutMusic(c.Delay)
				} else {
					prog.Send(ui.ErrorMsg{Message: "no music playing"})
				}
			}

		case <-ticker.C:
			st := server.Status()
			prog.Send(ui.StatusMsg{Engine: &ui.EngineStatus{
				Paused:   st.Paused,
				Ticks:    st.Ticks,
				State:    st.State,
				Sequence: st.Sequence,
				Tracks:   st.Tracks,
			}})
		}
	}
}

func init() {
	for _, c := range []*cobra.Command{serveCmd, monitorCmd} {
		c.Flags().IntVar(&servePort, "port", 8928, "control server port")
		c.Flags().StringVar(&serveName, "name", "digimuse", "name advertised over mDNS")
		c.Flags().BoolVar(&serveNoMDNS, "no-mdns", false, "disable mDNS advertisement")
		c.Flags().BoolVar(&serveSilent, "silent", false, "mix without opening the audio device")
	}
	monitorCmd.Flags().StringVar(&monitorLog, "log-file", "digimuse.log", "log file while the monitor is shown")
	rootCmd.AddCommand(serveCmd, monitorCmd)
}
