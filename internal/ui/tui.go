// ABOUTME: Monitor initialization and command plumbing
// ABOUTME: Wraps the bubbletea program and forwards key commands to the caller
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultFadeDelay is the music fade used by the monitor, in 60 Hz ticks
const DefaultFadeDelay = 120

// CommandKind names a monitor command
type CommandKind int

const (
	CommandQuit CommandKind = iota
	CommandPause
	CommandStopAll
	CommandFadeMusic
)

// Command is a key press turned into an engine command
type Command struct {
	Kind   CommandKind
	Paused bool
	Delay  int
}

// Commands carries monitor commands to the caller
type Commands struct {
	C chan Command
}

// NewCommands creates a new command channel
func NewCommands() *Commands {
	return &Commands{C: make(chan Command, 10)}
}

// send queues a command, dropping it when the caller is not keeping up
func (c *Commands) send(cmd Command) {
	if c == nil {
		return
	}
	select {
	case c.C <- cmd:
	default:
	}
}

// NewModel creates a new monitor model
func NewModel(commands *Commands) Model {
	return Model{commands: commands}
}

// Run creates the monitor program
func Run(commands *Commands) *tea.Program {
	return tea.NewProgram(NewModel(commands), tea.WithAltScreen())
}
