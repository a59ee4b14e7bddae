// ABOUTME: Bubbletea model for the engine monitor
// ABOUTME: Defines monitor state, key handling and track table rendering
package ui

import (
	"fmt"
	"strings"

	"github.com/Sendspin/digimuse/internal/imuse"
	tea "github.com/charmbracelet/bubbletea"
)

const innerWidth = 62

// Model represents the monitor state
type Model struct {
	// Connection
	connected  bool
	serverName string

	// Engine
	paused   bool
	ticks    uint64
	state    string
	sequence string
	tracks   []imuse.TrackInfo

	// Last command error
	lastError string

	showShadows bool

	commands *Commands

	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case ErrorMsg:
		m.lastError = msg.Message
	}

	return m, nil
}

// View renders the monitor
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderTracks())
	if m.lastError != "" {
		b.WriteString(line("Error: " + m.lastError))
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

// line pads one row of the frame
func line(text string) string {
	return fmt.Sprintf("│ %-*s │\n", innerWidth, truncate(text, innerWidth))
}

func rule(left, right string) string {
	return left + strings.Repeat("─", innerWidth+2) + right + "\n"
}

// renderHeader renders connection and music status
func (m Model) renderHeader() string {
	connStatus := "Disconnected"
	if m.connected {
		connStatus = fmt.Sprintf("Connected to %s", m.serverName)
	}
	engine := "Running"
	if m.paused {
		engine = "Paused"
	}

	var b strings.Builder
	b.WriteString("┌─ digimuse monitor " + strings.Repeat("─", innerWidth-17) + "┐\n")
	b.WriteString(line("Status: " + connStatus))
	b.WriteString(line(fmt.Sprintf("Engine: %s (tick %d)", engine, m.ticks)))
	if m.state != "" || m.sequence != "" {
		b.WriteString(line(fmt.Sprintf("Music:  state %s  sequence %s", orDash(m.state), orDash(m.sequence))))
	}
	b.WriteString(rule("├", "┤"))
	return b.String()
}

// renderTracks renders one row per track
func (m Model) renderTracks() string {
	var b strings.Builder
	b.WriteString(line(fmt.Sprintf("%-2s %-6s %-14s %-5s %-3s %-10s %-4s %s",
		"#", "Sound", "Name", "Group", "Pri", "Volume", "Rgn", "Pos")))

	shown := 0
	for _, t := range m.tracks {
		if t.Shadow && !m.showShadows {
			continue
		}
		shown++
		b.WriteString(line(formatTrack(t)))
	}
	if shown == 0 {
		b.WriteString(line("(no tracks playing)"))
	}
	b.WriteString(rule("├", "┤"))
	return b.String()
}

// formatTrack renders the row for one track
func formatTrack(t imuse.TrackInfo) string {
	flags := ""
	if t.Fading {
		flags += "F"
	}
	if t.Shadow {
		flags += "S"
	}
	if t.Streamed {
		flags += "X"
	}
	region := "-"
	if t.Regions > 0 {
		region = fmt.Sprintf("%d/%d", t.Region, t.Regions)
	}
	return fmt.Sprintf("%-2d %-6d %-14s %-5s %-3d %s %-4s %s %s",
		t.ID, t.SoundID, truncate(t.Name, 14), t.Group, t.Priority,
		renderBar(t.Volume, 127, 10), region, formatPos(t.PosMs), flags)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return line("p:Pause  s:Stop all  f:Fade music  h:Shadows  q:Quit") + rule("└", "┘")
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.commands.send(Command{Kind: CommandQuit})
		return m, tea.Quit
	case "p":
		m.commands.send(Command{Kind: CommandPause, Paused: !m.paused})
	case "s":
		m.commands.send(Command{Kind: CommandStopAll})
	case "f":
		m.commands.send(Command{Kind: CommandFadeMusic, Delay: DefaultFadeDelay})
	case "h":
		m.showShadows = !m.showShadows
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.ServerName != "" {
		m.serverName = msg.ServerName
	}
	if msg.Engine != nil {
		m.paused = msg.Engine.Paused
		m.ticks = msg.Engine.Ticks
		m.state = msg.Engine.State
		m.sequence = msg.Engine.Sequence
		m.tracks = msg.Engine.Tracks
		m.lastError = ""
	}
}

// EngineStatus is the engine part of a status update
type EngineStatus struct {
	Paused   bool
	Ticks    uint64
	State    string
	Sequence string
	Tracks   []imuse.TrackInfo
}

// StatusMsg updates monitor state
type StatusMsg struct {
	Connected  *bool
	ServerName string
	Engine     *EngineStatus
}

// ErrorMsg reports a failed command
type ErrorMsg struct {
	Message string
}

// Utility functions
func renderBar(value, max, width int) string {
	if value < 0 {
		value = 0
	}
	if value > max {
		value = max
	}
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}

func formatPos(ms int) string {
	return fmt.Sprintf("%d:%02d.%d", ms/60000, ms/1000%60, ms/100%10)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
