// ABOUTME: Control protocol message type definitions
// ABOUTME: Defines the JSON envelope and payloads exchanged with control clients
package control

import (
	"encoding/json"

	"github.com/Sendspin/digimuse/internal/imuse"
)

// Message types
const (
	TypeClientHello   = "client/hello"
	TypeServerHello   = "server/hello"
	TypeServerStatus  = "server/status"
	TypeServerError   = "server/error"
	TypeSoundStart    = "sound/start"
	TypeSoundStop     = "sound/stop"
	TypeSoundVolume   = "sound/volume"
	TypeSoundPan      = "sound/pan"
	TypeSoundHook     = "sound/hook"
	TypeMusicState    = "music/state"
	TypeMusicSequence = "music/sequence"
	TypeMusicFade     = "music/fade"
	TypeEnginePause   = "engine/pause"
	TypeEngineStopAll = "engine/stop_all"
	TypeEngineStatus  = "engine/status"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// inbound is a received message with its payload left raw
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

// SoundStart starts a sound
type SoundStart struct {
	SoundID  int    `json:"sound_id"`
	Name     string `json:"name,omitempty"`
	Kind     string `json:"kind"`  // "bundle" or "resource"
	Group    string `json:"group"` // "music", "voice" or "sfx"
	Hook     int    `json:"hook,omitempty"`
	Volume   int    `json:"volume"`
	Priority int    `json:"priority"`
}

// SoundRef names a sound
type SoundRef struct {
	SoundID int `json:"sound_id"`
}

// SoundValue sets one value on a sound
type SoundValue struct {
	SoundID int `json:"sound_id"`
	Value   int `json:"value"`
}

// MusicID selects a music state or sequence
type MusicID struct {
	ID int `json:"id"`
}

// MusicFade fades the music out
type MusicFade struct {
	Delay int `json:"delay"` // 60 Hz ticks
}

// EnginePause pauses or resumes the engine
type EnginePause struct {
	Paused bool `json:"paused"`
}

// Status describes the engine
type Status struct {
	Paused   bool              `json:"paused"`
	Ticks    uint64            `json:"ticks"`
	Clients  int               `json:"clients"`
	State    string            `json:"music_state,omitempty"`
	Sequence string            `json:"music_sequence,omitempty"`
	Tracks   []imuse.TrackInfo `json:"tracks"`
}

// ErrorPayload reports a failed command
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
