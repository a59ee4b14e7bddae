// ABOUTME: Websocket control server for a running engine
// ABOUTME: Manages client connections and maps JSON commands to scheduler and music calls
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Sendspin/digimuse/internal/discovery"
	"github.com/Sendspin/digimuse/internal/imuse"
	"github.com/Sendspin/digimuse/internal/music"
	"github.com/Sendspin/digimuse/internal/sound"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
	sendBuffer    = 64
)

// Engine is the scheduler surface exposed to control clients
type Engine interface {
	StartSound(soundID int, name string, kind sound.Kind, group sound.VolGroup, hookID, volume, priority int) (int, error)
	StopSound(soundID int)
	SetVolume(soundID, volume int)
	SetPan(soundID, pan int)
	SetHookID(soundID, hookID int)
	FadeOutMusic(delay int)
	Pause(paused bool)
	Paused() bool
	StopAll()
	Snapshot() []imuse.TrackInfo
	Ticks() uint64
}

// Director is the music director surface exposed to control clients
type Director interface {
	SetState(id int) error
	SetSequence(id int) error
	State() music.Entry
	Sequence() music.Entry
}

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	Version    string
	EnableMDNS bool
	Logger     *slog.Logger
}

// Server accepts control clients
type Server struct {
	config   Config
	serverID string
	engine   Engine
	director Director

	upgrader   websocket.Upgrader
	mux        *http.ServeMux
	httpServer *http.Server

	clients   map[string]*client
	clientsMu sync.RWMutex

	mdnsManager *discovery.Manager

	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup

	logger *slog.Logger
}

// client is one connected control client
type client struct {
	id       string
	name     string
	conn     *websocket.Conn
	sendChan chan Message
}

// New creates a server. director may be nil when no music tables are loaded.
func New(config Config, engine Engine, director Director) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		engine:   engine,
		director: director,
		mux:      http.NewServeMux(),
		clients:  make(map[string]*client),
		logger:   logger.With("component", "control"),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if origin := r.Header.Get("Origin"); origin != "" {
				s.logger.Warn("Accepting websocket from browser origin", "origin", origin)
			}
			return true
		},
	}
	s.mux.HandleFunc(discovery.ControlPath, s.handleWebSocket)
	return s
}

// ID returns the server id sent in server/hello
func (s *Server) ID() string {
	return s.serverID
}

// Handler returns the HTTP handler serving the control endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Clients returns the number of connected clients
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Run serves clients until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.logger.Info("Control server listening", "addr", addr, "id", s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Version:     s.config.Version,
			Logger:      s.logger,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			s.logger.Warn("Failed to start mDNS advertisement", "error", err)
		}
	}

	s.httpServer = &http.Server{Handler: s.mux}
	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("Control server shutting down")
	case err := <-errChan:
		s.logger.Error("HTTP server error", "error", err)
		serverErr = err
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown error", "error", err)
	}
	s.closeClients()
	s.wg.Wait()

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// closeClients closes every client connection, which ends their read loops
func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		c.conn.Close()
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade error", "error", err)
		return
	}

	s.logger.Debug("New WebSocket connection", "remote", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection runs the handshake and the read loop of one client
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		s.logger.Debug("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	hello, err := s.readHello(conn)
	if err != nil {
		s.logger.Warn("Handshake failed", "error", err)
		writeDirect(conn, TypeServerError, ErrorPayload{Error: "bad_hello", Message: err.Error()})
		return
	}

	c := &client{
		id:       hello.ClientID,
		name:     hello.Name,
		conn:     conn,
		sendChan: make(chan Message, sendBuffer),
	}

	s.clientsMu.Lock()
	if existing, exists := s.clients[c.id]; exists {
		s.clientsMu.Unlock()
		s.logger.Warn("Rejecting duplicate client id", "client_id", c.id, "connected", existing.name)
		writeDirect(conn, TypeServerError, ErrorPayload{Error: "duplicate_client_id", Message: "Client ID already connected"})
		return
	}
	s.clients[c.id] = c
	s.clientsMu.Unlock()

	s.logger.Info("Client connected", "client_id", c.id, "name", c.name)

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c.id)
		s.clientsMu.Unlock()
		close(c.sendChan)
		s.logger.Info("Client disconnected", "client_id", c.id, "name", c.name)
	}()

	s.send(c, TypeServerHello, ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  s.config.Version,
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(c)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("WebSocket read error", "client_id", c.id, "error", err)
			}
			return
		}
		s.handleClientMessage(c, data)
	}
}

// readHello reads and validates client/hello
func (s *Server) readHello(conn *websocket.Conn) (ClientHello, error) {
	var hello ClientHello

	_, data, err := conn.ReadMessage()
	if err != nil {
		return hello, fmt.Errorf("failed to read hello: %w", err)
	}

	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return hello, fmt.Errorf("failed to decode message: %w", err)
	}
	if msg.Type != TypeClientHello {
		return hello, fmt.Errorf("expected %s, got %s", TypeClientHello, msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, &hello); err != nil {
		return hello, fmt.Errorf("failed to decode hello: %w", err)
	}
	if hello.ClientID == "" {
		return hello, errors.New("client hello missing client_id")
	}
	if hello.Name == "" {
		return hello, errors.New("client hello missing name")
	}
	return hello, nil
}

// writeDirect writes a message before the client writer is running
func writeDirect(conn *websocket.Conn, msgType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	conn.WriteMessage(websocket.TextMessage, data)
}

// clientWriter sends queued messages and keepalive pings
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("Error marshaling message", "type", msg.Type, "error", err)
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("Error writing message", "client_id", c.id, "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// send queues a message to a client, dropping it when the buffer is full
func (s *Server) send(c *client, msgType string, payload interface{}) {
	select {
	case c.sendChan <- Message{Type: msgType, Payload: payload}:
	default:
		s.logger.Warn("Client send buffer full, dropping message", "client_id", c.id, "type", msgType)
	}
}

// commandError is a failed command reported as server/error
type commandError struct {
	code string
	err  error
}

func (e *commandError) Error() string { return e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &commandError{code: "bad_request", err: err}
}

// handleClientMessage dispatches one command and replies with the status or an error
func (s *Server) handleClientMessage(c *client, data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(c, badRequest(fmt.Errorf("failed to decode message: %w", err)))
		return
	}

	s.logger.Debug("Command", "client_id", c.id, "type", msg.Type)
	if err := s.dispatch(msg); err != nil {
		s.sendError(c, err)
		return
	}
	s.send(c, TypeServerStatus, s.Status())
}

func decode(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 || string(payload) == "null" {
		return badRequest(errors.New("missing payload"))
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return badRequest(fmt.Errorf("failed to decode payload: %w", err))
	}
	return nil
}

func (s *Server) dispatch(msg inbound) error {
	switch msg.Type {
	case TypeSoundStart:
		var p SoundStart
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return s.startSound(p)

	case TypeSoundStop:
		var p SoundRef
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		s.engine.StopSound(p.SoundID)

	case TypeSoundVolume, TypeSoundPan, TypeSoundHook:
		var p SoundValue
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		if p.Value < 0 || p.Value > 127 {
			return badRequest(fmt.Errorf("value %d out of range 0..127", p.Value))
		}
		switch msg.Type {
		case TypeSoundVolume:
			s.engine.SetVolume(p.SoundID, p.Value)
		case TypeSoundPan:
			s.engine.SetPan(p.SoundID, p.Value)
		default:
			s.engine.SetHookID(p.SoundID, p.Value)
		}

	case TypeMusicState, TypeMusicSequence:
		if s.director == nil {
			return &commandError{code: "unavailable", err: errors.New("music director not running")}
		}
		var p MusicID
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		var err error
		if msg.Type == TypeMusicState {
			err = s.director.SetState(p.ID)
		} else {
			err = s.director.SetSequence(p.ID)
		}
		if err != nil {
			return &commandError{code: "unknown_music", err: err}
		}

	case TypeMusicFade:
		var p MusicFade
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		if p.Delay <= 0 {
			return badRequest(fmt.Errorf("fade delay must be positive, got %d", p.Delay))
		}
		s.engine.FadeOutMusic(p.Delay)

	case TypeEnginePause:
		var p EnginePause
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		s.engine.Pause(p.Paused)

	case TypeEngineStopAll:
		s.engine.StopAll()

	case TypeEngineStatus:

	default:
		return &commandError{code: "unknown_type", err: fmt.Errorf("unknown message type %q", msg.Type)}
	}
	return nil
}

func (s *Server) startSound(p SoundStart) error {
	kind, err := sound.ParseKind(p.Kind)
	if err != nil {
		return badRequest(err)
	}
	group, err := sound.ParseVolGroup(p.Group)
	if err != nil {
		return badRequest(err)
	}
	if p.Volume < 0 || p.Volume > 127 || p.Priority < 0 || p.Priority > imuse.MaxPriority {
		return badRequest(fmt.Errorf("volume %d or priority %d out of range 0..127", p.Volume, p.Priority))
	}

	if _, err := s.engine.StartSound(p.SoundID, p.Name, kind, group, p.Hook, p.Volume, p.Priority); err != nil {
		code := "start_failed"
		switch {
		case errors.Is(err, sound.ErrNotFound):
			code = "not_found"
		case errors.Is(err, imuse.ErrNoFreeTrack):
			code = "no_free_track"
		}
		return &commandError{code: code, err: err}
	}
	return nil
}

func (s *Server) sendError(c *client, err error) {
	code := "internal"
	var ce *commandError
	if errors.As(err, &ce) {
		code = ce.code
	}
	s.logger.Debug("Command failed", "client_id", c.id, "error", err)
	s.send(c, TypeServerError, ErrorPayload{Error: code, Message: err.Error()})
}

// Status returns the engine status
func (s *Server) Status() Status {
	st := Status{
		Paused:  s.engine.Paused(),
		Ticks:   s.engine.Ticks(),
		Clients: s.Clients(),
		Tracks:  s.engine.Snapshot(),
	}
	if st.Tracks == nil {
		st.Tracks = []imuse.TrackInfo{}
	}
	if s.director != nil {
		st.State = s.director.State().Name
		st.Sequence = s.director.Sequence().Name
	}
	return st
}
