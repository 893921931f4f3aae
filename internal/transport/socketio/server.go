// Package socketio provides the Socket.io server that displays and remote
// controls use to drive the mounted slideshow.
package socketio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/edumarques81/stellar-signage/internal/clock"
	"github.com/edumarques81/stellar-signage/internal/domain/device"
	"github.com/edumarques81/stellar-signage/internal/domain/player"
)

// Server to client events.
const (
	EventPushState      = "pushState"
	EventPushEmpty      = "pushEmpty"
	EventPushFullscreen = "pushFullscreen"
	EventPushDevice     = "pushDevice"
	EventPushError      = "pushError"
)

// Client to server events beyond the player actions.
const (
	EventGetState              = "getState"
	EventSetTransitionDuration = "setTransitionDuration"
	EventMediaError            = "mediaError"
	EventAudioRejected         = "audioRejected"
	EventMount                 = "mount"
)

// DefaultDebounceWindow groups player changes into one broadcast.
const DefaultDebounceWindow = 50 * time.Millisecond

// ErrNoSlideshow is returned for player events while nothing is mounted.
var ErrNoSlideshow = errors.New("no slideshow mounted")

var actionEvents = []string{
	player.ActionTogglePlay,
	player.ActionPlay,
	player.ActionPause,
	player.ActionNext,
	player.ActionPrev,
	player.ActionRestart,
	player.ActionToggleMute,
	player.ActionFullscreen,
}

// Host is the session the server exposes.
type Host interface {
	Player() *player.Service
	Snapshot() *player.Snapshot
	OnChange(fn func(*player.Snapshot))
	Mount(ctx context.Context, id string) error
}

// Option configures a Server.
type Option func(*Server)

// WithMaxRemoteControls caps concurrent non-local sessions. Zero disables the cap.
func WithMaxRemoteControls(n int) Option {
	return func(s *Server) {
		s.maxRemote = n
	}
}

// WithClock sets the clock used by the broadcast debouncer.
func WithClock(c clock.Clock) Option {
	return func(s *Server) {
		s.clock = c
	}
}

// WithDebounceWindow sets the broadcast debounce window.
func WithDebounceWindow(d time.Duration) Option {
	return func(s *Server) {
		s.window = d
	}
}

// WithDevice attaches the device identity sent on connect.
func WithDevice(d *device.Service) Option {
	return func(s *Server) {
		s.device = d
	}
}

// Server handles Socket.io connections and events.
type Server struct {
	io        *socket.Server
	host      Host
	device    *device.Service
	clock     clock.Clock
	window    time.Duration
	maxRemote int
	limiter   *ConnectionLimiter
	debouncer *BroadcastDebouncer

	mu             sync.RWMutex
	clients        map[string]*socket.Socket
	lastFullscreen bool
}

// NewServer creates a new Socket.io server bound to host.
func NewServer(host Host, opts ...Option) (*Server, error) {
	if host == nil {
		return nil, errors.New("socketio: host is required")
	}

	s := &Server{
		host:    host,
		clock:   clock.New(),
		window:  DefaultDebounceWindow,
		clients: make(map[string]*socket.Socket),
	}
	for _, opt := range opts {
		opt(s)
	}

	ioOpts := socket.DefaultServerOptions()
	ioOpts.SetPingTimeout(20 * time.Second)
	ioOpts.SetPingInterval(25 * time.Second)
	ioOpts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})
	s.io = socket.NewServer(nil, ioOpts)

	s.limiter = NewConnectionLimiter(s.maxRemote)
	s.debouncer = NewBroadcastDebouncer(s.clock, s.window, s.BroadcastState, s.BroadcastFullscreen)

	host.OnChange(s.onHostChange)
	s.setupHandlers()

	return s, nil
}

func (s *Server) onHostChange(snap *player.Snapshot) {
	fullscreen := snap != nil && snap.Fullscreen

	s.mu.Lock()
	changed := fullscreen != s.lastFullscreen
	s.lastFullscreen = fullscreen
	s.mu.Unlock()

	if changed {
		s.debouncer.Trigger(TopicFullscreen)
	}
	s.debouncer.Trigger(TopicState)
}

// setupHandlers registers all Socket.io event handlers.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())
		addr := client.Handshake().Address

		log.Info().Str("id", clientID).Str("addr", addr).Msg("Client connected")

		s.mu.Lock()
		s.clients[clientID] = client
		s.mu.Unlock()

		if evicted := s.limiter.TryAdd(clientID, addr); evicted != "" {
			s.evict(evicted)
		}

		s.pushDevice(client)
		s.pushState(client)

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Client disconnected")

			s.limiter.Remove(clientID)
			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()
		})

		client.On(EventGetState, func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getState")
			s.pushState(client)
		})

		for _, event := range append(actionEvents,
			EventSetTransitionDuration, EventMediaError, EventAudioRejected, EventMount) {
			client.On(event, func(args ...any) {
				log.Debug().Str("id", clientID).Str("event", event).Interface("data", args).Msg("Player event")
				if err := s.Dispatch(context.Background(), event, args...); err != nil {
					log.Warn().Err(err).Str("id", clientID).Str("event", event).Msg("Player event failed")
					client.Emit(EventPushError, map[string]string{"event": event, "error": err.Error()})
				}
			})
		}
	})
}

// Dispatch applies one client event to the mounted player.
func (s *Server) Dispatch(ctx context.Context, event string, args ...any) error {
	if event == EventMount {
		id := stringArg(args, "id")
		if id == "" {
			return fmt.Errorf("%s: missing id", event)
		}
		return s.host.Mount(ctx, id)
	}

	p := s.host.Player()
	if p == nil {
		return ErrNoSlideshow
	}

	switch event {
	case EventSetTransitionDuration:
		v, ok := numberArg(args, "value")
		if !ok {
			return fmt.Errorf("%s: missing value", event)
		}
		p.SetTransitionDuration(int(v))
	case EventMediaError:
		id := stringArg(args, "slideId")
		if id == "" {
			return fmt.Errorf("%s: missing slideId", event)
		}
		p.MediaError(id)
	case EventAudioRejected:
		reason := stringArg(args, "reason")
		if reason == "" {
			reason = "playback rejected"
		}
		p.ReportAudioRejected(reason)
	default:
		return p.Do(event)
	}
	return nil
}

func (s *Server) evict(clientID string) {
	s.mu.Lock()
	client, ok := s.clients[clientID]
	delete(s.clients, clientID)
	s.mu.Unlock()

	if !ok {
		return
	}
	log.Info().Str("id", clientID).Msg("Remote control limit reached, disconnecting oldest session")
	client.Disconnect(true)
}

func (s *Server) pushDevice(client *socket.Socket) {
	if s.device == nil {
		return
	}
	mounted := ""
	if snap := s.host.Snapshot(); snap != nil {
		mounted = snap.SlideshowID
	}
	client.Emit(EventPushDevice, s.device.Handshake(mounted))
}

func (s *Server) pushState(client *socket.Socket) {
	snap := s.host.Snapshot()
	if snap == nil {
		client.Emit(EventPushEmpty, emptyPayload())
		return
	}
	client.Emit(EventPushState, snap)
}

// BroadcastState sends the current snapshot to every client.
func (s *Server) BroadcastState() {
	snap := s.host.Snapshot()
	if snap == nil {
		s.io.Emit(EventPushEmpty, emptyPayload())
		return
	}
	s.io.Emit(EventPushState, snap)

	if e := log.Debug(); e.Enabled() {
		e.Str("slideshow", snap.SlideshowID).
			Int("index", snap.State.CurrentIndex).
			Str("phase", string(snap.Phase)).
			Msg("Broadcast state")
	}
}

// BroadcastFullscreen sends the fullscreen flag to every client.
func (s *Server) BroadcastFullscreen() {
	s.mu.RLock()
	on := s.lastFullscreen
	s.mu.RUnlock()
	s.io.Emit(EventPushFullscreen, map[string]bool{"fullscreen": on})
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close closes the Socket.io server.
func (s *Server) Close() error {
	s.debouncer.Stop()
	s.io.Close(nil)
	return nil
}

func emptyPayload() map[string]string {
	return map[string]string{"message": player.EmptyMessage}
}

func stringArg(args []any, key string) string {
	if len(args) == 0 {
		return ""
	}
	switch v := args[0].(type) {
	case string:
		return v
	case map[string]any:
		s, _ := v[key].(string)
		return s
	}
	return ""
}

func numberArg(args []any, key string) (float64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	switch v := args[0].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case map[string]any:
		switch n := v[key].(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		}
	}
	return 0, false
}
