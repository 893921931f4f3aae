package player

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-signage/internal/audio"
	"github.com/edumarques81/stellar-signage/internal/clock"
	"github.com/edumarques81/stellar-signage/internal/domain/cycler"
	"github.com/edumarques81/stellar-signage/internal/domain/render"
	"github.com/edumarques81/stellar-signage/internal/domain/slideshow"
	"github.com/edumarques81/stellar-signage/internal/domain/transition"
)

// Actions accepted by Do.
const (
	ActionTogglePlay = "togglePlay"
	ActionPlay       = "play"
	ActionPause      = "pause"
	ActionNext       = "next"
	ActionPrev       = "prev"
	ActionRestart    = "restart"
	ActionToggleMute = "toggleMute"
	ActionFullscreen = "toggleFullscreen"
)

// ErrUnknownAction is returned by Do for an unrecognized action name.
var ErrUnknownAction = errors.New("unknown player action")

// Snapshot is the observable state of a mounted slideshow.
type Snapshot struct {
	SessionID   string              `json:"sessionId"`
	SlideshowID string              `json:"slideshowId"`
	Name        string              `json:"name,omitempty"`
	Phase       Phase               `json:"phase"`
	State       State               `json:"state"`
	SlideCount  int                 `json:"slideCount"`
	Slide       *render.View        `json:"slide,omitempty"`
	Transition  *transition.Profile `json:"transition,omitempty"`
	Progress    Progress            `json:"progress"`
	Audio       audio.Status        `json:"audio"`
	Fullscreen  bool                `json:"fullscreen"`
	ShareURL    string              `json:"shareUrl,omitempty"`
	Message     string              `json:"message,omitempty"`
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock sets the clock driving the slide and gallery timers.
func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) {
		s.clock = c
	}
}

// WithAudioFactory sets the backend for background music.
func WithAudioFactory(f audio.Factory) ServiceOption {
	return func(s *Service) {
		s.audioFactory = f
	}
}

// WithSessionID sets the mount session identifier.
func WithSessionID(id string) ServiceOption {
	return func(s *Service) {
		s.sessionID = id
	}
}

// WithShareURL sets the public display link reported in snapshots.
func WithShareURL(url string) ServiceOption {
	return func(s *Service) {
		s.shareURL = url
	}
}

// WithTransitionDuration sets the initial transition duration in milliseconds.
func WithTransitionDuration(ms int) ServiceOption {
	return func(s *Service) {
		s.transitionMs = ms
	}
}

// Service is one mounted slideshow. It owns the state machine, the gallery
// cycler of the current slide and the background audio coordinator.
type Service struct {
	mu           sync.Mutex
	audioMu      sync.Mutex // Held while calling the audio backend
	show         *slideshow.Slideshow
	views        []render.View
	clock        clock.Clock
	audioFactory audio.Factory
	sessionID    string
	shareURL     string
	transitionMs int

	machine     *Machine
	audio       *audio.Coordinator
	cycler      *cycler.Cycler
	cyclerGen   uint64
	cyclerSlide int
	failed      map[string]bool
	fullscreen  bool
	audioDirty  bool
	closed      bool
	listeners   []func(Snapshot)
}

// NewService creates a player for a parsed slideshow. Each slide is
// rendered once here. Nothing runs until Start.
func NewService(show *slideshow.Slideshow, opts ...ServiceOption) *Service {
	if show == nil {
		show = &slideshow.Slideshow{}
	}
	s := &Service{
		show:        show,
		clock:       clock.New(),
		failed:      make(map[string]bool),
		cyclerSlide: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.audioFactory == nil {
		s.audioFactory = audio.NewRemoteFactory()
	}

	s.views = make([]render.View, len(show.Slides))
	durations := make([]time.Duration, len(show.Slides))
	for i, slide := range show.Slides {
		s.views[i] = render.Render(slide)
		durations[i] = slide.Duration
	}

	s.machine = NewMachine(s.clock, durations, show.Settings.AutoPlay)
	if s.transitionMs > 0 {
		s.machine.state.TransitionDurationMs = int(transition.ClampDuration(time.Duration(s.transitionMs) * time.Millisecond).Milliseconds())
	}
	s.audio = audio.NewCoordinator(s.audioFactory)
	s.machine.OnChange(s.handleEvent)
	return s
}

// Start enters the first slide.
func (s *Service) Start() {
	log.Info().
		Str("session", s.sessionID).
		Str("slideshow", s.show.ID).
		Int("slides", s.show.Len()).
		Bool("autoPlay", s.show.Settings.AutoPlay).
		Msg("Starting slideshow")

	if s.show.Empty() {
		s.notify()
		return
	}
	s.machine.Start()
}

// OnChange registers a listener called with a fresh snapshot after every
// change. Listeners run outside the service's lock.
func (s *Service) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SessionID returns the mount session identifier.
func (s *Service) SessionID() string {
	return s.sessionID
}

// Slideshow returns the mounted slideshow.
func (s *Service) Slideshow() *slideshow.Slideshow {
	return s.show
}

// Machine returns the underlying state machine.
func (s *Service) Machine() *Machine {
	return s.machine
}

// Playback operations delegate to the machine.
func (s *Service) TogglePlay() { s.machine.TogglePlay() }
func (s *Service) Play()       { s.machine.Play() }
func (s *Service) Pause()      { s.machine.Pause() }
func (s *Service) Next()       { s.machine.Next() }
func (s *Service) Previous()   { s.machine.Previous() }
func (s *Service) Restart()    { s.machine.Restart() }
func (s *Service) ToggleMute() { s.machine.ToggleMute() }

// SetTransitionDuration sets the transition duration in milliseconds.
func (s *Service) SetTransitionDuration(ms int) {
	s.machine.SetTransitionDuration(ms)
}

// ToggleFullscreen flips the display's fullscreen flag and returns it.
func (s *Service) ToggleFullscreen() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.fullscreen = !s.fullscreen
	on := s.fullscreen
	s.mu.Unlock()

	log.Info().Bool("fullscreen", on).Msg("Fullscreen toggled")
	s.notify()
	return on
}

// Do runs a named action.
func (s *Service) Do(action string) error {
	switch action {
	case ActionTogglePlay:
		s.TogglePlay()
	case ActionPlay:
		s.Play()
	case ActionPause:
		s.Pause()
	case ActionNext:
		s.Next()
	case ActionPrev:
		s.Previous()
	case ActionRestart:
		s.Restart()
	case ActionToggleMute:
		s.ToggleMute()
	case ActionFullscreen:
		s.ToggleFullscreen()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return nil
}

// MediaError records that the display failed to load a slide's media.
// The slide is shown with the placeholder from then on.
func (s *Service) MediaError(slideID string) {
	s.mu.Lock()
	if s.closed || s.failed[slideID] || !s.hasSlideLocked(slideID) {
		s.mu.Unlock()
		return
	}
	s.failed[slideID] = true
	if s.cyclerSlide >= 0 && s.views[s.cyclerSlide].SlideID == slideID {
		s.cycler.Stop()
	}
	s.mu.Unlock()

	log.Warn().Str("slideId", slideID).Msg("Slide media failed to load, showing placeholder")
	s.notify()
}

// ReportAudioRejected records that the display refused to play the
// background track. Slide playback is unaffected.
func (s *Service) ReportAudioRejected(reason string) {
	s.audio.Reject(reason)
	s.notify()
}

// Snapshot returns the current observable state.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close stops every timer and releases the audio resource. It is safe to
// call more than once.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopCyclerLocked()
	s.mu.Unlock()

	s.machine.Close()
	s.audio.Close()
	log.Info().Str("session", s.sessionID).Str("slideshow", s.show.ID).Msg("Slideshow closed")
}

func (s *Service) handleEvent(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	st := s.machine.State()
	if ev.Entered {
		s.stopCyclerLocked()
		s.startCyclerLocked(st.CurrentIndex)
	}
	s.mu.Unlock()

	s.syncAudio()
	s.notify()
}

// syncAudio pushes the current play and mute state to the audio
// coordinator without holding mu. While another goroutine is inside the
// backend the request is only recorded; that goroutine applies it when
// the backend returns, so callers never wait on audio I/O.
func (s *Service) syncAudio() {
	s.mu.Lock()
	s.audioDirty = true
	s.mu.Unlock()

	for s.audioMu.TryLock() {
		s.drainAudio()
		s.audioMu.Unlock()

		s.mu.Lock()
		again := s.audioDirty && !s.closed
		s.mu.Unlock()
		if !again {
			return
		}
	}
}

// drainAudio applies pending state until none is left. Requires audioMu.
func (s *Service) drainAudio() {
	for {
		s.mu.Lock()
		if s.closed || !s.audioDirty {
			s.mu.Unlock()
			return
		}
		s.audioDirty = false
		st := s.machine.State()
		settings := s.show.Settings
		s.mu.Unlock()

		s.audio.Update(audio.Input{
			Track:   settings.BackgroundMusic,
			Playing: st.IsPlaying,
			Muted:   st.IsMuted,
			Volume:  settings.MusicVolume,
			Loop:    settings.MusicLoop,
		})
	}
}

func (s *Service) startCyclerLocked(index int) {
	if index < 0 || index >= len(s.views) {
		return
	}
	s.cyclerGen++
	gen := s.cyclerGen
	s.cyclerSlide = index
	n := s.viewLocked(index).GalleryLen()
	s.cycler = cycler.Start(s.clock, n, func(int) {
		s.mu.Lock()
		stale := s.closed || gen != s.cyclerGen
		s.mu.Unlock()
		if !stale {
			s.notify()
		}
	})
}

func (s *Service) stopCyclerLocked() {
	s.cycler.Stop()
	s.cycler = nil
	s.cyclerGen++
	s.cyclerSlide = -1
}

func (s *Service) viewLocked(index int) render.View {
	v := s.views[index]
	if s.failed[v.SlideID] {
		v = render.WithPlaceholder(v)
	}
	return v
}

func (s *Service) hasSlideLocked(slideID string) bool {
	for _, v := range s.views {
		if v.SlideID == slideID {
			return true
		}
	}
	return false
}

func (s *Service) snapshotLocked() Snapshot {
	st := s.machine.State()
	snap := Snapshot{
		SessionID:   s.sessionID,
		SlideshowID: s.show.ID,
		Name:        s.show.Name,
		Phase:       st.Phase(len(s.views)),
		State:       st,
		SlideCount:  len(s.views),
		Progress:    s.machine.Progress(),
		Audio:       s.audio.Status(),
		Fullscreen:  s.fullscreen,
		ShareURL:    s.shareURL,
	}
	if len(s.views) == 0 {
		snap.Message = EmptyMessage
		return snap
	}

	v := s.viewLocked(st.CurrentIndex)
	if s.cyclerSlide == st.CurrentIndex && !v.MediaFailed {
		v.GalleryIndex = s.cycler.Index()
	}
	snap.Slide = &v

	p := transition.For(s.show.Slides[st.CurrentIndex].Styling.Animation, time.Duration(st.TransitionDurationMs)*time.Millisecond)
	snap.Transition = &p
	return snap
}

func (s *Service) notify() {
	s.mu.Lock()
	if len(s.listeners) == 0 {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	listeners := append([]func(Snapshot){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
