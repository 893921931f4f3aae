package mpd

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-signage/internal/audio"
)

// Backend is the subset of Client used by Sink.
type Backend interface {
	Clear() error
	Add(uri string) error
	SetRepeat(on bool) error
	SetVolume(vol int) error
	Play(pos int) error
	Pause(pause bool) error
	Stop() error
}

// Sink is an audio.Factory that plays the background track through MPD.
// MPD has a single queue, so only one handle is live at a time.
type Sink struct {
	backend Backend
}

// NewSink creates a sink on backend.
func NewSink(backend Backend) *Sink {
	return &Sink{backend: backend}
}

// NewHandle replaces the MPD queue with track.
func (s *Sink) NewHandle(track string) (audio.Handle, error) {
	if err := s.backend.Clear(); err != nil {
		return nil, fmt.Errorf("failed to clear MPD queue: %w", err)
	}
	if err := s.backend.Add(track); err != nil {
		return nil, fmt.Errorf("failed to queue %s: %w", track, err)
	}
	log.Info().Str("track", track).Msg("Background track queued on MPD")
	return &handle{backend: s.backend, track: track, volume: -1}, nil
}

type handle struct {
	mu       sync.Mutex
	backend  Backend
	track    string
	started  bool
	volume   int
	loop     bool
	loopSet  bool
	released bool
}

func (h *handle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil
	}
	var err error
	if h.started {
		err = h.backend.Pause(false)
	} else {
		err = h.backend.Play(0)
	}
	if err != nil {
		return fmt.Errorf("MPD refused playback: %w", err)
	}
	h.started = true
	return nil
}

func (h *handle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released || !h.started {
		return
	}
	if err := h.backend.Pause(true); err != nil {
		log.Warn().Err(err).Str("track", h.track).Msg("Failed to pause MPD")
	}
}

func (h *handle) SetVolume(volume int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released || volume == h.volume {
		return
	}
	if err := h.backend.SetVolume(volume); err != nil {
		log.Warn().Err(err).Int("volume", volume).Msg("Failed to set MPD volume")
		return
	}
	h.volume = volume
}

func (h *handle) SetLoop(loop bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released || (h.loopSet && loop == h.loop) {
		return
	}
	if err := h.backend.SetRepeat(loop); err != nil {
		log.Warn().Err(err).Bool("loop", loop).Msg("Failed to set MPD repeat")
		return
	}
	h.loop = loop
	h.loopSet = true
}

func (h *handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return
	}
	h.released = true
	if err := h.backend.Stop(); err != nil {
		log.Warn().Err(err).Str("track", h.track).Msg("Failed to stop MPD")
	}
}
