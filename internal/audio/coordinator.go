// Package audio coordinates the single looping background track of a player.
package audio

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// NoTrack is the sentinel track reference meaning "no background audio".
const NoTrack = "none"

// Handle is one audio resource bound to one track.
type Handle interface {
	// Play starts or resumes playback. A returned error means the host
	// refused playback (for example an autoplay policy).
	Play() error
	Pause()
	SetVolume(volume int) // 0-100
	SetLoop(loop bool)
	// Release frees the resource. The handle is not used afterwards.
	Release()
}

// Factory creates handles.
type Factory interface {
	NewHandle(track string) (Handle, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(track string) (Handle, error)

// NewHandle calls f.
func (f FactoryFunc) NewHandle(track string) (Handle, error) {
	return f(track)
}

// Input is the tuple the coordinator reacts to.
type Input struct {
	Track   string
	Playing bool
	Muted   bool
	Volume  int
	Loop    bool
}

// ShouldPlay reports whether the input asks for audible playback.
func (in Input) ShouldPlay() bool {
	return in.Playing && !in.Muted
}

// HasTrack reports whether the input names a real track.
func (in Input) HasTrack() bool {
	return in.Track != "" && in.Track != NoTrack
}

// Status is the observable audio state.
type Status struct {
	Track          string `json:"track"`
	IsMusicPlaying bool   `json:"isMusicPlaying"`
	Volume         int    `json:"volume"`
	Loop           bool   `json:"loop"`
	Muted          bool   `json:"muted"`
	LastError      string `json:"lastError,omitempty"`
}

// Coordinator owns at most one Handle and drives it from Input changes.
// It never touches the slide clock; failures only show up in Status.
//
// Backend calls run under opMu only, so Status never waits on a slow
// backend.
type Coordinator struct {
	opMu    sync.Mutex // Serializes backend calls
	factory Factory

	mu sync.Mutex

	// handle, track and closed are written with both locks held.
	handle  Handle
	track   string // Track the handle is bound to
	closed  bool
	input   Input
	playing bool
	lastErr string
}

// NewCoordinator creates a coordinator. Handles are created lazily.
func NewCoordinator(factory Factory) *Coordinator {
	return &Coordinator{factory: factory}
}

// Update applies a new input tuple and returns the resulting status.
func (c *Coordinator) Update(in Input) Status {
	if in.Volume < 0 {
		in.Volume = 0
	} else if in.Volume > 100 {
		in.Volume = 100
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.input = in
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return c.Status()
	}

	if !in.HasTrack() {
		c.releaseLocked()
		return c.Status()
	}

	if c.handle != nil && c.track != in.Track {
		log.Debug().Str("from", c.track).Str("to", in.Track).Msg("Background track changed")
		c.releaseLocked()
	}

	if c.handle == nil {
		if c.factory == nil {
			c.setError("no audio backend")
			return c.Status()
		}
		h, err := c.newHandle(in.Track)
		if err != nil {
			log.Warn().Err(err).Str("track", in.Track).Msg("Failed to create background audio")
			c.setError(err.Error())
			return c.Status()
		}
		c.mu.Lock()
		c.handle = h
		c.track = in.Track
		c.lastErr = ""
		c.mu.Unlock()
		log.Debug().Str("track", in.Track).Msg("Background audio created")
	}

	settingsErr := c.call(func() { c.handle.SetVolume(in.Volume) })
	if settingsErr == nil {
		settingsErr = c.call(func() { c.handle.SetLoop(in.Loop) })
	}

	if in.ShouldPlay() {
		c.mu.Lock()
		playing := c.playing
		c.mu.Unlock()
		if !playing {
			c.playLocked()
		}
	} else {
		if err := c.call(c.handle.Pause); err != nil {
			log.Warn().Err(err).Str("track", c.track).Msg("Background audio pause failed")
			c.setError(err.Error())
		}
		c.mu.Lock()
		c.playing = false
		c.mu.Unlock()
	}

	if settingsErr != nil {
		log.Warn().Err(settingsErr).Str("track", in.Track).Msg("Background audio settings failed")
		c.setError(settingsErr.Error())
	}
	return c.Status()
}

// newHandle calls the factory, turning a panic into an error.
func (c *Coordinator) newHandle(track string) (h Handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			h, err = nil, fmt.Errorf("audio backend panic: %v", r)
		}
	}()
	return c.factory.NewHandle(track)
}

// call runs one backend operation, turning a panic into an error.
func (c *Coordinator) call(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("audio backend panic: %v", r)
		}
	}()
	fn()
	return nil
}

// playLocked asks the handle to play. Requires opMu.
func (c *Coordinator) playLocked() {
	var err error
	if perr := c.call(func() { err = c.handle.Play() }); perr != nil {
		err = perr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		log.Warn().Err(err).Str("track", c.track).Msg("Background audio play rejected")
		c.playing = false
		c.lastErr = err.Error()
		return
	}
	c.playing = true
	c.lastErr = ""
}

// Reject records that the host refused playback after Play returned,
// as a browser does when its play() promise rejects.
func (c *Coordinator) Reject(reason string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil {
		return c.statusLocked()
	}
	log.Warn().Str("track", c.track).Str("reason", reason).Msg("Background audio play rejected by display")
	c.playing = false
	c.lastErr = reason
	return c.statusLocked()
}

// Status returns the current status.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Close pauses and releases the handle. It waits for a backend call in
// progress and is safe to call more than once.
func (c *Coordinator) Close() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.releaseLocked()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Coordinator) setError(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

// releaseLocked drops the handle. Requires opMu.
func (c *Coordinator) releaseLocked() {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	c.playing = false
	c.track = ""
	c.mu.Unlock()
	if h == nil {
		return
	}

	if err := c.call(func() {
		h.Pause()
		h.Release()
	}); err != nil {
		log.Error().Err(err).Msg("Background audio release failed")
	}
}

func (c *Coordinator) statusLocked() Status {
	return Status{
		Track:          c.input.Track,
		IsMusicPlaying: c.playing,
		Volume:         c.input.Volume,
		Loop:           c.input.Loop,
		Muted:          c.input.Muted,
		LastError:      c.lastErr,
	}
}
