// Package player drives slideshow playback: the slide-advance state machine
// and the service composing it with audio, galleries and rendering.
package player

import "github.com/edumarques81/stellar-signage/internal/domain/transition"

// Phase is the machine's coarse state.
type Phase string

// Phase constants for the playback machine
const (
	PhaseIdle    Phase = "idle" // No slides
	PhasePlaying Phase = "playing"
	PhasePaused  Phase = "paused"
)

// EmptyMessage is shown when a slideshow has no slides.
const EmptyMessage = "No slides available"

// State is the mutable playback state of one mounted slideshow.
// It is never shared between two slideshows.
type State struct {
	CurrentIndex         int  `json:"currentIndex"`
	IsPlaying            bool `json:"isPlaying"`
	IsMuted              bool `json:"isMuted"`
	TransitionDurationMs int  `json:"transitionDurationMs"`
}

// NewState creates the initial state for a freshly mounted slideshow.
func NewState(autoPlay bool) State {
	return State{
		IsPlaying:            autoPlay,
		TransitionDurationMs: int(transition.DefaultDuration.Milliseconds()),
	}
}

// Phase returns the phase for a slideshow of count slides.
func (s State) Phase(count int) Phase {
	switch {
	case count == 0:
		return PhaseIdle
	case s.IsPlaying:
		return PhasePlaying
	default:
		return PhasePaused
	}
}
