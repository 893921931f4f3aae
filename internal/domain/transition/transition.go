// Package transition maps slide animation names to declarative enter/center/exit states.
package transition

import (
	"strings"
	"time"
)

// Transition duration bounds, operator configurable.
const (
	DefaultDuration = 1000 * time.Millisecond
	MinDuration     = 500 * time.Millisecond
	MaxDuration     = 3000 * time.Millisecond
)

// Known profile names.
const (
	Fade  = "fade"
	Slide = "slide"
	Zoom  = "zoom"
	Flip  = "flip"
)

// EaseInOut is the timing function shared by every profile.
const EaseInOut = "easeInOut"

// VisualState is the declarative look of a slide at one phase of a transition.
type VisualState struct {
	Opacity float64 `json:"opacity"`
	X       float64 `json:"x"`       // Horizontal offset in percent of the viewport width
	Y       float64 `json:"y"`       // Vertical offset in percent of the viewport height
	Scale   float64 `json:"scale"`
	RotateY float64 `json:"rotateY"` // Degrees
}

// Profile is the full description of one transition.
type Profile struct {
	Name     string        `json:"name"`
	Enter    VisualState   `json:"enter"`
	Center   VisualState   `json:"center"`
	Exit     VisualState   `json:"exit"`
	Duration time.Duration `json:"-"`
	Easing   string        `json:"easing"`
}

// DurationMs returns the transition duration in milliseconds.
func (p Profile) DurationMs() int64 {
	return p.Duration.Milliseconds()
}

var centered = VisualState{Opacity: 1, Scale: 1}

var profiles = map[string][3]VisualState{
	Fade: {
		{Opacity: 0, Scale: 1},
		centered,
		{Opacity: 0, Scale: 1},
	},
	Slide: {
		{Opacity: 1, X: 100, Scale: 1},
		centered,
		{Opacity: 1, X: -100, Scale: 1},
	},
	Zoom: {
		{Opacity: 0, Scale: 0.8},
		centered,
		{Opacity: 0, Scale: 1.2},
	},
	Flip: {
		{Opacity: 0, Scale: 1, RotateY: 90},
		centered,
		{Opacity: 0, Scale: 1, RotateY: -90},
	},
}

// Names returns the known profile names.
func Names() []string {
	return []string{Fade, Slide, Zoom, Flip}
}

// Resolve returns the canonical profile name for an animation value.
// Unknown or empty names resolve to Fade.
func Resolve(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if _, ok := profiles[n]; ok {
		return n
	}
	return Fade
}

// For returns the profile for an animation name and transition duration.
// It has no failure modes: unknown names fall back to Fade and the
// duration is clamped to [MinDuration, MaxDuration].
func For(name string, duration time.Duration) Profile {
	n := Resolve(name)
	states := profiles[n]
	return Profile{
		Name:     n,
		Enter:    states[0],
		Center:   states[1],
		Exit:     states[2],
		Duration: ClampDuration(duration),
		Easing:   EaseInOut,
	}
}

// ClampDuration bounds d to [MinDuration, MaxDuration]; zero means DefaultDuration.
func ClampDuration(d time.Duration) time.Duration {
	if d == 0 {
		return DefaultDuration
	}
	if d < MinDuration {
		return MinDuration
	}
	if d > MaxDuration {
		return MaxDuration
	}
	return d
}
