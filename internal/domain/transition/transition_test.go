package transition_test

import (
	"testing"
	"time"

	"github.com/edumarques81/stellar-signage/internal/domain/transition"
)

func TestForKnownNames(t *testing.T) {
	for _, name := range transition.Names() {
		t.Run(name, func(t *testing.T) {
			p := transition.For(name, time.Second)
			if p.Name != name {
				t.Errorf("expected profile %q, got %q", name, p.Name)
			}
			if p.Center.Opacity != 1 || p.Center.Scale != 1 {
				t.Errorf("expected fully visible center state, got %+v", p.Center)
			}
			if p.Easing != transition.EaseInOut {
				t.Errorf("expected easing %q, got %q", transition.EaseInOut, p.Easing)
			}
		})
	}
}

func TestForUnknownFallsBackToFade(t *testing.T) {
	fade := transition.For("fade", time.Second)

	for _, name := range []string{"", "spin", "FADE-IN", "  "} {
		p := transition.For(name, time.Second)
		if p != fade {
			t.Errorf("%q: expected fade profile %+v, got %+v", name, fade, p)
		}
	}
}

func TestForIsCaseInsensitive(t *testing.T) {
	if got := transition.For(" Zoom ", time.Second).Name; got != transition.Zoom {
		t.Errorf("expected zoom, got %q", got)
	}
}

func TestSlideProfileOffsets(t *testing.T) {
	p := transition.For(transition.Slide, time.Second)
	if p.Enter.X <= 0 || p.Exit.X >= 0 {
		t.Errorf("expected slide to enter from the right and exit left, got enter=%v exit=%v", p.Enter.X, p.Exit.X)
	}
}

func TestClampDuration(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Duration
		expected time.Duration
	}{
		{"zero uses default", 0, 1000 * time.Millisecond},
		{"below min", 100 * time.Millisecond, 500 * time.Millisecond},
		{"negative", -time.Second, 500 * time.Millisecond},
		{"in range", 1500 * time.Millisecond, 1500 * time.Millisecond},
		{"above max", 10 * time.Second, 3000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transition.ClampDuration(tt.in); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestProfileCarriesDuration(t *testing.T) {
	p := transition.For("flip", 2*time.Second)
	if p.DurationMs() != 2000 {
		t.Errorf("expected 2000ms, got %d", p.DurationMs())
	}
}
