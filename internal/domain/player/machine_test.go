package player_test

import (
	"testing"
	"time"

	"github.com/edumarques81/stellar-signage/internal/clock"
	"github.com/edumarques81/stellar-signage/internal/domain/player"
	"github.com/edumarques81/stellar-signage/internal/domain/slideshow"
)

const ms = time.Millisecond

func newMachine(autoPlay bool, durations ...time.Duration) (*player.Machine, *clock.Manual) {
	clk := clock.NewManual(time.Unix(0, 0))
	m := player.NewMachine(clk, durations, autoPlay)
	m.Start()
	return m, clk
}

func TestMachineWraparound(t *testing.T) {
	for n := 1; n <= 5; n++ {
		durations := make([]time.Duration, n)
		for i := range durations {
			durations[i] = time.Second
		}
		m, _ := newMachine(false, durations...)

		for i := 0; i < n; i++ {
			m.Advance()
		}
		if got := m.State().CurrentIndex; got != 0 {
			t.Errorf("n=%d: expected index 0 after %d advances, got %d", n, n, got)
		}
	}
}

func TestMachineRetreatInverse(t *testing.T) {
	m, _ := newMachine(false, time.Second, time.Second, time.Second, time.Second)

	for start := 0; start < 4; start++ {
		for m.State().CurrentIndex != start {
			m.Advance()
		}
		m.Advance()
		m.Retreat()
		if got := m.State().CurrentIndex; got != start {
			t.Errorf("expected retreat to undo advance at %d, got %d", start, got)
		}
	}

	m.Restart()
	m.Previous()
	if got := m.State().CurrentIndex; got != 3 {
		t.Errorf("expected retreat from 0 to wrap to 3, got %d", got)
	}
}

func TestMachineEndToEnd(t *testing.T) {
	m, clk := newMachine(true, 2000*ms, 3000*ms)

	if m.State().CurrentIndex != 0 {
		t.Fatalf("expected slide A at t=0")
	}

	clk.Advance(1999 * ms)
	if m.State().CurrentIndex != 0 {
		t.Errorf("expected slide A at t=1999, got %d", m.State().CurrentIndex)
	}

	clk.Advance(1 * ms)
	if m.State().CurrentIndex != 1 {
		t.Errorf("expected slide B at t=2000, got %d", m.State().CurrentIndex)
	}

	clk.Advance(3000 * ms)
	if m.State().CurrentIndex != 0 {
		t.Errorf("expected slide A again at t=5000, got %d", m.State().CurrentIndex)
	}
}

func TestMachinePauseResumeRestartsFullWindow(t *testing.T) {
	m, clk := newMachine(true, 2000*ms, 3000*ms)

	clk.Advance(1000 * ms)
	m.TogglePlay()
	if m.Phase() != player.PhasePaused {
		t.Fatalf("expected paused, got %q", m.Phase())
	}
	if m.Pending() {
		t.Error("expected pause to cancel the advance timer")
	}

	clk.Advance(10 * time.Second)
	if m.State().CurrentIndex != 0 {
		t.Fatalf("expected no advance while paused, got %d", m.State().CurrentIndex)
	}

	m.TogglePlay()
	clk.Advance(1000 * ms)
	if m.State().CurrentIndex != 0 {
		t.Error("expected no advance after a 1000ms remainder")
	}
	clk.Advance(1000 * ms)
	if m.State().CurrentIndex != 1 {
		t.Error("expected advance after a fresh 2000ms window")
	}
}

func TestMachineSingleTimer(t *testing.T) {
	m, clk := newMachine(true, 2000*ms, 2000*ms, 2000*ms)

	advances := 0
	m.OnChange(func(ev player.Event) {
		if ev.Reason == "advance" {
			advances++
		}
	})

	for i := 0; i < 5; i++ {
		clk.Advance(300 * ms)
		m.TogglePlay()
		m.TogglePlay()
	}
	m.Pause()
	m.Play()
	m.Play()

	if clk.Pending() != 1 {
		t.Fatalf("expected exactly one outstanding timer, got %d", clk.Pending())
	}

	clk.Advance(2000 * ms)
	if advances != 1 {
		t.Errorf("expected one advance in one window, got %d", advances)
	}
	if m.State().CurrentIndex != 1 {
		t.Errorf("expected index 1, got %d", m.State().CurrentIndex)
	}
}

func TestMachineExplicitMovesReschedule(t *testing.T) {
	m, clk := newMachine(true, 2000*ms, 3000*ms, 4000*ms)

	clk.Advance(1500 * ms)
	m.Next()
	if clk.Pending() != 1 {
		t.Fatalf("expected one timer after next, got %d", clk.Pending())
	}

	clk.Advance(2999 * ms)
	if m.State().CurrentIndex != 1 {
		t.Errorf("expected slide 1 to get its full 3000ms, got index %d", m.State().CurrentIndex)
	}
	clk.Advance(1 * ms)
	if m.State().CurrentIndex != 2 {
		t.Errorf("expected slide 2, got %d", m.State().CurrentIndex)
	}
}

func TestMachineDefaultDuration(t *testing.T) {
	show, err := slideshow.ParseJSON([]byte(`{"id": "s", "images": [
		{"id": "a", "type": "text", "content": {"text": "a"}},
		{"id": "b", "type": "text", "duration": 0, "content": {"text": "b"}}
	]}`))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}

	durations := make([]time.Duration, show.Len())
	for i, s := range show.Slides {
		durations[i] = s.Duration
	}
	m, clk := newMachine(true, durations...)

	clk.Advance(4999 * ms)
	if m.State().CurrentIndex != 0 {
		t.Error("expected no advance before 5000ms")
	}
	clk.Advance(1 * ms)
	if m.State().CurrentIndex != 1 {
		t.Error("expected advance at exactly 5000ms")
	}
	clk.Advance(5000 * ms)
	if m.State().CurrentIndex != 0 {
		t.Error("expected second defaulted slide to last 5000ms")
	}
}

func TestMachineSingleSlidePulse(t *testing.T) {
	m, clk := newMachine(true, 2000*ms)

	var entered int
	m.OnChange(func(ev player.Event) {
		if ev.Entered {
			entered++
		}
	})

	clk.Advance(6000 * ms)
	if entered != 3 {
		t.Errorf("expected three pulses, got %d", entered)
	}
	if m.State().CurrentIndex != 0 {
		t.Errorf("expected index 0, got %d", m.State().CurrentIndex)
	}

	m.Retreat()
	m.Advance()
	if m.State().CurrentIndex != 0 {
		t.Error("expected single slide to stay at index 0")
	}
}

func TestMachineEmptyIsIdle(t *testing.T) {
	m, clk := newMachine(true)

	if m.Phase() != player.PhaseIdle {
		t.Errorf("expected idle, got %q", m.Phase())
	}

	called := false
	m.OnChange(func(player.Event) { called = true })

	m.Advance()
	m.Retreat()
	m.TogglePlay()
	m.Restart()
	m.Next()

	if called {
		t.Error("expected no events for an empty slideshow")
	}
	if clk.Pending() != 0 {
		t.Errorf("expected no timers, got %d", clk.Pending())
	}
	if m.State().CurrentIndex != 0 {
		t.Errorf("expected index 0, got %d", m.State().CurrentIndex)
	}
}

func TestMachineRestartKeepsPlayState(t *testing.T) {
	m, _ := newMachine(false, time.Second, time.Second, time.Second)
	m.Advance()
	m.Advance()
	m.Restart()

	st := m.State()
	if st.CurrentIndex != 0 || st.IsPlaying {
		t.Errorf("expected index 0 paused, got %+v", st)
	}
	if m.Pending() {
		t.Error("expected no timer while paused")
	}
}

func TestMachineMuteDoesNotTouchTimer(t *testing.T) {
	m, clk := newMachine(true, 2000*ms, 2000*ms)

	clk.Advance(1500 * ms)
	m.ToggleMute()
	if !m.State().IsMuted {
		t.Fatal("expected muted")
	}

	clk.Advance(500 * ms)
	if m.State().CurrentIndex != 1 {
		t.Error("expected mute to leave the advance window intact")
	}
}

func TestMachineTransitionDuration(t *testing.T) {
	m, _ := newMachine(false, time.Second)

	if got := m.State().TransitionDurationMs; got != 1000 {
		t.Errorf("expected default 1000, got %d", got)
	}
	m.SetTransitionDuration(100)
	if got := m.State().TransitionDurationMs; got != 500 {
		t.Errorf("expected clamp to 500, got %d", got)
	}
	m.SetTransitionDuration(9000)
	if got := m.State().TransitionDurationMs; got != 3000 {
		t.Errorf("expected clamp to 3000, got %d", got)
	}
}

func TestMachineProgress(t *testing.T) {
	m, clk := newMachine(true, 2000*ms)

	clk.Advance(500 * ms)
	p := m.Progress()
	if p.ElapsedMs != 500 || p.TotalMs != 2000 || !p.Running {
		t.Errorf("unexpected progress %+v", p)
	}

	m.Pause()
	clk.Advance(time.Second)
	if p := m.Progress(); p.ElapsedMs != 500 || p.Running {
		t.Errorf("expected frozen progress at 500ms, got %+v", p)
	}
}

func TestMachineClose(t *testing.T) {
	m, clk := newMachine(true, 2000*ms, 2000*ms)
	m.Close()

	if clk.Pending() != 0 {
		t.Errorf("expected timer cancelled, got %d", clk.Pending())
	}
	clk.Advance(10 * time.Second)
	m.Next()
	if m.State().CurrentIndex != 0 {
		t.Errorf("expected closed machine to ignore operations, got %d", m.State().CurrentIndex)
	}
}
