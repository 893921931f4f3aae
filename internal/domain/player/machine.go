package player

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-signage/internal/clock"
	"github.com/edumarques81/stellar-signage/internal/domain/transition"
)

// Event describes one state change of the machine.
type Event struct {
	Reason string
	State  State
	// Entered is set when a slide was (re)entered: on start, advance,
	// retreat, restart and the single-slide pulse.
	Entered bool
}

// Progress describes how far the current slide's window has run.
type Progress struct {
	ElapsedMs int64 `json:"elapsedMs"`
	TotalMs   int64 `json:"totalMs"`
	Running   bool  `json:"running"`
}

// Machine is the slide-advance state machine.
//
// At most one advance timer is outstanding. Every schedule bumps a
// generation counter and the timer callback is ignored unless its
// generation is still current, so a late callback from a cancelled timer
// can never advance the show.
type Machine struct {
	mu        sync.Mutex
	clock     clock.Clock
	durations []time.Duration
	state     State
	timer     clock.Timer
	gen       uint64
	started   time.Time     // Start of the current advance window
	frozen    time.Duration // Elapsed time at the moment of pausing
	running   bool
	closed    bool
	listeners []func(Event)
}

// NewMachine creates a machine for slides with the given normalized durations.
// Nothing is scheduled until Start is called.
func NewMachine(c clock.Clock, durations []time.Duration, autoPlay bool) *Machine {
	return &Machine{
		clock:     c,
		durations: append([]time.Duration(nil), durations...),
		state:     NewState(autoPlay),
	}
}

// OnChange registers a listener. Listeners run after the change, outside
// the machine's lock, on the goroutine that caused it.
func (m *Machine) OnChange(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Len returns the number of slides.
func (m *Machine) Len() int {
	return len(m.durations)
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Phase(len(m.durations))
}

// Start enters the first slide and, when playing, schedules its timer.
func (m *Machine) Start() {
	m.mutate("start", true, func() bool { return true })
}

// Advance moves to the next slide, wrapping at the end.
func (m *Machine) Advance() {
	m.move("advance", 1)
}

// Next is the explicit form of Advance.
func (m *Machine) Next() {
	m.move("next", 1)
}

// Retreat moves to the previous slide, wrapping at the start.
func (m *Machine) Retreat() {
	m.move("retreat", -1)
}

// Previous is an alias of Retreat.
func (m *Machine) Previous() {
	m.move("previous", -1)
}

func (m *Machine) move(reason string, delta int) {
	m.mutate(reason, true, func() bool {
		n := len(m.durations)
		m.state.CurrentIndex = (m.state.CurrentIndex + delta + n) % n
		return true
	})
}

// Restart jumps to the first slide without changing IsPlaying.
func (m *Machine) Restart() {
	m.mutate("restart", true, func() bool {
		m.state.CurrentIndex = 0
		return true
	})
}

// TogglePlay flips IsPlaying. Pausing cancels the pending advance; resuming
// schedules a fresh full-length window for the current slide.
func (m *Machine) TogglePlay() {
	m.mutate("togglePlay", false, func() bool {
		m.state.IsPlaying = !m.state.IsPlaying
		return true
	})
}

// Play resumes playback if paused.
func (m *Machine) Play() {
	m.mutate("play", false, func() bool {
		if m.state.IsPlaying {
			return false
		}
		m.state.IsPlaying = true
		return true
	})
}

// Pause pauses playback if playing.
func (m *Machine) Pause() {
	m.mutate("pause", false, func() bool {
		if !m.state.IsPlaying {
			return false
		}
		m.state.IsPlaying = false
		return true
	})
}

// ToggleMute flips IsMuted. It has no effect on the advance timer.
func (m *Machine) ToggleMute() {
	m.mutate("toggleMute", false, func() bool {
		m.state.IsMuted = !m.state.IsMuted
		return true
	})
}

// SetTransitionDuration sets the transition duration, clamped to its bounds.
func (m *Machine) SetTransitionDuration(ms int) {
	m.mutate("setTransitionDuration", false, func() bool {
		d := transition.ClampDuration(time.Duration(ms) * time.Millisecond)
		v := int(d.Milliseconds())
		if v == m.state.TransitionDurationMs {
			return false
		}
		m.state.TransitionDurationMs = v
		return true
	})
}

// Progress reports the current advance window. It has no side effects.
func (m *Machine) Progress() Progress {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.durations) == 0 {
		return Progress{}
	}
	total := m.durations[m.state.CurrentIndex]
	elapsed := m.frozen
	if m.running {
		elapsed = m.clock.Now().Sub(m.started)
	}
	if elapsed > total {
		elapsed = total
	}
	return Progress{ElapsedMs: elapsed.Milliseconds(), TotalMs: total.Milliseconds(), Running: m.running}
}

// Pending reports whether an advance timer is outstanding.
func (m *Machine) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timer != nil
}

// Close cancels the timer. Every later operation is a no-op.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cancelLocked()
}

// mutate applies fn under the lock and, if it reports a change, reconciles
// the timer and notifies listeners. enter marks slide-entering operations,
// which always restart the advance window.
func (m *Machine) mutate(reason string, enter bool, fn func() bool) {
	m.mu.Lock()
	if m.closed || len(m.durations) == 0 {
		m.mu.Unlock()
		return
	}
	wasPlaying := m.state.IsPlaying
	if !fn() {
		m.mu.Unlock()
		return
	}

	switch {
	case !m.state.IsPlaying:
		if wasPlaying {
			m.frozen = m.clock.Now().Sub(m.started)
		}
		if enter {
			m.frozen = 0
		}
		m.cancelLocked()
	case enter || !wasPlaying:
		m.scheduleLocked()
	}

	ev := Event{Reason: reason, State: m.state, Entered: enter}
	listeners := append([]func(Event){}, m.listeners...)
	m.mu.Unlock()

	log.Debug().
		Str("event", reason).
		Int("index", ev.State.CurrentIndex).
		Bool("playing", ev.State.IsPlaying).
		Msg("Slideshow state changed")

	for _, fn := range listeners {
		fn(ev)
	}
}

func (m *Machine) scheduleLocked() {
	m.cancelLocked()
	m.gen++
	gen := m.gen
	m.started = m.clock.Now()
	m.frozen = 0
	m.running = true
	m.timer = m.clock.AfterFunc(m.durations[m.state.CurrentIndex], func() {
		m.expire(gen)
	})
}

func (m *Machine) cancelLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
	m.running = false
}

func (m *Machine) expire(gen uint64) {
	m.mutate("advance", true, func() bool {
		if gen != m.gen || !m.state.IsPlaying {
			return false
		}
		m.timer = nil
		m.state.CurrentIndex = (m.state.CurrentIndex + 1) % len(m.durations)
		return true
	})
}
