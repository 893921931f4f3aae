package socketio

import (
	"sync"
	"time"

	"github.com/edumarques81/stellar-signage/internal/clock"
)

// Broadcast topics.
const (
	TopicState      = "state"
	TopicFullscreen = "fullscreen"
)

// BroadcastDebouncer collapses bursts of player changes into one broadcast
// per topic. Every Trigger restarts the window; when it elapses without
// further triggers, each pending topic's callback runs once.
type BroadcastDebouncer struct {
	clock              clock.Clock
	window             time.Duration
	stateCallback      func()
	fullscreenCallback func()

	mu                sync.Mutex
	pendingState      bool
	pendingFullscreen bool
	timer             clock.Timer
	stopped           bool
}

// NewBroadcastDebouncer creates a debouncer with the given window.
func NewBroadcastDebouncer(c clock.Clock, window time.Duration, stateCallback, fullscreenCallback func()) *BroadcastDebouncer {
	return &BroadcastDebouncer{
		clock:              c,
		window:             window,
		stateCallback:      stateCallback,
		fullscreenCallback: fullscreenCallback,
	}
}

// Trigger marks topic as changed.
func (d *BroadcastDebouncer) Trigger(topic string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	switch topic {
	case TopicState:
		d.pendingState = true
	case TopicFullscreen:
		d.pendingFullscreen = true
	default:
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.window, d.flush)
}

func (d *BroadcastDebouncer) flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	doState := d.pendingState
	doFullscreen := d.pendingFullscreen
	d.pendingState = false
	d.pendingFullscreen = false
	d.timer = nil
	d.mu.Unlock()

	if doFullscreen && d.fullscreenCallback != nil {
		d.fullscreenCallback()
	}
	if doState && d.stateCallback != nil {
		d.stateCallback()
	}
}

// Stop drops pending topics and prevents further callbacks.
func (d *BroadcastDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pendingState = false
	d.pendingFullscreen = false
}
