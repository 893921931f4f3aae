// Package cycler rotates through the images of a slide's embedded gallery.
package cycler

import (
	"sync"
	"time"

	"github.com/edumarques81/stellar-signage/internal/clock"
)

// Interval is the fixed time each gallery image stays visible.
const Interval = 3000 * time.Millisecond

// Cycler advances a local image index on a fixed interval.
// A Cycler is bound to one displayed slide and must be stopped when the
// slide is left.
type Cycler struct {
	mu      sync.Mutex
	length  int
	index   int
	timer   clock.Timer
	stopped bool
	onStep  func(index int)
}

// Start creates a cycler for a gallery of the given length. Galleries with
// one image or fewer get no timer. onStep, if non-nil, is called with the
// new index after every step, outside the cycler's lock.
func Start(c clock.Clock, length int, onStep func(index int)) *Cycler {
	cy := &Cycler{length: length, onStep: onStep}
	if length > 1 {
		cy.timer = c.Every(Interval, cy.step)
	}
	return cy
}

func (cy *Cycler) step() {
	cy.mu.Lock()
	if cy.stopped || cy.length < 2 {
		cy.mu.Unlock()
		return
	}
	cy.index = (cy.index + 1) % cy.length
	index := cy.index
	onStep := cy.onStep
	cy.mu.Unlock()

	if onStep != nil {
		onStep(index)
	}
}

// Index returns the current gallery index.
func (cy *Cycler) Index() int {
	if cy == nil {
		return 0
	}
	cy.mu.Lock()
	defer cy.mu.Unlock()
	return cy.index
}

// Running reports whether the cycler owns a live timer.
func (cy *Cycler) Running() bool {
	if cy == nil {
		return false
	}
	cy.mu.Lock()
	defer cy.mu.Unlock()
	return cy.timer != nil && !cy.stopped
}

// Stop cancels the timer. Steps already in flight become no-ops.
// Stop is idempotent and safe on a nil Cycler.
func (cy *Cycler) Stop() {
	if cy == nil {
		return
	}
	cy.mu.Lock()
	defer cy.mu.Unlock()
	if cy.stopped {
		return
	}
	cy.stopped = true
	if cy.timer != nil {
		cy.timer.Stop()
	}
}
