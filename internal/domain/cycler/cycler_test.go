package cycler_test

import (
	"testing"
	"time"

	"github.com/edumarques81/stellar-signage/internal/clock"
	"github.com/edumarques81/stellar-signage/internal/domain/cycler"
)

func TestSingleImageGallerySpawnsNoTimer(t *testing.T) {
	for _, n := range []int{0, 1} {
		clk := clock.NewManual(time.Unix(0, 0))
		cy := cycler.Start(clk, n, nil)

		if clk.Pending() != 0 {
			t.Errorf("length %d: expected zero timers, got %d", n, clk.Pending())
		}
		if cy.Running() {
			t.Errorf("length %d: expected cycler not running", n)
		}
		clk.Advance(10 * time.Second)
		if cy.Index() != 0 {
			t.Errorf("length %d: expected index 0, got %d", n, cy.Index())
		}
	}
}

func TestCyclerAdvancesOncePerIntervalAndWraps(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	var steps []int
	cy := cycler.Start(clk, 3, func(i int) { steps = append(steps, i) })
	defer cy.Stop()

	if clk.Pending() != 1 {
		t.Fatalf("expected one timer, got %d", clk.Pending())
	}

	clk.Advance(2999 * time.Millisecond)
	if cy.Index() != 0 {
		t.Errorf("expected index 0 before interval, got %d", cy.Index())
	}

	clk.Advance(time.Millisecond)
	if cy.Index() != 1 {
		t.Errorf("expected index 1 at 3000ms, got %d", cy.Index())
	}

	clk.Advance(6 * time.Second)
	if cy.Index() != 0 {
		t.Errorf("expected wrap to 0 at 9000ms, got %d", cy.Index())
	}

	expected := []int{1, 2, 0}
	if len(steps) != len(expected) {
		t.Fatalf("expected steps %v, got %v", expected, steps)
	}
	for i := range expected {
		if steps[i] != expected[i] {
			t.Errorf("step %d: expected %d, got %d", i, expected[i], steps[i])
		}
	}
}

func TestStopCancelsTimer(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	cy := cycler.Start(clk, 4, nil)

	clk.Advance(3 * time.Second)
	cy.Stop()
	cy.Stop()

	if clk.Pending() != 0 {
		t.Errorf("expected timer removed, got %d pending", clk.Pending())
	}
	if cy.Running() {
		t.Error("expected cycler stopped")
	}

	clk.Advance(30 * time.Second)
	if cy.Index() != 1 {
		t.Errorf("expected index frozen at 1, got %d", cy.Index())
	}
}

func TestNilCyclerIsSafe(t *testing.T) {
	var cy *cycler.Cycler
	cy.Stop()
	if cy.Index() != 0 || cy.Running() {
		t.Error("expected zero values from nil cycler")
	}
}
