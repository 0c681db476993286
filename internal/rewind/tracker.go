// Package rewind tracks the simulation snapshot that iterations rewind to.
package rewind

import (
	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
)

// DefaultMargin is the number of simulated ticks kept between the anchor instant and
// the earliest input that can vary.
const DefaultMargin int64 = 20

// Tracker holds at most one snapshot, taken at the anchor instant. The anchor is fixed
// for the lifetime of the tracker and must not be later than any sequence's first
// varying input, so a snapshot once captured stays valid for every iteration.
type Tracker struct {
	anchor   int64
	snapshot *models.SimulationState
	captured bool
}

// NewTracker creates a tracker anchored at the given instant
func NewTracker(anchor int64) *Tracker {
	return &Tracker{anchor: anchor}
}

// Anchor returns the anchor instant
func (t *Tracker) Anchor() int64 {
	return t.anchor
}

// ShouldCapture reports whether a snapshot must be taken at now. It is true exactly
// once, at the anchor instant.
func (t *Tracker) ShouldCapture(now int64) bool {
	return now == t.anchor && !t.captured
}

// Capture stores state as the snapshot. Captures at any instant other than the anchor
// are ignored.
func (t *Tracker) Capture(now int64, state *models.SimulationState) {
	if now != t.anchor {
		return
	}
	t.snapshot = state
	t.captured = true
}

// Current returns the stored snapshot
func (t *Tracker) Current() (*models.SimulationState, bool) {
	if !t.captured {
		return nil, false
	}
	return t.snapshot, true
}
