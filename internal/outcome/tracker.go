package outcome

// Tracker records the best completion time across iterations and which goals the
// current iteration has satisfied. Smaller times are better.
type Tracker struct {
	best    int64
	hasBest bool
	goals   []bool
}

// NewTracker creates a tracker for the given number of goals
func NewTracker(goalCount int) *Tracker {
	return &Tracker{goals: make([]bool, goalCount)}
}

// Seed installs a previously recorded best time, e.g. one persisted by an earlier run.
// It follows the same rule as ObserveCheckpoint and reports whether best changed.
func (t *Tracker) Seed(raceTime int64) bool {
	if t.hasBest && raceTime >= t.best {
		return false
	}
	t.best = raceTime
	t.hasBest = true
	return true
}

// ObserveCheckpoint records a checkpoint event. Best is replaced only when the final
// checkpoint was reached at a strictly smaller race time. It reports whether best
// changed and returns the previous best.
func (t *Tracker) ObserveCheckpoint(current, target int, raceTime int64) (improved bool, previous int64, hadPrevious bool) {
	previous, hadPrevious = t.best, t.hasBest
	if current != target {
		return false, previous, hadPrevious
	}
	return t.Seed(raceTime), previous, hadPrevious
}

// Best returns the best completion time, if any
func (t *Tracker) Best() (int64, bool) {
	return t.best, t.hasBest
}

// ResetGoals clears per-iteration goal satisfaction
func (t *Tracker) ResetGoals() {
	for i := range t.goals {
		t.goals[i] = false
	}
}

// MarkGoal records goal i as satisfied and reports whether this is the first time in
// the iteration.
func (t *Tracker) MarkGoal(i int) bool {
	if t.goals[i] {
		return false
	}
	t.goals[i] = true
	return true
}

// GoalSatisfied reports whether goal i has been satisfied in the current iteration
func (t *Tracker) GoalSatisfied(i int) bool {
	return t.goals[i]
}

// Goals returns a copy of the per-goal satisfaction flags
func (t *Tracker) Goals() []bool {
	out := make([]bool, len(t.goals))
	copy(out, t.goals)
	return out
}
