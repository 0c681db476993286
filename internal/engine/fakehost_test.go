package engine

import (
	"context"
	"errors"

	"github.com/GoSim-25-26J-441/replay-search/internal/space"
	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
)

var errBoom = errors.New("boom")

// fakeHost records every call and serves a state whose race time is now
type fakeHost struct {
	now      int64
	position [3]float64
	failOn   string

	buffer            *models.EventBuffer
	buffers           []string
	limits            []int64
	rewinds           []*models.SimulationState
	validationRemoved int
	prevented         int
	stateCalls        int
}

func newFakeHost() *fakeHost {
	return &fakeHost{buffer: models.NewEventBuffer()}
}

func (h *fakeHost) fail(op string) error {
	if h.failOn == op {
		return errBoom
	}
	return nil
}

func (h *fakeHost) RemoveStateValidation(context.Context) error {
	if err := h.fail("RemoveStateValidation"); err != nil {
		return err
	}
	h.validationRemoved++
	return nil
}

func (h *fakeHost) EventBuffer(context.Context) (*models.EventBuffer, error) {
	if err := h.fail("EventBuffer"); err != nil {
		return nil, err
	}
	return h.buffer.Copy(), nil
}

func (h *fakeHost) SetEventBuffer(_ context.Context, buf *models.EventBuffer) error {
	if err := h.fail("SetEventBuffer"); err != nil {
		return err
	}
	h.buffer = buf.Copy()
	h.buffers = append(h.buffers, buf.CommandsString())
	return nil
}

func (h *fakeHost) SimulationState(context.Context) (*models.SimulationState, error) {
	if err := h.fail("SimulationState"); err != nil {
		return nil, err
	}
	h.stateCalls++
	return &models.SimulationState{RaceTime: h.now, Position: h.position}, nil
}

func (h *fakeHost) SetSimulationTimeLimit(_ context.Context, t int64) error {
	if err := h.fail("SetSimulationTimeLimit"); err != nil {
		return err
	}
	h.limits = append(h.limits, t)
	return nil
}

func (h *fakeHost) RewindToState(_ context.Context, state *models.SimulationState) error {
	if err := h.fail("RewindToState"); err != nil {
		return err
	}
	h.rewinds = append(h.rewinds, state)
	h.now = state.RaceTime
	return nil
}

func (h *fakeHost) PreventSimulationFinish(context.Context) error {
	if err := h.fail("PreventSimulationFinish"); err != nil {
		return err
	}
	h.prevented++
	return nil
}

func (h *fakeHost) lastLimit() int64 {
	if len(h.limits) == 0 {
		return 0
	}
	return h.limits[len(h.limits)-1]
}

// recorder keeps the milestones the tests assert on
type recorder struct {
	NopObserver
	started   []int64
	concluded []ConcludeReason
	goals     []int
	goalTimes []int64
	restarts  []string
	bests     []int64
	snapshots []int64
	clamped   []int64
	wrapped   []uint64
	sequences []space.CandidateSequence
}

func (r *recorder) IterationStarted(iteration int64, seq space.CandidateSequence, _ int64) {
	r.started = append(r.started, iteration)
	r.sequences = append(r.sequences, seq)
}

func (r *recorder) IterationConcluded(_ models.IterationRecord, reason ConcludeReason, _ int64) {
	r.concluded = append(r.concluded, reason)
}

func (r *recorder) GoalReached(index int, _ string, t int64) {
	r.goals = append(r.goals, index)
	r.goalTimes = append(r.goalTimes, t)
}

func (r *recorder) RestartTriggered(name string, _ int64) {
	r.restarts = append(r.restarts, name)
}

func (r *recorder) NewBest(raceTime int64, _ space.CandidateSequence) {
	r.bests = append(r.bests, raceTime)
}

func (r *recorder) SnapshotCaptured(t int64) {
	r.snapshots = append(r.snapshots, t)
}

func (r *recorder) HorizonClamped(requested int64) {
	r.clamped = append(r.clamped, requested)
}

func (r *recorder) EnumerationWrapped(pass uint64) {
	r.wrapped = append(r.wrapped, pass)
}
