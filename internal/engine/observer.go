package engine

import (
	"github.com/GoSim-25-26J-441/replay-search/internal/space"
	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
)

// Observer receives controller milestones. Calls are made synchronously from the
// callback that caused them and must not call back into the controller.
type Observer interface {
	IterationStarted(iteration int64, seq space.CandidateSequence, horizon int64)
	IterationConcluded(rec models.IterationRecord, reason ConcludeReason, t int64)
	GoalReached(index int, name string, t int64)
	RestartTriggered(name string, t int64)
	CheckpointReached(current, target int, raceTime int64)
	NewBest(raceTime int64, seq space.CandidateSequence)
	SnapshotCaptured(t int64)
	HorizonExtended(horizon int64)
	HorizonClamped(requested int64)
	EnumerationWrapped(pass uint64)
}

// ConcludeReason says why an iteration ended
type ConcludeReason string

const (
	ReasonHorizon ConcludeReason = "horizon"
	ReasonRestart ConcludeReason = "restart"
)

// NopObserver ignores every milestone. Embed it to implement a subset of Observer.
type NopObserver struct{}

func (NopObserver) IterationStarted(int64, space.CandidateSequence, int64)           {}
func (NopObserver) IterationConcluded(models.IterationRecord, ConcludeReason, int64) {}
func (NopObserver) GoalReached(int, string, int64)                                   {}
func (NopObserver) RestartTriggered(string, int64)                                   {}
func (NopObserver) CheckpointReached(int, int, int64)                                {}
func (NopObserver) NewBest(int64, space.CandidateSequence)                           {}
func (NopObserver) SnapshotCaptured(int64)                                           {}
func (NopObserver) HorizonExtended(int64)                                            {}
func (NopObserver) HorizonClamped(int64)                                             {}
func (NopObserver) EnumerationWrapped(uint64)                                        {}

// Observers fans milestones out in order
type Observers []Observer

func (o Observers) IterationStarted(iteration int64, seq space.CandidateSequence, horizon int64) {
	for _, ob := range o {
		ob.IterationStarted(iteration, seq, horizon)
	}
}

func (o Observers) IterationConcluded(rec models.IterationRecord, reason ConcludeReason, t int64) {
	for _, ob := range o {
		ob.IterationConcluded(rec, reason, t)
	}
}

func (o Observers) GoalReached(index int, name string, t int64) {
	for _, ob := range o {
		ob.GoalReached(index, name, t)
	}
}

func (o Observers) RestartTriggered(name string, t int64) {
	for _, ob := range o {
		ob.RestartTriggered(name, t)
	}
}

func (o Observers) CheckpointReached(current, target int, raceTime int64) {
	for _, ob := range o {
		ob.CheckpointReached(current, target, raceTime)
	}
}

func (o Observers) NewBest(raceTime int64, seq space.CandidateSequence) {
	for _, ob := range o {
		ob.NewBest(raceTime, seq)
	}
}

func (o Observers) SnapshotCaptured(t int64) {
	for _, ob := range o {
		ob.SnapshotCaptured(t)
	}
}

func (o Observers) HorizonExtended(horizon int64) {
	for _, ob := range o {
		ob.HorizonExtended(horizon)
	}
}

func (o Observers) HorizonClamped(requested int64) {
	for _, ob := range o {
		ob.HorizonClamped(requested)
	}
}

func (o Observers) EnumerationWrapped(pass uint64) {
	for _, ob := range o {
		ob.EnumerationWrapped(pass)
	}
}
