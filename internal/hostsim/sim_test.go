package hostsim

import (
	"context"
	"errors"
	"testing"

	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
)

func pressForward(t int64) *models.EventBuffer {
	buf := models.NewEventBuffer()
	buf.Add(t, models.InputAccelerate, 1)
	return buf
}

// stepTo steps until the sim reaches t
func stepTo(t *testing.T, s *Sim, target int64) []CheckpointChange {
	t.Helper()
	var all []CheckpointChange
	for s.Now() < target {
		_, changes, err := s.Step()
		if err != nil {
			t.Fatalf("Step failed at %d: %v", s.Now(), err)
		}
		all = append(all, changes...)
	}
	return all
}

func TestNewDefaults(t *testing.T) {
	s := New(Options{})
	if s.ServerName() != DefaultName {
		t.Errorf("expected name %q, got %q", DefaultName, s.ServerName())
	}
	now, _, err := s.Step()
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if now != DefaultStartTime {
		t.Errorf("expected first tick at %d, got %d", DefaultStartTime, now)
	}
}

func TestInputsDriveVehicle(t *testing.T) {
	ctx := context.Background()
	idle := New(Options{})
	moving := New(Options{})
	if err := moving.SetEventBuffer(ctx, pressForward(0)); err != nil {
		t.Fatalf("SetEventBuffer failed: %v", err)
	}
	stepTo(t, idle, 1000)
	stepTo(t, moving, 1000)

	idleState, _ := idle.SimulationState(ctx)
	movingState, _ := moving.SimulationState(ctx)
	if idleState.Fields["speed"] != 0 {
		t.Errorf("vehicle without input should not move, speed %v", idleState.Fields["speed"])
	}
	if movingState.Fields["speed"] <= 0 || movingState.Position[0] <= 0 {
		t.Errorf("accelerating vehicle should move forward: %+v", movingState)
	}
	if movingState.RaceTime != 1000 {
		t.Errorf("expected race time 1000, got %d", movingState.RaceTime)
	}
}

func TestSteeringTurnsVehicle(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	buf := pressForward(0)
	buf.Add(500, models.InputSteer, 65536)
	if err := s.SetEventBuffer(ctx, buf); err != nil {
		t.Fatalf("SetEventBuffer failed: %v", err)
	}
	stepTo(t, s, 2000)
	state, _ := s.SimulationState(ctx)
	if state.Fields["heading"] <= 0 || state.Position[2] <= 0 {
		t.Errorf("full right steer should turn the vehicle: %+v", state)
	}
}

func TestRewindReplaysDeterministically(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	if err := s.RemoveStateValidation(ctx); err != nil {
		t.Fatalf("RemoveStateValidation failed: %v", err)
	}
	if err := s.SetEventBuffer(ctx, pressForward(0)); err != nil {
		t.Fatalf("SetEventBuffer failed: %v", err)
	}
	stepTo(t, s, -20)
	snap, err := s.SimulationState(ctx)
	if err != nil {
		t.Fatalf("SimulationState failed: %v", err)
	}

	stepTo(t, s, 1500)
	first, _ := s.SimulationState(ctx)

	if err := s.RewindToState(ctx, snap); err != nil {
		t.Fatalf("RewindToState failed: %v", err)
	}
	if s.Now() != -20 {
		t.Fatalf("expected time -20 after rewind, got %d", s.Now())
	}
	stepTo(t, s, 1500)
	second, _ := s.SimulationState(ctx)

	if first.Position != second.Position || first.Fields["speed"] != second.Fields["speed"] {
		t.Errorf("replay diverged: %+v vs %+v", first, second)
	}
	if s.Rewinds() != 1 {
		t.Errorf("expected 1 rewind, got %d", s.Rewinds())
	}
}

func TestRewindUsesReplacedBuffer(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	_ = s.RemoveStateValidation(ctx)
	_ = s.SetEventBuffer(ctx, pressForward(0))
	stepTo(t, s, -20)
	snap, _ := s.SimulationState(ctx)
	stepTo(t, s, 1000)

	// a later start moves the vehicle less by t=1000
	_ = s.SetEventBuffer(ctx, pressForward(500))
	if err := s.RewindToState(ctx, snap); err != nil {
		t.Fatalf("RewindToState failed: %v", err)
	}
	stepTo(t, s, 1000)
	state, _ := s.SimulationState(ctx)
	if d := state.Fields["distance"]; d <= 0 || d > 5 {
		t.Errorf("expected a short distance with the later start, got %v", d)
	}
}

func TestRewindRejectsForeignOrInvalidSnapshots(t *testing.T) {
	ctx := context.Background()
	a := New(Options{})
	b := New(Options{})
	_ = b.RemoveStateValidation(ctx)
	stateA, _ := a.SimulationState(ctx)

	tests := []struct {
		name  string
		state *models.SimulationState
	}{
		{"nil state", nil},
		{"no payload", &models.SimulationState{}},
		{"garbage payload", &models.SimulationState{Snapshot: []byte("{not json")}},
		{"other host", stateA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := b.RewindToState(ctx, tt.state); !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}

func TestRewindRequiresValidationRemoved(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	state, _ := s.SimulationState(ctx)
	if err := s.RewindToState(ctx, state); !errors.Is(err, ErrStateValidation) {
		t.Fatalf("expected ErrStateValidation, got %v", err)
	}
}

func TestTimeLimitEndsRun(t *testing.T) {
	ctx := context.Background()
	s := New(Options{StartTime: -10})
	if err := s.SetSimulationTimeLimit(ctx, 100); err != nil {
		t.Fatalf("SetSimulationTimeLimit failed: %v", err)
	}
	stepTo(t, s, 100)
	if _, _, err := s.Step(); !errors.Is(err, ErrFinished) {
		t.Fatalf("expected ErrFinished past the limit, got %v", err)
	}
	if err := s.SetSimulationTimeLimit(ctx, 1<<40); err == nil {
		t.Error("expected error for a limit beyond the maximum")
	}
}

func TestCheckpointsAndFinish(t *testing.T) {
	ctx := context.Background()
	s := New(Options{StartTime: -10, Checkpoints: []float64{5, 20}})
	_ = s.SetEventBuffer(ctx, pressForward(0))

	var changes []CheckpointChange
	for len(changes) < 2 && s.Now() < 3000 {
		_, c, err := s.Step()
		if err != nil {
			t.Fatalf("Step failed at %d: %v", s.Now(), err)
		}
		changes = append(changes, c...)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 checkpoint changes, got %+v", changes)
	}
	if changes[0] != (CheckpointChange{Current: 1, Target: 2}) || changes[1] != (CheckpointChange{Current: 2, Target: 2}) {
		t.Errorf("unexpected checkpoint changes: %+v", changes)
	}
	if _, _, err := s.Step(); !errors.Is(err, ErrFinished) {
		t.Fatalf("expected the run to finish at the last checkpoint, got %v", err)
	}
}

func TestPreventSimulationFinish(t *testing.T) {
	ctx := context.Background()
	s := New(Options{StartTime: -10, Checkpoints: []float64{5}})
	_ = s.SetEventBuffer(ctx, pressForward(0))

	var finishedAt int64
	for finishedAt == 0 {
		now, changes, err := s.Step()
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		if len(changes) > 0 {
			finishedAt = now
			if err := s.PreventSimulationFinish(ctx); err != nil {
				t.Fatalf("PreventSimulationFinish failed: %v", err)
			}
		}
	}
	if _, _, err := s.Step(); err != nil {
		t.Fatalf("expected the run to continue, got %v", err)
	}
}

func TestEventBufferIsCopied(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	buf := pressForward(0)
	_ = s.SetEventBuffer(ctx, buf)
	buf.Add(100, models.InputBrake, 1)

	got, _ := s.EventBuffer(ctx)
	if got.Len() != 1 {
		t.Errorf("host buffer must not alias the caller's, got %d events", got.Len())
	}
	if err := s.SetEventBuffer(ctx, nil); err == nil {
		t.Error("expected error for a nil buffer")
	}
}
