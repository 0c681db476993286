package hostsim

import (
	"testing"

	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
)

func TestNewInputQueue(t *testing.T) {
	q := NewInputQueue()
	if !q.IsEmpty() {
		t.Error("new queue should be empty")
	}
	if _, ok := q.Peek(); ok {
		t.Error("Peek on an empty queue should report nothing")
	}
}

func TestInputQueueOrdersByTime(t *testing.T) {
	q := NewInputQueue()
	q.Schedule(models.InputEvent{Time: 200, Kind: models.InputSteer, Value: 1})
	q.Schedule(models.InputEvent{Time: 100, Kind: models.InputAccelerate, Value: 1})
	q.Schedule(models.InputEvent{Time: 300, Kind: models.InputBrake, Value: 1})

	if e, _ := q.Peek(); e.Time != 100 {
		t.Errorf("expected earliest input at 100, got %d", e.Time)
	}

	due := q.Due(200)
	if len(due) != 2 || due[0].Time != 100 || due[1].Time != 200 {
		t.Fatalf("unexpected due inputs: %+v", due)
	}
	if q.Len() != 1 {
		t.Errorf("expected one pending input, got %d", q.Len())
	}
	if due := q.Due(250); len(due) != 0 {
		t.Errorf("expected nothing due at 250, got %+v", due)
	}
}

func TestInputQueueKeepsInsertionOrderAtSameTime(t *testing.T) {
	q := NewInputQueue()
	q.Schedule(models.InputEvent{Time: 0, Kind: models.InputAccelerate, Value: 1})
	q.Schedule(models.InputEvent{Time: 0, Kind: models.InputAccelerate, Value: 0})
	q.Schedule(models.InputEvent{Time: 0, Kind: models.InputSteer, Value: 5})

	due := q.Due(0)
	if len(due) != 3 {
		t.Fatalf("expected 3 inputs, got %d", len(due))
	}
	if due[0].Value != 1 || due[1].Value != 0 || due[2].Kind != models.InputSteer {
		t.Errorf("inputs at the same time must keep insertion order: %+v", due)
	}
}

func TestInputQueueClear(t *testing.T) {
	q := NewInputQueue()
	q.Schedule(models.InputEvent{Time: 10})
	q.Schedule(models.InputEvent{Time: 20})
	q.Clear()
	if !q.IsEmpty() {
		t.Error("queue should be empty after Clear")
	}
}
