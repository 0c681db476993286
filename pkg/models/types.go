package models

import (
	"fmt"
	"sort"
	"strings"
)

// InputKind names one controllable input channel of the simulation host
type InputKind string

const (
	InputSteer      InputKind = "steer"
	InputGas        InputKind = "gas"
	InputAccelerate InputKind = "accelerate"
	InputBrake      InputKind = "brake"
	InputLeft       InputKind = "left"
	InputRight      InputKind = "right"
	InputRespawn    InputKind = "respawn"
)

// Analog input ranges accepted by the host
const (
	AnalogMin = -65536
	AnalogMax = 65536
)

var binaryKeys = map[InputKind]string{
	InputAccelerate: "up",
	InputBrake:      "down",
	InputLeft:       "left",
	InputRight:      "right",
	InputRespawn:    "enter",
}

// IsBinary reports whether the input only takes the values 0 and 1
func (k InputKind) IsBinary() bool {
	_, ok := binaryKeys[k]
	return ok
}

// IsAnalog reports whether the input takes a signed magnitude
func (k InputKind) IsAnalog() bool {
	return k == InputSteer || k == InputGas
}

// Valid reports whether the kind is known to the host
func (k InputKind) Valid() bool {
	return k.IsBinary() || k.IsAnalog()
}

// InputEvent is one scheduled input at an absolute simulated time (ms)
type InputEvent struct {
	Time  int64     `json:"time"`
	Kind  InputKind `json:"kind"`
	Value int64     `json:"value"`
}

// Command renders the event in the host's command syntax
func (e InputEvent) Command() string {
	if key, ok := binaryKeys[e.Kind]; ok {
		action := "press"
		if e.Value == 0 {
			action = "rel"
		}
		return fmt.Sprintf("%d %s %s", e.Time, action, key)
	}
	return fmt.Sprintf("%d %s %d", e.Time, e.Kind, e.Value)
}

// EventBuffer is the full set of scheduled inputs for the upcoming run
type EventBuffer struct {
	Events []InputEvent `json:"events"`
}

// NewEventBuffer creates an empty event buffer
func NewEventBuffer() *EventBuffer {
	return &EventBuffer{Events: make([]InputEvent, 0)}
}

// Add schedules an input
func (b *EventBuffer) Add(t int64, kind InputKind, value int64) {
	b.Events = append(b.Events, InputEvent{Time: t, Kind: kind, Value: value})
}

// Clear removes every scheduled input
func (b *EventBuffer) Clear() {
	b.Events = b.Events[:0]
}

// Len returns the number of scheduled inputs
func (b *EventBuffer) Len() int {
	return len(b.Events)
}

// Copy returns an independent copy of the buffer
func (b *EventBuffer) Copy() *EventBuffer {
	events := make([]InputEvent, len(b.Events))
	copy(events, b.Events)
	return &EventBuffer{Events: events}
}

// Sorted returns the events ordered by time; events at the same time keep insertion order
func (b *EventBuffer) Sorted() []InputEvent {
	events := make([]InputEvent, len(b.Events))
	copy(events, b.Events)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})
	return events
}

// CommandsString renders the buffer as one command per line, ordered by time
func (b *EventBuffer) CommandsString() string {
	events := b.Sorted()
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, e.Command())
	}
	return strings.Join(lines, "\n")
}

// SimulationState is a host-produced read of the running simulation. Snapshot is an
// opaque host payload; the engine only hands it back through a rewind.
type SimulationState struct {
	RaceTime int64              `json:"race_time"`
	Position [3]float64         `json:"position"`
	Velocity [3]float64         `json:"velocity"`
	Fields   map[string]float64 `json:"fields,omitempty"`
	Snapshot []byte             `json:"-"`
}

// IterationRecord is the per-iteration bookkeeping of the search
type IterationRecord struct {
	Iteration      int64  `json:"iteration"`
	MaxHorizon     int64  `json:"max_horizon"`
	GoalsSatisfied []bool `json:"goals_satisfied"`
	BestTime       *int64 `json:"best_time,omitempty"`
}
