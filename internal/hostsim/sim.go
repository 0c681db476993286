// Package hostsim is a deterministic in-process simulation host. A single vehicle is
// driven by the scheduled inputs along a track measured in travelled distance, with
// checkpoints at fixed distances. It backs dry runs and tests of the search engine.
package hostsim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
	"github.com/GoSim-25-26J-441/replay-search/pkg/utils"
	"github.com/google/uuid"
)

var (
	// ErrFinished is returned by Step once the run has ended
	ErrFinished = errors.New("simulation finished")
	// ErrInvalidSnapshot is returned when a rewind is given a state this host did not produce
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	// ErrStateValidation is returned when a rewind is attempted with validation enabled
	ErrStateValidation = errors.New("state validation enabled")
)

// Defaults for Options left unset
const (
	DefaultTick      int64 = 10
	DefaultStartTime int64 = -2600
	DefaultName            = "hostsim"
)

const (
	maxSpeed     = 100.0 // m/s
	acceleration = 20.0  // m/s^2 at full throttle
	braking      = 30.0  // m/s^2
	drag         = 0.02  // per second, proportional to speed
	maxTurnRate  = 1.5   // rad/s at full steer
	rideHeight   = 10.0
)

// Options configure a Sim
type Options struct {
	Name      string
	Tick      int64
	StartTime int64
	// Checkpoints are the travelled distances (m) of each checkpoint in order; the
	// last one is the finish.
	Checkpoints []float64
}

// CheckpointChange reports that the vehicle passed a checkpoint
type CheckpointChange struct {
	Current int
	Target  int
}

type vehicle struct {
	Position   [3]float64 `json:"position"`
	Heading    float64    `json:"heading"`
	Speed      float64    `json:"speed"`
	Distance   float64    `json:"distance"`
	Steer      int64      `json:"steer"`
	Gas        int64      `json:"gas"`
	Accelerate bool       `json:"accelerate"`
	Brake      bool       `json:"brake"`
	Left       bool       `json:"left"`
	Right      bool       `json:"right"`
	Checkpoint int        `json:"checkpoint"`
}

type snapshot struct {
	Host    string  `json:"host"`
	Now     int64   `json:"now"`
	Vehicle vehicle `json:"vehicle"`
}

// Sim is a deterministic simulation host. It is safe for concurrent use.
type Sim struct {
	mu sync.Mutex

	id    string
	opts  Options
	now   int64
	limit int64

	buffer *models.EventBuffer
	queue  *InputQueue
	car    vehicle

	validation    bool
	finishPending bool
	finished      bool

	bufferSets int
	rewinds    int
}

// New creates a host positioned one tick before the start time
func New(opts Options) *Sim {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.StartTime == 0 {
		opts.StartTime = DefaultStartTime
	}
	cps := make([]float64, len(opts.Checkpoints))
	copy(cps, opts.Checkpoints)
	opts.Checkpoints = cps

	return &Sim{
		id:         uuid.NewString(),
		opts:       opts,
		now:        opts.StartTime - opts.Tick,
		limit:      utils.MaxSimTime,
		buffer:     models.NewEventBuffer(),
		queue:      NewInputQueue(),
		car:        vehicle{Position: [3]float64{0, rideHeight, 0}},
		validation: true,
	}
}

// ServerName identifies the host to clients
func (s *Sim) ServerName() string {
	return s.opts.Name
}

// Now returns the current simulated time
func (s *Sim) Now() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Limit returns the armed time limit
func (s *Sim) Limit() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limit
}

// BufferSets returns how many times the event buffer was replaced
func (s *Sim) BufferSets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bufferSets
}

// Rewinds returns how many rewinds were applied
func (s *Sim) Rewinds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewinds
}

// RemoveStateValidation allows rewinds
func (s *Sim) RemoveStateValidation(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validation = false
	return nil
}

// EventBuffer returns a copy of the scheduled inputs
func (s *Sim) EventBuffer(context.Context) (*models.EventBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Copy(), nil
}

// SetEventBuffer replaces the scheduled inputs. Inputs at or before the current time
// have already been applied and are not replayed until a rewind.
func (s *Sim) SetEventBuffer(_ context.Context, buf *models.EventBuffer) error {
	if buf == nil {
		return fmt.Errorf("event buffer is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = buf.Copy()
	s.bufferSets++
	s.requeue()
	return nil
}

// SimulationState samples the vehicle and attaches a snapshot that RewindToState accepts
func (s *Sim) SimulationState(context.Context) (*models.SimulationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(snapshot{Host: s.id, Now: s.now, Vehicle: s.car})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	vx := math.Cos(s.car.Heading) * s.car.Speed
	vz := math.Sin(s.car.Heading) * s.car.Speed
	return &models.SimulationState{
		RaceTime: s.now,
		Position: s.car.Position,
		Velocity: [3]float64{vx, 0, vz},
		Fields: map[string]float64{
			"speed":      s.car.Speed,
			"distance":   s.car.Distance,
			"heading":    s.car.Heading,
			"checkpoint": float64(s.car.Checkpoint),
		},
		Snapshot: payload,
	}, nil
}

// SetSimulationTimeLimit arms the instant at which the run ends
func (s *Sim) SetSimulationTimeLimit(_ context.Context, t int64) error {
	if t > utils.MaxSimTime {
		return fmt.Errorf("time limit %d exceeds %d", t, utils.MaxSimTime)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = t
	return nil
}

// RewindToState restores a state produced by this host and replays the scheduled
// inputs after it
func (s *Sim) RewindToState(_ context.Context, state *models.SimulationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.validation {
		return ErrStateValidation
	}
	if state == nil || len(state.Snapshot) == 0 {
		return fmt.Errorf("%w: no snapshot payload", ErrInvalidSnapshot)
	}
	var snap snapshot
	if err := json.Unmarshal(state.Snapshot, &snap); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if snap.Host != s.id {
		return fmt.Errorf("%w: snapshot belongs to another host instance", ErrInvalidSnapshot)
	}

	s.now = snap.Now
	s.car = snap.Vehicle
	s.finishPending = false
	s.finished = false
	s.rewinds++
	s.requeue()
	return nil
}

// PreventSimulationFinish keeps the run going past the finish
func (s *Sim) PreventSimulationFinish(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishPending = false
	return nil
}

// Step advances one tick, applies the inputs due at the new time and moves the
// vehicle. It returns the new time and any checkpoints passed during the tick.
func (s *Sim) Step() (int64, []CheckpointChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finishPending || s.now >= s.limit {
		s.finished = true
	}
	if s.finished {
		return s.now, nil, ErrFinished
	}

	s.now += s.opts.Tick
	for _, in := range s.queue.Due(s.now) {
		s.apply(in)
	}
	s.integrate(float64(s.opts.Tick) / 1000)

	var changes []CheckpointChange
	target := len(s.opts.Checkpoints)
	for s.car.Checkpoint < target && s.car.Distance >= s.opts.Checkpoints[s.car.Checkpoint] {
		s.car.Checkpoint++
		changes = append(changes, CheckpointChange{Current: s.car.Checkpoint, Target: target})
		if s.car.Checkpoint == target {
			s.finishPending = true
		}
	}
	return s.now, changes, nil
}

// requeue schedules the buffered inputs later than now
func (s *Sim) requeue() {
	s.queue.Clear()
	for _, e := range s.buffer.Sorted() {
		if e.Time > s.now {
			s.queue.Schedule(e)
		}
	}
}

func (s *Sim) apply(in models.InputEvent) {
	on := in.Value != 0
	switch in.Kind {
	case models.InputAccelerate:
		s.car.Accelerate = on
	case models.InputBrake:
		s.car.Brake = on
	case models.InputLeft:
		s.car.Left = on
	case models.InputRight:
		s.car.Right = on
	case models.InputSteer:
		s.car.Steer = in.Value
	case models.InputGas:
		s.car.Gas = in.Value
	case models.InputRespawn:
		if on {
			s.car.Speed = 0
		}
	}
}

func (s *Sim) integrate(dt float64) {
	throttle := 0.0
	if s.car.Accelerate {
		throttle = 1
	}
	if g := float64(s.car.Gas) / models.AnalogMax; g > throttle {
		throttle = g
	}
	accel := throttle*acceleration - drag*s.car.Speed
	if s.car.Brake {
		accel -= braking
	}
	s.car.Speed = math.Max(0, math.Min(maxSpeed, s.car.Speed+accel*dt))

	steer := float64(s.car.Steer) / models.AnalogMax
	if s.car.Left {
		steer = -1
	}
	if s.car.Right {
		steer = 1
	}
	grip := math.Min(1, s.car.Speed/10)
	s.car.Heading += steer * maxTurnRate * grip * dt

	s.car.Position[0] += math.Cos(s.car.Heading) * s.car.Speed * dt
	s.car.Position[2] += math.Sin(s.car.Heading) * s.car.Speed * dt
	s.car.Distance += s.car.Speed * dt
}
