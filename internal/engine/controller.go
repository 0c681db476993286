package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoSim-25-26J-441/replay-search/internal/outcome"
	"github.com/GoSim-25-26J-441/replay-search/internal/predicate"
	"github.com/GoSim-25-26J-441/replay-search/internal/rewind"
	"github.com/GoSim-25-26J-441/replay-search/internal/space"
	"github.com/GoSim-25-26J-441/replay-search/pkg/logger"
	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
	"github.com/GoSim-25-26J-441/replay-search/pkg/utils"
)

// State is a controller state
type State string

const (
	StateIdle          State = "idle"
	StateBegin         State = "begin"
	StateRunning       State = "running"
	StateExtending     State = "extending"
	StateCheckpointing State = "checkpointing"
	StateConcluding    State = "concluding"
)

var (
	// ErrNotStarted is returned when a step or checkpoint arrives before the simulation began
	ErrNotStarted = errors.New("simulation has not begun")
	// ErrNoStartState is returned when a later iteration begins without a start state to
	// rewind to. The host cannot go back in time on its own, so the search cannot go on.
	ErrNoStartState = errors.New("no start state captured")
)

// Settings configures a controller
type Settings struct {
	Space *space.Space

	// Enumerator selects exhaustive shard enumeration. When nil, Rand must be set and
	// every iteration draws a random sample.
	Enumerator    *space.Enumerator
	Rand          *utils.RandSource
	StartPosition uint64

	MaxLength      int64
	ExtraTime      int64
	CheckFrequency int64
	OrderedGoals   bool
	RewindMargin   int64

	Goals    []predicate.Predicate
	Restarts []predicate.Predicate

	Logger   *slog.Logger
	Observer Observer
}

// Status is a point-in-time copy of the controller's progress
type Status struct {
	State          State    `json:"state"`
	Server         string   `json:"server,omitempty"`
	Iteration      int64    `json:"iteration"`
	Position       uint64   `json:"position"`
	Pass           uint64   `json:"pass"`
	Random         bool     `json:"random"`
	Horizon        int64    `json:"horizon"`
	HorizonClamped bool     `json:"horizon_clamped"`
	Anchor         int64    `json:"anchor"`
	Captured       bool     `json:"captured"`
	LastStep       int64    `json:"last_step"`
	Checkpoint     [2]int   `json:"checkpoint"`
	Restarts       int64    `json:"restarts"`
	BestTime       *int64   `json:"best_time,omitempty"`
	GoalNames      []string `json:"goal_names,omitempty"`
	GoalsSatisfied []bool   `json:"goals_satisfied"`
	Sequence       string   `json:"sequence"`
}

// Controller is the iteration state machine. Every transition is triggered by one of
// the host callbacks; OnSimulationBegin must precede steps and checkpoint changes.
type Controller struct {
	mu sync.Mutex

	host     Host
	space    *space.Space
	enum     *space.Enumerator
	rng      *utils.RandSource
	settings Settings
	rewind   *rewind.Tracker
	outcome  *outcome.Tracker
	log      *slog.Logger
	observer Observer

	state      State
	server     string
	iteration  int64
	position   uint64
	started    bool
	pass       uint64
	horizon    int64
	clamped    bool
	lastStep   int64
	restarts   int64
	checkpoint [2]int
	current    space.CandidateSequence
	commands   string
}

// NewController creates a controller over host
func NewController(host Host, s Settings) (*Controller, error) {
	if host == nil {
		return nil, fmt.Errorf("host is required")
	}
	if s.Space == nil {
		return nil, fmt.Errorf("candidate space is required")
	}
	if s.Enumerator == nil && s.Rand == nil {
		return nil, fmt.Errorf("either an enumerator or a random source is required")
	}
	if s.CheckFrequency <= 0 {
		return nil, fmt.Errorf("check frequency must be positive, got %d", s.CheckFrequency)
	}
	if s.MaxLength < 0 || s.ExtraTime < 0 || s.RewindMargin < 0 {
		return nil, fmt.Errorf("max length, extra time and rewind margin cannot be negative")
	}
	if s.Logger == nil {
		s.Logger = logger.Default
	}
	if s.Observer == nil {
		s.Observer = NopObserver{}
	}

	return &Controller{
		host:     host,
		space:    s.Space,
		enum:     s.Enumerator,
		rng:      s.Rand,
		settings: s,
		rewind:   rewind.NewTracker(s.Space.AnchorInstant(s.RewindMargin)),
		outcome:  outcome.NewTracker(len(s.Goals)),
		log:      s.Logger,
		observer: s.Observer,
		state:    StateIdle,
		position: s.StartPosition,
	}, nil
}

// SeedBest installs a best time recorded by an earlier run
func (c *Controller) SeedBest(raceTime int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome.Seed(raceTime)
}

// Best returns the best completion time recorded so far
func (c *Controller) Best() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome.Best()
}

// Status returns a copy of the controller's progress
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		State:          c.state,
		Server:         c.server,
		Iteration:      c.iteration,
		Position:       c.position,
		Pass:           c.pass,
		Random:         c.enum == nil,
		Horizon:        c.horizon,
		HorizonClamped: c.clamped,
		Anchor:         c.rewind.Anchor(),
		LastStep:       c.lastStep,
		Checkpoint:     c.checkpoint,
		Restarts:       c.restarts,
		GoalsSatisfied: c.outcome.Goals(),
		Sequence:       c.commands,
	}
	_, st.Captured = c.rewind.Current()
	if best, ok := c.outcome.Best(); ok {
		st.BestTime = &best
	}
	for _, g := range c.settings.Goals {
		st.GoalNames = append(st.GoalNames, g.Name())
	}
	return st
}

// Record summarizes the current iteration
func (c *Controller) Record() models.IterationRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record()
}

func (c *Controller) record() models.IterationRecord {
	rec := models.IterationRecord{
		Iteration:      c.iteration,
		MaxHorizon:     c.horizon,
		GoalsSatisfied: c.outcome.Goals(),
	}
	if best, ok := c.outcome.Best(); ok {
		rec.BestTime = &best
	}
	return rec
}

// OnRegistered is called once the host accepted this client
func (c *Controller) OnRegistered(_ context.Context, serverName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.server = serverName
	c.log.Info(fmt.Sprintf("Connected to %s", serverName))
	return nil
}

// OnSimulationBegin is called when the host starts the simulation. It disables state
// validation and starts the first iteration.
func (c *Controller) OnSimulationBegin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.host.RemoveStateValidation(ctx); err != nil {
		return hostError("remove state validation", err)
	}
	c.iteration = 0
	c.restarts = 0
	c.started = false
	c.rewind = rewind.NewTracker(c.space.AnchorInstant(c.settings.RewindMargin))
	c.position = c.settings.StartPosition
	return c.beginIteration(ctx)
}

// OnSimulationStep is called for every simulated tick t
func (c *Controller) OnSimulationStep(ctx context.Context, t int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle {
		return ErrNotStarted
	}
	c.lastStep = t

	if c.rewind.ShouldCapture(t) {
		state, err := c.host.SimulationState(ctx)
		if err != nil {
			return hostError("get simulation state", err)
		}
		c.log.Info(fmt.Sprintf("Setting start state to time t=%d", t))
		c.rewind.Capture(t, state)
		c.observer.SnapshotCaptured(t)
	}

	if t >= c.horizon {
		c.log.Info(fmt.Sprintf("Reached max time (t=%d), continuing to next iteration", t))
		return c.conclude(ctx, ReasonHorizon, t)
	}

	if !c.shouldCheck(t) {
		return nil
	}
	return c.check(ctx, t)
}

// OnCheckpointCountChanged is called when the run passes a checkpoint
func (c *Controller) OnCheckpointCountChanged(ctx context.Context, current, target int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle {
		return ErrNotStarted
	}
	c.state = StateCheckpointing
	defer func() { c.state = StateRunning }()

	if err := c.host.PreventSimulationFinish(ctx); err != nil {
		return hostError("prevent simulation finish", err)
	}
	state, err := c.host.SimulationState(ctx)
	if err != nil {
		return hostError("get simulation state", err)
	}
	raceTime := state.RaceTime
	c.checkpoint = [2]int{current, target}

	c.log.Info(fmt.Sprintf("Reached checkpoint %d/%d at time = %d", current, target, raceTime))
	c.observer.CheckpointReached(current, target, raceTime)
	if err := c.extend(ctx); err != nil {
		return err
	}

	improved, previous, hadPrevious := c.outcome.ObserveCheckpoint(current, target, raceTime)
	if improved {
		prev := "none"
		if hadPrevious {
			prev = fmt.Sprintf("%d", previous)
		}
		c.log.Info(fmt.Sprintf("New best finish time: %d (previous best: %s)", raceTime, prev))
		c.observer.NewBest(raceTime, c.current)
	}
	return nil
}

func (c *Controller) shouldCheck(t int64) bool {
	if len(c.settings.Goals) == 0 && len(c.settings.Restarts) == 0 {
		return false
	}
	return t%c.settings.CheckFrequency == 0 && t >= c.rewind.Anchor()
}

// check samples the state once and evaluates goals, then restarts
func (c *Controller) check(ctx context.Context, t int64) error {
	state, err := c.host.SimulationState(ctx)
	if err != nil {
		return hostError("get simulation state", err)
	}
	view, err := predicate.NewView(state)
	if err != nil {
		return err
	}

	for i, g := range c.settings.Goals {
		if c.outcome.GoalSatisfied(i) {
			continue
		}
		ok, err := g.Eval(view)
		if err != nil {
			return fmt.Errorf("goal %d at t=%d: %w", i+1, t, err)
		}
		if ok {
			c.outcome.MarkGoal(i)
			c.log.Info(fmt.Sprintf("Reached goal %d at time = %d", i+1, t))
			c.observer.GoalReached(i, g.Name(), t)
			if err := c.extend(ctx); err != nil {
				return err
			}
		}
		if c.settings.OrderedGoals {
			break
		}
	}

	for _, r := range c.settings.Restarts {
		ok, err := r.Eval(view)
		if err != nil {
			return fmt.Errorf("restart %s at t=%d: %w", r.Name(), t, err)
		}
		if ok {
			c.log.Info(fmt.Sprintf("Restart %s triggered at time = %d", r.Name(), t))
			c.observer.RestartTriggered(r.Name(), t)
			c.restarts++
			return c.conclude(ctx, ReasonRestart, t)
		}
	}
	return nil
}

// extend grows the horizon by the extra time and re-arms the host's limit
func (c *Controller) extend(ctx context.Context) error {
	prev := c.state
	c.state = StateExtending
	defer func() { c.state = prev }()

	c.horizon = c.clampHorizon(utils.SaturatingAdd(c.horizon, c.settings.ExtraTime))
	if err := c.host.SetSimulationTimeLimit(ctx, c.horizon); err != nil {
		return hostError("set simulation time limit", err)
	}
	c.observer.HorizonExtended(c.horizon)
	return nil
}

func (c *Controller) clampHorizon(requested int64) int64 {
	h, clamped := utils.ClampSimTime(requested)
	if clamped {
		if !c.clamped {
			c.log.Warn(fmt.Sprintf("Horizon %d exceeds the maximum simulation time, clamping to %d", requested, h))
		}
		c.clamped = true
		c.observer.HorizonClamped(requested)
	}
	return h
}

func (c *Controller) conclude(ctx context.Context, reason ConcludeReason, t int64) error {
	c.state = StateConcluding
	c.observer.IterationConcluded(c.record(), reason, t)
	if c.enum != nil {
		c.position++
	}
	return c.beginIteration(ctx)
}

// beginIteration injects the next sequence, rewinds and arms the horizon
func (c *Controller) beginIteration(ctx context.Context) error {
	c.state = StateBegin

	seq, err := c.nextSequence()
	if err != nil {
		return err
	}
	c.current = seq

	events, err := c.host.EventBuffer(ctx)
	if err != nil {
		return hostError("get event buffer", err)
	}
	if events == nil {
		events = models.NewEventBuffer()
	}
	events.Clear()
	for _, e := range c.space.Buffer(seq).Events {
		events.Add(e.Time, e.Kind, e.Value)
	}
	if err := c.host.SetEventBuffer(ctx, events); err != nil {
		return hostError("set event buffer", err)
	}
	c.commands = events.CommandsString()
	c.log.Info("Next input sequence:")
	c.log.Info(c.commands)

	c.iteration++
	c.outcome.ResetGoals()
	c.checkpoint = [2]int{}
	c.clamped = false
	c.horizon = c.clampHorizon(utils.SaturatingAdd(c.settings.MaxLength, c.space.Offset(seq)))

	c.log.Info(fmt.Sprintf("Starting iteration %d", c.iteration))

	if snapshot, ok := c.rewind.Current(); ok {
		if err := c.host.RewindToState(ctx, snapshot); err != nil {
			return hostError("rewind to state", err)
		}
	} else if c.iteration > 1 {
		return fmt.Errorf("%w: iteration %d needs the state at t=%d", ErrNoStartState, c.iteration, c.rewind.Anchor())
	}

	if err := c.host.SetSimulationTimeLimit(ctx, c.horizon); err != nil {
		return hostError("set simulation time limit", err)
	}

	c.observer.IterationStarted(c.iteration, seq, c.horizon)
	c.state = StateRunning
	return nil
}

func (c *Controller) nextSequence() (space.CandidateSequence, error) {
	if c.enum == nil {
		return c.space.SampleRandom(c.rng), nil
	}
	seq, pass, err := c.enum.AdvanceTo(c.position)
	if err != nil {
		return space.CandidateSequence{}, fmt.Errorf("advance to position %d: %w", c.position, err)
	}
	if c.started && pass > c.pass {
		c.log.Warn(fmt.Sprintf("%v after %d positions, wrapping to the start of the shard (pass %d)",
			space.ErrEnumerationExhausted, c.enum.Count(), pass+1))
		c.observer.EnumerationWrapped(pass)
	}
	c.started = true
	c.pass = pass
	return seq, nil
}
