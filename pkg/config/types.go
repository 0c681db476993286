package config

import "fmt"

// Search is the complete configuration of one search worker
type Search struct {
	Name           string       `yaml:"name"`
	LogFile        string       `yaml:"log_file"`
	LogLevel       string       `yaml:"log_level"`
	Inputs         []Input      `yaml:"inputs"`
	InitialInputs  []FixedInput `yaml:"initial_inputs,omitempty"`
	WaitTime       *Domain      `yaml:"wait_time,omitempty"`
	TimeFirst      bool         `yaml:"time_first"`
	MaxLength      *int64       `yaml:"max_length,omitempty"`
	ExtraTime      int64        `yaml:"extra_time"`
	Goals          []Predicate  `yaml:"goals,omitempty"`
	Restarts       []Predicate  `yaml:"restarts,omitempty"`
	CheckFrequency *int64       `yaml:"check_frequency,omitempty"`
	OrderedGoals   *bool        `yaml:"ordered_goals,omitempty"`
	Random         bool         `yaml:"random"`
	Seed           int64        `yaml:"seed"`
	Shard          Shard        `yaml:"shard"`
	StartPosition  uint64       `yaml:"start_position"`
	RewindMargin   *int64       `yaml:"rewind_margin,omitempty"`
	Host           Host         `yaml:"host"`
	Listen         string       `yaml:"listen"`
	HTTPAddr       string       `yaml:"http_addr"`
	Store          Store        `yaml:"store"`
}

// Input is one controllable input dimension
type Input struct {
	Input string `yaml:"input"`
	Time  Domain `yaml:"time"`
	Value Domain `yaml:"value"`
}

// FixedInput is an event injected at an absolute time in every iteration
type FixedInput struct {
	Time  int64  `yaml:"time"`
	Input string `yaml:"input"`
	Value int64  `yaml:"value"`
}

// Predicate is a goal or restart trigger over the simulation state. It holds when all
// of All hold and, if Any is non-empty, at least one of Any holds.
type Predicate struct {
	Name string      `yaml:"name"`
	All  []Condition `yaml:"all,omitempty"`
	Any  []Condition `yaml:"any,omitempty"`
}

// Condition compares the state value at Path against Value
type Condition struct {
	Path  string  `yaml:"path"`
	Op    string  `yaml:"op"` // <, <=, >, >=, ==, !=
	Value float64 `yaml:"value"`
}

// Shard selects this worker's share of the enumeration
type Shard struct {
	Stride uint64 `yaml:"stride"`
	Offset uint64 `yaml:"offset"`
}

// Host describes how to reach the simulation host
type Host struct {
	Address   string `yaml:"address"`
	TimeoutMs int    `yaml:"timeout_ms"`
	Retry     Retry  `yaml:"retry"`
}

// Retry configures retries of host calls that failed because the host was unreachable.
// Zero MaxRetries disables them.
type Retry struct {
	MaxRetries int    `yaml:"max_retries"`
	Backoff    string `yaml:"backoff"` // exponential, linear, constant
	BaseMs     int    `yaml:"base_ms"`
}

// Store selects where the best time is persisted
type Store struct {
	Kind string `yaml:"kind"` // memory or sqlite
	Path string `yaml:"path"`
}

// Ordered reports whether goals must be satisfied in declared order
func (s *Search) Ordered() bool {
	return s.OrderedGoals == nil || *s.OrderedGoals
}

// Length returns the initial horizon length past a sequence's offset. An explicit zero
// is kept.
func (s *Search) Length() int64 {
	if s.MaxLength == nil {
		return DefaultMaxLength
	}
	return *s.MaxLength
}

// Frequency returns the goal and restart check period in simulated ticks
func (s *Search) Frequency() int64 {
	if s.CheckFrequency == nil {
		return DefaultCheckFrequency
	}
	return *s.CheckFrequency
}

// Margin returns the rewind safety margin in simulated ticks
func (s *Search) Margin() int64 {
	if s.RewindMargin == nil {
		return DefaultRewindMargin
	}
	return *s.RewindMargin
}

// Label returns the predicate name, falling back to its position
func (p Predicate) Label(i int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("#%d", i+1)
}
