package engine

import (
	"fmt"
	"log/slog"

	"github.com/GoSim-25-26J-441/replay-search/internal/predicate"
	"github.com/GoSim-25-26J-441/replay-search/internal/space"
	"github.com/GoSim-25-26J-441/replay-search/pkg/config"
	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
	"github.com/GoSim-25-26J-441/replay-search/pkg/utils"
)

// BuildSpace constructs the candidate space described by cfg
func BuildSpace(cfg *config.Search) (*space.Space, error) {
	dims := make([]space.InputDimension, 0, len(cfg.Inputs))
	for i, in := range cfg.Inputs {
		timeDomain, err := toDomain(in.Time)
		if err != nil {
			return nil, fmt.Errorf("input %d (%s) time: %w", i, in.Input, err)
		}
		valueDomain, err := toDomain(in.Value)
		if err != nil {
			return nil, fmt.Errorf("input %d (%s) value: %w", i, in.Input, err)
		}
		dims = append(dims, space.InputDimension{
			Kind:  models.InputKind(in.Input),
			Time:  timeDomain,
			Value: valueDomain,
		})
	}

	wait := config.Domain{Values: []int64{0}}
	if cfg.WaitTime != nil && !cfg.WaitTime.IsZero() {
		wait = *cfg.WaitTime
	}
	waitDomain, err := toDomain(wait)
	if err != nil {
		return nil, fmt.Errorf("wait_time: %w", err)
	}

	initial := make([]models.InputEvent, 0, len(cfg.InitialInputs))
	for i, in := range cfg.InitialInputs {
		kind := models.InputKind(in.Input)
		if !kind.Valid() {
			return nil, fmt.Errorf("initial input %d: %w: unknown input kind %q", i, space.ErrInvalidDomain, in.Input)
		}
		initial = append(initial, models.InputEvent{Time: in.Time, Kind: kind, Value: in.Value})
	}

	return space.New(dims, waitDomain, space.Options{TimeFirst: cfg.TimeFirst, Initial: initial})
}

func toDomain(d config.Domain) (space.Domain, error) {
	if d.Range != nil {
		return space.NewRangeDomain(d.Range.Start, d.Range.Stop, d.Range.Step)
	}
	return space.NewSetDomain(d.Values)
}

// SettingsFromConfig derives controller settings from a validated configuration
func SettingsFromConfig(cfg *config.Search, log *slog.Logger, observer Observer) (Settings, error) {
	sp, err := BuildSpace(cfg)
	if err != nil {
		return Settings{}, err
	}
	goals, err := predicate.CompileAll(cfg.Goals)
	if err != nil {
		return Settings{}, fmt.Errorf("goals: %w", err)
	}
	restarts, err := predicate.CompileAll(cfg.Restarts)
	if err != nil {
		return Settings{}, fmt.Errorf("restarts: %w", err)
	}

	s := Settings{
		Space:          sp,
		StartPosition:  cfg.StartPosition,
		MaxLength:      cfg.Length(),
		ExtraTime:      cfg.ExtraTime,
		CheckFrequency: cfg.Frequency(),
		OrderedGoals:   cfg.Ordered(),
		RewindMargin:   cfg.Margin(),
		Goals:          goals,
		Restarts:       restarts,
		Logger:         log,
		Observer:       observer,
	}
	if cfg.Random {
		s.Rand = utils.NewRandSource(cfg.Seed)
		return s, nil
	}
	s.Enumerator, err = space.NewEnumerator(sp, space.ShardSpec{Stride: cfg.Shard.Stride, Offset: cfg.Shard.Offset})
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

// NewFromConfig builds a controller over host from a validated configuration
func NewFromConfig(host Host, cfg *config.Search, log *slog.Logger, observer Observer) (*Controller, error) {
	s, err := SettingsFromConfig(cfg, log, observer)
	if err != nil {
		return nil, err
	}
	return NewController(host, s)
}
