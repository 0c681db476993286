package config

import (
	"errors"
	"fmt"
	"os"
)

// Defaults for options left unset
const (
	DefaultMaxLength      int64 = 120000
	DefaultCheckFrequency int64 = 500
	DefaultRewindMargin   int64 = 20
	DefaultLogLevel             = "info"
	DefaultListen               = ":50061"
	DefaultHostTimeoutMs        = 2000
	DefaultRetryBackoff         = "exponential"
	DefaultRetryBaseMs          = 50
	DefaultStorePath            = "replay-search.db"
	DefaultNamePrefix           = "LowInputClient"
)

// ErrUnknownKey is returned for keys the configuration does not recognize
var ErrUnknownKey = errors.New("unknown configuration key")

var validConditionOps = map[string]bool{
	"<":  true,
	"<=": true,
	">":  true,
	">=": true,
	"==": true,
	"!=": true,
}

// LoadSearch loads and parses a search configuration file
func LoadSearch(path string) (*Search, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read search file %s: %w", path, err)
	}
	cfg, err := ParseSearchYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search file %s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Search) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.WaitTime == nil || cfg.WaitTime.IsZero() {
		cfg.WaitTime = &Domain{Values: []int64{0}}
	}
	if cfg.Shard.Stride == 0 {
		cfg.Shard.Stride = 1
	}
	if cfg.Host.TimeoutMs == 0 {
		cfg.Host.TimeoutMs = DefaultHostTimeoutMs
	}
	if cfg.Host.Retry.Backoff == "" {
		cfg.Host.Retry.Backoff = DefaultRetryBackoff
	}
	if cfg.Host.Retry.BaseMs == 0 {
		cfg.Host.Retry.BaseMs = DefaultRetryBaseMs
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = "memory"
	}
	if cfg.Store.Kind == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}
	ApplyWorkerDefaults(cfg)
}

// ApplyWorkerDefaults fills the worker name and log file from the shard offset. It is
// applied again after command-line overrides change the shard.
func ApplyWorkerDefaults(cfg *Search) {
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("%s%d", DefaultNamePrefix, cfg.Shard.Offset)
	}
	if cfg.LogFile == "" {
		cfg.LogFile = cfg.Name + ".txt"
	}
}

// Validate re-checks a configuration, e.g. after command-line overrides
func (s *Search) Validate() error {
	return validateSearch(s)
}

// validateSearch performs validation on the configuration
func validateSearch(cfg *Search) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if len(cfg.Inputs) == 0 && len(cfg.InitialInputs) == 0 {
		return fmt.Errorf("at least one input or initial input must be defined")
	}
	for i, in := range cfg.Inputs {
		if in.Input == "" {
			return fmt.Errorf("input %d: input name cannot be empty", i)
		}
		if in.Time.IsZero() {
			return fmt.Errorf("input %d (%s): time domain is required", i, in.Input)
		}
		if in.Value.IsZero() {
			return fmt.Errorf("input %d (%s): value domain is required", i, in.Input)
		}
	}
	for i, in := range cfg.InitialInputs {
		if in.Input == "" {
			return fmt.Errorf("initial input %d: input name cannot be empty", i)
		}
	}

	if cfg.Length() < 0 {
		return fmt.Errorf("max_length cannot be negative, got %d", cfg.Length())
	}
	if cfg.ExtraTime < 0 {
		return fmt.Errorf("extra_time cannot be negative, got %d", cfg.ExtraTime)
	}
	if cfg.Frequency() <= 0 {
		return fmt.Errorf("check_frequency must be positive, got %d", cfg.Frequency())
	}
	if cfg.Margin() < 0 {
		return fmt.Errorf("rewind_margin cannot be negative, got %d", cfg.Margin())
	}

	if err := validatePredicates("goal", cfg.Goals); err != nil {
		return err
	}
	if err := validatePredicates("restart", cfg.Restarts); err != nil {
		return err
	}

	if cfg.Shard.Offset >= cfg.Shard.Stride {
		return fmt.Errorf("shard offset %d must be less than stride %d", cfg.Shard.Offset, cfg.Shard.Stride)
	}
	if cfg.Random && cfg.StartPosition != 0 {
		return fmt.Errorf("start_position has no effect in random mode")
	}

	if cfg.Host.TimeoutMs < 0 {
		return fmt.Errorf("host timeout_ms cannot be negative")
	}
	if cfg.Host.Retry.MaxRetries < 0 || cfg.Host.Retry.BaseMs < 0 {
		return fmt.Errorf("host retry max_retries and base_ms cannot be negative")
	}
	switch cfg.Host.Retry.Backoff {
	case "exponential", "linear", "constant":
	default:
		return fmt.Errorf("invalid host retry backoff: %s (must be exponential, linear, or constant)", cfg.Host.Retry.Backoff)
	}

	switch cfg.Store.Kind {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unsupported store kind: %s (must be memory or sqlite)", cfg.Store.Kind)
	}

	return nil
}

func validatePredicates(kind string, preds []Predicate) error {
	for i, p := range preds {
		if len(p.All) == 0 && len(p.Any) == 0 {
			return fmt.Errorf("%s %s: at least one condition is required", kind, p.Label(i))
		}
		for _, c := range append(append([]Condition{}, p.All...), p.Any...) {
			if c.Path == "" {
				return fmt.Errorf("%s %s: condition path cannot be empty", kind, p.Label(i))
			}
			if !validConditionOps[c.Op] {
				return fmt.Errorf("%s %s: invalid operator %q", kind, p.Label(i), c.Op)
			}
		}
	}
	return nil
}
