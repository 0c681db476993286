package hostsim

import (
	"context"
	"errors"
	"fmt"
)

// ErrStepLimit is returned when a run exceeds the driver's step budget
var ErrStepLimit = errors.New("step limit reached")

// Client receives the host callbacks
type Client interface {
	OnRegistered(ctx context.Context, serverName string) error
	OnSimulationBegin(ctx context.Context) error
	OnSimulationStep(ctx context.Context, t int64) error
	OnCheckpointCountChanged(ctx context.Context, current, target int) error
}

// Driver plays the host's event loop: it steps the simulation and delivers callbacks
// synchronously, in program order.
type Driver struct {
	sim    *Sim
	client Client
	// MaxSteps bounds a Run; zero means unbounded.
	MaxSteps int64
}

// NewDriver creates a driver delivering sim's callbacks to client
func NewDriver(sim *Sim, client Client) *Driver {
	return &Driver{sim: sim, client: client}
}

// Run registers the client, begins the simulation and steps until the client has
// completed the given number of iterations. Every event buffer replacement after the
// first marks the end of an iteration.
func (d *Driver) Run(ctx context.Context, iterations int) error {
	if err := d.client.OnRegistered(ctx, d.sim.ServerName()); err != nil {
		return fmt.Errorf("on registered: %w", err)
	}
	if err := d.client.OnSimulationBegin(ctx); err != nil {
		return fmt.Errorf("on simulation begin: %w", err)
	}
	start := d.sim.BufferSets()

	var steps int64
	for d.sim.BufferSets()-start < iterations {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.MaxSteps > 0 && steps >= d.MaxSteps {
			return fmt.Errorf("%w after %d steps", ErrStepLimit, steps)
		}
		t, changes, err := d.sim.Step()
		if err != nil {
			return fmt.Errorf("step at t=%d: %w", t, err)
		}
		steps++
		for _, ch := range changes {
			if err := d.client.OnCheckpointCountChanged(ctx, ch.Current, ch.Target); err != nil {
				return fmt.Errorf("on checkpoint count changed: %w", err)
			}
		}
		if err := d.client.OnSimulationStep(ctx, t); err != nil {
			return fmt.Errorf("on simulation step t=%d: %w", t, err)
		}
	}
	return nil
}
