// Package engine drives the search: it owns the iteration state machine that the
// simulation host's callbacks advance, and the capability contract the host exposes.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
)

// ErrHost wraps every failed call into the simulation host. Such failures are fatal:
// snapshot validity is owned by the host and cannot be checked here.
var ErrHost = errors.New("host call failed")

// Host is the set of operations the simulation host offers the search
type Host interface {
	// RemoveStateValidation disables host-side checks so rewinds are accepted unconditionally.
	RemoveStateValidation(ctx context.Context) error
	// EventBuffer returns the timed inputs scheduled for the run.
	EventBuffer(ctx context.Context) (*models.EventBuffer, error)
	// SetEventBuffer replaces the scheduled inputs.
	SetEventBuffer(ctx context.Context, buf *models.EventBuffer) error
	// SimulationState samples the current state, including an opaque snapshot.
	SimulationState(ctx context.Context) (*models.SimulationState, error)
	// SetSimulationTimeLimit arms the instant at which the host ends the run.
	SetSimulationTimeLimit(ctx context.Context, t int64) error
	// RewindToState restores a state previously returned by SimulationState.
	RewindToState(ctx context.Context, state *models.SimulationState) error
	// PreventSimulationFinish stops the host from ending the run at the final checkpoint.
	PreventSimulationFinish(ctx context.Context) error
}

func hostError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrHost, op, err)
}
