package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/GoSim-25-26J-441/replay-search/internal/engine"
	"github.com/GoSim-25-26J-441/replay-search/internal/space"
	"github.com/google/uuid"
)

const saveTimeout = 5 * time.Second

// Recorder persists every new best time reported by the controller. Save failures are
// logged; they never interrupt the search.
type Recorder struct {
	engine.NopObserver

	store  Store
	space  *space.Space
	worker string
	runID  uuid.UUID
	log    *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder writing worker's bests to store. Sequences are
// persisted as the full buffer sp injects for them, initial inputs included.
func NewRecorder(store Store, sp *space.Space, worker string, runID uuid.UUID, log *slog.Logger) *Recorder {
	return &Recorder{store: store, space: sp, worker: worker, runID: runID, log: log, now: time.Now}
}

// NewBest implements engine.Observer
func (r *Recorder) NewBest(raceTime int64, seq space.CandidateSequence) {
	rec := BestRecord{
		Worker:    r.worker,
		RunID:     r.runID,
		RaceTime:  raceTime,
		Wait:      seq.Wait,
		Index:     seq.Index,
		Sequence:  r.space.Buffer(seq).CommandsString(),
		UpdatedAt: r.now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if _, err := r.store.SaveBest(ctx, rec); err != nil {
		r.log.Warn("failed to persist best time", "worker", r.worker, "race_time", raceTime, "error", err)
	}
}

// LoadBest returns the persisted best race time for worker, if any
func LoadBest(ctx context.Context, store Store, worker string) (int64, bool, error) {
	rec, ok, err := store.GetBest(ctx, worker)
	if err != nil || !ok {
		return 0, false, err
	}
	return rec.RaceTime, true, nil
}
