// Package storage persists the best finish time so a restarted worker resumes with it.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BestRecord is the best finish time a worker has found and the sequence that produced it
type BestRecord struct {
	Worker    string    `json:"worker"`
	RunID     uuid.UUID `json:"run_id"`
	RaceTime  int64     `json:"race_time"`
	Wait      int64     `json:"wait"`
	Index     uint64    `json:"index"`
	Sequence  string    `json:"sequence"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists best records keyed by worker. SaveBest keeps whichever of the stored
// and the given record has the smaller race time and reports whether it stored rec.
type Store interface {
	Init(ctx context.Context) error
	SaveBest(ctx context.Context, rec BestRecord) (bool, error)
	GetBest(ctx context.Context, worker string) (BestRecord, bool, error)
}
