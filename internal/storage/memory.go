package storage

import (
	"context"
	"errors"
	"sync"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu    sync.RWMutex
	bests map[string]BestRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bests == nil {
		s.bests = make(map[string]BestRecord)
	}
	return nil
}

func (s *MemoryStore) SaveBest(_ context.Context, rec BestRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bests == nil {
		return false, errNotInitialized
	}
	if prev, ok := s.bests[rec.Worker]; ok && prev.RaceTime <= rec.RaceTime {
		return false, nil
	}
	s.bests[rec.Worker] = rec
	return true, nil
}

func (s *MemoryStore) GetBest(_ context.Context, worker string) (BestRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.bests == nil {
		return BestRecord{}, false, errNotInitialized
	}
	rec, ok := s.bests[worker]
	return rec, ok, nil
}
