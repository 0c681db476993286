package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveBest(ctx context.Context, rec BestRecord) (bool, error) {
	db, err := s.getDB()
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO best_times (worker, run_id, race_time, wait, seq_index, sequence, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(worker) DO UPDATE SET
			run_id = excluded.run_id,
			race_time = excluded.race_time,
			wait = excluded.wait,
			seq_index = excluded.seq_index,
			sequence = excluded.sequence,
			updated_at = excluded.updated_at
		WHERE excluded.race_time < best_times.race_time
	`, rec.Worker, rec.RunID.String(), rec.RaceTime, rec.Wait, int64(rec.Index), rec.Sequence, rec.UpdatedAt.UTC().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("save best for %s: %w", rec.Worker, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) GetBest(ctx context.Context, worker string) (BestRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return BestRecord{}, false, err
	}

	var (
		rec       BestRecord
		runID     string
		index     int64
		updatedAt int64
	)
	err = db.QueryRowContext(ctx, `
		SELECT worker, run_id, race_time, wait, seq_index, sequence, updated_at
		FROM best_times WHERE worker = ?
	`, worker).Scan(&rec.Worker, &runID, &rec.RaceTime, &rec.Wait, &index, &rec.Sequence, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BestRecord{}, false, nil
		}
		return BestRecord{}, false, err
	}

	rec.RunID, err = uuid.Parse(runID)
	if err != nil {
		return BestRecord{}, false, fmt.Errorf("decode run id for %s: %w", worker, err)
	}
	rec.Index = uint64(index)
	rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return rec, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS best_times (
			worker TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			race_time INTEGER NOT NULL,
			wait INTEGER NOT NULL,
			seq_index INTEGER NOT NULL,
			sequence TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	return err
}
