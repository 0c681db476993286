package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

// exerciseStore runs the shared best-record contract against a backend
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, ok, err := store.GetBest(ctx, "w0"); err != nil || ok {
		t.Fatalf("expected no record, got ok=%v err=%v", ok, err)
	}

	runID := uuid.New()
	at := time.UnixMilli(1700000000123).UTC()
	first := BestRecord{Worker: "w0", RunID: runID, RaceTime: 5000, Wait: 10, Index: 7, Sequence: "0 press up", UpdatedAt: at}

	steps := []struct {
		name      string
		rec       BestRecord
		wantSaved bool
		wantBest  int64
	}{
		{"first record", first, true, 5000},
		{"strictly better", BestRecord{Worker: "w0", RunID: runID, RaceTime: 4200, UpdatedAt: at}, true, 4200},
		{"worse is ignored", BestRecord{Worker: "w0", RunID: runID, RaceTime: 4800, UpdatedAt: at}, false, 4200},
		{"equal is ignored", BestRecord{Worker: "w0", RunID: runID, RaceTime: 4200, UpdatedAt: at}, false, 4200},
	}
	for _, step := range steps {
		saved, err := store.SaveBest(ctx, step.rec)
		if err != nil {
			t.Fatalf("%s: save: %v", step.name, err)
		}
		if saved != step.wantSaved {
			t.Errorf("%s: saved = %v, want %v", step.name, saved, step.wantSaved)
		}
		got, ok, err := store.GetBest(ctx, "w0")
		if err != nil || !ok {
			t.Fatalf("%s: get: ok=%v err=%v", step.name, ok, err)
		}
		if got.RaceTime != step.wantBest {
			t.Errorf("%s: best = %d, want %d", step.name, got.RaceTime, step.wantBest)
		}
	}

	if _, err := store.SaveBest(ctx, first); err != nil {
		t.Fatalf("save other: %v", err)
	}
	other := first
	other.Worker = "w1"
	if saved, err := store.SaveBest(ctx, other); err != nil || !saved {
		t.Fatalf("workers must be independent: saved=%v err=%v", saved, err)
	}
	got, _, _ := store.GetBest(ctx, "w1")
	if got.RunID != runID || got.Wait != 10 || got.Index != 7 || got.Sequence != "0 press up" || !got.UpdatedAt.Equal(at) {
		t.Errorf("record fields not preserved: %+v", got)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.SaveBest(context.Background(), BestRecord{Worker: "w"}); err == nil {
		t.Error("expected error before Init")
	}
	if _, _, err := store.GetBest(context.Background(), "w"); err == nil {
		t.Error("expected error before Init")
	}
}

func TestSQLiteStore(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "replay-search.db"))
	t.Cleanup(func() {
		_ = store.Close()
	})
	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "replay-search.db")

	first := NewSQLiteStore(path)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := first.SaveBest(ctx, BestRecord{Worker: "w", RunID: uuid.New(), RaceTime: 3100, UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := NewSQLiteStore(path)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	best, ok, err := LoadBest(ctx, second, "w")
	if err != nil || !ok || best != 3100 {
		t.Fatalf("expected persisted best 3100, got %d ok=%v err=%v", best, ok, err)
	}
}

func TestSQLiteStoreRequiresPathAndInit(t *testing.T) {
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Error("expected error for an empty path")
	}
	if _, _, err := NewSQLiteStore("x.db").GetBest(context.Background(), "w"); err == nil {
		t.Error("expected error before Init")
	}
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		kind    string
		wantErr bool
	}{
		{"", false},
		{"memory", false},
		{"sqlite", false},
		{"postgres", true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			store, err := NewStore(tt.kind, filepath.Join(t.TempDir(), "s.db"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStore(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			}
			if err == nil {
				if err := CloseIfSupported(store); err != nil {
					t.Errorf("close: %v", err)
				}
			}
		})
	}
}
