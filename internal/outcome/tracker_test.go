package outcome

import "testing"

func TestScenarioDBestTime(t *testing.T) {
	tr := NewTracker(0)
	tr.Seed(5000)

	improved, prev, had := tr.ObserveCheckpoint(3, 3, 4200)
	if !improved || prev != 5000 || !had {
		t.Fatalf("expected improvement over 5000, got improved=%v prev=%d had=%v", improved, prev, had)
	}
	if best, _ := tr.Best(); best != 4200 {
		t.Fatalf("expected best 4200, got %d", best)
	}

	improved, _, _ = tr.ObserveCheckpoint(3, 3, 4800)
	if improved {
		t.Error("expected slower finish not to replace best")
	}
	if best, _ := tr.Best(); best != 4200 {
		t.Errorf("expected best to stay 4200, got %d", best)
	}
}

func TestBestUpdateLaw(t *testing.T) {
	tests := []struct {
		name         string
		seed         *int64
		current      int
		target       int
		raceTime     int64
		wantImproved bool
		wantBest     int64
		wantHasBest  bool
	}{
		{"first finish", nil, 3, 3, 9000, true, 9000, true},
		{"intermediate checkpoint", nil, 2, 3, 100, false, 0, false},
		{"equal time", ptr(4200), 3, 3, 4200, false, 4200, true},
		{"slower", ptr(4200), 3, 3, 4201, false, 4200, true},
		{"faster", ptr(4200), 3, 3, 4199, true, 4199, true},
		{"faster but not final", ptr(4200), 1, 3, 10, false, 4200, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(0)
			if tt.seed != nil {
				tr.Seed(*tt.seed)
			}
			improved, _, _ := tr.ObserveCheckpoint(tt.current, tt.target, tt.raceTime)
			if improved != tt.wantImproved {
				t.Errorf("improved = %v, want %v", improved, tt.wantImproved)
			}
			best, ok := tr.Best()
			if ok != tt.wantHasBest || (ok && best != tt.wantBest) {
				t.Errorf("Best() = (%d, %v), want (%d, %v)", best, ok, tt.wantBest, tt.wantHasBest)
			}
		})
	}
}

func TestGoalFlags(t *testing.T) {
	tr := NewTracker(2)
	if !tr.MarkGoal(1) {
		t.Fatal("expected first mark to report true")
	}
	if tr.MarkGoal(1) {
		t.Error("expected second mark to report false")
	}
	if tr.GoalSatisfied(0) || !tr.GoalSatisfied(1) {
		t.Errorf("unexpected flags %v", tr.Goals())
	}

	flags := tr.Goals()
	flags[0] = true
	if tr.GoalSatisfied(0) {
		t.Error("Goals must return a copy")
	}

	tr.ResetGoals()
	for i, g := range tr.Goals() {
		if g {
			t.Errorf("goal %d still satisfied after reset", i)
		}
	}
}

func ptr(v int64) *int64 { return &v }
