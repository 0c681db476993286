package space

import (
	"errors"
	"testing"

	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
)

func TestScenarioBTwoWorkers(t *testing.T) {
	s := scenarioA(t)

	visited := map[uint64][]uint64{}
	for offset := uint64(0); offset < 2; offset++ {
		e, err := NewEnumerator(s, ShardSpec{Stride: 2, Offset: offset})
		if err != nil {
			t.Fatalf("NewEnumerator failed: %v", err)
		}
		for p := uint64(0); p < e.Count(); p++ {
			seq, pass, err := e.AdvanceTo(p)
			if err != nil {
				t.Fatalf("AdvanceTo(%d) failed: %v", p, err)
			}
			if pass != 0 {
				t.Fatalf("expected first pass, got %d", pass)
			}
			visited[offset] = append(visited[offset], seq.Index)
		}
	}

	want := map[uint64][]uint64{0: {0, 2, 4}, 1: {1, 3, 5}}
	for offset, indices := range want {
		if len(visited[offset]) != len(indices) {
			t.Fatalf("worker %d visited %v, want %v", offset, visited[offset], indices)
		}
		for i := range indices {
			if visited[offset][i] != indices[i] {
				t.Fatalf("worker %d visited %v, want %v", offset, visited[offset], indices)
			}
		}
	}
}

func TestShardsPartitionSpace(t *testing.T) {
	dims := []InputDimension{
		{Kind: models.InputSteer, Time: MustSetDomain(0, 10, 20, 30, 40), Value: MustSetDomain(1, 2, 3)},
	}
	s, err := New(dims, MustSetDomain(0, 10), Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	total := s.TotalSize()

	for _, stride := range []uint64{1, 2, 3, 4, 7, 30} {
		counts := make(map[uint64]int)
		for offset := uint64(0); offset < stride; offset++ {
			e, err := NewEnumerator(s, ShardSpec{Stride: stride, Offset: offset})
			if err != nil {
				t.Fatalf("stride %d offset %d: %v", stride, offset, err)
			}
			for p := uint64(0); p < e.Count(); p++ {
				idx, _ := e.Index(p)
				counts[idx]++
			}
		}
		if uint64(len(counts)) != total {
			t.Fatalf("stride %d: covered %d of %d indices", stride, len(counts), total)
		}
		for idx, c := range counts {
			if c != 1 {
				t.Fatalf("stride %d: index %d visited %d times", stride, idx, c)
			}
		}
	}
}

func TestEnumeratorWrapsWithinShard(t *testing.T) {
	s := scenarioA(t)
	e, err := NewEnumerator(s, ShardSpec{Stride: 4, Offset: 1})
	if err != nil {
		t.Fatalf("NewEnumerator failed: %v", err)
	}
	if e.Count() != 2 {
		t.Fatalf("expected 2 positions (indices 1 and 5), got %d", e.Count())
	}

	tests := []struct {
		position uint64
		index    uint64
		pass     uint64
	}{
		{0, 1, 0},
		{1, 5, 0},
		{2, 1, 1},
		{3, 5, 1},
		{10, 1, 5},
	}
	for _, tt := range tests {
		idx, pass := e.Index(tt.position)
		if idx != tt.index || pass != tt.pass {
			t.Errorf("Index(%d) = (%d, %d), want (%d, %d)", tt.position, idx, pass, tt.index, tt.pass)
		}
	}
}

func TestAdvanceToResumable(t *testing.T) {
	s := scenarioA(t)
	a, _ := NewEnumerator(s, ShardSpec{Stride: 3, Offset: 2})
	b, _ := NewEnumerator(s, ShardSpec{Stride: 3, Offset: 2})

	for p := uint64(0); p < 10; p++ {
		sa, _, _ := a.AdvanceTo(p)
		sb, _, _ := b.AdvanceTo(p)
		if sa.Index != sb.Index || sa.Inputs[0] != sb.Inputs[0] {
			t.Fatalf("position %d differs between enumerators: %+v vs %+v", p, sa, sb)
		}
	}
}

func TestNewEnumeratorInvalid(t *testing.T) {
	s := scenarioA(t)

	if _, err := NewEnumerator(s, ShardSpec{Stride: 0}); err == nil {
		t.Error("expected error for zero stride")
	}
	if _, err := NewEnumerator(s, ShardSpec{Stride: 2, Offset: 2}); err == nil {
		t.Error("expected error for offset >= stride")
	}
	if _, err := NewEnumerator(s, ShardSpec{Stride: 10, Offset: 7}); !errors.Is(err, ErrEmptyShard) {
		t.Errorf("expected ErrEmptyShard, got %v", err)
	}
}
