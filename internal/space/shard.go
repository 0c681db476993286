package space

import (
	"errors"
	"fmt"
)

var (
	// ErrEnumerationExhausted marks a shard whose positions have all been visited once.
	// It is informational: enumeration wraps to the shard's first position.
	ErrEnumerationExhausted = errors.New("enumeration exhausted")

	// ErrEmptyShard is returned when a shard selects no index of the space
	ErrEmptyShard = errors.New("shard selects no candidates")
)

// ShardSpec selects the arithmetic progression offset, offset+stride, offset+2*stride, ...
// of the enumeration order. Workers sharing a stride with distinct offsets visit
// disjoint sets whose union is the whole space.
type ShardSpec struct {
	Stride uint64 `json:"stride"`
	Offset uint64 `json:"offset"`
}

// Validate checks that the stride is positive and the offset is in [0, stride)
func (s ShardSpec) Validate() error {
	if s.Stride == 0 {
		return fmt.Errorf("shard stride must be positive")
	}
	if s.Offset >= s.Stride {
		return fmt.Errorf("shard offset %d must be less than stride %d", s.Offset, s.Stride)
	}
	return nil
}

// Enumerator maps shard positions to candidate sequences
type Enumerator struct {
	space *Space
	shard ShardSpec
	count uint64
}

// NewEnumerator creates an enumerator for one shard of the space
func NewEnumerator(space *Space, shard ShardSpec) (*Enumerator, error) {
	if err := shard.Validate(); err != nil {
		return nil, err
	}
	if shard.Offset >= space.TotalSize() {
		return nil, fmt.Errorf("%w: offset %d with total size %d", ErrEmptyShard, shard.Offset, space.TotalSize())
	}
	count := (space.TotalSize()-shard.Offset-1)/shard.Stride + 1
	return &Enumerator{space: space, shard: shard, count: count}, nil
}

// Shard returns the shard being enumerated
func (e *Enumerator) Shard() ShardSpec {
	return e.shard
}

// Count returns the number of positions in one pass over the shard
func (e *Enumerator) Count() uint64 {
	return e.count
}

// Index returns the linear index for position and the zero-based pass it falls in.
// Positions past the end of the shard wrap to its start.
func (e *Enumerator) Index(position uint64) (index, pass uint64) {
	pass = position / e.count
	return (position%e.count)*e.shard.Stride + e.shard.Offset, pass
}

// AdvanceTo returns the sequence at position. The result depends only on the shard and
// position, so a restarted worker resumes exactly where it left off.
func (e *Enumerator) AdvanceTo(position uint64) (CandidateSequence, uint64, error) {
	index, pass := e.Index(position)
	seq, err := e.space.Decode(index)
	if err != nil {
		return CandidateSequence{}, pass, err
	}
	return seq, pass, nil
}
