package space

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidDomain is returned when a dimension, time or value domain is malformed
	ErrInvalidDomain = errors.New("invalid domain")
)

// Domain is a finite, ordered set of integers: either an explicit set of values or a
// half-open range [start, stop) with a positive step that divides stop-start.
// The zero value is not a usable domain.
type Domain struct {
	values  []int64
	isRange bool
	start   int64
	step    int64
	n       uint64
	min     int64
}

// NewSetDomain creates a domain from an explicit list of distinct values.
// Values keep their declared order.
func NewSetDomain(values []int64) (Domain, error) {
	if len(values) == 0 {
		return Domain{}, fmt.Errorf("%w: value set is empty", ErrInvalidDomain)
	}
	seen := make(map[int64]bool, len(values))
	min := values[0]
	for _, v := range values {
		if seen[v] {
			return Domain{}, fmt.Errorf("%w: duplicate value %d", ErrInvalidDomain, v)
		}
		seen[v] = true
		if v < min {
			min = v
		}
	}
	copied := make([]int64, len(values))
	copy(copied, values)
	return Domain{values: copied, n: uint64(len(copied)), min: min}, nil
}

// NewRangeDomain creates the half-open range [start, stop) stepping by step.
func NewRangeDomain(start, stop, step int64) (Domain, error) {
	if step <= 0 {
		return Domain{}, fmt.Errorf("%w: step must be positive, got %d", ErrInvalidDomain, step)
	}
	if start >= stop {
		return Domain{}, fmt.Errorf("%w: start %d must be less than stop %d", ErrInvalidDomain, start, stop)
	}
	if start < 0 && stop > math.MaxInt64+start {
		return Domain{}, fmt.Errorf("%w: range [%d, %d) is too wide", ErrInvalidDomain, start, stop)
	}
	width := stop - start
	if width%step != 0 {
		return Domain{}, fmt.Errorf("%w: step %d does not divide range width %d", ErrInvalidDomain, step, width)
	}
	return Domain{
		isRange: true,
		start:   start,
		step:    step,
		n:       uint64(width / step),
		min:     start,
	}, nil
}

// MustSetDomain is NewSetDomain for literals known to be valid; it panics otherwise.
func MustSetDomain(values ...int64) Domain {
	d, err := NewSetDomain(values)
	if err != nil {
		panic(err)
	}
	return d
}

// Len returns the number of values in the domain
func (d Domain) Len() uint64 {
	return d.n
}

// At returns the i-th value. i must be in [0, Len()).
func (d Domain) At(i uint64) int64 {
	if i >= d.n {
		panic(fmt.Sprintf("domain index %d out of range [0, %d)", i, d.n))
	}
	if d.isRange {
		return d.start + int64(i)*d.step
	}
	return d.values[i]
}

// Min returns the smallest value in the domain
func (d Domain) Min() int64 {
	return d.min
}

// Contains reports whether v is a member of the domain
func (d Domain) Contains(v int64) bool {
	if d.isRange {
		if v < d.start || (v-d.start)%d.step != 0 {
			return false
		}
		return uint64((v-d.start)/d.step) < d.n
	}
	for _, x := range d.values {
		if x == v {
			return true
		}
	}
	return false
}

// Values returns every value in domain order
func (d Domain) Values() []int64 {
	out := make([]int64, 0, d.n)
	for i := uint64(0); i < d.n; i++ {
		out = append(out, d.At(i))
	}
	return out
}

func (d Domain) String() string {
	if d.isRange {
		return fmt.Sprintf("range(%d, %d, %d)", d.start, d.start+int64(d.n)*d.step, d.step)
	}
	return fmt.Sprintf("%v", d.values)
}
