package space

import (
	"fmt"
	"math/bits"

	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
	"github.com/GoSim-25-26J-441/replay-search/pkg/utils"
)

// InputDimension is one controllable input: the time it is applied at (relative to the
// wait offset) and the value it is applied with, each drawn from its own domain.
type InputDimension struct {
	Kind  models.InputKind
	Time  Domain
	Value Domain
}

// Constant reports whether the dimension has a single possible (time, value) pair
func (d InputDimension) Constant() bool {
	return d.Time.Len() == 1 && d.Value.Len() == 1
}

// Assignment is the (time, value) chosen for one dimension
type Assignment struct {
	Kind  models.InputKind `json:"kind"`
	Time  int64            `json:"time"`
	Value int64            `json:"value"`
}

// CandidateSequence is one point of the candidate space
type CandidateSequence struct {
	// Index is the linear index the sequence was decoded from; unset for random samples.
	Index  uint64       `json:"index"`
	Random bool         `json:"random"`
	Wait   int64        `json:"wait"`
	Inputs []Assignment `json:"inputs"`
}

// Events returns the candidate's inputs at absolute simulated times
func (c CandidateSequence) Events() []models.InputEvent {
	events := make([]models.InputEvent, 0, len(c.Inputs))
	for _, in := range c.Inputs {
		events = append(events, models.InputEvent{Time: c.Wait + in.Time, Kind: in.Kind, Value: in.Value})
	}
	return events
}

// Options tune how the space is laid out
type Options struct {
	// TimeFirst makes the time digit the fastest-cycling digit of every dimension.
	TimeFirst bool
	// Initial events are injected into every buffer at their absolute times.
	Initial []models.InputEvent
}

// Space is the cross product of the wait domain and every dimension's time and value
// domains, addressed by a mixed-radix linear index.
type Space struct {
	dims    []InputDimension
	wait    Domain
	opts    Options
	radices []uint64
	total   uint64
}

// New builds a candidate space. Each dimension must be valid for its input kind.
func New(dims []InputDimension, wait Domain, opts Options) (*Space, error) {
	if wait.Len() == 0 {
		return nil, fmt.Errorf("%w: wait domain is empty", ErrInvalidDomain)
	}
	for i, d := range dims {
		if err := validateDimension(d); err != nil {
			return nil, fmt.Errorf("input %d (%s): %w", i, d.Kind, err)
		}
	}

	radices := make([]uint64, 0, 1+2*len(dims))
	radices = append(radices, wait.Len())
	for _, d := range dims {
		if opts.TimeFirst {
			radices = append(radices, d.Value.Len(), d.Time.Len())
		} else {
			radices = append(radices, d.Time.Len(), d.Value.Len())
		}
	}

	total := uint64(1)
	for _, r := range radices {
		hi, lo := bits.Mul64(total, r)
		if hi != 0 {
			return nil, fmt.Errorf("%w: candidate space exceeds 2^64 sequences", ErrInvalidDomain)
		}
		total = lo
	}

	copied := make([]InputDimension, len(dims))
	copy(copied, dims)
	initial := make([]models.InputEvent, len(opts.Initial))
	copy(initial, opts.Initial)
	opts.Initial = initial

	return &Space{dims: copied, wait: wait, opts: opts, radices: radices, total: total}, nil
}

func validateDimension(d InputDimension) error {
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: unknown input kind %q", ErrInvalidDomain, d.Kind)
	}
	if d.Time.Len() == 0 || d.Value.Len() == 0 {
		return fmt.Errorf("%w: time and value domains are required", ErrInvalidDomain)
	}
	for _, v := range d.Value.Values() {
		if d.Kind.IsBinary() && v != 0 && v != 1 {
			return fmt.Errorf("%w: binary input value %d is not 0 or 1", ErrInvalidDomain, v)
		}
		if d.Kind.IsAnalog() && (v < models.AnalogMin || v > models.AnalogMax) {
			return fmt.Errorf("%w: analog value %d outside [%d, %d]", ErrInvalidDomain, v, models.AnalogMin, models.AnalogMax)
		}
	}
	return nil
}

// TotalSize returns the number of distinct candidate sequences
func (s *Space) TotalSize() uint64 {
	return s.total
}

// Dimensions returns the input dimensions in declared order
func (s *Space) Dimensions() []InputDimension {
	out := make([]InputDimension, len(s.dims))
	copy(out, s.dims)
	return out
}

// Wait returns the wait domain
func (s *Space) Wait() Domain {
	return s.wait
}

// Decode maps a linear index in [0, TotalSize()) to its sequence. The last digit
// cycles fastest; the wait digit is the most significant.
func (s *Space) Decode(index uint64) (CandidateSequence, error) {
	if index >= s.total {
		return CandidateSequence{}, fmt.Errorf("index %d out of range [0, %d)", index, s.total)
	}

	digits := make([]uint64, len(s.radices))
	rem := index
	for i := len(s.radices) - 1; i >= 0; i-- {
		digits[i] = rem % s.radices[i]
		rem /= s.radices[i]
	}

	seq := CandidateSequence{
		Index:  index,
		Wait:   s.wait.At(digits[0]),
		Inputs: make([]Assignment, len(s.dims)),
	}
	for i, d := range s.dims {
		a, b := digits[1+2*i], digits[2+2*i]
		timeDigit, valueDigit := a, b
		if s.opts.TimeFirst {
			timeDigit, valueDigit = b, a
		}
		seq.Inputs[i] = Assignment{Kind: d.Kind, Time: d.Time.At(timeDigit), Value: d.Value.At(valueDigit)}
	}
	return seq, nil
}

// SampleRandom draws the wait and every dimension's time and value independently
// and uniformly.
func (s *Space) SampleRandom(r *utils.RandSource) CandidateSequence {
	seq := CandidateSequence{
		Random: true,
		Wait:   s.wait.At(r.Uint64n(s.wait.Len())),
		Inputs: make([]Assignment, len(s.dims)),
	}
	for i, d := range s.dims {
		seq.Inputs[i] = Assignment{
			Kind:  d.Kind,
			Time:  d.Time.At(r.Uint64n(d.Time.Len())),
			Value: d.Value.At(r.Uint64n(d.Value.Len())),
		}
	}
	return seq
}

// Buffer builds the event buffer injected for seq: initial events first, then the
// candidate's own events.
func (s *Space) Buffer(seq CandidateSequence) *models.EventBuffer {
	buf := models.NewEventBuffer()
	for _, e := range s.opts.Initial {
		buf.Add(e.Time, e.Kind, e.Value)
	}
	for _, e := range seq.Events() {
		buf.Add(e.Time, e.Kind, e.Value)
	}
	return buf
}

// MinWait returns the smallest possible wait
func (s *Space) MinWait() int64 {
	return s.wait.Min()
}

// WaitVaries reports whether more than one wait value is possible
func (s *Space) WaitVaries() bool {
	return s.wait.Len() > 1
}

// EarliestNonConstantTime is the smallest relative time of any dimension that can
// differ between sequences, or 0 when every dimension is constant.
func (s *Space) EarliestNonConstantTime() int64 {
	found := false
	var min int64
	for _, d := range s.dims {
		if d.Constant() {
			continue
		}
		if !found || d.Time.Min() < min {
			min = d.Time.Min()
			found = true
		}
	}
	return min
}

// EarliestInputTime is the smallest relative time of any dimension, or 0 without dimensions
func (s *Space) EarliestInputTime() int64 {
	var min int64
	for i, d := range s.dims {
		if i == 0 || d.Time.Min() < min {
			min = d.Time.Min()
		}
	}
	return min
}

// leadTime is the relative time from which sequences of a single wait can differ: the
// earliest non-constant input, or the earliest input when every dimension is constant.
func (s *Space) leadTime() int64 {
	for _, d := range s.dims {
		if !d.Constant() {
			return s.EarliestNonConstantTime()
		}
	}
	return s.EarliestInputTime()
}

// AnchorInstant is the earliest simulated instant before which no injected input can
// differ between two sequences of this space, less margin. With a single wait value
// only non-constant inputs move; otherwise every input shifts with the wait, so the
// minimum possible wait bounds the anchor. No sequence's Offset less margin is earlier.
func (s *Space) AnchorInstant(margin int64) int64 {
	if !s.WaitVaries() {
		return s.wait.Min() + s.leadTime() - margin
	}
	return s.MinWait() + s.EarliestInputTime() - margin
}

// Offset is the sequence's own time offset used for its initial horizon
func (s *Space) Offset(seq CandidateSequence) int64 {
	return seq.Wait + s.leadTime()
}
