package utils

import (
	"math/rand"
	"time"
)

// RandSource is a seeded random number generator. It is not safe for concurrent use;
// each search worker owns its own source.
type RandSource struct {
	rng  *rand.Rand
	seed int64
}

// NewRandSource creates a new random source with the given seed.
// A zero seed selects a time-based seed.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSource{
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the seed the source was created with
func (r *RandSource) Seed() int64 {
	return r.seed
}

// Intn returns a random int in [0, n)
func (r *RandSource) Intn(n int) int {
	return r.rng.Intn(n)
}

// Uint64n returns a uniformly distributed value in [0, n). n must be positive.
func (r *RandSource) Uint64n(n uint64) uint64 {
	if n <= 1<<63-1 {
		return uint64(r.rng.Int63n(int64(n)))
	}
	// Rejection sampling for n beyond the int63 range.
	for {
		v := r.rng.Uint64()
		if v < n {
			return v
		}
	}
}

// Float64 returns a random float64 in [0.0, 1.0)
func (r *RandSource) Float64() float64 {
	return r.rng.Float64()
}
