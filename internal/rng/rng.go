// Package rng provides the seedable random sources used by the search.
//
// Both tree expansion and rollouts draw from a single generator, so two runs
// with the same seed and configuration replay the exact same search. Two
// sources are available: a Mersenne-Twister (the default, better spread over
// long runs) and a cheap linear congruential generator kept as a baseline.
package rng

import (
	"math/rand"

	"github.com/gomlx/exceptions"
	"github.com/seehuhn/mt19937"
)

// Kind selects the underlying random source.
type Kind uint8

const (
	// MersenneTwister is the default source (MT19937).
	MersenneTwister Kind = iota
	// LinearCongruential is a Knuth MMIX-style LCG baseline.
	LinearCongruential
)

func (k Kind) String() string {
	switch k {
	case MersenneTwister:
		return "mersenne-twister"
	case LinearCongruential:
		return "linear-congruential"
	}
	return "Kind(?)"
}

// lcgSource is a 64-bit linear congruential generator (Knuth's MMIX
// constants) implementing rand.Source64.
type lcgSource struct {
	state uint64
}

func (s *lcgSource) Seed(seed int64) { s.state = uint64(seed) }

func (s *lcgSource) Uint64() uint64 {
	s.state = s.state*6364136223846793005 + 1442695040888963407
	return s.state
}

func (s *lcgSource) Int63() int64 { return int64(s.Uint64() >> 1) }

// Rand is a reseedable uniform generator over a selectable source.
type Rand struct {
	kind Kind
	src  rand.Source64
	rng  *rand.Rand
}

// New returns a generator of the given kind seeded with seed.
func New(kind Kind, seed uint64) *Rand {
	var src rand.Source64
	switch kind {
	case MersenneTwister:
		src = mt19937.New()
	case LinearCongruential:
		src = &lcgSource{}
	default:
		exceptions.Panicf("rng: unknown source kind %d", kind)
	}
	r := &Rand{kind: kind, src: src}
	r.rng = rand.New(src)
	r.Seed(seed)
	return r
}

// Kind returns the source in use.
func (r *Rand) Kind() Kind { return r.kind }

// Seed resets the source to a deterministic state derived from seed.
func (r *Rand) Seed(seed uint64) {
	r.src.Seed(int64(seed))
}

// IntRange returns a uniform integer in the inclusive range [a, b].
func (r *Rand) IntRange(a, b int) int {
	if a > b {
		exceptions.Panicf("rng: empty range [%d, %d]", a, b)
	}
	return a + r.rng.Intn(b-a+1)
}

// Float64Range returns a uniform real in the half-open range [a, b).
func (r *Rand) Float64Range(a, b float64) float64 {
	return a + r.rng.Float64()*(b-a)
}
