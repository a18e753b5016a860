package rng_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpfeifer/sokogen/internal/rng"
)

func TestReproducibleSequences(t *testing.T) {
	for _, kind := range []rng.Kind{rng.MersenneTwister, rng.LinearCongruential} {
		t.Run(kind.String(), func(t *testing.T) {
			a := rng.New(kind, 42)
			b := rng.New(kind, 42)
			for i := 0; i < 1000; i++ {
				require.Equal(t, a.IntRange(0, 1000), b.IntRange(0, 1000))
				require.Equal(t, a.Float64Range(0, 1), b.Float64Range(0, 1))
			}
		})
	}
}

func TestReseedRestartsSequence(t *testing.T) {
	r := rng.New(rng.MersenneTwister, 7)
	first := make([]int, 100)
	for i := range first {
		first[i] = r.IntRange(0, 1_000_000)
	}
	r.Seed(7)
	for i := range first {
		require.Equal(t, first[i], r.IntRange(0, 1_000_000))
	}
}

func TestIntRangeInclusive(t *testing.T) {
	r := rng.New(rng.LinearCongruential, 1)
	seen := make(map[int]bool)
	for i := 0; i < 10_000; i++ {
		v := r.IntRange(2, 5)
		require.GreaterOrEqual(t, v, 2)
		require.LessOrEqual(t, v, 5)
		seen[v] = true
	}
	// All four values of the inclusive range show up.
	assert.Len(t, seen, 4)
}

func TestFloat64RangeHalfOpen(t *testing.T) {
	r := rng.New(rng.MersenneTwister, 3)
	for i := 0; i < 10_000; i++ {
		v := r.Float64Range(1.5, 2.5)
		require.GreaterOrEqual(t, v, 1.5)
		require.Less(t, v, 2.5)
	}
}

func TestKindsDiffer(t *testing.T) {
	mt := rng.New(rng.MersenneTwister, 42)
	lcg := rng.New(rng.LinearCongruential, 42)
	same := true
	for i := 0; i < 10 && same; i++ {
		same = mt.IntRange(0, 1_000_000) == lcg.IntRange(0, 1_000_000)
	}
	assert.False(t, same)
}
