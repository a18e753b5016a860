// Package generics implements generic data structure functions missing from the stdlib.
package generics

import "golang.org/x/exp/constraints"

// Clamp limits x to the range [lo, hi].
func Clamp[T constraints.Ordered](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// SliceMap executes the given function sequentially for every element on in, and returns a mapped slice.
func SliceMap[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}

// SwapRemove removes the element at index by swapping it with the last
// element and shrinking the slice by one. Order is not preserved.
func SwapRemove[T any](s []T, index int) []T {
	last := len(s) - 1
	s[index], s[last] = s[last], s[index]
	return s[:last]
}

// SwapRemoveMatch removes the first element equal to value, like SwapRemove.
// The slice is returned unchanged if value is not present.
func SwapRemoveMatch[T comparable](s []T, value T) []T {
	for ii := range s {
		if s[ii] == value {
			return SwapRemove(s, ii)
		}
	}
	return s
}

// CloneSlice returns a copy of s with capacity equal to its length.
// A nil slice clones to nil.
func CloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	c := make([]T, len(s))
	copy(c, s)
	return c
}
