package generics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceMap(t *testing.T) {
	got := SliceMap([]int{1, 2, 3}, func(e int) int { return e * e })
	assert.Equal(t, []int{1, 4, 9}, got)
}

func TestSwapRemove(t *testing.T) {
	s := []int{10, 20, 30, 40}
	s = SwapRemove(s, 1)
	assert.Len(t, s, 3)
	assert.ElementsMatch(t, []int{10, 30, 40}, s)

	s = []int{10}
	s = SwapRemove(s, 0)
	assert.Empty(t, s)
}

func TestSwapRemoveMatch(t *testing.T) {
	s := []string{"a", "b", "c"}
	s = SwapRemoveMatch(s, "b")
	assert.ElementsMatch(t, []string{"a", "c"}, s)

	s = SwapRemoveMatch(s, "missing")
	assert.Len(t, s, 2)
}

func TestCloneSlice(t *testing.T) {
	assert.Nil(t, CloneSlice[int](nil))
	s := []int{1, 2}
	c := CloneSlice(s)
	c[0] = 9
	assert.Equal(t, 1, s[0])
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 3, Clamp(5, 0, 3))
	assert.Equal(t, 0, Clamp(-1, 0, 3))
	assert.Equal(t, 2, Clamp(2, 0, 3))
	assert.Equal(t, 1.5, Clamp(1.5, 1.0, 2.0))
}
