package state

import (
	"sort"
	"time"

	"github.com/chewxy/math32"
)

// Level is a finished, playable configuration: pusher at its spawn, boxes at
// their start cells, goals at their destinations.
type Level struct {
	Grid     Grid
	BoxCount int
	Score    float32

	// When the level was produced. Used to report how long the search took
	// to find its best level.
	When time.Time
}

// NewLevel clones grid into a level value.
func NewLevel(grid Grid, boxCount int, score float64, when time.Time) Level {
	return Level{
		Grid:     grid.Clone(),
		BoxCount: boxCount,
		Score:    float32(score),
		When:     when,
	}
}

// Clone deep-copies the level.
func (l Level) Clone() Level {
	c := l
	c.Grid = l.Grid.Clone()
	return c
}

// SortLevels orders levels by ascending score.
func SortLevels(levels []Level) {
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Score < levels[j].Score
	})
}

// ApproxScore reports whether two scores are equal within the tolerance used
// to match a level back to the best score of its search.
func ApproxScore(a, b float32) bool {
	return math32.Abs(a-b) < 1e-3
}
