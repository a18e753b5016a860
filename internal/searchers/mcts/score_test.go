package mcts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpfeifer/sokogen/internal/state"
)

// parseGrid builds a grid from rows of the level text format.
func parseGrid(t *testing.T, rows ...string) state.Grid {
	t.Helper()
	grid := state.NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		require.Len(t, row, grid.Width)
		for x, r := range row {
			pawn, ok := state.RuneToPawn[r]
			require.True(t, ok, "unknown cell %q", r)
			grid.Set(x, y, pawn)
		}
	}
	return grid
}

// terminalNode builds a scored-ready terminal: pairs maps each box cell to
// its goal cell, recorded the way evaluate leaves them in second.
func terminalNode(t *testing.T, grid state.Grid, pairs map[state.Pos]state.Pos) *Node {
	t.Helper()
	node := &Node{
		grid:     grid,
		flags:    flagTerminal | flagSecondAction,
		boxCount: grid.BoxCount(),
		second:   make([]uint8, grid.Count()),
	}
	for i := range node.second {
		node.second[i] = invalidIndex
	}
	for box, goal := range pairs {
		require.True(t, grid.AtPos(box).IsBox())
		require.True(t, grid.AtPos(goal).IsGoal())
		node.second[grid.IndexOf(box)] = uint8(grid.IndexOf(goal))
	}
	return node
}

func testSearch(t *testing.T, width, height int) *Search {
	t.Helper()
	settings := DefaultSettings()
	settings.BoardWidth = width
	settings.BoardHeight = height
	settings.Seed = 1
	search, err := New(settings)
	require.NoError(t, err)
	return search
}

func TestScoreZeroBoxes(t *testing.T) {
	search := testSearch(t, 5, 5)
	node := terminalNode(t, parseGrid(t,
		"xxxxx",
		"x---x",
		"x-p-x",
		"x---x",
		"xxxxx",
	), nil)
	node.boxCount = 0
	assert.Zero(t, search.scoreNode(node))
}

func TestAreaScore(t *testing.T) {
	// Border walls: every interior 3x3 window but the centre one sees a block
	// and an open cell; the centre window is all open.
	walled := parseGrid(t,
		"xxxxx",
		"x---x",
		"x---x",
		"x---x",
		"xxxxx",
	)
	assert.Equal(t, 8, areaScore(walled))

	open := state.NewGrid(5, 5)
	assert.Equal(t, 0, areaScore(open))

	full := parseGrid(t,
		"xxxxx",
		"xxxxx",
		"xxxxx",
		"xxxxx",
		"xxxxx",
	)
	assert.Equal(t, 0, areaScore(full))
}

// TestScoreSingleBoxOpen: no topology, no congestion — only the box term.
// score = 8/55 on a 5x5 board (area scale 1).
func TestScoreSingleBoxOpen(t *testing.T) {
	search := testSearch(t, 5, 5)
	grid := parseGrid(t,
		"-----",
		"-----",
		"-c-g-",
		"-----",
		"p----",
	)
	node := terminalNode(t, grid, map[state.Pos]state.Pos{{X: 1, Y: 2}: {X: 3, Y: 2}})
	assert.InDelta(t, 8.0/55.0, search.scoreNode(node), 1e-9)
}

// TestScoreSingleBoxWalled: pb = 8 from the border, empty congestion path.
// score = (3*8 + 8) / 55.
func TestScoreSingleBoxWalled(t *testing.T) {
	search := testSearch(t, 5, 5)
	grid := parseGrid(t,
		"xxxxx",
		"x-c-x",
		"xp--x",
		"x-g-x",
		"xxxxx",
	)
	node := terminalNode(t, grid, map[state.Pos]state.Pos{{X: 2, Y: 1}: {X: 2, Y: 3}})
	assert.InDelta(t, 32.0/55.0, search.scoreNode(node), 1e-9)
}

// TestScoreCongestion exercises the congestion rectangle:
//
//	box1 (1,1) -> goal (3,2): 3x2 rectangle holding box2   => 1.9/(1.3*6)
//	box2 (1,2) -> goal (3,3): 3x2 rectangle holding goal1  => 0.1/(1.3*6)
//
// score = (3*8 + 7*(1.9+0.1)/7.8 + 8*2) / 55.
func TestScoreCongestion(t *testing.T) {
	search := testSearch(t, 5, 5)
	grid := parseGrid(t,
		"xxxxx",
		"xc-px",
		"xc-gx",
		"x--gx",
		"xxxxx",
	)
	node := terminalNode(t, grid, map[state.Pos]state.Pos{
		{X: 1, Y: 1}: {X: 3, Y: 2},
		{X: 1, Y: 2}: {X: 3, Y: 3},
	})
	pc := (1.9 + 0.1) / (1.3 * 6.0)
	want := (3.0*8.0 + 7.0*pc + 8.0*2.0) / 55.0
	assert.InDelta(t, want, search.scoreNode(node), 1e-9)
}

// TestScoreBoxOnGoal: a box already on its own goal contributes no
// congestion, only the box-count term.
func TestScoreBoxOnGoal(t *testing.T) {
	search := testSearch(t, 5, 5)
	grid := parseGrid(t,
		"-----",
		"-C---",
		"-----",
		"----p",
		"-----",
	)
	node := terminalNode(t, grid, map[state.Pos]state.Pos{{X: 1, Y: 1}: {X: 1, Y: 1}})
	assert.InDelta(t, 8.0/55.0, search.scoreNode(node), 1e-9)
}

// TestScoreAreaScale: the 25/area factor keeps scores comparable across
// sizes; the same lone-box configuration on an 8x4 board scales by 25/32.
func TestScoreAreaScale(t *testing.T) {
	search := testSearch(t, 8, 4)
	grid := parseGrid(t,
		"--------",
		"-c------",
		"-g------",
		"p-------",
	)
	node := terminalNode(t, grid, map[state.Pos]state.Pos{{X: 1, Y: 1}: {X: 1, Y: 2}})
	assert.InDelta(t, 8.0/55.0*25.0/32.0, search.scoreNode(node), 1e-9)
}

// TestScoreOrdering: more boxes with more interference score higher, the
// ranking the generator optimizes for.
func TestScoreOrdering(t *testing.T) {
	search := testSearch(t, 5, 5)
	one := terminalNode(t, parseGrid(t,
		"xxxxx",
		"x-c-x",
		"xp--x",
		"x-g-x",
		"xxxxx",
	), map[state.Pos]state.Pos{{X: 2, Y: 1}: {X: 2, Y: 3}})
	two := terminalNode(t, parseGrid(t,
		"xxxxx",
		"xc-px",
		"xc-gx",
		"x--gx",
		"xxxxx",
	), map[state.Pos]state.Pos{
		{X: 1, Y: 1}: {X: 3, Y: 2},
		{X: 1, Y: 2}: {X: 3, Y: 3},
	})
	assert.Greater(t, search.scoreNode(two), search.scoreNode(one))
}
