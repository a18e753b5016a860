package mcts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpfeifer/sokogen/internal/state"
)

func runSettings(seed uint64) Settings {
	settings := DefaultSettings()
	settings.BoardWidth = 4
	settings.BoardHeight = 4
	settings.DepthLowerCutoff = 4
	settings.Seed = seed
	return settings
}

func runSearch(t *testing.T, settings Settings, rollouts int) *Search {
	t.Helper()
	search, err := New(settings)
	require.NoError(t, err)
	decision, err := settings.Decision()
	require.NoError(t, err)
	search.RunCount(decision, rollouts)
	return search
}

func finishedSignature(search *Search) []string {
	var sig []string
	for _, level := range search.Finished() {
		sig = append(sig, level.Grid.String())
	}
	return sig
}

// TestDeterminism: equal seed and configuration produce byte-identical
// finished-level sequences.
func TestDeterminism(t *testing.T) {
	a := runSearch(t, runSettings(12345), 400)
	b := runSearch(t, runSettings(12345), 400)

	require.NotEmpty(t, a.Finished())
	assert.Equal(t, finishedSignature(a), finishedSignature(b))
	assert.Equal(t, a.BestScore(), b.BestScore())

	c := runSearch(t, runSettings(54321), 400)
	assert.NotEqual(t, finishedSignature(a), finishedSignature(c))
}

// TestArenaEquivalence: the arena only changes where rollout temporaries
// live, never what the search does.
func TestArenaEquivalence(t *testing.T) {
	withArena := runSettings(777)
	withArena.UseArena = true
	without := runSettings(777)
	without.UseArena = false

	a := runSearch(t, withArena, 400)
	b := runSearch(t, without, 400)
	assert.Equal(t, finishedSignature(a), finishedSignature(b))
	assert.Equal(t, a.BestScore(), b.BestScore())
}

// TestRolloutCountInvariant: every rollout is counted once at the root, and
// a parent's count is at least the sum of its children's (a non-root node
// also counts the rollout that created it, and rollouts through a pruned
// child stay counted on the parent).
func TestRolloutCountInvariant(t *testing.T) {
	search := runSearch(t, runSettings(99), 300)
	assert.Equal(t, 300, search.Root().RolloutCount())

	var walk func(n *Node)
	walk = func(n *Node) {
		sum := 0
		for _, child := range n.children {
			sum += child.rolloutCount
			walk(child)
		}
		assert.GreaterOrEqual(t, n.rolloutCount, sum)
		for _, child := range n.children {
			assert.Equal(t, n.depth+1, child.depth)
		}
	}
	walk(search.Root())
}

// TestBoxCountInvariant: every tree node's box counter matches its grid.
func TestBoxCountInvariant(t *testing.T) {
	search := runSearch(t, runSettings(4242), 300)
	nodes := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		nodes++
		require.Equal(t, n.grid.BoxCount(), n.boxCount)
		if n.is(flagTerminal) {
			// Terminal grids are playable: goals match boxes, pusher at spawn.
			goals := 0
			for _, pawn := range n.grid.Cells {
				if pawn.IsGoal() {
					goals++
				}
			}
			require.Equal(t, n.boxCount, goals)
			require.True(t, n.grid.Cells[search.startPosition].IsPusher())
		}
		for _, child := range n.children {
			walk(child)
		}
	}
	walk(search.Root())
	assert.Greater(t, nodes, 1)
}

func TestArenaResetsBetweenRollouts(t *testing.T) {
	settings := runSettings(5)
	search, err := New(settings)
	require.NoError(t, err)
	decision, err := settings.Decision()
	require.NoError(t, err)

	search.Start()
	watermarks := make([]int, 0, 50)
	for i := 0; i < 50; i++ {
		search.NextRollout(decision)
		watermarks = append(watermarks, search.mem.Used())
	}
	// Bounded: a rollout's arena usage never accumulates across rollouts.
	for _, used := range watermarks {
		assert.Less(t, used, arenaBound)
	}
}

// arenaBound is a generous per-rollout ceiling for a 4x4 board.
const arenaBound = 1 << 20

func TestLevelSet(t *testing.T) {
	search := runSearch(t, runSettings(2024), 400)
	require.NotEmpty(t, search.Finished())

	set := search.LevelSet(5)
	require.LessOrEqual(t, len(set), 5)
	for i := 1; i < len(set); i++ {
		assert.LessOrEqual(t, set[i-1].Score, set[i].Score)
	}
	// The best level is last and matches the best score.
	best := set[len(set)-1]
	assert.True(t, state.ApproxScore(best.Score, float32(search.BestScore())))

	// The set is decoupled from the search's own copies.
	set[0].Grid.Cells[0] = state.Empty
	assert.NotEqual(t, set[0].Grid.String(), search.Finished()[0].Grid.String())
}

func TestBestScoreTime(t *testing.T) {
	search := runSearch(t, runSettings(31337), 200)
	require.NotEmpty(t, search.Finished())
	_, ok := search.BestScoreTime()
	assert.True(t, ok)
}

func TestSummarize(t *testing.T) {
	search := runSearch(t, runSettings(31337), 200)
	summary := search.Summarize(200)
	assert.Equal(t, 200, summary.Rollouts)
	assert.Equal(t, len(search.Finished()), summary.FinishedCount)
	assert.Equal(t, search.BestScore(), summary.BestScore)
	assert.Greater(t, summary.MeanScore, 0.0)
}

// TestBootstrapSeeding: seeded children are stripped back to a construction
// state (boxes and walls only) and the second search runs on them.
func TestBootstrapSeeding(t *testing.T) {
	first := runSearch(t, runSettings(808), 400)
	require.NotEmpty(t, first.Finished())

	settings := runSettings(808)
	settings.Bootstrap = true
	second, err := NewBootstrap(settings, first.Seed(), first.startTile)
	require.NoError(t, err)
	for _, level := range first.topLevels(settings.BootstrapCount) {
		second.AddCustomRootChild(level.Grid)
	}
	require.NotEmpty(t, second.Root().children)

	for _, child := range second.Root().children {
		assert.Equal(t, child.grid.BoxCount(), child.boxCount)
		assert.Equal(t, second.Root().depth, child.depth)
		for _, pawn := range child.grid.Cells {
			assert.False(t, pawn.IsGoal())
			assert.False(t, pawn.IsPusher())
		}
	}

	decision, err := settings.Decision()
	require.NoError(t, err)
	second.RunCount(decision, 200)
	assert.NotEmpty(t, second.Finished())
}

func TestTopLevels(t *testing.T) {
	search := runSearch(t, runSettings(606), 400)
	require.NotEmpty(t, search.Finished())
	top := search.topLevels(3)
	require.LessOrEqual(t, len(top), 3)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Score, top[i].Score)
	}
}
