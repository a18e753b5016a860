// Package mcts implements the Monte-Carlo Tree Search level generator.
//
// The search builds levels constructively: starting from a fully-walled grid
// with a single empty pusher spawn, every tree edge applies one construction
// action (delete a block, place a box, freeze, push a box, evaluate). A
// rollout runs random actions to a terminal configuration, which is scored by
// the topology/congestion heuristic; the best-scoring terminals become the
// finished level set.
//
// The search is single-threaded: a rollout completes, including
// backpropagation, before the next selection begins.
package mcts

import (
	"math/rand"
	"time"

	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/janpfeifer/sokogen/internal/arena"
	"github.com/janpfeifer/sokogen/internal/rng"
	"github.com/janpfeifer/sokogen/internal/state"
)

// Search is one MCTS instance: the tree, its random source and arena, and
// the sink of finished levels.
type Search struct {
	settings Settings

	root *Node
	seed uint64

	bestScore float64
	finished  []state.Level

	startPosition  int
	startTile      state.Pos
	area           float64
	scoreScale     float64
	boxUpperCutoff int

	lastRolloutDepth int
	timeStart        time.Time

	// finishEarly is raised when the tree is exhausted (every branch
	// pruned), which can only happen when bootstrapping.
	finishEarly bool

	rand *rng.Rand
	mem  *arena.Arena

	// cur is non-nil while a rollout runs with the arena installed; node and
	// pool allocations go through it.
	cur *arena.Arena
}

// New creates a search over a fully-walled board with an empty pusher spawn.
func New(settings Settings) (*Search, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	t := newSearch(settings, settings.Seed)

	root := &Node{grid: state.NewGrid(settings.BoardWidth, settings.BoardHeight)}
	for i := range root.grid.Cells {
		root.grid.Cells[i] = state.Block
	}
	root.grid.Set(t.startTile.X, t.startTile.Y, state.Empty)
	root.pusher = uint8(t.startPosition)
	t.root = root
	return t, nil
}

// newSearch fills in everything but the root.
func newSearch(settings Settings, seed uint64) *Search {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) ^ rand.Uint64()
	}
	t := &Search{
		settings:       settings,
		seed:           seed,
		bestScore:      -1,
		finished:       make([]state.Level, 0, 50),
		area:           float64(settings.BoardWidth * settings.BoardHeight),
		boxUpperCutoff: settings.boxUpperCutoff(),
		timeStart:      time.Now(),
		rand:           rng.New(settings.RandomSource, seed),
	}
	t.scoreScale = 25.0 / t.area
	t.startTile = state.Pos{X: settings.StartX, Y: settings.StartY}
	if settings.StartX < 0 {
		t.startTile = state.Pos{X: settings.BoardWidth / 2, Y: settings.BoardHeight / 2}
	}
	t.startPosition = settings.BoardWidth*t.startTile.Y + t.startTile.X
	if settings.UseArena {
		t.mem = arena.New()
	}
	return t
}

// Seed returns the seed in use (resolved, if the configured seed was 0).
func (t *Search) Seed() uint64 { return t.seed }

// Root exposes the tree root, mostly for inspection and tests.
func (t *Search) Root() *Node { return t.root }

// BestScore is the best terminal score seen so far.
func (t *Search) BestScore() float64 { return t.bestScore }

// Finished returns the finished levels recorded so far, in discovery order.
func (t *Search) Finished() []state.Level { return t.finished }

// BestScoreTime returns how long after the search start the current best
// level was produced.
func (t *Search) BestScoreTime() (time.Duration, bool) {
	for _, level := range t.finished {
		if state.ApproxScore(level.Score, float32(t.bestScore)) {
			return level.When.Sub(t.timeStart), true
		}
	}
	return 0, false
}

// Start (re)seeds the random source. Called right before the rollout loop so
// equal seeds replay equal searches.
func (t *Search) Start() {
	t.rand.Seed(t.seed)
}

// NextRollout runs one select/expand/rollout/backpropagate cycle.
func (t *Search) NextRollout(decision DecisionFunc) {
	node := t.treePolicy(decision)
	if node == nil {
		// Tree exhausted; only reachable when bootstrapping.
		t.finishEarly = true
		return
	}
	score := t.defaultPolicy(node)
	node.addScoreAndPropagate(score)
}

// RunTimeout rolls out until the timeout elapses, checking between whole
// rollouts only, and returns the rollout count. The run may overshoot the
// budget by the cost of one rollout.
func (t *Search) RunTimeout(decision DecisionFunc, timeout time.Duration) int {
	t.Start()
	start := time.Now()
	counter := 0
	for {
		t.NextRollout(decision)
		counter++
		if t.finishEarly {
			klog.V(1).Info("search tree exhausted, finishing early")
			break
		}
		if time.Since(start) >= timeout {
			break
		}
	}
	return counter
}

// RunCount runs count rollouts, fewer if the tree is exhausted first, and
// returns the elapsed time.
func (t *Search) RunCount(decision DecisionFunc, count int) time.Duration {
	t.Start()
	start := time.Now()
	for i := 0; i < count && !t.finishEarly; i++ {
		t.NextRollout(decision)
	}
	return time.Since(start)
}

// LevelSet returns up to count finished levels, ascending by score (the best
// level last). The returned levels are deep copies.
func (t *Search) LevelSet(count int) []state.Level {
	klog.V(1).Infof("seed used: %d", t.seed)
	klog.V(1).Infof("finished count: %d", len(t.finished))
	sorted := make([]state.Level, len(t.finished))
	copy(sorted, t.finished)
	state.SortLevels(sorted)
	if count > len(sorted) {
		count = len(sorted)
	}
	set := make([]state.Level, 0, count)
	for _, level := range sorted[len(sorted)-count:] {
		set = append(set, level.Clone())
	}
	return set
}

// treePolicy descends from the root: bloom unbloomed nodes (pruning dead
// branches), expand where actions remain, otherwise follow the best child.
// Returns nil when the whole tree is exhausted.
func (t *Search) treePolicy(decision DecisionFunc) *Node {
	node := t.root
	for !node.is(flagTerminal) {
		if !node.is(flagBloomed) {
			node = t.bloomAndCheckExpand(node)
			if node == nil {
				return nil
			}
		} else if node.canExpand(t.settings.DepthLowerCutoff) {
			if t.settings.TreePolicyNext {
				return t.expandNext(node)
			}
			return t.expandRandom(node)
		} else {
			node = t.bestChild(node, decision)
		}
	}
	return node
}

// bestChild returns the child maximizing the decision function.
func (t *Search) bestChild(node *Node, decision DecisionFunc) *Node {
	var best *Node
	maxVal := 0.0
	for _, child := range node.children {
		val := decision(child)
		if best == nil || val > maxVal {
			maxVal = val
			best = child
		}
	}
	if best == nil {
		exceptions.Panicf("mcts: selection reached a node with no children:\n%s", node.grid)
	}
	return best
}

// bloomAndCheckExpand blooms node and, if it turns out to have no feasible
// action, prunes it and walks back through parents that are now empty and
// unexpandable. Returns nil if the unwind passes the root.
func (t *Search) bloomAndCheckExpand(node *Node) *Node {
	parent := node.parent
	t.bloom(node)
	if node.canExpand(t.settings.DepthLowerCutoff) {
		return node
	}
	if parent == nil {
		return nil
	}
	prune(node)
	for len(parent.children) == 0 && !parent.canExpand(t.settings.DepthLowerCutoff) {
		node = parent
		parent = parent.parent
		if parent == nil {
			return nil
		}
		prune(node)
	}
	return parent
}

// defaultPolicy clones the selected node into the arena and expands random
// children until a terminal configuration, which it scores. New best levels
// (and, optionally, levels above the good-level cut) are deep-cloned into the
// finished list before the arena memory is abandoned.
func (t *Search) defaultPolicy(base *Node) float64 {
	t.lastRolloutDepth = base.depth
	if base.is(flagTerminal) {
		return t.scoreNode(base)
	}

	if t.settings.UseArena {
		t.mem.Reset()
		t.cur = t.mem
	}
	node := t.cloneNode(base)
	node.parent = nil
	for !node.is(flagTerminal) {
		if !node.is(flagBloomed) {
			node = t.bloomAndCheckExpand(node)
			if node == nil {
				break
			}
		} else {
			node = t.expandRandom(node)
		}
	}
	t.cur = nil

	if node == nil {
		return 0
	}
	score := t.scoreNode(node)
	if score > t.bestScore {
		klog.V(1).Infof("new best (score | time): %.4f | %s", score, time.Since(t.timeStart))
		t.finished = append(t.finished, state.NewLevel(node.grid, node.boxCount, score, time.Now()))
		t.bestScore = score
	} else if t.settings.AddGoodLevels && score >= t.settings.GoodLevelCut {
		klog.V(2).Infof("new good level: %.4f", score)
		t.finished = append(t.finished, state.NewLevel(node.grid, node.boxCount, score, time.Now()))
	}
	return score
}

// Allocation helpers. While a rollout runs with the arena installed (t.cur
// non-nil) node shells, grids and pools come from the arena and vanish at the
// next rollout's reset; otherwise they are ordinary heap allocations owned by
// the tree.

func (t *Search) allocNode() *Node {
	if t.cur != nil {
		return arena.AllocOf[Node](t.cur)
	}
	return &Node{}
}

func (t *Search) allocChildren() []*Node {
	if t.cur != nil {
		// A rollout node expands one child at a time, and a pruned child is
		// detached before the next expansion.
		return arena.MakeSlice[*Node](t.cur, 0, 1)
	}
	return nil
}

func (t *Search) allocBytes(length, capacity int) []uint8 {
	if t.cur != nil {
		return arena.MakeSlice[uint8](t.cur, length, capacity)
	}
	return make([]uint8, length, capacity)
}

func (t *Search) allocMoves(capacity int) []MoveInfo {
	if t.cur != nil {
		return arena.MakeSlice[MoveInfo](t.cur, 0, capacity)
	}
	return make([]MoveInfo, 0, capacity)
}

func (t *Search) allocBools(length int) []bool {
	if t.cur != nil {
		return arena.MakeSlice[bool](t.cur, length, length)
	}
	return make([]bool, length)
}

func (t *Search) cloneGrid(grid state.Grid) state.Grid {
	if t.cur != nil {
		return grid.CloneInto(arena.MakeSlice[state.Pawn](t.cur, grid.Count(), grid.Count()))
	}
	return grid.Clone()
}

func (t *Search) cloneBytes(b []uint8) []uint8 {
	if b == nil {
		return nil
	}
	c := t.allocBytes(len(b), cap(b))
	copy(c, b)
	return c
}

// newChild allocates a child carrying the parent's grid and, in phase 2, its
// pools. The caller applies the action effect on top.
func (t *Search) newChild(parent *Node) *Node {
	child := t.allocNode()
	child.parent = parent
	child.grid = t.cloneGrid(parent.grid)
	child.boxCount = parent.boxCount
	child.depth = parent.depth + 1
	child.pusher = parent.pusher
	if parent.is(flagSecondAction) {
		child.flags = flagSecondAction
		child.first = t.cloneBytes(parent.first)
		child.second = t.cloneBytes(parent.second)
	}
	if parent.children == nil {
		parent.children = t.allocChildren()
	}
	parent.children = append(parent.children, child)
	return child
}

// cloneNode deep-clones base for a rollout walk.
func (t *Search) cloneNode(base *Node) *Node {
	node := t.allocNode()
	node.parent = base.parent
	node.grid = t.cloneGrid(base.grid)
	node.first = t.cloneBytes(base.first)
	node.second = t.cloneBytes(base.second)
	if base.moves != nil {
		node.moves = t.allocMoves(cap(base.moves))
		node.moves = node.moves[:len(base.moves)]
		copy(node.moves, base.moves)
	}
	node.pusher = base.pusher
	node.flags = base.flags
	node.scoreSum = base.scoreSum
	node.squaredScoreSum = base.squaredScoreSum
	node.rolloutCount = base.rolloutCount
	node.boxCount = base.boxCount
	node.depth = base.depth
	return node
}

// debugCheckBoxCount verifies the box-count invariant against the grid.
// Only active at high verbosity; an inconsistency is a programmer error.
func (t *Search) debugCheckBoxCount(node *Node, context string) {
	if !klog.V(3).Enabled() {
		return
	}
	if count := node.grid.BoxCount(); count != node.boxCount {
		klog.Fatalf("box count mismatch (%s): node says %d, grid has %d:\n%s",
			context, node.boxCount, count, node.grid)
	}
}
