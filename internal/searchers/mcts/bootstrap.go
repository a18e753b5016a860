package mcts

import (
	"sort"
	"time"

	"k8s.io/klog/v2"

	"github.com/janpfeifer/sokogen/internal/state"
)

// NewBootstrap creates the second-phase search of a bootstrapped run: its
// root is already past the freeze cutoff (depth = DepthLowerCutoff+1, marked
// bloomed and expanded) and has no grid of its own; the seed grids are added
// as custom children with AddCustomRootChild.
func NewBootstrap(settings Settings, seed uint64, startTile state.Pos) (*Search, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	t := newSearch(settings, seed)
	t.startTile = startTile
	t.startPosition = settings.BoardWidth*startTile.Y + startTile.X

	t.root = &Node{
		pusher: uint8(t.startPosition),
		depth:  settings.DepthLowerCutoff + 1,
		flags:  flagBloomed | flagExpanded,
	}
	return t, nil
}

// AddCustomRootChild seeds the tree with a finished level's grid: goals and
// pusher are stripped, leaving the boxes and walls as a construction state
// the search explores around. The child keeps the root's depth so freezing
// is immediately available again.
func (t *Search) AddCustomRootChild(grid state.Grid) {
	child := &Node{
		grid:   grid.Clone(),
		pusher: t.root.pusher,
		depth:  t.root.depth,
		parent: t.root,
	}
	child.grid.RemoveGoalsAndPusher()
	child.boxCount = child.grid.BoxCount()
	t.root.children = append(t.root.children, child)
}

// RunTimeoutAndBootstrap runs the regular search for (1-delta) of the
// timeout, seeds a second search with the top finished levels and runs it for
// the remaining delta. Both finished sets are merged into the returned
// search. The rollout count covers both phases.
func RunTimeoutAndBootstrap(t *Search, decision DecisionFunc, timeout time.Duration) (*Search, int, error) {
	delta := t.settings.BootstrapDelta
	firstTimeout := time.Duration((1 - delta) * float64(timeout))
	secondTimeout := time.Duration(delta * float64(timeout))

	counter := t.RunTimeout(decision, firstTimeout)

	if klog.V(1).Enabled() {
		if best, ok := t.bestLevel(); ok {
			klog.Infof("bootstrap seed (score=%.4f):\n%s", best.Score, best.Grid)
		}
	}

	next, err := NewBootstrap(t.settings, t.seed, t.startTile)
	if err != nil {
		return t, counter, err
	}
	for _, level := range t.topLevels(t.settings.BootstrapCount) {
		next.AddCustomRootChild(level.Grid)
	}

	counter += next.RunTimeout(decision, secondTimeout)

	// Keep the first phase's levels too: the merged set is what the caller
	// picks the final level set from.
	for _, level := range t.finished {
		next.finished = append(next.finished, level.Clone())
	}
	if t.bestScore > next.bestScore {
		next.bestScore = t.bestScore
	}
	return next, counter, nil
}

// bestLevel returns the finished level matching the best score.
func (t *Search) bestLevel() (state.Level, bool) {
	for _, level := range t.finished {
		if state.ApproxScore(level.Score, float32(t.bestScore)) {
			return level, true
		}
	}
	return state.Level{}, false
}

// topLevels returns up to count finished levels, highest-scoring first.
func (t *Search) topLevels(count int) []state.Level {
	sorted := make([]state.Level, len(t.finished))
	copy(sorted, t.finished)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}
