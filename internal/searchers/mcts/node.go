package mcts

import (
	"github.com/janpfeifer/sokogen/internal/generics"
	"github.com/janpfeifer/sokogen/internal/state"
)

// nodeFlags is the small state machine of a node, packed in one byte.
type nodeFlags uint8

const (
	// flagBloomed is set once the candidate pools have been generated.
	flagBloomed nodeFlags = 1 << iota

	// flagSecondAction marks phase-2 nodes (after freeze): the node simulates
	// agent pushes instead of editing the layout.
	flagSecondAction

	flagTerminal
	flagExpanded

	// flagCanFreeze is set in phase 1 once the box count allows freezing.
	flagCanFreeze

	// flagEvaluated is set on a phase-2 node once its evaluate child exists.
	flagEvaluated

	// flagFrozen is set on a phase-1 node once its freeze child exists.
	flagFrozen
)

// invalidIndex is the sentinel for "no box here" in the phase-2 pools.
// Cell indices fit a byte because the board area is capped at 254.
const invalidIndex = 0xFF

// MoveInfo is one push candidate: walk to cell Index and push in Dir.
type MoveInfo struct {
	Index uint8
	Dir   state.Direction
}

// Node is one vertex of the search tree. Each node owns its grid; a child's
// grid differs from its parent's by exactly one action.
//
// The meaning of first and second depends on the phase:
//
//   - Phase 1: first lists block cells that may be deleted, second lists
//     empty cells where a box may be placed. Both are consumed as children
//     are expanded.
//   - Phase 2: both are indexed by cell. first[i] is the origin cell of the
//     box currently at i (or invalidIndex), second[i] is that box's push
//     count — until evaluate rewrites second[origin] to hold the box's goal
//     cell, which is what the congestion scoring reads.
type Node struct {
	scoreSum        float64
	squaredScoreSum float64

	parent   *Node
	children []*Node

	first  []uint8
	second []uint8
	moves  []MoveInfo

	grid state.Grid

	rolloutCount int
	boxCount     int
	depth        int
	pusher       uint8
	flags        nodeFlags
}

func (n *Node) is(flag nodeFlags) bool { return n.flags&flag != 0 }

// canFreeze reports whether a freeze child may still be expanded.
func (n *Node) canFreeze(depthCutoff int) bool {
	return !n.is(flagFrozen) && n.is(flagCanFreeze) && n.depth >= depthCutoff
}

// canExpand reports whether the bloomed, non-terminal node has any action
// left to expand.
func (n *Node) canExpand(depthCutoff int) bool {
	if n.is(flagSecondAction) {
		return len(n.moves) > 0 || !n.is(flagEvaluated)
	}
	return len(n.first) > 0 || len(n.second) > 0 || n.canFreeze(depthCutoff)
}

// addScoreAndPropagate records one rollout result on the node and every
// ancestor up to the root.
func (n *Node) addScoreAndPropagate(score float64) {
	squared := score * score
	for node := n; node != nil; node = node.parent {
		node.scoreSum += score
		node.squaredScoreSum += squared
		node.rolloutCount++
	}
}

// RolloutCount returns how many rollouts went through the node.
func (n *Node) RolloutCount() int { return n.rolloutCount }

// prune detaches node from its parent. The subtree is unreachable afterwards
// and reclaimed by the garbage collector (or the arena reset, in rollouts).
func prune(node *Node) {
	node.parent.children = generics.SwapRemoveMatch(node.parent.children, node)
	node.parent = nil
}
