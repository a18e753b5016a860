package mcts

import (
	"github.com/janpfeifer/sokogen/internal/generics"
	"github.com/janpfeifer/sokogen/internal/state"
)

// The five constructive actions. Each comes in two halves: an action*
// generator that fills the node's candidate pool during bloom, and a new*
// expander that consumes one candidate and returns the resulting child.

// bloom populates the candidate pools of the node. Idempotent per node: it
// runs once and sets flagBloomed.
func (t *Search) bloom(node *Node) {
	if node.is(flagSecondAction) {
		t.actionMoveAgent(node)
		// evaluate needs no candidate generation: being frozen and not yet
		// evaluated is the whole precondition.
	} else {
		t.actionDeleteBlock(node)
		t.actionPlaceBox(node)
		t.actionFreeze(node)
	}
	node.flags |= flagBloomed
}

// expandRandom expands one action chosen with weight proportional to the
// remaining candidate counts (freeze and evaluate each weigh one slot).
func (t *Search) expandRandom(node *Node) *Node {
	if node.is(flagSecondAction) {
		canEvaluate := !node.is(flagEvaluated)
		hasMoves := len(node.moves) > 0
		switch {
		case hasMoves && canEvaluate:
			if t.rand.IntRange(0, len(node.moves)) == 0 {
				t.newEvaluate(node)
			} else {
				t.newMoveAgent(node)
			}
		case hasMoves:
			t.newMoveAgent(node)
		default:
			t.newEvaluate(node)
		}
	} else {
		canFreeze := node.canFreeze(t.settings.DepthLowerCutoff)
		hasDeletes := len(node.first) > 0
		hasPlaces := len(node.second) > 0
		r := t.rand.IntRange(0, len(node.first)+len(node.second))
		switch {
		case canFreeze && r == 0:
			t.newFreeze(node)
		case hasDeletes && hasPlaces:
			if r <= len(node.first) {
				t.newDeleteBlock(node)
			} else {
				t.newPlaceBox(node)
			}
		case hasDeletes:
			t.newDeleteBlock(node)
		default:
			t.newPlaceBox(node)
		}
	}
	node.flags |= flagExpanded
	return node.children[len(node.children)-1]
}

// expandNext expands the next action in the deterministic class order:
// delete-block, place-box, freeze; then move-agent, evaluate.
func (t *Search) expandNext(node *Node) *Node {
	node.flags |= flagExpanded
	if node.is(flagSecondAction) {
		if len(node.moves) > 0 {
			return t.newMoveAgent(node)
		}
		return t.newEvaluate(node)
	}
	if len(node.first) > 0 {
		return t.newDeleteBlock(node)
	}
	if len(node.second) > 0 {
		return t.newPlaceBox(node)
	}
	return t.newFreeze(node)
}

// actionDeleteBlock collects every block cell orthogonally adjacent to at
// least one non-block cell.
func (t *Search) actionDeleteBlock(node *Node) {
	grid := node.grid
	if node.first == nil {
		node.first = t.allocBytes(0, grid.Count())
	}
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			if !grid.At(x, y).IsBlock() {
				continue
			}
			for d := state.Up; d < state.NumDirections; d++ {
				v := d.Vec()
				nx, ny := x+v.X, y+v.Y
				if grid.InGrid(nx, ny) && !grid.At(nx, ny).IsBlock() {
					node.first = append(node.first, uint8(grid.Index(x, y)))
					break
				}
			}
		}
	}
}

// newDeleteBlock removes one candidate block, chosen uniformly.
func (t *Search) newDeleteBlock(node *Node) *Node {
	child := t.newChild(node)
	i := t.rand.IntRange(0, len(node.first)-1)
	idx := int(node.first[i])
	child.grid.Cells[idx] = state.Empty
	node.first = generics.SwapRemove(node.first, i)
	return child
}

// actionPlaceBox collects every empty cell except the pusher spawn, if the
// box budget allows another box.
func (t *Search) actionPlaceBox(node *Node) {
	if node.boxCount >= t.boxUpperCutoff {
		return
	}
	grid := node.grid
	if node.second == nil {
		node.second = t.allocBytes(0, grid.Count())
	}
	for i, pawn := range grid.Cells {
		if pawn.IsEmpty() && i != t.startPosition {
			node.second = append(node.second, uint8(i))
		}
	}
}

// newPlaceBox turns one candidate empty cell into a box.
func (t *Search) newPlaceBox(node *Node) *Node {
	child := t.newChild(node)
	i := t.rand.IntRange(0, len(node.second)-1)
	idx := int(node.second[i])
	child.grid.Cells[idx] = state.Box
	child.boxCount++
	node.second = generics.SwapRemove(node.second, i)
	return child
}

// actionFreeze arms the freeze guard once enough boxes are placed. The depth
// cutoff is checked by canFreeze at expansion time.
func (t *Search) actionFreeze(node *Node) {
	if node.boxCount >= t.settings.BoxLowerCutoff {
		node.flags |= flagCanFreeze
	}
}

// newFreeze locks the layout and transitions the child into phase 2: the
// pools are re-initialized to track box origins and push counts, and a box
// occupying the pusher spawn is removed so the pusher can spawn there.
func (t *Search) newFreeze(node *Node) *Node {
	node.flags |= flagFrozen
	child := t.newChild(node)
	child.flags |= flagSecondAction

	if child.grid.Cells[t.startPosition].IsBox() {
		child.boxCount--
		child.grid.Cells[t.startPosition] = state.Empty
	}

	count := child.grid.Count()
	child.first = t.allocBytes(count, count)
	child.second = t.allocBytes(count, count)

	if t.settings.RemoveImpossible {
		t.removeImpossible(child)
	}

	for i, pawn := range child.grid.Cells {
		if pawn.IsBox() {
			child.first[i] = uint8(i) // box start position
			child.second[i] = 0       // push counter
		} else {
			child.first[i] = invalidIndex
			child.second[i] = invalidIndex
		}
	}
	t.debugCheckBoxCount(child, "freeze")
	return child
}

// removeImpossible scans every 2x2 window, including windows hanging one cell
// off-grid (out-of-grid counts as wall), and removes a box from windows no
// agent can ever resolve: four boxes, three walls plus a box, or two walls
// plus two adjacent boxes.
func (t *Search) removeImpossible(node *Node) {
	grid := node.grid
	for y := -1; y < grid.Height; y++ {
		for x := -1; x < grid.Width; x++ {
			var boxFirst, boxSecond state.Pos
			isFirstBox := true
			boxCount := 0
			wallCount := 0
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					tile := state.Pos{X: x + dx, Y: y + dy}
					if !grid.InGrid(tile.X, tile.Y) {
						wallCount++
						continue
					}
					pawn := grid.AtPos(tile)
					if pawn.IsBox() {
						if isFirstBox {
							isFirstBox = false
							boxFirst = tile
						} else {
							boxSecond = tile
						}
						boxCount++
					} else if pawn.IsBlock() {
						wallCount++
					}
				}
			}
			if boxCount == 4 || (wallCount == 3 && boxCount == 1) {
				node.boxCount--
				grid.Set(boxFirst.X, boxFirst.Y, state.Empty)
				break
			}
			if boxCount == 2 && wallCount == 2 && boxFirst.Distance(boxSecond) == 1 {
				node.boxCount--
				grid.Set(boxFirst.X, boxFirst.Y, state.Empty)
				break
			}
		}
	}
}

// actionMoveAgent generates the push candidates of the node.
func (t *Search) actionMoveAgent(node *Node) {
	if node.boxCount == 0 {
		return
	}
	if t.settings.UseSimpleMoves {
		node.moves = t.simpleMoves(node)
		return
	}
	node.moves = t.reachableMoves(node.grid.Tile(int(node.pusher)), node.grid)
}

// reachableMoves flood-fills the top-empty cells reachable from pusher and
// emits a move for every boundary cell from which a single push is legal.
func (t *Search) reachableMoves(pusher state.Pos, grid state.Grid) []MoveInfo {
	visited := t.allocBools(grid.Count())
	visited[grid.IndexOf(pusher)] = true
	moves := t.allocMoves(4 * grid.Count())

	tiles := t.allocBytes(0, grid.Count())
	tiles = append(tiles, uint8(grid.IndexOf(pusher)))
	for len(tiles) > 0 {
		tile := grid.Tile(int(tiles[len(tiles)-1]))
		tiles = tiles[:len(tiles)-1]
		for d := state.Up; d < state.NumDirections; d++ {
			v := d.Vec()
			to := tile.Add(v)
			if !grid.InGrid(to.X, to.Y) {
				continue
			}
			toIdx := grid.IndexOf(to)
			if visited[toIdx] {
				continue
			}
			if grid.Cells[toIdx].Top() == state.Empty {
				visited[toIdx] = true
				tiles = append(tiles, uint8(toIdx))
			} else if grid.Cells[toIdx].IsBox() && grid.CouldMoveFrom(tile.X, tile.Y, d) {
				moves = append(moves, MoveInfo{Index: uint8(grid.IndexOf(tile)), Dir: d})
			}
		}
	}
	return moves
}

// simpleMoves is the experiment baseline: only single-tile steps from the
// pusher's current cell, no reachability fan-out.
func (t *Search) simpleMoves(node *Node) []MoveInfo {
	pos := node.grid.Tile(int(node.pusher))
	moves := t.allocMoves(int(state.NumDirections))
	for d := state.Up; d < state.NumDirections; d++ {
		if node.grid.CouldMoveFrom(pos.X, pos.Y, d) {
			moves = append(moves, MoveInfo{Index: node.pusher, Dir: d})
		}
	}
	return moves
}

// newMoveAgent consumes one move: the pusher walks to the move's cell and
// pushes once. The pushed box's origin travels with it in first, and its
// push counter in second increments.
func (t *Search) newMoveAgent(node *Node) *Node {
	t.debugCheckBoxCount(node, "move start")
	child := t.newChild(node)

	i := t.rand.IntRange(0, len(node.moves)-1)
	move := node.moves[i]
	pusherIdx := int(move.Index)
	v := move.Dir.Vec()
	pusher := child.grid.Tile(pusherIdx)
	moveTo := child.grid.IndexOf(pusher.Add(v))

	if child.grid.Cells[moveTo].IsBox() {
		// New pusher position: pusher + v; new box position: pusher + 2v.
		pushPos := child.grid.IndexOf(pusher.Add(v.Scale(2)))
		child.grid.SwapTopLayer(pushPos, moveTo)
		child.grid.SwapTopLayer(moveTo, pusherIdx)

		child.first[pushPos] = child.first[moveTo]
		child.second[pushPos] = child.second[moveTo] + 1
		child.first[moveTo] = invalidIndex
		child.second[moveTo] = invalidIndex
	} else {
		// Plain step; only reachable with the simple-move variant.
		child.grid.SwapTopLayer(pusherIdx, moveTo)
	}
	child.pusher = uint8(moveTo)
	node.moves = generics.SwapRemove(node.moves, i)
	t.debugCheckBoxCount(child, "move end")
	return child
}

// newEvaluate produces the terminal child: boxes that never moved revert to
// blocks, boxes pushed exactly once are dropped, the rest become goals at
// their final cells with fresh boxes at their origin cells, and the pusher is
// placed at the spawn. The result is the playable level.
func (t *Search) newEvaluate(node *Node) *Node {
	node.flags |= flagEvaluated
	child := t.newChild(node)
	child.flags |= flagTerminal

	grid := child.grid
	for i, pawn := range grid.Cells {
		if !pawn.IsBox() {
			continue
		}
		switch child.second[i] {
		case 0:
			grid.Cells[i] = state.Block
			child.boxCount--
			child.first[i] = invalidIndex
			child.second[i] = invalidIndex
		case 1:
			grid.Cells[i] = state.Empty
			child.boxCount--
			child.first[i] = invalidIndex
			child.second[i] = invalidIndex
		}
	}

	// Surviving boxes become goals at their final cells; the goal cell is
	// recorded on the box's origin so the scorer can pair them up.
	for i, pawn := range grid.Cells {
		if pawn.IsBox() {
			grid.Cells[i] = state.Goal
			child.second[child.first[i]] = uint8(i)
		}
	}

	// Fresh boxes at the origin cells.
	for i := range grid.Cells {
		if start := child.first[i]; start != invalidIndex {
			grid.Cells[start] = state.Box | grid.Cells[start].Bottom()
		}
	}

	// Pusher at the spawn.
	grid.Cells[t.startPosition] = state.Pusher | grid.Cells[t.startPosition].Bottom()
	t.debugCheckBoxCount(child, "evaluate")
	return child
}
