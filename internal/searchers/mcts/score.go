package mcts

import (
	"github.com/gomlx/exceptions"

	"github.com/janpfeifer/sokogen/internal/state"
)

// Scoring weights. The congestion constants were fitted so the five example
// levels of the reference paper land on 0.4, 0.6, ..., 1.2 on a 5x5 board.
const (
	weightTopology   = 3.0
	weightCongestion = 7.0
	weightBoxes      = 8.0
	weightScale      = 55.0

	congestionAlpha = 1.9
	congestionBeta  = 0.1
	congestionGamma = 1.3
)

// areaScore is the topology term: the number of 3x3 windows containing both
// a block and a non-block cell, swept around every interior cell.
func areaScore(grid state.Grid) int {
	count := 0
	for y := 1; y < grid.Height-1; y++ {
		for x := 1; x < grid.Width-1; x++ {
			hasOpen, hasBlock := false, false
		window:
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					pawn := grid.At(x+dx, y+dy)
					hasOpen = hasOpen || !pawn.IsBlock()
					hasBlock = hasBlock || pawn.IsBlock()
					if hasOpen && hasBlock {
						count++
						break window
					}
				}
			}
		}
	}
	return count
}

// congestion is the geometric interference term: for every box, walk the
// axis-aligned bounding rectangle between its placement cell and its goal
// cell and weigh the boxes, goals and blocks found inside. The box's own
// cell and goal are not counted (the counters start at -1).
func congestion(node *Node, alpha, beta, gamma float64) float64 {
	grid := node.grid
	pc := 0.0
	for i, pawn := range grid.Cells {
		if !pawn.IsBox() {
			continue
		}
		goalIdx := int(node.second[i])
		if !grid.Cells[goalIdx].IsGoal() {
			exceptions.Panicf("mcts: box at %v has no recorded goal:\n%s", grid.Tile(i), grid)
		}
		if i == goalIdx {
			continue
		}
		box := grid.Tile(i)
		goal := grid.Tile(goalIdx)

		rect := goal.Sub(box)
		stepX, stepY := sign(rect.X), sign(rect.Y)
		countX := absInt(rect.X) + 1
		countY := absInt(rect.Y) + 1

		goalCount, boxCount, blockCount := -1, -1, 0
		tile := box
		for y := 0; y < countY; y++ {
			tile.X = box.X
			for x := 0; x < countX; x++ {
				cell := grid.AtPos(tile)
				if cell.IsGoal() {
					goalCount++
				}
				if cell.IsBox() {
					boxCount++
				} else if cell.IsBlock() {
					blockCount++
				}
				tile.X += stepX
			}
			tile.Y += stepY
		}

		area := float64(countX) * float64(countY)
		pc += (alpha*float64(boxCount) + beta*float64(goalCount)) /
			(gamma * (area - float64(blockCount)))
	}
	return pc
}

// scoreNode evaluates a terminal configuration. A terminal without boxes
// scores zero; otherwise the topology, congestion and box-count terms are
// combined and rescaled by 25/area so scores compare across grid sizes.
func (t *Search) scoreNode(node *Node) float64 {
	if !node.is(flagTerminal) {
		exceptions.Panicf("mcts: scoring a non-terminal node")
	}
	if node.boxCount <= 0 {
		return 0
	}
	pb := float64(areaScore(node.grid))
	pc := congestion(node, congestionAlpha, congestionBeta, congestionGamma)
	n := float64(node.boxCount)
	score := (weightTopology*pb + weightCongestion*pc + weightBoxes*n) / weightScale
	return score * t.scoreScale
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
