package state

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
)

// Pos packages an x, y cell coordinate. The origin is the top-left corner,
// y grows downwards.
type Pos struct {
	X, Y int
}

// Add returns pos shifted by other.
func (pos Pos) Add(other Pos) Pos { return Pos{pos.X + other.X, pos.Y + other.Y} }

// Sub returns pos minus other.
func (pos Pos) Sub(other Pos) Pos { return Pos{pos.X - other.X, pos.Y - other.Y} }

// Scale returns pos multiplied by f on both axes.
func (pos Pos) Scale(f int) Pos { return Pos{pos.X * f, pos.Y * f} }

// Distance returns the manhattan distance of two positions.
func (pos Pos) Distance(other Pos) int {
	return absInt(pos.X-other.X) + absInt(pos.Y-other.Y)
}

func (pos Pos) String() string { return fmt.Sprintf("(%d, %d)", pos.X, pos.Y) }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Grid is a rectangular two-layer tile map. Cells are indexed row-major,
// index = y*Width + x. Width is also the stride.
type Grid struct {
	Width, Height int
	Cells         []Pawn
}

// NewGrid returns a grid of the given size with every cell Empty.
func NewGrid(width, height int) Grid {
	return Grid{Width: width, Height: height, Cells: make([]Pawn, width*height)}
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	cells := make([]Pawn, len(g.Cells))
	copy(cells, g.Cells)
	return Grid{Width: g.Width, Height: g.Height, Cells: cells}
}

// CloneInto deep-copies the grid using cells as backing storage, which must
// have length g.Count(). Used by rollouts to keep clones inside the arena.
func (g Grid) CloneInto(cells []Pawn) Grid {
	copy(cells, g.Cells)
	return Grid{Width: g.Width, Height: g.Height, Cells: cells}
}

// Count returns the number of cells.
func (g Grid) Count() int { return g.Width * g.Height }

// InGrid reports whether (x, y) is inside the grid.
func (g Grid) InGrid(x, y int) bool {
	return 0 <= x && x < g.Width && 0 <= y && y < g.Height
}

// Index converts a coordinate to a cell index.
func (g Grid) Index(x, y int) int { return g.Width*y + x }

// IndexOf converts a position to a cell index.
func (g Grid) IndexOf(pos Pos) int { return g.Width*pos.Y + pos.X }

// Tile converts a cell index back to a coordinate.
func (g Grid) Tile(index int) Pos {
	y := index / g.Width
	return Pos{X: index - y*g.Width, Y: y}
}

// At returns the pawn at (x, y).
func (g Grid) At(x, y int) Pawn { return g.Cells[g.Width*y+x] }

// AtPos returns the pawn at pos.
func (g Grid) AtPos(pos Pos) Pawn { return g.Cells[g.Width*pos.Y+pos.X] }

// Set places pawn at (x, y), both layers.
func (g Grid) Set(x, y int, pawn Pawn) { g.Cells[g.Width*y+x] = pawn }

// SwapTopLayer exchanges the collision layers of cells a and b, keeping the
// ground layers where they are.
func (g Grid) SwapTopLayer(a, b int) {
	first, second := g.Cells[a], g.Cells[b]
	g.Cells[a] = second.Top() | first.Bottom()
	g.Cells[b] = first.Top() | second.Bottom()
}

// PusherPosition returns the position of the pusher.
// The grid must contain one; grids under construction track the pusher by
// index instead and never call this.
func (g Grid) PusherPosition() Pos {
	for i, pawn := range g.Cells {
		if pawn.IsPusher() {
			return g.Tile(i)
		}
	}
	exceptions.Panicf("state: grid has no pusher:\n%s", g)
	return Pos{}
}

// IsSolved reports whether every box sits on a goal. Only used when replaying
// a level, not during generation.
func (g Grid) IsSolved() bool {
	for _, pawn := range g.Cells {
		if pawn.IsBox() && !pawn.IsGoal() {
			return false
		}
	}
	return true
}

// BoxCount returns the number of cells whose top layer is a box.
func (g Grid) BoxCount() int {
	count := 0
	for _, pawn := range g.Cells {
		if pawn.IsBox() {
			count++
		}
	}
	return count
}

// BlockCount returns the number of block cells.
func (g Grid) BlockCount() int {
	count := 0
	for _, pawn := range g.Cells {
		if pawn.IsBlock() {
			count++
		}
	}
	return count
}

// RemoveGoalsAndPusher strips the ground layer everywhere and removes the
// pusher, leaving only boxes and blocks. Used to turn a finished level back
// into a construction state for bootstrapping.
func (g Grid) RemoveGoalsAndPusher() {
	for i, pawn := range g.Cells {
		top := pawn.Top()
		if top.IsPusher() {
			g.Cells[i] = Empty
		} else {
			g.Cells[i] = top
		}
	}
}

// PawnMove tries to move the mover at (x, y) one cell in the given direction,
// pushing at most one box. It returns whether the grid changed.
func (g Grid) PawnMove(x, y int, d Direction) bool {
	return g.pawnMoveVec(x, y, d.Vec())
}

func (g Grid) pawnMoveVec(x, y int, v Pos) bool {
	to := Pos{x + v.X, y + v.Y}
	if !g.InGrid(to.X, to.Y) {
		return false
	}
	self := g.At(x, y)
	other := g.AtPos(to)
	if other.IsBlock() {
		return false
	}
	if !other.HasCollision() {
		// Simple move: our top layer travels, both ground layers stay.
		g.SwapTopLayer(g.Index(x, y), g.IndexOf(to))
		return true
	}
	// Only the pusher may push, and only a single box.
	if !self.IsPusher() || !other.IsBox() {
		return false
	}
	if !g.pawnMoveVec(to.X, to.Y, v) {
		return false
	}
	g.SwapTopLayer(g.Index(x, y), g.IndexOf(to))
	return true
}

// CanMove reports whether a mover at (x, y) could move in direction d,
// counting a legal single-box push as movable.
func (g Grid) CanMove(x, y int, d Direction) bool {
	v := d.Vec()
	to := Pos{x + v.X, y + v.Y}
	if !g.InGrid(to.X, to.Y) {
		return false
	}
	other := g.AtPos(to)
	if other.IsBlock() {
		return false
	}
	if !other.HasCollision() {
		return true
	}
	pushTo := to.Add(v)
	return g.InGrid(pushTo.X, pushTo.Y) && !g.AtPos(pushTo).HasCollision()
}

// CouldMoveFrom treats (x, y) as a virtual pusher (whatever the cell holds)
// and reports whether a move in direction d would be legal: the target must
// be in-grid and not a block, and a box there must have a free cell behind it.
func (g Grid) CouldMoveFrom(x, y int, d Direction) bool {
	v := d.Vec()
	to := Pos{x + v.X, y + v.Y}
	if !g.InGrid(to.X, to.Y) {
		return false
	}
	other := g.AtPos(to)
	if other.IsBlock() {
		return false
	}
	if !other.IsBox() {
		return true
	}
	pushTo := to.Add(v)
	return g.InGrid(pushTo.X, pushTo.Y) && !g.AtPos(pushTo).IsBoxOrBlock()
}

// String renders the grid in the level text format, one row per line.
func (g Grid) String() string {
	var sb strings.Builder
	sb.Grow(g.Count() + g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			sb.WriteRune(g.At(x, y).Rune())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
