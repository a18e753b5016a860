// Package state models the Sokoban grid the generator builds levels on.
//
// Each cell is a single byte split in two layers: the lower 4 bits are the
// "ground" layer (empty or goal), the upper 4 bits are the "collision" layer
// (empty, pusher, box or block). Moves swap the collision layer between cells
// and leave the ground layer in place.
package state

import "github.com/gomlx/exceptions"

// Pawn is the content of one grid cell, both layers packed in one byte.
type Pawn uint8

const (
	// Empty is the zero Pawn: no ground marking, nothing on top.
	Empty Pawn = 0

	// Goal lives on the ground layer.
	Goal Pawn = 1 << 0

	// Pusher, Box and Block live on the collision layer.
	Pusher Pawn = 1 << 4
	Box    Pawn = 1 << 5
	Block  Pawn = 1 << 6

	PusherOnGoal = Pusher | Goal
	BoxOnGoal    = Box | Goal

	// Mover is anything that can be displaced by a move.
	Mover = Pusher | Box

	// Collision is anything occupying the top layer.
	Collision  = Pusher | Box | Block
	BoxOrBlock = Box | Block

	topMask Pawn = 0xF0
	botMask Pawn = 0x0F
)

// Top returns only the collision layer of the pawn.
func (p Pawn) Top() Pawn { return p & topMask }

// Bottom returns only the ground layer of the pawn.
func (p Pawn) Bottom() Pawn { return p & botMask }

func (p Pawn) IsEmpty() bool      { return p == 0 }
func (p Pawn) IsGoal() bool       { return p&Goal != 0 }
func (p Pawn) IsPusher() bool     { return p&Pusher != 0 }
func (p Pawn) IsBox() bool        { return p&Box != 0 }
func (p Pawn) IsBlock() bool      { return p&Block != 0 }
func (p Pawn) IsMover() bool      { return p&Mover != 0 }
func (p Pawn) IsBoxOrBlock() bool { return p&BoxOrBlock != 0 }

// HasCollision reports whether anything occupies the top layer.
func (p Pawn) HasCollision() bool { return p&Collision != 0 }

var (
	// pawnRunes maps the pawns that can appear on a well-formed grid to the
	// characters of the level text format.
	pawnRunes = map[Pawn]rune{
		Empty:        '-',
		Block:        'x',
		Box:          'c', // c ^= crate
		BoxOnGoal:    'C',
		Goal:         'g',
		Pusher:       'p',
		PusherOnGoal: 'P',
	}

	// RuneToPawn is the inverse mapping, used by the level parser.
	RuneToPawn = map[rune]Pawn{
		'-': Empty,
		'x': Block,
		'c': Box,
		'C': BoxOnGoal,
		'g': Goal,
		'p': Pusher,
		'P': PusherOnGoal,
	}
)

// Rune returns the text-format character for the pawn.
func (p Pawn) Rune() rune {
	r, ok := pawnRunes[p]
	if !ok {
		exceptions.Panicf("state: pawn %#x has no text representation", uint8(p))
	}
	return r
}

func (p Pawn) String() string { return string(p.Rune()) }

// Direction of a move or push.
type Direction uint8

const (
	Up Direction = iota
	Right
	Down
	Left
	NumDirections
)

var directionNames = [NumDirections]string{"Up", "Right", "Down", "Left"}

// directionVecs indexed by Direction, y grows downwards.
var directionVecs = [NumDirections]Pos{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// Vec returns the unit step of the direction.
func (d Direction) Vec() Pos { return directionVecs[d] }

func (d Direction) String() string {
	if d >= NumDirections {
		return "Direction(?)"
	}
	return directionNames[d]
}

// DirectionOf returns the direction whose unit step is v.
// v must be one of the four axis-aligned unit vectors.
func DirectionOf(v Pos) Direction {
	for d := Up; d < NumDirections; d++ {
		if directionVecs[d] == v {
			return d
		}
	}
	exceptions.Panicf("state: %v is not a unit direction", v)
	return NumDirections
}
