package domain

import (
	"fmt"
	"math"
)

// Rotation is a quarter-turn orientation.
type Rotation int8

const (
	Rotation0 Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// Rotations lists every orientation in counter-clockwise order.
var Rotations = [4]Rotation{Rotation0, Rotation90, Rotation180, Rotation270}

// Degrees returns the rotation in degrees.
func (r Rotation) Degrees() int {
	return int(r) * 90
}

// Radians returns the rotation in radians.
func (r Rotation) Radians() float64 {
	return float64(r) * math.Pi / 2
}

func (r Rotation) add(quarters int) Rotation {
	return Rotation(((int(r)+quarters)%4 + 4) % 4)
}

// pivotCeil holds, per unflipped rotation, whether PlaceAt rounds the X and Y
// cursor coordinates up. Flipping mirrors the X choice.
var pivotCeil = [4][2]bool{
	Rotation0:   {false, false},
	Rotation90:  {false, true},
	Rotation180: {true, true},
	Rotation270: {true, false},
}

// Piece is a polyomino owned by one color. Squares are relative to the anchor
// square, which is always squares[0] at (0, 0).
//
// The squares always equal mirror^flipped(rotate(rotation, canonical)), where
// mirror negates X. RotateLeft therefore turns the squares counter-clockwise
// on screen but moves the stored rotation backwards while flipped.
type Piece struct {
	shape    string
	color    Color
	squares  []Point
	flipped  bool
	rotation Rotation
	location Point
}

// NewPiece builds a piece from its canonical squares. The squares are
// translated so the first one becomes the anchor at the origin.
func NewPiece(color Color, shape string, squares []Point) *Piece {
	if len(squares) == 0 {
		panic(fmt.Sprintf("domain: piece %q has no squares", shape))
	}
	anchor := squares[0]
	out := make([]Point, len(squares))
	for i, sq := range squares {
		out[i] = sq.Sub(anchor)
	}
	return &Piece{shape: shape, color: color, squares: out}
}

// Clone returns an independent copy of p including its orientation.
func (p *Piece) Clone() *Piece {
	c := *p
	c.squares = append([]Point(nil), p.squares...)
	return &c
}

func (p *Piece) Shape() string      { return p.shape }
func (p *Piece) Color() Color       { return p.color }
func (p *Piece) NumSquares() int    { return len(p.squares) }
func (p *Piece) Flipped() bool      { return p.flipped }
func (p *Piece) Rotation() Rotation { return p.rotation }
func (p *Piece) Location() Point    { return p.location }

// SetLocation moves the anchor to a board cell.
func (p *Piece) SetLocation(loc Point) {
	p.location = loc
}

// Squares returns a copy of the current anchor-relative squares.
func (p *Piece) Squares() []Point {
	return append([]Point(nil), p.squares...)
}

// Cells returns the absolute board cells covered with the anchor at anchor.
func (p *Piece) Cells(anchor Point) []Point {
	cells := make([]Point, len(p.squares))
	for i, sq := range p.squares {
		cells[i] = anchor.Add(sq)
	}
	return cells
}

// RotateLeft turns the piece a quarter counter-clockwise.
func (p *Piece) RotateLeft() {
	p.turn(1)
}

// RotateRight turns the piece a quarter clockwise.
func (p *Piece) RotateRight() {
	p.turn(-1)
}

func (p *Piece) turn(quarters int) {
	p.rotateSquares(float64(quarters) * math.Pi / 2)
	if p.flipped {
		p.rotation = p.rotation.add(-quarters)
	} else {
		p.rotation = p.rotation.add(quarters)
	}
}

func (p *Piece) rotateSquares(angle float64) {
	for i, sq := range p.squares {
		p.squares[i] = sq.Rotate(angle)
	}
}

// Flip mirrors the piece about the anchor's vertical axis.
func (p *Piece) Flip() {
	p.flipped = !p.flipped
	for i := range p.squares {
		p.squares[i].X = -p.squares[i].X
	}
}

// Reset restores the canonical orientation.
func (p *Piece) Reset() {
	if p.flipped {
		p.Flip()
	}
	if p.rotation != Rotation0 {
		p.rotateSquares(-p.rotation.Radians())
		p.rotation = Rotation0
	}
}

// Orient resets the piece and applies the given orientation.
func (p *Piece) Orient(rotation Rotation, flipped bool) {
	p.Reset()
	if flipped {
		p.Flip()
	}
	for p.rotation != rotation {
		if flipped {
			p.RotateRight()
		} else {
			p.RotateLeft()
		}
	}
}

// PlaceAt converts a continuous cursor position in board units into the
// anchor cell, so the corner of the anchor square that currently faces the
// cursor lands under it.
func (p *Piece) PlaceAt(fx, fy float64) Point {
	ceil := pivotCeil[p.rotation]
	ceilX, ceilY := ceil[0], ceil[1]
	if p.flipped {
		ceilX = !ceilX
	}
	return Point{X: roundAxis(fx, ceilX), Y: roundAxis(fy, ceilY)}
}

func roundAxis(v float64, up bool) int {
	if up {
		return int(math.Ceil(v))
	}
	return int(math.Floor(v))
}
