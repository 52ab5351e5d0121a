package domain

import (
	"fmt"
	"sort"
)

// ShapeDef is the canonical footprint of one of the 21 polyominoes.
type ShapeDef struct {
	Name    string
	Squares []Point
}

// Shapes lists every polyomino a color receives, smallest first.
var Shapes = []ShapeDef{
	{Name: "I1", Squares: []Point{{0, 0}}},
	{Name: "I2", Squares: []Point{{0, 0}, {1, 0}}},
	{Name: "I3", Squares: []Point{{0, 0}, {1, 0}, {2, 0}}},
	{Name: "V3", Squares: []Point{{0, 0}, {1, 0}, {0, 1}}},
	{Name: "I4", Squares: []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}}},
	{Name: "O4", Squares: []Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}}},
	{Name: "T4", Squares: []Point{{0, 0}, {1, 0}, {2, 0}, {1, 1}}},
	{Name: "L4", Squares: []Point{{0, 0}, {1, 0}, {2, 0}, {0, 1}}},
	{Name: "Z4", Squares: []Point{{0, 0}, {1, 0}, {1, 1}, {2, 1}}},
	{Name: "I5", Squares: []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}},
	{Name: "L5", Squares: []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {0, 1}}},
	{Name: "Y5", Squares: []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {1, 1}}},
	{Name: "N5", Squares: []Point{{0, 0}, {1, 0}, {2, 0}, {2, 1}, {3, 1}}},
	{Name: "P5", Squares: []Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}}},
	{Name: "U5", Squares: []Point{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {2, 1}}},
	{Name: "V5", Squares: []Point{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {0, 2}}},
	{Name: "W5", Squares: []Point{{0, 0}, {1, 0}, {1, 1}, {2, 1}, {2, 2}}},
	{Name: "Z5", Squares: []Point{{0, 0}, {1, 0}, {1, 1}, {1, 2}, {2, 2}}},
	{Name: "T5", Squares: []Point{{0, 0}, {1, 0}, {2, 0}, {1, 1}, {1, 2}}},
	{Name: "F5", Squares: []Point{{0, 0}, {1, 0}, {-1, 1}, {0, 1}, {0, 2}}},
	{Name: "X5", Squares: []Point{{0, 0}, {-1, 1}, {0, 1}, {1, 1}, {0, 2}}},
}

// TotalSquares is the number of squares in one color's full set.
const TotalSquares = 89

// NewPieceSet builds the 21 pieces of one color, sorted smallest to largest.
func NewPieceSet(color Color) []*Piece {
	pieces := make([]*Piece, 0, len(Shapes))
	for _, def := range Shapes {
		pieces = append(pieces, NewPiece(color, def.Name, def.Squares))
	}
	SortPieces(pieces)
	return pieces
}

// NewShapePiece builds a single piece by shape name. Unknown names panic.
func NewShapePiece(color Color, name string) *Piece {
	for _, def := range Shapes {
		if def.Name == name {
			return NewPiece(color, def.Name, def.Squares)
		}
	}
	panic(fmt.Sprintf("domain: unknown shape %q", name))
}

// SortPieces orders pieces by ascending square count, keeping ties stable.
func SortPieces(pieces []*Piece) {
	sort.SliceStable(pieces, func(i, j int) bool {
		return pieces[i].NumSquares() < pieces[j].NumSquares()
	})
}
