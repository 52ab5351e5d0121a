package domain

import "fmt"

// DefaultBoardSize is the edge length of the standard board.
const DefaultBoardSize = 20

// MinBoardSize keeps the four starting corners distinct.
const MinBoardSize = 2

var (
	orthogonalOffsets = [4]Point{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	diagonalOffsets   = [4]Point{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
)

// Board is the grid of cell ownership plus per-color opening state.
type Board struct {
	size         int
	cells        [][]Color
	started      [NumColors]bool
	firstCorners [NumColors]Point
}

// NewBoard creates an empty size x size board. Blue opens in the (0, size-1)
// corner and the other colors follow clockwise.
func NewBoard(size int) *Board {
	if size < MinBoardSize {
		panic(fmt.Sprintf("domain: board size %d below minimum %d", size, MinBoardSize))
	}
	cells := make([][]Color, size)
	for x := range cells {
		cells[x] = make([]Color, size)
	}
	last := size - 1
	return &Board{
		size:  size,
		cells: cells,
		firstCorners: [NumColors]Point{
			{0, last},
			{last, last},
			{last, 0},
			{0, 0},
		},
	}
}

// Size returns the board edge length.
func (b *Board) Size() int {
	return b.size
}

// IsOutOfBounds reports whether (x, y) lies outside the grid.
func (b *Board) IsOutOfBounds(x, y int) bool {
	return x < 0 || y < 0 || x >= b.size || y >= b.size
}

// ColorAt returns the owner of a cell. Out of bounds cells read as NoColor.
func (b *Board) ColorAt(x, y int) Color {
	if b.IsOutOfBounds(x, y) {
		return NoColor
	}
	return b.cells[x][y]
}

// FirstCorner returns the corner a color's opening piece must cover.
func (b *Board) FirstCorner(c Color) Point {
	return b.firstCorners[mustIndex(c)]
}

// Started reports whether a color has committed its opening piece.
func (b *Board) Started(c Color) bool {
	return b.started[mustIndex(c)]
}

// CanPlacePiece reports whether piece may be placed with its anchor at (x, y).
// It never mutates the board.
func (b *Board) CanPlacePiece(piece *Piece, x, y int) bool {
	if !b.Started(piece.Color()) {
		return b.IsLegalFirstMove(piece, x, y)
	}
	return b.ValidateMove(piece, x, y)
}

// IsLegalFirstMove checks an opening placement: every square in bounds and
// empty, and one square on the color's corner.
func (b *Board) IsLegalFirstMove(piece *Piece, x, y int) bool {
	corner := b.FirstCorner(piece.Color())
	touchesCorner := false
	for _, cell := range piece.Cells(Point{x, y}) {
		if b.IsOutOfBounds(cell.X, cell.Y) || b.cells[cell.X][cell.Y] != NoColor {
			return false
		}
		if cell == corner {
			touchesCorner = true
		}
	}
	return touchesCorner
}

// CommitFirstMove marks a color as started. It is one-way.
func (b *Board) CommitFirstMove(c Color) {
	b.started[mustIndex(c)] = true
}

// ValidateMove checks a placement after the opening: every square in bounds,
// on an empty cell and not edge-adjacent to its own color, and at least one
// square diagonally touching its own color.
func (b *Board) ValidateMove(piece *Piece, x, y int) bool {
	color := piece.Color()
	cornerTouch := false
	for _, cell := range piece.Cells(Point{x, y}) {
		if b.IsOutOfBounds(cell.X, cell.Y) || b.cells[cell.X][cell.Y] != NoColor {
			return false
		}
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if b.ColorAt(cell.X+dx, cell.Y+dy) != color {
					continue
				}
				if dx == 0 || dy == 0 {
					return false
				}
				cornerTouch = true
			}
		}
	}
	return cornerTouch
}

// PlacePiece writes the piece's color into every covered cell. The caller must
// have validated the placement; overwriting a cell panics.
func (b *Board) PlacePiece(piece *Piece, x, y int) {
	cells := piece.Cells(Point{x, y})
	for _, cell := range cells {
		if b.IsOutOfBounds(cell.X, cell.Y) {
			panic(fmt.Sprintf("domain: placing %s outside the board at %v", piece.Shape(), cell))
		}
		if b.cells[cell.X][cell.Y] != NoColor {
			panic(fmt.Sprintf("domain: cell %v already owned by %s", cell, b.cells[cell.X][cell.Y]))
		}
	}
	for _, cell := range cells {
		b.cells[cell.X][cell.Y] = piece.Color()
	}
}

// DiscoverNewAvailableMoves returns the diagonal neighbours of a just placed
// piece that could anchor a future placement of the same color. The result
// holds no duplicates.
func (b *Board) DiscoverNewAvailableMoves(piece *Piece, x, y int) []Point {
	color := piece.Color()
	seen := make(map[Point]struct{})
	var found []Point
	for _, cell := range piece.Cells(Point{x, y}) {
		for _, d := range diagonalOffsets {
			cand := cell.Add(d)
			if b.IsOutOfBounds(cand.X, cand.Y) || b.cells[cand.X][cand.Y] != NoColor {
				continue
			}
			if _, ok := seen[cand]; ok {
				continue
			}
			seen[cand] = struct{}{}
			if b.TouchesEdge(cand, color) {
				continue
			}
			found = append(found, cand)
		}
	}
	return found
}

// TouchesEdge reports whether any orthogonal neighbour of p is owned by c.
func (b *Board) TouchesEdge(p Point, c Color) bool {
	for _, d := range orthogonalOffsets {
		if b.ColorAt(p.X+d.X, p.Y+d.Y) == c {
			return true
		}
	}
	return false
}

// Cells returns a copy of the grid indexed [x][y].
func (b *Board) Cells() [][]Color {
	out := make([][]Color, b.size)
	for x := range b.cells {
		out[x] = append([]Color(nil), b.cells[x]...)
	}
	return out
}

// Rows renders the grid one string per row starting at y=0. Cells show the
// first letter of their color or '.'.
func (b *Board) Rows() []string {
	rows := make([]string, b.size)
	row := make([]byte, b.size)
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			if c := b.cells[x][y]; c == NoColor {
				row[x] = '.'
			} else {
				row[x] = c.String()[0]
			}
		}
		rows[y] = string(row)
	}
	return rows
}

// CountCells returns how many cells each color owns.
func (b *Board) CountCells() map[Color]int {
	counts := make(map[Color]int, NumColors)
	for x := range b.cells {
		for _, c := range b.cells[x] {
			if c != NoColor {
				counts[c]++
			}
		}
	}
	return counts
}

func mustIndex(c Color) int {
	idx := c.Index()
	if idx < 0 {
		panic(fmt.Sprintf("domain: invalid color %d", c))
	}
	return idx
}
