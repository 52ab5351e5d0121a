package domain

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// NoSelection is the current piece index when nothing is selected.
const NoSelection = -1

// Move is a concrete placement: a pool piece in an orientation at an anchor.
type Move struct {
	PieceIndex int
	Shape      string
	Rotation   Rotation
	Flipped    bool
	Anchor     Point
	Cells      []Point
}

// Player holds one color's pool, score and candidate anchor cells.
type Player struct {
	name         string
	color        Color
	score        int
	stillPlaying bool
	resigned     bool

	pool           []*Piece
	placed         []*Piece
	current        int
	lastPlacedSize int

	// moves[x][y] marks a candidate anchor cell; moveCount is the live count.
	moves     [][]bool
	moveCount int
}

// NewPlayer creates an active player owning pieces on a boardSize board.
func NewPlayer(name string, color Color, boardSize int, pieces []*Piece) *Player {
	pool := append([]*Piece(nil), pieces...)
	for _, pc := range pool {
		if pc.Color() != color {
			panic(fmt.Sprintf("domain: %s piece %s given to %s player", pc.Color(), pc.Shape(), color))
		}
	}
	SortPieces(pool)
	moves := make([][]bool, boardSize)
	for x := range moves {
		moves[x] = make([]bool, boardSize)
	}
	return &Player{
		name:         name,
		color:        color,
		stillPlaying: true,
		pool:         pool,
		current:      NoSelection,
		moves:        moves,
	}
}

func (p *Player) Name() string        { return p.name }
func (p *Player) Color() Color        { return p.color }
func (p *Player) Score() int          { return p.score }
func (p *Player) StillPlaying() bool  { return p.stillPlaying }
func (p *Player) Resigned() bool      { return p.resigned }
func (p *Player) PoolSize() int       { return len(p.pool) }
func (p *Player) CurrentIndex() int   { return p.current }
func (p *Player) LastPlacedSize() int { return p.lastPlacedSize }

// Pool returns the unplaced pieces, smallest first.
func (p *Player) Pool() []*Piece {
	return append([]*Piece(nil), p.pool...)
}

// Placed returns the placed pieces in placement order.
func (p *Player) Placed() []*Piece {
	return append([]*Piece(nil), p.placed...)
}

// CurrentPiece returns the selected piece or nil.
func (p *Player) CurrentPiece() *Piece {
	if p.current == NoSelection {
		return nil
	}
	return p.pool[p.current]
}

// SetCurrentPiece selects a pool piece. The previous selection is reset to its
// canonical orientation; an out of range index clears the selection.
func (p *Player) SetCurrentPiece(index int) {
	if prev := p.CurrentPiece(); prev != nil {
		prev.Reset()
	}
	if index < 0 || index >= len(p.pool) {
		p.current = NoSelection
		return
	}
	p.current = index
}

// RotateLeft turns the selection counter-clockwise. It reports whether a
// piece was selected.
func (p *Player) RotateLeft() bool {
	return p.withCurrent((*Piece).RotateLeft)
}

// RotateRight turns the selection clockwise.
func (p *Player) RotateRight() bool {
	return p.withCurrent((*Piece).RotateRight)
}

// Flip mirrors the selection.
func (p *Player) Flip() bool {
	return p.withCurrent((*Piece).Flip)
}

func (p *Player) withCurrent(fn func(*Piece)) bool {
	pc := p.CurrentPiece()
	if pc == nil {
		return false
	}
	fn(pc)
	return true
}

// MoveCurrentPiece stages the selection under a cursor position and returns
// the anchor cell it snapped to.
func (p *Player) MoveCurrentPiece(fx, fy float64) (Point, bool) {
	pc := p.CurrentPiece()
	if pc == nil {
		return Point{}, false
	}
	loc := pc.PlaceAt(fx, fy)
	pc.SetLocation(loc)
	return loc, true
}

// PlaceCurrentPiece moves the selection from the pool to the placed pieces and
// scores it. Board bookkeeping is the caller's job.
func (p *Player) PlaceCurrentPiece() (*Piece, error) {
	pc := p.CurrentPiece()
	if pc == nil {
		return nil, ErrNoPieceSelected
	}
	// slices.Delete keeps the pool's ascending order.
	p.pool = slices.Delete(p.pool, p.current, p.current+1)
	p.placed = append(p.placed, pc)
	p.score += pc.NumSquares()
	p.lastPlacedSize = pc.NumSquares()
	p.current = NoSelection
	return pc, nil
}

// AddNewAvailableMoves inserts candidate anchor cells, ignoring duplicates and
// cells outside the grid.
func (p *Player) AddNewAvailableMoves(points []Point) {
	for _, pt := range points {
		if !p.inGrid(pt) || p.moves[pt.X][pt.Y] {
			continue
		}
		p.moves[pt.X][pt.Y] = true
		p.moveCount++
	}
}

// RemoveAvailableMove clears a candidate cell if present.
func (p *Player) RemoveAvailableMove(pt Point) {
	if !p.inGrid(pt) || !p.moves[pt.X][pt.Y] {
		return
	}
	p.moves[pt.X][pt.Y] = false
	p.moveCount--
}

// HasAvailableMove reports whether pt is a candidate anchor cell.
func (p *Player) HasAvailableMove(pt Point) bool {
	return p.inGrid(pt) && p.moves[pt.X][pt.Y]
}

// AvailableMoveCount is the live number of candidate cells.
func (p *Player) AvailableMoveCount() int {
	return p.moveCount
}

// AvailableMoves lists candidate cells ordered by X then Y.
func (p *Player) AvailableMoves() []Point {
	out := make([]Point, 0, p.moveCount)
	for x := range p.moves {
		for y, ok := range p.moves[x] {
			if ok {
				out = append(out, Point{x, y})
			}
		}
	}
	return out
}

func (p *Player) inGrid(pt Point) bool {
	return pt.X >= 0 && pt.Y >= 0 && pt.X < len(p.moves) && pt.Y < len(p.moves)
}

// DetermineIfStillPlaying re-evaluates whether the player can still move and
// eliminates them when they cannot. Elimination is final.
func (p *Player) DetermineIfStillPlaying(board *Board) bool {
	if !p.stillPlaying {
		return false
	}
	if len(p.pool) == 0 || p.moveCount == 0 {
		p.finish()
		return false
	}
	// Every live candidate cell is empty, diagonal to the player's color and
	// clear of its edges, so a monomino always fits one.
	if p.pool[0].NumSquares() == 1 {
		return true
	}
	if _, ok := p.FindMove(board); ok {
		return true
	}
	p.finish()
	return false
}

func (p *Player) finish() {
	p.stillPlaying = false
	if p.lastPlacedSize == 1 {
		p.score *= 2
	}
}

// Resign eliminates the player without the monomino bonus.
func (p *Player) Resign() {
	if !p.stillPlaying {
		return
	}
	p.resigned = true
	p.stillPlaying = false
}

// FindMove searches for any legal placement, trying each candidate cell, pool
// piece, piece square, flip and rotation in turn. Pool pieces keep their
// orientation.
func (p *Player) FindMove(board *Board) (Move, bool) {
	var found Move
	ok := false
	p.searchMoves(board, func(m Move) bool {
		found, ok = m, true
		return false
	})
	return found, ok
}

// LegalMoves enumerates every distinct legal placement.
func (p *Player) LegalMoves(board *Board) []Move {
	type key struct {
		piece     int
		footprint string
	}
	seen := make(map[key]struct{})
	var moves []Move
	p.searchMoves(board, func(m Move) bool {
		k := key{piece: m.PieceIndex, footprint: footprint(m.Cells)}
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		moves = append(moves, m)
		return true
	})
	return moves
}

func (p *Player) searchMoves(board *Board, yield func(Move) bool) {
	for _, cell := range p.AvailableMoves() {
		for i, orig := range p.pool {
			pc := orig.Clone()
			for s := 0; s < pc.NumSquares(); s++ {
				for _, flipped := range [2]bool{false, true} {
					for _, rot := range Rotations {
						pc.Orient(rot, flipped)
						anchor := cell.Sub(pc.squares[s])
						if !board.CanPlacePiece(pc, anchor.X, anchor.Y) {
							continue
						}
						m := Move{
							PieceIndex: i,
							Shape:      pc.Shape(),
							Rotation:   rot,
							Flipped:    flipped,
							Anchor:     anchor,
							Cells:      pc.Cells(anchor),
						}
						if !yield(m) {
							return
						}
					}
				}
			}
		}
	}
}

func footprint(cells []Point) string {
	sorted := append([]Point(nil), cells...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})
	var sb strings.Builder
	for _, c := range sorted {
		fmt.Fprintf(&sb, "%d,%d;", c.X, c.Y)
	}
	return sb.String()
}
