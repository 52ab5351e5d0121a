package internal

import (
	"sort"

	"blockus/internal/domain"
)

// GetValidMoves returns every distinct legal placement for player, largest
// pieces first. Within a piece size the search order is kept.
func GetValidMoves(board *domain.Board, player *domain.Player) []domain.Move {
	if board == nil || player == nil || !player.StillPlaying() {
		return nil
	}
	moves := player.LegalMoves(board)
	sort.SliceStable(moves, func(i, j int) bool {
		return len(moves[i].Cells) > len(moves[j].Cells)
	})
	return moves
}

// NewCorners lists the cells that would become candidate anchors for color
// after placing cells: empty diagonal neighbours that share no edge with the
// color or with the placement itself.
func NewCorners(board *domain.Board, color domain.Color, cells []domain.Point) []domain.Point {
	placed := make(map[domain.Point]bool, len(cells))
	for _, c := range cells {
		placed[c] = true
	}
	sharesEdge := func(p domain.Point) bool {
		if board.TouchesEdge(p, color) {
			return true
		}
		for _, d := range orthogonal {
			if placed[p.Add(d)] {
				return true
			}
		}
		return false
	}

	seen := make(map[domain.Point]bool)
	var out []domain.Point
	for _, c := range cells {
		for _, d := range diagonal {
			p := c.Add(d)
			if seen[p] || placed[p] || board.IsOutOfBounds(p.X, p.Y) || board.ColorAt(p.X, p.Y) != domain.NoColor {
				continue
			}
			seen[p] = true
			if !sharesEdge(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// LostCorners counts the player's candidate cells a placement would cover or
// border along an edge.
func LostCorners(player *domain.Player, cells []domain.Point) int {
	seen := make(map[domain.Point]bool)
	lost := 0
	check := func(p domain.Point) {
		if seen[p] {
			return
		}
		seen[p] = true
		if player.HasAvailableMove(p) {
			lost++
		}
	}
	for _, c := range cells {
		check(c)
		for _, d := range orthogonal {
			check(c.Add(d))
		}
	}
	return lost
}

// DeniedCorners counts opponent candidate cells a placement would occupy.
func DeniedCorners(opponents []*domain.Player, cells []domain.Point) int {
	denied := 0
	for _, opp := range opponents {
		if opp == nil || !opp.StillPlaying() {
			continue
		}
		for _, c := range cells {
			if opp.HasAvailableMove(c) {
				denied++
			}
		}
	}
	return denied
}

var (
	orthogonal = []domain.Point{{X: 0, Y: -1}, {X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	diagonal   = []domain.Point{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: 1, Y: 1}}
)
